package landedcost

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-importa/internal/common"
	"github.com/noah-isme/backend-importa/internal/purchase"
)

// Handler exposes the per-order cost report endpoint.
type Handler struct {
	Svc *Service
}

// Routes mounts the cost endpoints on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/orders/{orderId}/costs", h.GetReport)
}

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "orderId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	report, err := h.Svc.Report(r.Context(), id)
	if err != nil {
		if errors.Is(err, purchase.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to compute landed costs", nil)
		return
	}
	common.JSON(w, http.StatusOK, report)
}
