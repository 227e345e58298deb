package portfolio

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-importa/internal/common"
	"github.com/noah-isme/backend-importa/internal/purchase"
)

// Handler exposes the portfolio dashboard endpoints.
type Handler struct {
	Svc *Service
}

// Routes mounts the portfolio endpoints on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/portfolio/overview", h.Overview)
	r.Get("/portfolio/transactions", h.Transactions)
}

func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.Svc.Overview(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to build portfolio overview", nil)
		return
	}
	common.JSON(w, http.StatusOK, overview)
}

func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	limit := common.AtoiDefault(r.URL.Query().Get("limit"), 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	feed, err := h.Svc.Transactions(r.Context(), int32(limit))
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list transactions", nil)
		return
	}
	if feed == nil {
		feed = []purchase.Transaction{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": feed})
}
