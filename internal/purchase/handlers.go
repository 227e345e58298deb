package purchase

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-importa/internal/allocation"
	"github.com/noah-isme/backend-importa/internal/common"
)

// Handler exposes the order intake and transaction log endpoints.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

// Routes mounts the purchase endpoints on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/orders", h.CreateOrder)
	r.Get("/orders", h.ListOrders)
	r.Get("/orders/{orderId}", h.GetOrder)
	r.Patch("/orders/{orderId}", h.AmendOrder)
	r.Post("/orders/{orderId}/payments", h.RecordPayment)
	r.Post("/orders/{orderId}/expenses", h.RecordExpense)
	r.Post("/orders/{orderId}/receipts", h.RecordReceipt)
	r.Get("/config/distribution", h.ListDistributionRules)
	r.Put("/config/distribution/{expenseType}", h.SetDistributionRule)
}

func (h *Handler) decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	if h.Validate != nil {
		return h.Validate.Struct(v)
	}
	return nil
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var in CreateOrderInput
	if err := h.decode(r, &in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	order, err := h.Svc.CreateOrder(r.Context(), in)
	if err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_ORDER", err.Error(), nil)
		return
	}
	common.JSON(w, http.StatusCreated, order)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 20)
	if perPage > 100 {
		perPage = 100
	}
	offset := int32((page - 1) * perPage)
	orders, err := h.Svc.Store.ListOrders(r.Context(), int32(perPage), offset)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list orders", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": orders,
		"pagination": common.Pagination{
			Page:    page,
			PerPage: perPage,
		},
	})
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "orderId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	order, err := h.Svc.Store.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order", nil)
		return
	}
	common.JSON(w, http.StatusOK, order)
}

func (h *Handler) AmendOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "orderId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	var in AmendOrderInput
	if err := h.decode(r, &in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	if err := h.Svc.AmendOrder(r.Context(), id, in); err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to amend order", nil)
		return
	}
	order, err := h.Svc.Store.GetOrder(r.Context(), id)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order", nil)
		return
	}
	common.JSON(w, http.StatusOK, order)
}

func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "orderId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	var in RecordPaymentInput
	if err := h.decode(r, &in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	payment, err := h.Svc.RecordPayment(r.Context(), id, in)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_PAYMENT", err.Error(), nil)
		return
	}
	common.JSON(w, http.StatusCreated, payment)
}

func (h *Handler) RecordExpense(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "orderId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	var in RecordExpenseInput
	if err := h.decode(r, &in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	expense, err := h.Svc.RecordExpense(r.Context(), id, in)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_EXPENSE", err.Error(), nil)
		return
	}
	common.JSON(w, http.StatusCreated, expense)
}

func (h *Handler) RecordReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "orderId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	var in RecordReceiptInput
	if err := h.decode(r, &in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	receipt, err := h.Svc.RecordReceipt(r.Context(), id, in)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_RECEIPT", err.Error(), nil)
		return
	}
	common.JSON(w, http.StatusCreated, receipt)
}

func (h *Handler) ListDistributionRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.Svc.Store.ListDistributionRules(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list distribution rules", nil)
		return
	}
	if rules == nil {
		rules = []DistributionRule{}
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":    rules,
		"methods": allocation.Methods(),
	})
}

func (h *Handler) SetDistributionRule(w http.ResponseWriter, r *http.Request) {
	expenseType := chi.URLParam(r, "expenseType")
	if expenseType == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "expense type required", nil)
		return
	}
	var in struct {
		Method string `json:"method" validate:"required"`
	}
	if err := h.decode(r, &in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	rule, err := h.Svc.SetDistributionRule(r.Context(), expenseType, in.Method)
	if err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_METHOD", err.Error(), nil)
		return
	}
	common.JSON(w, http.StatusOK, rule)
}
