package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fjod/go_storefront/internal/domain"
)

type OrdersHandler struct {
	orders  OrdersAPI
	timeout time.Duration
}

func NewOrdersHandler(orders OrdersAPI, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{orders: orders, timeout: timeout}
}

type UpdateStatusRequestDTO struct {
	Status string `json:"status"`
}

type UpdatePaymentRequestDTO struct {
	PaymentStatus string `json:"payment_status"`
}

// GET /api/v1/orders
func (h *OrdersHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	list, err := h.orders.ListMyOrders(ctx, principalFrom(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(list))
}

// GET /api/v1/orders/{id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	o, err := h.orders.GetOrder(ctx, principalFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

// GET /api/v1/admin/orders?from=2026-03-01&to=2026-04-01
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	from, err := parseTimeParam(r, "from")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_from", err.Error())
		return
	}
	to, err := parseTimeParam(r, "to")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_to", err.Error())
		return
	}

	list, err := h.orders.ListOrders(ctx, principalFrom(r.Context()), from, to)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(list))
}

// PATCH /api/v1/admin/orders/{id}/status
func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdateStatusRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	next, err := domain.ParseOrderStatus(req.Status)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_status", err.Error())
		return
	}

	o, err := h.orders.UpdateStatus(ctx, principalFrom(r.Context()), chi.URLParam(r, "id"), next)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

// PATCH /api/v1/admin/orders/{id}/payment
func (h *OrdersHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdatePaymentRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	next, err := domain.ParsePaymentStatus(req.PaymentStatus)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_payment_status", err.Error())
		return
	}

	o, err := h.orders.UpdatePayment(ctx, principalFrom(r.Context()), chi.URLParam(r, "id"), next)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

// GET /api/v1/admin/orders/{id}/transitions
func (h *OrdersHandler) NextStates(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	next, err := h.orders.NextStates(ctx, principalFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, next)
}

// parseTimeParam accepts RFC 3339 or a bare YYYY-MM-DD (UTC midnight). Absent
// means unbounded.
func parseTimeParam(r *http.Request, name string) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, v)
}

func nonNil(list []*domain.Order) []*domain.Order {
	if list == nil {
		return []*domain.Order{}
	}
	return list
}
