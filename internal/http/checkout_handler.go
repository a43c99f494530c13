package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fjod/go_storefront/internal/service"
)

type CheckoutHandler struct {
	checkout CheckoutAPI
	timeout  time.Duration
}

func NewCheckoutHandler(checkout CheckoutAPI, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, timeout: timeout}
}

// POST /api/v1/checkout
// Responds 201 with the order; side effects that failed after the order was
// stored are listed under "warnings".
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if _, ok := requireUser(w, r); !ok {
		return
	}

	var req service.PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	res, err := h.checkout.PlaceOrder(ctx, principalFrom(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, res)
}
