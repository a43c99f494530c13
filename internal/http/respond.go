package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/fjod/go_storefront/internal/analytics"
	"github.com/fjod/go_storefront/internal/cart"
	"github.com/fjod/go_storefront/internal/catalog"
	"github.com/fjod/go_storefront/internal/lifecycle"
	"github.com/fjod/go_storefront/internal/orders"
	"github.com/fjod/go_storefront/internal/service"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError maps domain errors to HTTP statuses. Anything unknown is a
// 500 and its text is not echoed to the client.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	var code string

	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		status, code = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, service.ErrForbidden):
		status, code = http.StatusForbidden, "forbidden"
	case errors.Is(err, orders.ErrOrderNotFound):
		status, code = http.StatusNotFound, "order_not_found"
	case errors.Is(err, catalog.ErrProductNotFound):
		status, code = http.StatusNotFound, "product_not_found"
	case errors.Is(err, cart.ErrInvalidQuantity):
		status, code = http.StatusBadRequest, "invalid_quantity"
	case errors.Is(err, service.ErrInvalidVariant):
		status, code = http.StatusBadRequest, "invalid_variant"
	case errors.Is(err, service.ErrInvalidAddress):
		status, code = http.StatusBadRequest, "invalid_address"
	case errors.Is(err, analytics.ErrAggregationInput):
		status, code = http.StatusBadRequest, "invalid_window"
	case errors.Is(err, service.ErrInsufficientStock):
		status, code = http.StatusConflict, "insufficient_stock"
	case errors.Is(err, service.ErrEmptyCart):
		status, code = http.StatusConflict, "empty_cart"
	case errors.Is(err, lifecycle.ErrIllegalTransition):
		status, code = http.StatusConflict, "illegal_transition"
	case errors.Is(err, lifecycle.ErrPaymentNotSettled):
		status, code = http.StatusConflict, "payment_not_settled"
	case errors.Is(err, orders.ErrDuplicateID):
		status, code = http.StatusConflict, "already_exists"
	case errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusGatewayTimeout, "timeout"
	default:
		loggerFrom(r.Context()).Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondError(w, status, code, err.Error())
}
