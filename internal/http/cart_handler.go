package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/service"
)

type CartHandler struct {
	carts   CartAPI
	timeout time.Duration
}

func NewCartHandler(carts CartAPI, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:   carts,
		timeout: timeout,
	}
}

type UpdateQuantityRequestDTO struct {
	Size     string `json:"size"`
	Color    string `json:"color"`
	Quantity int    `json:"quantity"`
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	summary, err := h.carts.Summary(ctx, userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req service.AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	c, err := h.carts.AddItem(ctx, userID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

// PUT /api/v1/cart/items/{product_id}
// A quantity of zero removes the line.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity < 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 0 and 99")
		return
	}

	key := domain.VariantKey{ProductID: chi.URLParam(r, "product_id"), Size: req.Size, Color: req.Color}
	c, err := h.carts.UpdateQuantity(ctx, userID, key, req.Quantity)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// DELETE /api/v1/cart/items/{product_id}?size=M&color=Red
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	key := domain.VariantKey{ProductID: chi.URLParam(r, "product_id"), Size: q.Get("size"), Color: q.Get("color")}
	c, err := h.carts.RemoveItem(ctx, userID, key)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.carts.ClearCart(ctx, userID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := principalFrom(r.Context()).UserID
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return "", false
	}
	return userID, true
}
