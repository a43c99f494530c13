package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type RouterConfig struct {
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	Logger             *zap.Logger
}

type Handlers struct {
	Products  *ProductHandler
	Cart      *CartHandler
	Checkout  *CheckoutHandler
	Orders    *OrdersHandler
	Analytics *AnalyticsHandler
}

func NewRouter(cfg RouterConfig, h Handlers) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(cfg.Logger))
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.RequestSize(cfg.MaxRequestBodySize))
	r.Use(middleware.Compress(5))
	r.Use(PrincipalMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.Products.List)
			r.Get("/{id}", h.Products.Get)
		})
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.Cart.GetCart)
			r.Delete("/", h.Cart.ClearCart)
			r.Post("/items", h.Cart.AddItem)
			r.Put("/items/{product_id}", h.Cart.UpdateQuantity)
			r.Delete("/items/{product_id}", h.Cart.RemoveItem)
		})
		r.Post("/checkout", h.Checkout.PlaceOrder)
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.Orders.ListMyOrders)
			r.Get("/{id}", h.Orders.GetOrder)
		})
		r.Route("/admin", func(r chi.Router) {
			r.Get("/orders", h.Orders.ListOrders)
			r.Patch("/orders/{id}/status", h.Orders.UpdateStatus)
			r.Patch("/orders/{id}/payment", h.Orders.UpdatePayment)
			r.Get("/orders/{id}/transitions", h.Orders.NextStates)
			r.Get("/analytics", h.Analytics.Report)
		})
	})

	return r
}
