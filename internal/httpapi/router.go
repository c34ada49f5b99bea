package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Products       *ProductHandler
	Cart           *CartHandler
	Checkout       *CheckoutHandler
	Auth           *AuthHandler
	AuthMW         *Auth
	RequestTimeout time.Duration
	Log            *zap.Logger
}

// NewRouter assembles the storefront HTTP surface.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", cfg.Products.ListProducts)
			r.Get("/{product_id}", cfg.Products.GetProduct)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(cfg.AuthMW.CartSession)
			r.Get("/", cfg.Cart.GetCart)
			r.Delete("/", cfg.Cart.ClearCart)
			r.Post("/items", cfg.Cart.AddItem)
			r.Put("/items/{product_id}", cfg.Cart.UpdateQuantity)
			r.Delete("/items/{product_id}", cfg.Cart.RemoveItem)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Use(cfg.AuthMW.Require)
			r.Post("/", cfg.Checkout.InitiateCheckout)
		})
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", cfg.Auth.Register)
		r.Post("/login", cfg.Auth.Login)
		r.Post("/refresh", cfg.Auth.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthMW.Require)
			r.Get("/me", cfg.Auth.Profile)
			r.Put("/me", cfg.Auth.UpdateProfile)
			r.Post("/change-password", cfg.Auth.ChangePassword)
		})
	})

	return otelhttp.NewHandler(r, "storefront")
}
