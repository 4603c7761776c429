package api

import (
	"net/http"
	"time"

	"github.com/example/ec-store/internal/api/middleware"
	"github.com/example/ec-store/internal/auth"
	"github.com/example/ec-store/internal/domain/user"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type RouterConfig struct {
	Orders         *OrderHandlers
	Products       *ProductHandlers
	Categories     *CategoryHandlers
	Auth           *AuthHandlers
	Tokens         *auth.JWTService
	HealthChecks   map[string]HealthCheck
	RequestTimeout time.Duration
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(chimw.Timeout(cfg.RequestTimeout))
	}

	r.Get("/health", Health(cfg.HealthChecks))

	authenticate := middleware.AuthMiddleware(cfg.Tokens)
	adminOnly := middleware.RequireRole(user.RoleAdmin)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", cfg.Auth.Register)
		r.Post("/login", cfg.Auth.Login)
		r.Post("/logout", cfg.Auth.Logout)
		r.With(authenticate).Get("/me", cfg.Auth.Me)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Use(authenticate)
		r.Post("/", cfg.Orders.PlaceOrder)
		r.Get("/my", cfg.Orders.ListMyOrders)
		r.Get("/{id}", cfg.Orders.GetOrder)
		r.Put("/{id}/pay", cfg.Orders.PayOrder)
		r.Post("/{id}/cancel", cfg.Orders.CancelOrder)

		r.Group(func(r chi.Router) {
			r.Use(adminOnly)
			r.Get("/", cfg.Orders.ListAllOrders)
			r.Put("/{id}/status", cfg.Orders.UpdateStatus)
			r.Put("/{id}/deliver", cfg.Orders.MarkDelivered)
		})
	})

	r.Route("/products", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/search", cfg.Products.SearchProducts)
		r.Get("/category/{categoryName}", cfg.Products.ListByCategory)

		r.Group(func(r chi.Router) {
			r.Use(adminOnly)
			r.Post("/", cfg.Products.CreateProduct)
			r.Get("/all", cfg.Products.ListProducts)
			r.Get("/{id}", cfg.Products.GetProduct)
			r.Put("/{id}", cfg.Products.UpdateProduct)
			r.Post("/{id}/restock", cfg.Products.RestockProduct)
			r.Delete("/{id}", cfg.Products.DeleteProduct)
		})
	})

	r.Route("/categories", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/", cfg.Categories.ListCategories)
		r.With(adminOnly).Post("/", cfg.Categories.CreateCategory)
	})

	return otelhttp.NewHandler(r, "ec-store-api")
}
