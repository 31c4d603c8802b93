package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-catalog-api/internal/config"
	"go-catalog-api/internal/handler"
	"go-catalog-api/internal/middleware"
)

type Handlers struct {
	Auth     *handler.AuthHandler
	Product  *handler.ProductHandler
	Category *handler.CategoryHandler
	Docs     *handler.DocsHandler
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)
	adminOnly := authMiddleware.RequireRoles("admin")

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/openapi.yaml", h.Docs.OpenAPI)
	r.Get("/swagger", h.Docs.SwaggerUI)

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/login", h.Auth.Login)
			auth.Post("/register", h.Auth.Register)
			auth.Post("/refresh-token", h.Auth.Refresh)
			auth.Post("/logout", h.Auth.Logout)
			auth.With(authMiddleware.RequireAuth).Get("/profile", h.Auth.Profile)
		})

		api.Route("/products", func(products chi.Router) {
			products.Get("/", h.Product.List)
			products.Get("/{id}", h.Product.Get)
			products.With(authMiddleware.RequireAuth, adminOnly).Post("/", h.Product.Create)
			products.With(authMiddleware.RequireAuth, adminOnly).Put("/{id}", h.Product.Update)
			products.With(authMiddleware.RequireAuth, adminOnly).Delete("/{id}", h.Product.Delete)
		})

		api.Route("/categories", func(categories chi.Router) {
			categories.Use(authMiddleware.RequireAuth)

			categories.Get("/", h.Category.List)
			categories.Get("/{id}", h.Category.Get)
			categories.Get("/{id}/products", h.Category.Products)
			categories.With(adminOnly).Post("/", h.Category.Create)
			categories.With(adminOnly).Put("/{id}", h.Category.Update)
			categories.With(adminOnly).Patch("/{id}/deactivate", h.Category.Deactivate)
			categories.With(adminOnly).Patch("/{id}/reactivate", h.Category.Reactivate)
			categories.With(adminOnly).Delete("/{id}", h.Category.Delete)
		})
	})

	return r
}
