package router

import (
	"net/http"

	"pantry-rest-api/internal/handler"
	"pantry-rest-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler        *handler.Handler
	AuthHandler    *handler.AuthHandler
	PantryHandler  *handler.PantryHandler
	AlertHandler   *handler.AlertHandler
	RecipeHandler  *handler.RecipeHandler
	AuthMiddleware func(http.Handler) http.Handler
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Token"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// PUBLIC routes (no auth required)
	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
		r.Get("/api/v1/health", cfg.Handler.Health)
		r.Get("/api/v1/ready", cfg.Handler.Ready)
	}

	if cfg.AuthHandler != nil {
		r.Route("/api/v1/auth", func(r chi.Router) {
			r.Post("/register", cfg.AuthHandler.Register)
			r.Post("/login", cfg.AuthHandler.Login)
			r.Post("/logout", cfg.AuthHandler.Logout)
			r.Post("/refresh", cfg.AuthHandler.Refresh)
		})
	}

	// AUTHENTICATED routes
	r.Group(func(r chi.Router) {
		if cfg.AuthMiddleware != nil {
			r.Use(cfg.AuthMiddleware)
		}

		r.Route("/api/v1", func(r chi.Router) {
			if cfg.AuthHandler != nil {
				r.Get("/me", cfg.AuthHandler.Me)
			}

			if cfg.PantryHandler != nil {
				r.Get("/categories", cfg.PantryHandler.ListCategories)
				r.Get("/items", cfg.PantryHandler.ListItems)
				r.Route("/pantry", func(r chi.Router) {
					r.Get("/", cfg.PantryHandler.ListInventory)
					r.Post("/", cfg.PantryHandler.AddStock)
					r.Post("/consume", cfg.PantryHandler.Consume)
				})
			}

			if cfg.AlertHandler != nil {
				r.Route("/alerts", func(r chi.Router) {
					r.Get("/restock", cfg.AlertHandler.GetRestockAlerts)
					r.Post("/restock", cfg.AlertHandler.SetRestockAlert)
					r.Get("/expiry", cfg.AlertHandler.GetExpiryAlerts)
				})
			}

			if cfg.RecipeHandler != nil {
				r.Get("/recipes/available", cfg.RecipeHandler.AvailableRecipes)
			}
		})
	})

	return r
}
