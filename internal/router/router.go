package router

import (
	"net/http"

	"marketplace-bulk-api/internal/handler"
	"marketplace-bulk-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler            *handler.Handler
	ListingHandler     *handler.ListingHandler
	SpreadsheetHandler *handler.SpreadsheetHandler
	AuthHandler        *handler.AuthHandler
	CatalogHandler     *handler.CatalogHandler
	AdminHandler       *handler.AdminHandler
	AuthMiddleware     func(http.Handler) http.Handler
	AllowedOrigins     []string
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-API-Key"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// PUBLIC routes (no auth required)
	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}

	// AUTHENTICATED routes (health and ready stay public inside the middleware)
	r.Group(func(r chi.Router) {
		if cfg.AuthMiddleware != nil {
			r.Use(cfg.AuthMiddleware)
		}

		r.Route("/api/v1", func(r chi.Router) {
			if cfg.Handler != nil {
				r.Get("/health", cfg.Handler.Health)
				r.Get("/ready", cfg.Handler.Ready)
			}

			if cfg.ListingHandler != nil {
				r.Route("/listings", func(r chi.Router) {
					r.Get("/", cfg.ListingHandler.List)
					r.Post("/", cfg.ListingHandler.Create)
					r.Post("/validate", cfg.ListingHandler.Validate)
					r.Get("/{id}", cfg.ListingHandler.Get)
					r.Put("/{id}", cfg.ListingHandler.Update)
					r.Delete("/{id}", cfg.ListingHandler.Delete)
				})
			}

			if cfg.SpreadsheetHandler != nil {
				r.Post("/import", cfg.SpreadsheetHandler.Import)
				r.Get("/export", cfg.SpreadsheetHandler.Export)
				r.Get("/template", cfg.SpreadsheetHandler.Template)
				r.Get("/layout", cfg.SpreadsheetHandler.GetLayout)
				r.Delete("/layout", cfg.SpreadsheetHandler.ResetLayout)
			}

			if cfg.AuthHandler != nil {
				r.Route("/auth", func(r chi.Router) {
					r.Get("/status", cfg.AuthHandler.Status)
					r.Get("/login", cfg.AuthHandler.Login)
					r.Post("/callback", cfg.AuthHandler.Callback)
					r.Post("/logout", cfg.AuthHandler.Logout)
				})
			}

			if cfg.CatalogHandler != nil {
				r.Get("/catalogs", cfg.CatalogHandler.List)
				r.Post("/catalogs/{catalog_id}/sync", cfg.CatalogHandler.Sync)
				r.Get("/sync/last", cfg.CatalogHandler.Last)
			}

			if cfg.AdminHandler != nil {
				r.Get("/admin/stats", cfg.AdminHandler.GetStats)
			}
		})
	})

	return r
}
