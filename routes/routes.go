package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/upb/library-api/app"
	"github.com/upb/library-api/handlers"
	"github.com/upb/library-api/middleware"
	"github.com/upb/library-api/models"
	"github.com/upb/library-api/utils"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger, deps.Metrics))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	health := handlers.NewHealthHandler(deps.Store, deps.Clock, deps.Logger)
	authors := handlers.NewAuthorHandler(deps.Authors, deps.Logger)
	books := handlers.NewBookHandler(deps.Books, deps.Logger)
	users := handlers.NewUserHandler(deps.Users, deps.Logger)
	authH := handlers.NewAuthHandler(deps.Auth, deps.Users, deps.SecureCookies(), deps.Logger)
	audit := handlers.NewAuditHandler(deps.Audit, deps.Logger)

	requireAuth := deps.AuthMiddleware.RequireAuth
	requireAdmin := deps.AuthMiddleware.RequireRole(string(models.RoleAdmin))

	// Health check endpoints
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)
	if deps.Config.Observability.MetricsEnabled {
		r.Handle("/metrics", deps.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authH.HandleLogin)
			r.Post("/register", authH.HandleRegister)
			r.Post("/logout", authH.HandleLogout)
		})

		// Reads are public, writes require a token
		r.Route("/authors", func(r chi.Router) {
			r.Get("/", authors.HandleList)
			r.Get("/{id}", authors.HandleGet)
			r.Get("/{id}/books", authors.HandleListBooks)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", authors.HandleCreate)
				r.Put("/{id}", authors.HandleUpdate)
				r.Delete("/{id}", authors.HandleDelete)
			})
		})

		r.Route("/books", func(r chi.Router) {
			r.Get("/", books.HandleList)
			r.Get("/{id}", books.HandleGet)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", books.HandleCreate)
				r.Put("/{id}", books.HandleUpdate)
				r.Delete("/{id}", books.HandleDelete)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", users.HandleMe)
			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Get("/", users.HandleList)
				r.Post("/", users.HandleCreate)
				r.Get("/{id}", users.HandleGet)
				r.Put("/{id}", users.HandleUpdate)
				r.Delete("/{id}", users.HandleDelete)
			})
		})

		r.Route("/audit", func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(requireAdmin)
			r.Get("/trails", audit.HandleList)
			r.Get("/trails/{id}", audit.HandleGet)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	})

	return r
}
