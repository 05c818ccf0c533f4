package http

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/contactvault/contactvault/internal/auth"
	"github.com/contactvault/contactvault/internal/config"
	"github.com/contactvault/contactvault/internal/contact"
	"github.com/contactvault/contactvault/internal/httputil"
	"github.com/contactvault/contactvault/internal/logging"
	"github.com/contactvault/contactvault/internal/user"
)

// NewRouter creates and configures the HTTP router. Identity resolution runs
// on every route; register and login are exempt inside the middleware itself
// so they stay reachable without credentials.
func NewRouter(
	cfg *config.Config,
	userHandler *user.Handler,
	contactHandler *contact.Handler,
	identity *auth.Middleware,
	logger *logging.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Compress(5))
	r.Use(identity.ResolveIdentity)

	// Public routes
	r.Get("/health", handleHealth)

	// Swagger UI - only in development
	if cfg.Server.IsDevelopment() {
		log.Println("Swagger UI enabled at /swagger/*")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	}

	r.Route("/users", func(r chi.Router) {
		// Reachable by unauthenticated callers (exempt from token processing)
		r.Post("/register", userHandler.Register)
		r.Post("/login", userHandler.Login)

		// Require a resolved identity; rejection happens in the services
		r.Get("/profile", userHandler.Profile)
		r.Put("/update-profile", userHandler.UpdateProfile)
		r.Put("/change-password", userHandler.ChangePassword)
		r.Get("/contacts", contactHandler.List)
	})

	r.Route("/contacts", func(r chi.Router) {
		r.Post("/", contactHandler.Create)
		r.Get("/{contactID}", contactHandler.Get)
		r.Put("/{contactID}", contactHandler.Update)
		r.Delete("/{contactID}", contactHandler.Delete)
	})

	return r
}

// handleHealth is a simple health check endpoint
// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /health [get]
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "api is running"}, http.StatusOK)
}
