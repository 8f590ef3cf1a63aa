package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// RouterConfig carries everything NewRouter wires together.
type RouterConfig struct {
	Events        *EventHandler
	Auth          *AuthHandler
	Authenticator Authenticator
	AuthLimiter   *RateLimiter
	AllowedOrigin string
}

// NewRouter builds the API router. Paths are accepted with or without a
// trailing slash.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.StripSlashes)
	r.Use(Logger)
	r.Use(CORS(cfg.AllowedOrigin))

	r.Get("/health", HealthCheck)

	requireAuth := RequireAuth(cfg.Authenticator)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if cfg.AuthLimiter != nil {
					r.Use(cfg.AuthLimiter.Handler)
				}
				r.Post("/register", cfg.Auth.Register)
				r.Post("/login", cfg.Auth.Login)
			})
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/logout", cfg.Auth.Logout)
				r.Get("/profile", cfg.Auth.Profile)
			})
		})

		r.Route("/events", func(r chi.Router) {
			r.Post("/{id}/rsvp", cfg.Events.RSVP)
			r.Get("/{id}", cfg.Events.GetEvent)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/", cfg.Events.ListEvents)
				r.Post("/", cfg.Events.CreateEvent)
				r.Get("/user/my-events", cfg.Events.MyEvents)
				r.Get("/{id}/rsvps", cfg.Events.ListRSVPs)
			})
		})
	})

	return r
}
