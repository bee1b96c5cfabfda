/*
server.go - HTTP server setup and routing

PURPOSE:
  Wires the chi router: common middleware, CORS, rate limiting, the
  public auth endpoints, and the bearer-protected entitlement and
  request endpoints.
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/warp/leave-engine/auth"
)

// RouterOptions carries the pieces the router wires together.
type RouterOptions struct {
	Handler *Handler
	Tokens  *auth.TokenIssuer
	Limiter *RateLimiter
}

// NewRouter builds the HTTP routing tree.
func NewRouter(opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	if opts.Limiter != nil {
		r.Use(opts.Limiter.Middleware)
	}

	h := opts.Handler

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", h.Signup)
			r.Post("/login", h.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(opts.Tokens))

			r.Route("/entitlements", func(r chi.Router) {
				r.Post("/", h.CreateEntitlement)
				r.Get("/", h.ListEntitlements)
				r.Get("/{id}", h.GetEntitlement)
			})

			r.Route("/requests", func(r chi.Router) {
				r.Post("/", h.SubmitRequest)
				r.Get("/", h.ListRequests)
				r.Post("/{id}/cancel", h.CancelRequest)
			})
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
