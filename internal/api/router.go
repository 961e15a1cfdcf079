package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// newRouter assembles the route tree.
func newRouter(deps Deps) *chi.Mux {
	r := chi.NewRouter()
	started := time.Now()

	r.Use(requestID)
	r.Use(requestLogger(deps.Logger))
	r.Use(recoverer(deps.Logger))
	r.Use(corsHandler(deps.Config.CORS))
	r.Use(middleware.RequestSize(maxBodyBytes))

	auth := newAuthenticator(deps.Security, deps.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler(deps))
		r.Post("/auth/login", auth.loginHandler())

		r.Group(func(r chi.Router) {
			r.Use(auth.middleware)
			r.Get("/metrics", metricsHandler(deps, started))
			r.Get("/accessories", listAccessoriesHandler(deps))
			r.Get("/accessories/{uuid}", getAccessoryHandler(deps))
			r.Get("/bridges", listBridgesHandler(deps))
		})
	})

	if deps.Hub != nil {
		path := deps.WebSocket.Path
		if path == "" {
			path = "/ws"
		}
		r.Group(func(r chi.Router) {
			r.Use(auth.middleware)
			r.Get(path, serveWS(deps))
		})
	}

	return r
}
