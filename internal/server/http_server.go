package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/tandemapp/tandem-server/internal/config"
)

// NewRouter builds the chi router with the shared middleware stack and
// mounts every registrar under /api/v1.
func NewRouter(registrars ...Registrar) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-User-ID"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		JSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(RequireIdentity)
		for _, reg := range registrars {
			reg.Register(api)
		}
	})

	return r
}

// StartHTTPServer boots the HTTP server and registers all provided services
func StartHTTPServer(cfg *config.Config, registrars ...Registrar) error {
	addr := fmt.Sprintf("%s:%s", cfg.HTTP.Host, cfg.HTTP.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(registrars...),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return srv.ListenAndServe()
}
