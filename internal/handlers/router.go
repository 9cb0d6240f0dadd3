package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
)

// NewRouter wires the API routes, the metrics endpoint and the shared middleware
func NewRouter(h *GradeHandler, metricsHandler http.Handler, allowedOrigins []string) http.Handler {
	router := mux.NewRouter()
	h.RegisterRoutes(router)
	if metricsHandler != nil {
		router.Handle("/metrics", metricsHandler)
	}

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	return chi.Chain(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			MaxAge:         300,
		}),
	).Handler(router)
}
