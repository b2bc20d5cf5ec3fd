package web

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// NewRouter returns the mundesk HTTP router. Login routes are registered
// before the guarded dashboards so they stay reachable without credentials.
func NewRouter(ctx context.Context) http.Handler {
	logger := log.FromContext(ctx).WithPrefix("http")
	router := mux.NewRouter()

	HealthController(ctx, router)
	AuthController(ctx, router)
	DashboardController(ctx, router)
	AdminController(ctx, router)

	router.NotFoundHandler = http.HandlerFunc(renderNotFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(renderMethodNotAllowed)

	h := NewLoggingMiddleware(router, logger)
	h = NewContextHandler(ctx)(h)
	h = compress(h)
	h = handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(h)

	return h
}

// compress gzips responses except event streams, which are flushed frame by
// frame.
func compress(h http.Handler) http.Handler {
	gz := handlers.CompressHandler(h)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isEventStream(r) {
			h.ServeHTTP(w, r)
			return
		}
		gz.ServeHTTP(w, r)
	})
}
