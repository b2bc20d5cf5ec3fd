package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/mundesk/mundesk/pkg/db"
)

// HealthController registers the health check routes.
func HealthController(_ context.Context, r *mux.Router) {
	r.HandleFunc("/livez", getLiveness).Methods(http.MethodGet)
	r.HandleFunc("/readyz", getReadiness).Methods(http.MethodGet)
}

func getLiveness(w http.ResponseWriter, _ *http.Request) {
	renderStatus(http.StatusOK)(w, nil)
}

func getReadiness(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	dbx := db.FromContext(ctx)
	if dbx == nil {
		renderStatus(http.StatusServiceUnavailable)(w, nil)
		return
	}

	if err := dbx.PingContext(ctx); err != nil {
		log.FromContext(ctx).Warn("readiness check failed", "err", fmt.Errorf("ping database: %w", err))
		renderStatus(http.StatusServiceUnavailable)(w, nil)
		return
	}

	renderStatus(http.StatusOK)(w, nil)
}
