package api

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/raglet/raglet/internal/log"
)

// healthHandler serves the liveness and readiness probes.
type healthHandler struct {
	pool   *pgxpool.Pool
	logger log.Logger
}

// liveness returns 200 whenever the process is up.
func (h *healthHandler) liveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// readiness pings the database; without a pool the process alone counts as
// ready.
func (h *healthHandler) readiness(w http.ResponseWriter, r *http.Request) {
	if h.pool != nil {
		if err := h.pool.Ping(r.Context()); err != nil {
			h.logger.Error("readiness check failed", "error", err)
			http.Error(w, "database not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
