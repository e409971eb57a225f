package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger is implemented by the database.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler answers liveness checks.
type HealthHandler struct {
	db     Pinger
	env    string
	logger *slog.Logger
}

func NewHealthHandler(db Pinger, env string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{db: db, env: env, logger: logger}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	OK  bool   `json:"ok"`
	Env string `json:"env"`
}

// HandleHealth reports ok when the database answers a ping within two
// seconds, 503 otherwise. No authentication.
//
// HTTP: GET /health
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Error("health check failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{OK: false, Env: h.env})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{OK: true, Env: h.env})
}
