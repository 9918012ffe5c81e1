package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store   Pinger
	timeout time.Duration
}

func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store, timeout: 2 * time.Second}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		slog.WarnContext(r.Context(), "health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"success": false, "status": "unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "status": "ok"})
}
