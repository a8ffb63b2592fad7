package handler

import (
	"context"
	"log/slog"
	"net/http"
)

// Pinger is satisfied by the storage layer.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db     Pinger
	logger *slog.Logger
}

func NewHealthHandler(db Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{db: db, logger: logger}
}

// HandleCheckConnection reports whether the database answers a query.
//
// HTTP: GET /check_connection  →  200 text, or 503 "Error: …"
func (h *HealthHandler) HandleCheckConnection(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := h.db.Ping(r.Context()); err != nil {
		h.logger.Warn("database check failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("Error: " + err.Error()))
		return
	}
	w.Write([]byte("Database connection is working!"))
}
