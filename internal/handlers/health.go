package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/nikhil/begreen/internal/logger"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	DB  Pinger
	Log *logger.Logger
}

func NewHealthHandler(db Pinger, log *logger.Logger) *HealthHandler {
	return &HealthHandler{DB: db, Log: log}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.DB.PingContext(ctx); err != nil {
		respondWithJSON(w, h.Log, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "database": "unreachable"})
		return
	}
	respondWithJSON(w, h.Log, http.StatusOK, map[string]string{"status": "ok"})
}
