package handlers

import (
	"context"
	"net/http"

	"github.com/nikhil/begreen/internal/logger"
	"github.com/nikhil/begreen/internal/models"
)

type Leaderboard interface {
	Leaderboard(ctx context.Context, user models.Principal) ([]models.Section[models.LeaderboardEntry], error)
}

type LeaderboardHandler struct {
	Service Leaderboard
	Log     *logger.Logger
}

func NewLeaderboardHandler(service Leaderboard, log *logger.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{Service: service, Log: log}
}

func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}

	sections, err := h.Service.Leaderboard(r.Context(), user)
	if err != nil {
		respondWithServiceError(w, r, h.Log, err)
		return
	}
	respondWithJSON(w, h.Log, http.StatusOK, map[string]interface{}{"sections": sections})
}
