package handlers

import (
	"context"
	"net/http"

	"github.com/nikhil/begreen/internal/logger"
	"github.com/nikhil/begreen/internal/models"
)

type ProfileManager interface {
	GetUserProfile(ctx context.Context, userID string) (*models.User, error)
	UpdateUserProfile(ctx context.Context, userID, name string) (*models.User, error)
}

type ProfileHandler struct {
	Service ProfileManager
	Log     *logger.Logger
}

func NewProfileHandler(service ProfileManager, log *logger.Logger) *ProfileHandler {
	return &ProfileHandler{Service: service, Log: log}
}

func (h *ProfileHandler) GetUserProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}

	profile, err := h.Service.GetUserProfile(r.Context(), user.UserID)
	if err != nil {
		respondWithServiceError(w, r, h.Log, err)
		return
	}
	respondWithJSON(w, h.Log, http.StatusOK, map[string]interface{}{"user_details": profile})
}

func (h *ProfileHandler) UpdateUserProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &req) {
		return
	}

	profile, err := h.Service.UpdateUserProfile(r.Context(), user.UserID, req.Name)
	if err != nil {
		respondWithServiceError(w, r, h.Log, err)
		return
	}
	respondWithJSON(w, h.Log, http.StatusOK, map[string]interface{}{"user_details": profile})
}
