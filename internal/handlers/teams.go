package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nikhil/begreen/internal/logger"
	"github.com/nikhil/begreen/internal/models"
)

type TeamManager interface {
	List(ctx context.Context, user models.Principal, naming, search string) ([]models.Team, error)
	Overview(ctx context.Context, user models.Principal, search string) ([]models.Section[models.TeamItem], error)
	Get(ctx context.Context, user models.Principal, teamID string) (*models.Team, error)
	CreateGroup(ctx context.Context, user models.Principal, name string) (*models.Team, error)
	CreateChat(ctx context.Context, user models.Principal, email string) (*models.Team, error)
	Rename(ctx context.Context, user models.Principal, teamID, name string) (*models.Team, error)
	Delete(ctx context.Context, user models.Principal, teamID string) error
}

type TeamHandler struct {
	Service TeamManager
	Log     *logger.Logger
}

func NewTeamHandler(service TeamManager, log *logger.Logger) *TeamHandler {
	return &TeamHandler{Service: service, Log: log}
}

type teamNameRequest struct {
	Name string `json:"name"`
}

type chatRequest struct {
	Email string `json:"email"`
}

// GetUserTeams lists the caller's teams, chats named by ?naming=short|full.
func (h *TeamHandler) GetUserTeams(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	naming := r.URL.Query().Get("naming")
	if naming == "" {
		naming = models.NamingShort
	}

	teams, err := h.Service.List(r.Context(), user, naming, r.URL.Query().Get("search"))
	if err != nil {
		respondWithServiceError(w, r, h.Log, err)
		return
	}
	respondWithJSON(w, h.Log, http.StatusOK, map[string]interface{}{"teams": teams})
}

func (h *TeamHandler) Overview(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}

	sections, err := h.Service.Overview(r.Context(), user, r.URL.Query().Get("search"))
	if err != nil {
		respondWithServiceError(w, r, h.Log, err)
		return
	}
	respondWithJSON(w, h.Log, http.StatusOK, map[string]interface{}{"sections": sections})
}

func (h *TeamHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	var req teamNameRequest
	if !decode(w, r, &req) {
		return
	}

	team, err := h.Service.CreateGroup(r.Context(), user, req.Name)
	if err != nil {
		respondWithServiceError(w, r, h.Log, err)
		return
	}
	respondWithJSON(w, h.Log, http.StatusCreated, team)
}

func (h *TeamHandler) CreateChat(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	var req chatRequest
	if !decode(w, r, &req) {
		return
	}

	team, err := h.Service.CreateChat(r.Context(), user, req.Email)
	if err != nil {
		respondWithServiceError(w, r, h.Log, err)
		return
	}
	respondWithJSON(w, h.Log, http.StatusCreated, team)
}

func (h *TeamHandler) GetTeam(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}

	team, err := h.Service.Get(r.Context(), user, mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, r, h.Log, err)
		return
	}
	respondWithJSON(w, h.Log, http.StatusOK, team)
}

func (h *TeamHandler) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	var req teamNameRequest
	if !decode(w, r, &req) {
		return
	}

	team, err := h.Service.Rename(r.Context(), user, mux.Vars(r)["id"], req.Name)
	if err != nil {
		respondWithServiceError(w, r, h.Log, err)
		return
	}
	respondWithJSON(w, h.Log, http.StatusOK, team)
}

func (h *TeamHandler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), user, mux.Vars(r)["id"]); err != nil {
		respondWithServiceError(w, r, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
