package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nikhil/begreen/internal/logger"
	"github.com/nikhil/begreen/internal/models"
	challengeService "github.com/nikhil/begreen/internal/service/challenge"
)

type ChallengeManager interface {
	Create(ctx context.Context, user models.Principal, input challengeService.CreateInput) (*models.Challenge, error)
	ListForContainer(ctx context.Context, user models.Principal, containerID, search string) ([]models.Section[models.ChallengeItem], error)
	ListForUser(ctx context.Context, user models.Principal, search string) ([]models.Section[models.ChallengeItem], error)
	Assign(ctx context.Context, user models.Principal, challengeID, assignee string) (*models.Assignment, error)
	Finish(ctx context.Context, user models.Principal, challengeID, assignee string) (*models.Preview, error)
	Cancel(ctx context.Context, user models.Principal, challengeID, assignee string) (*models.Preview, error)
	Delete(ctx context.Context, user models.Principal, challengeID string) error
}

type ChallengeHandler struct {
	Service ChallengeManager
	Log     *logger.Logger
}

func NewChallengeHandler(service ChallengeManager, log *logger.Logger) *ChallengeHandler {
	return &ChallengeHandler{Service: service, Log: log}
}

type assigneeRequest struct {
	Assignee string `json:"assignee"`
}

func (h *ChallengeHandler) GetUserChallenges(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}

	sections, err := h.Service.ListForUser(r.Context(), user, r.URL.Query().Get("search"))
	if err != nil {
		respondWithServiceError(w, r, h.Log, err)
		return
	}
	respondWithJSON(w, h.Log, http.StatusOK, map[string]interface{}{"sections": sections})
}

func (h *ChallengeHandler) GetTeamChallenges(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}

	sections, err := h.Service.ListForContainer(r.Context(), user, mux.Vars(r)["id"], r.URL.Query().Get("search"))
	if err != nil {
		respondWithServiceError(w, r, h.Log, err)
		return
	}
	respondWithJSON(w, h.Log, http.StatusOK, map[string]interface{}{"sections": sections})
}

func (h *ChallengeHandler) CreateChallenge(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	var req challengeService.CreateInput
	if !decode(w, r, &req) {
		return
	}

	challenge, err := h.Service.Create(r.Context(), user, req)
	if err != nil {
		respondWithServiceError(w, r, h.Log, err)
		return
	}
	respondWithJSON(w, h.Log, http.StatusCreated, challenge)
}

func (h *ChallengeHandler) DeleteChallenge(w http.ResponseWriter, r *http.Request) {
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

func (h *ChallengeHandler) AssignChallenge(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	var req assigneeRequest
	if !decode(w, r, &req) {
		return
	}

	assignment, err := h.Service.Assign(r.Context(), user, mux.Vars(r)["id"], req.Assignee)
	if err != nil {
		respondWithServiceError(w, r, h.Log, err)
		return
	}
	respondWithJSON(w, h.Log, http.StatusCreated, assignment)
}

func (h *ChallengeHandler) FinishChallenge(w http.ResponseWriter, r *http.Request) {
	h.settle(w, r, h.Service.Finish)
}

func (h *ChallengeHandler) CancelChallenge(w http.ResponseWriter, r *http.Request) {
	h.settle(w, r, h.Service.Cancel)
}

func (h *ChallengeHandler) settle(w http.ResponseWriter, r *http.Request, op func(context.Context, models.Principal, string, string) (*models.Preview, error)) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	var req assigneeRequest
	if !decode(w, r, &req) {
		return
	}

	preview, err := op(r.Context(), user, mux.Vars(r)["id"], req.Assignee)
	if err != nil {
		respondWithServiceError(w, r, h.Log, err)
		return
	}
	respondWithJSON(w, h.Log, http.StatusOK, preview)
}
