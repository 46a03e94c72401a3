package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/nikhil/begreen/internal/logger"
	"github.com/nikhil/begreen/internal/models"
	membershipService "github.com/nikhil/begreen/internal/service/membership"
)

type MembershipManager interface {
	EnsureMember(ctx context.Context, teamID, userID string) (*models.Membership, error)
	List(ctx context.Context, user models.Principal, teamID string, opts membershipService.ListOptions) ([]models.Membership, error)
	Create(ctx context.Context, user models.Principal, teamID, email string) (*models.Membership, error)
	Delete(ctx context.Context, user models.Principal, teamID, membershipID string) error
}

type MembershipHandler struct {
	Service MembershipManager
	Log     *logger.Logger
}

func NewMembershipHandler(service MembershipManager, log *logger.Logger) *MembershipHandler {
	return &MembershipHandler{Service: service, Log: log}
}

func (h *MembershipHandler) ListMemberships(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	excludeSelf, _ := strconv.ParseBool(query.Get("exclude_self"))

	memberships, err := h.Service.List(r.Context(), user, mux.Vars(r)["id"], membershipService.ListOptions{
		Search:      query.Get("search"),
		ExcludeSelf: excludeSelf,
	})
	if err != nil {
		respondWithServiceError(w, r, h.Log, err)
		return
	}
	respondWithJSON(w, h.Log, http.StatusOK, map[string]interface{}{"memberships": memberships})
}

func (h *MembershipHandler) CreateMembership(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	var req chatRequest
	if !decode(w, r, &req) {
		return
	}

	membership, err := h.Service.Create(r.Context(), user, mux.Vars(r)["id"], req.Email)
	if err != nil {
		respondWithServiceError(w, r, h.Log, err)
		return
	}
	respondWithJSON(w, h.Log, http.StatusCreated, membership)
}

func (h *MembershipHandler) DeleteMembership(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)

	if err := h.Service.Delete(r.Context(), user, vars["id"], vars["membershipID"]); err != nil {
		respondWithServiceError(w, r, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
