package handlers

import (
	"context"
	"net/http"

	"github.com/nikhil/begreen/internal/logger"
	"github.com/nikhil/begreen/internal/middleware"
	services "github.com/nikhil/begreen/internal/service/auth"
	"github.com/nikhil/begreen/internal/session"
)

type Authenticator interface {
	Signup(ctx context.Context, req services.SignupRequest) (*services.Session, error)
	Login(ctx context.Context, email, password string) (*services.Session, error)
	Logout(ctx context.Context, claims *session.Claims) error
}

type AuthHandler struct {
	Service Authenticator
	Log     *logger.Logger
}

// NewAuthHandler creates a new instance of AuthHandler
func NewAuthHandler(service Authenticator, log *logger.Logger) *AuthHandler {
	return &AuthHandler{Service: service, Log: log}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup handles the user registration request
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req services.SignupRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := h.Service.Signup(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, r, h.Log, err)
		return
	}
	respondWithJSON(w, h.Log, http.StatusCreated, result)
}

// Login handles the user authentication request
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := h.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithServiceError(w, r, h.Log, err)
		return
	}
	respondWithJSON(w, h.Log, http.StatusOK, result)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	if err := h.Service.Logout(r.Context(), claims); err != nil {
		respondWithServiceError(w, r, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
