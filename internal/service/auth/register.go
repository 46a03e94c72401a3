package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/nikhil/begreen/internal/logger"
	"github.com/nikhil/begreen/internal/models"
	"github.com/nikhil/begreen/internal/observable"
	"github.com/nikhil/begreen/internal/session"
	"github.com/nikhil/begreen/pkg/utils"
)

const (
	minPasswordLength = 8
	// bcrypt rejects longer input
	maxPasswordLength = 72
	maxNameLength     = 100
	maxEmailLength    = 255
)

type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type SessionManager interface {
	Issue(user models.User) (string, *session.Claims, error)
	Revoke(ctx context.Context, claims *session.Claims) error
}

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Session is what a successful signup or login hands to the client.
type Session struct {
	Token     string      `json:"token"`
	ExpiresAt int64       `json:"expires_at"`
	User      models.User `json:"user_details"`
}

type AuthService struct {
	users    UserRepository
	sessions SessionManager
	bus      *observable.Observable
	now      func() time.Time
	Log      *logger.Logger
}

// NewAuthService creates a new instance of AuthService
func NewAuthService(users UserRepository, sessions SessionManager, bus *observable.Observable, log *logger.Logger) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		bus:      bus,
		now:      time.Now,
		Log:      log,
	}
}

// Signup registers a user and logs them in right away.
func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*Session, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", models.ErrInvalidInput)
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return nil, fmt.Errorf("%w: name must be at most %d characters", models.ErrInvalidInput, maxNameLength)
	}
	if len(req.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", models.ErrInvalidInput, minPasswordLength)
	}
	if len(req.Password) > maxPasswordLength {
		return nil, fmt.Errorf("%w: password must be at most %d bytes", models.ErrInvalidInput, maxPasswordLength)
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		UserID:    uuid.NewString(),
		Email:     email,
		Name:      name,
		Password:  hashedPassword,
		CreatedAt: s.now().UTC().Unix(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, fmt.Errorf("%w: email already registered", models.ErrConflict)
		}
		s.Log.Error("Failed to create user", "error", err)
		return nil, err
	}

	s.Log.Audit("User signed up", "user_id", user.UserID)
	return s.startSession(user)
}

// Login authenticates a user
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid email or password", models.ErrUnauthorized)
		}
		return nil, err
	}
	if err := utils.CheckPassword(user.Password, password); err != nil {
		s.Log.Warn("Failed login attempt", "user_id", user.UserID)
		return nil, fmt.Errorf("%w: invalid email or password", models.ErrUnauthorized)
	}

	return s.startSession(*user)
}

// Logout revokes the token the request was made with.
func (s *AuthService) Logout(ctx context.Context, claims *session.Claims) error {
	if err := s.sessions.Revoke(ctx, claims); err != nil {
		s.Log.Error("Failed to revoke session", "user_id", claims.UserID, "error", err)
		return err
	}

	s.Log.Audit("User logged out", "user_id", claims.UserID)
	s.bus.NotifyAll(observable.Event{Type: models.EventDeauthenticated, Data: claims.Principal()})
	return nil
}

func (s *AuthService) startSession(user models.User) (*Session, error) {
	token, claims, err := s.sessions.Issue(user)
	if err != nil {
		s.Log.Error("Failed to issue token", "user_id", user.UserID, "error", err)
		return nil, err
	}

	user.Password = ""
	s.bus.NotifyAll(observable.Event{Type: models.EventAuthenticated, Data: claims.Principal()})
	return &Session{Token: token, ExpiresAt: claims.ExpiresAt.Unix(), User: user}, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if len(email) > maxEmailLength {
		return "", fmt.Errorf("%w: invalid email address", models.ErrInvalidInput)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: invalid email address", models.ErrInvalidInput)
	}
	return email, nil
}
