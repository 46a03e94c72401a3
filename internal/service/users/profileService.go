package profileService

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nikhil/begreen/internal/logger"
	"github.com/nikhil/begreen/internal/models"
)

const maxNameLength = 100

type UserRepository interface {
	GetByID(ctx context.Context, userID string) (*models.User, error)
	UpdateName(ctx context.Context, userID, name string) error
}

type ProfileService struct {
	users UserRepository
	Log   *logger.Logger
}

func NewProfileService(users UserRepository, log *logger.Logger) *ProfileService {
	return &ProfileService{
		users: users,
		Log:   log,
	}
}

func (ps *ProfileService) GetUserProfile(ctx context.Context, userID string) (*models.User, error) {
	return ps.users.GetByID(ctx, userID)
}

// UpdateUserProfile changes the display name. Chat names and member lists
// pick it up on the next read.
func (ps *ProfileService) UpdateUserProfile(ctx context.Context, userID, name string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", models.ErrInvalidInput)
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return nil, fmt.Errorf("%w: name must be at most %d characters", models.ErrInvalidInput, maxNameLength)
	}

	if err := ps.users.UpdateName(ctx, userID, name); err != nil {
		ps.Log.Error("Failed to update profile", "user_id", userID, "error", err)
		return nil, err
	}
	return ps.users.GetByID(ctx, userID)
}
