package membershipService

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nikhil/begreen/internal/logger"
	"github.com/nikhil/begreen/internal/models"
	"github.com/nikhil/begreen/internal/observable"
)

type MembershipRepository interface {
	Create(ctx context.Context, m models.Membership) error
	ListByTeam(ctx context.Context, teamID string) ([]models.Membership, error)
	Get(ctx context.Context, teamID, membershipID string) (*models.Membership, error)
	GetByUser(ctx context.Context, teamID, userID string) (*models.Membership, error)
	Delete(ctx context.Context, membershipID string) error
}

type TeamRepository interface {
	GetByID(ctx context.Context, teamID string) (*models.Team, error)
}

type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// ListOptions narrow down a member list.
type ListOptions struct {
	Search      string
	ExcludeSelf bool
}

type MembershipService struct {
	memberships MembershipRepository
	teams       TeamRepository
	users       UserRepository
	bus         *observable.Observable
	appHost     string
	now         func() time.Time
	newID       func() string
	Log         *logger.Logger
}

// NewMembershipService creates the service. appHost is the host of the web
// client that invite links point to; an empty host disables them.
func NewMembershipService(memberships MembershipRepository, teams TeamRepository, users UserRepository, bus *observable.Observable, appHost string, log *logger.Logger) *MembershipService {
	return &MembershipService{
		memberships: memberships,
		teams:       teams,
		users:       users,
		bus:         bus,
		appHost:     appHost,
		now:         time.Now,
		newID:       uuid.NewString,
		Log:         log,
	}
}

// EnsureMember returns the membership of userID in teamID, or
// ErrForbidden when there is none.
func (s *MembershipService) EnsureMember(ctx context.Context, teamID, userID string) (*models.Membership, error) {
	m, err := s.memberships.GetByUser(ctx, teamID, userID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.ErrForbidden
	}
	return m, err
}

func (s *MembershipService) List(ctx context.Context, user models.Principal, teamID string, opts ListOptions) ([]models.Membership, error) {
	if _, err := s.EnsureMember(ctx, teamID, user.UserID); err != nil {
		return nil, err
	}

	memberships, err := s.memberships.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(opts.Search))
	result := make([]models.Membership, 0, len(memberships))
	for _, m := range memberships {
		if opts.ExcludeSelf && m.UserID == user.UserID {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(m.UserName), needle) {
			continue
		}
		result = append(result, m)
	}
	return result, nil
}

// Create adds the user registered with email to the team. Group invitees
// become admins, chat participants owners.
func (s *MembershipService) Create(ctx context.Context, user models.Principal, teamID, email string) (*models.Membership, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", models.ErrInvalidInput)
	}

	if _, err := s.EnsureMember(ctx, teamID, user.UserID); err != nil {
		return nil, err
	}
	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	invitee, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	role := models.RoleAdmin
	if team.Type == models.TeamTypeChat {
		role = models.RoleOwner
	}

	m := models.Membership{
		ID:        s.newID(),
		TeamID:    teamID,
		UserID:    invitee.UserID,
		UserName:  invitee.Name,
		UserEmail: invitee.Email,
		Role:      role,
		JoinedAt:  s.now().UTC().Unix(),
		InvitedBy: user.UserID,
	}
	if err := s.memberships.Create(ctx, m); err != nil {
		if !errors.Is(err, models.ErrConflict) {
			s.Log.Error("Failed to create membership", "team_id", teamID, "error", err)
		}
		return nil, err
	}

	s.Log.Info("Member added", "team_id", teamID, "user_id", invitee.UserID, "invited_by", user.UserID)
	s.bus.NotifyAll(observable.Event{Type: models.EventMembershipCreated, Data: m})
	m.InviteURL = s.inviteURL(teamID)
	return &m, nil
}

func (s *MembershipService) inviteURL(teamID string) string {
	if s.appHost == "" {
		return ""
	}
	u := url.URL{Scheme: "https", Host: s.appHost, Path: "/teams/" + url.PathEscape(teamID)}
	return u.String()
}

// Delete removes a membership. Owners and admins may remove anyone,
// everybody may leave on their own.
func (s *MembershipService) Delete(ctx context.Context, user models.Principal, teamID, membershipID string) error {
	caller, err := s.EnsureMember(ctx, teamID, user.UserID)
	if err != nil {
		return err
	}
	target, err := s.memberships.Get(ctx, teamID, membershipID)
	if err != nil {
		return err
	}
	if target.UserID != user.UserID && !caller.CanManage() {
		return models.ErrForbidden
	}

	if err := s.memberships.Delete(ctx, target.ID); err != nil {
		s.Log.Error("Failed to delete membership", "team_id", teamID, "membership_id", membershipID, "error", err)
		return err
	}

	s.Log.Info("Member removed", "team_id", teamID, "user_id", target.UserID, "removed_by", user.UserID)
	s.bus.NotifyAll(observable.Event{Type: models.EventMembershipDeleted, Data: *target})
	return nil
}
