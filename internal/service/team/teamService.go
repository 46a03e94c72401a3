package teamService

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/nikhil/begreen/internal/database"
	"github.com/nikhil/begreen/internal/logger"
	"github.com/nikhil/begreen/internal/models"
	"github.com/nikhil/begreen/internal/observable"
)

const (
	// stored name of every chat team
	chatTeamName = "chat"

	maxTeamNameLength = 100

	fullNameSeparator = " + "
	scoreSuffix       = " 🍀"
)

const (
	groupsSectionID     = "groups"
	groupsSectionTitle  = "Gruppen"
	friendsSectionID    = "friends"
	friendsSectionTitle = "Freunde"
)

type TeamRepository interface {
	Create(ctx context.Context, team models.Team) error
	GetByID(ctx context.Context, teamID string) (*models.Team, error)
	ListForUser(ctx context.Context, userID string) ([]models.Team, error)
	UpdateName(ctx context.Context, teamID, name string, updatedAt int64) error
	Delete(ctx context.Context, teamID string) error
}

type MembershipRepository interface {
	Create(ctx context.Context, m models.Membership) error
	ListByTeam(ctx context.Context, teamID string) ([]models.Membership, error)
	ListByTeams(ctx context.Context, teamIDs []string) ([]models.Membership, error)
	GetByUser(ctx context.Context, teamID, userID string) (*models.Membership, error)
}

type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type AssignmentRepository interface {
	DeleteByAssignee(ctx context.Context, assignee string) (int64, error)
}

type PreviewRepository interface {
	ListByIDs(ctx context.Context, previewIDs []string) ([]models.Preview, error)
	Delete(ctx context.Context, previewID string) error
}

type MessageRepository interface {
	GetByIDs(ctx context.Context, messageIDs []string) ([]models.Message, error)
}

// TeamService handles team-related operations
type TeamService struct {
	teams       TeamRepository
	memberships MembershipRepository
	users       UserRepository
	assignments AssignmentRepository
	previews    PreviewRepository
	messages    MessageRepository
	tx          database.Transactor
	bus         *observable.Observable
	now         func() time.Time
	newID       func() string
	Log         *logger.Logger
}

// Deps groups the stores the team service reads and writes.
type Deps struct {
	Teams       TeamRepository
	Memberships MembershipRepository
	Users       UserRepository
	Assignments AssignmentRepository
	Previews    PreviewRepository
	Messages    MessageRepository
}

// NewTeamService initializes a new team service
func NewTeamService(deps Deps, tx database.Transactor, bus *observable.Observable, log *logger.Logger) *TeamService {
	return &TeamService{
		teams:       deps.Teams,
		memberships: deps.Memberships,
		users:       deps.Users,
		assignments: deps.Assignments,
		previews:    deps.Previews,
		messages:    deps.Messages,
		tx:          tx,
		bus:         bus,
		now:         time.Now,
		newID:       uuid.NewString,
		Log:         log,
	}
}

// List returns the teams of user with display names applied. Chats are
// named after their members according to naming; chats that cannot be
// named are left out.
func (ts *TeamService) List(ctx context.Context, user models.Principal, naming, search string) ([]models.Team, error) {
	if naming != models.NamingShort && naming != models.NamingFull {
		return nil, fmt.Errorf("%w: unsupported naming scheme %q", models.ErrInvalidInput, naming)
	}

	teams, err := ts.teams.ListForUser(ctx, user.UserID)
	if err != nil {
		ts.Log.Error("Failed to list teams", "user_id", user.UserID, "error", err)
		return nil, err
	}

	var chatIDs []string
	for _, t := range teams {
		if t.Type == models.TeamTypeChat {
			chatIDs = append(chatIDs, t.ID)
		}
	}
	members, err := ts.memberships.ListByTeams(ctx, chatIDs)
	if err != nil {
		return nil, err
	}
	byTeam := make(map[string][]models.Membership, len(chatIDs))
	for _, m := range members {
		byTeam[m.TeamID] = append(byTeam[m.TeamID], m)
	}

	needle := strings.ToLower(strings.TrimSpace(search))
	result := make([]models.Team, 0, len(teams))
	for _, t := range teams {
		if t.Type == models.TeamTypeChat {
			name, ok := DisplayName(byTeam[t.ID], user.UserID, naming)
			if !ok {
				continue
			}
			t.Name = name
		}
		if needle != "" && !strings.Contains(strings.ToLower(t.Name), needle) {
			continue
		}
		result = append(result, t)
	}
	return result, nil
}

// DisplayName derives the name of a chat from its members. The short
// scheme uses the first member other than userID, the full scheme joins
// every member name. ok is false when no name can be derived.
func DisplayName(members []models.Membership, userID, naming string) (string, bool) {
	if len(members) == 0 {
		return "", false
	}

	switch naming {
	case models.NamingShort:
		for _, m := range members {
			if m.UserID != userID {
				return m.UserName, true
			}
		}
		return "", false
	case models.NamingFull:
		names := make([]string, len(members))
		for i, m := range members {
			names[i] = m.UserName
		}
		return strings.Join(names, fullNameSeparator), true
	default:
		return "", false
	}
}

// Overview lists the caller's teams split into groups and friends, each
// with the last message or the score as detail.
func (ts *TeamService) Overview(ctx context.Context, user models.Principal, search string) ([]models.Section[models.TeamItem], error) {
	teams, err := ts.List(ctx, user, models.NamingShort, search)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(teams))
	for i, t := range teams {
		ids[i] = t.ID
	}
	previews, err := ts.previews.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	previewByID := make(map[string]models.Preview, len(previews))
	var messageIDs []string
	for _, p := range previews {
		previewByID[p.ID] = p
		if p.MessageID != "" {
			messageIDs = append(messageIDs, p.MessageID)
		}
	}
	messages, err := ts.messages.GetByIDs(ctx, messageIDs)
	if err != nil {
		return nil, err
	}
	messageByID := make(map[string]models.Message, len(messages))
	for _, m := range messages {
		messageByID[m.ID] = m
	}

	groups := &models.Section[models.TeamItem]{ID: groupsSectionID, Title: groupsSectionTitle}
	friends := &models.Section[models.TeamItem]{ID: friendsSectionID, Title: friendsSectionTitle}
	for _, t := range teams {
		item := models.TeamItem{
			ID:        t.ID,
			Name:      t.Name,
			Type:      t.Type,
			CreatedAt: t.CreatedAt,
			UpdatedAt: t.UpdatedAt,
		}
		if p, ok := previewByID[t.ID]; ok {
			if m, ok := messageByID[p.MessageID]; ok {
				item.Detail = m.Content
			} else {
				item.Detail = strconv.Itoa(p.Score) + scoreSuffix
			}
		}

		if t.Type == models.TeamTypeChat {
			friends.Add(item)
		} else {
			groups.Add(item)
		}
	}

	return models.NonEmpty(groups, friends), nil
}

// Get returns a team the caller is a member of. Chats carry the name of
// the other participant.
func (ts *TeamService) Get(ctx context.Context, user models.Principal, teamID string) (*models.Team, error) {
	if _, err := ts.membership(ctx, teamID, user.UserID); err != nil {
		return nil, err
	}

	team, err := ts.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.Type == models.TeamTypeChat {
		members, err := ts.memberships.ListByTeam(ctx, teamID)
		if err != nil {
			return nil, err
		}
		if name, ok := DisplayName(members, user.UserID, models.NamingShort); ok {
			team.Name = name
		}
	}
	return team, nil
}

// CreateGroup creates a group team owned by the caller.
func (ts *TeamService) CreateGroup(ctx context.Context, user models.Principal, name string) (*models.Team, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}

	team, err := ts.create(ctx, user, name, models.TeamTypeGroup, nil)
	if err != nil {
		return nil, err
	}

	ts.Log.Info("Group created", "team_id", team.ID, "user_id", user.UserID)
	return team, nil
}

// CreateChat opens a chat between the caller and the user registered
// with email. Both participants own the chat.
func (ts *TeamService) CreateChat(ctx context.Context, user models.Principal, email string) (*models.Team, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", models.ErrInvalidInput)
	}

	other, err := ts.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if other.UserID == user.UserID {
		return nil, fmt.Errorf("%w: cannot start a chat with yourself", models.ErrInvalidInput)
	}

	team, err := ts.create(ctx, user, chatTeamName, models.TeamTypeChat, other)
	if err != nil {
		return nil, err
	}

	ts.Log.Info("Chat created", "team_id", team.ID, "user_id", user.UserID, "other_user_id", other.UserID)
	team.Name = other.Name
	return team, nil
}

func (ts *TeamService) create(ctx context.Context, user models.Principal, name, teamType string, other *models.User) (*models.Team, error) {
	now := ts.now().UTC().Unix()
	team := models.Team{
		ID:        ts.newID(),
		Name:      name,
		Type:      teamType,
		CreatedBy: user.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := ts.tx.Do(ctx, func(ctx context.Context) error {
		if err := ts.teams.Create(ctx, team); err != nil {
			return err
		}

		// Create team-user relationship (add creator as team owner)
		owner := models.Membership{
			ID:       ts.newID(),
			TeamID:   team.ID,
			UserID:   user.UserID,
			Role:     models.RoleOwner,
			JoinedAt: now,
		}
		if err := ts.memberships.Create(ctx, owner); err != nil {
			return err
		}

		if other == nil {
			return nil
		}
		return ts.memberships.Create(ctx, models.Membership{
			ID:        ts.newID(),
			TeamID:    team.ID,
			UserID:    other.UserID,
			Role:      models.RoleOwner,
			JoinedAt:  now,
			InvitedBy: user.UserID,
		})
	})
	if err != nil {
		ts.Log.Error("Failed to create team", "user_id", user.UserID, "type", teamType, "error", err)
		return nil, err
	}

	ts.bus.NotifyAll(observable.Event{Type: models.EventTeamCreated, Data: team})
	return &team, nil
}

// Rename changes the name of a group. Only owners and admins may do so.
func (ts *TeamService) Rename(ctx context.Context, user models.Principal, teamID, name string) (*models.Team, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}

	m, err := ts.membership(ctx, teamID, user.UserID)
	if err != nil {
		return nil, err
	}
	team, err := ts.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.Type == models.TeamTypeChat {
		return nil, fmt.Errorf("%w: chats cannot be renamed", models.ErrInvalidInput)
	}
	if !m.CanManage() {
		return nil, models.ErrForbidden
	}

	team.Name = name
	team.UpdatedAt = ts.now().UTC().Unix()
	if err := ts.teams.UpdateName(ctx, team.ID, team.Name, team.UpdatedAt); err != nil {
		ts.Log.Error("Failed to rename team", "team_id", teamID, "error", err)
		return nil, err
	}

	ts.bus.NotifyAll(observable.Event{Type: models.EventTeamUpdated, Data: *team})
	return team, nil
}

// Delete removes a team with everything that belongs to it. Only owners
// may delete a team.
func (ts *TeamService) Delete(ctx context.Context, user models.Principal, teamID string) error {
	m, err := ts.membership(ctx, teamID, user.UserID)
	if err != nil {
		return err
	}
	if m.Role != models.RoleOwner {
		return models.ErrForbidden
	}

	team, err := ts.teams.GetByID(ctx, teamID)
	if err != nil {
		return err
	}

	err = ts.tx.Do(ctx, func(ctx context.Context) error {
		if _, err := ts.assignments.DeleteByAssignee(ctx, teamID); err != nil {
			return err
		}
		if err := ts.previews.Delete(ctx, teamID); err != nil {
			return err
		}
		// memberships and messages cascade
		return ts.teams.Delete(ctx, teamID)
	})
	if err != nil {
		ts.Log.Error("Failed to delete team", "team_id", teamID, "error", err)
		return err
	}

	ts.Log.Info("Team deleted", "team_id", teamID, "user_id", user.UserID)
	ts.bus.NotifyAll(observable.Event{Type: models.EventTeamDeleted, Data: *team})
	return nil
}

func (ts *TeamService) membership(ctx context.Context, teamID, userID string) (*models.Membership, error) {
	m, err := ts.memberships.GetByUser(ctx, teamID, userID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.ErrForbidden
	}
	return m, err
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", models.ErrInvalidInput)
	}
	if utf8.RuneCountInString(name) > maxTeamNameLength {
		return "", fmt.Errorf("%w: name must be at most %d characters", models.ErrInvalidInput, maxTeamNameLength)
	}
	return name, nil
}
