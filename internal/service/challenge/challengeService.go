package challengeService

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
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
	activeSectionTitle    = "Aktiv"
	availableSectionTitle = "Verfügbar"

	maxTitleLength    = 100
	maxDurationLength = 100
)

type ChallengeRepository interface {
	Create(ctx context.Context, c models.Challenge) error
	GetByID(ctx context.Context, challengeID string) (*models.Challenge, error)
	List(ctx context.Context, search string) ([]models.Challenge, error)
	Delete(ctx context.Context, challengeID string) error
}

type AssignmentRepository interface {
	Create(ctx context.Context, a models.Assignment) error
	ListByAssignees(ctx context.Context, assignees []string) ([]models.Assignment, error)
	Find(ctx context.Context, challengeID, assignee string) (*models.Assignment, error)
	Delete(ctx context.Context, assignmentID string) error
	DeleteByChallenge(ctx context.Context, challengeID string) (int64, error)
}

type MembershipRepository interface {
	GetByUser(ctx context.Context, teamID, userID string) (*models.Membership, error)
}

type TeamLister interface {
	List(ctx context.Context, user models.Principal, naming, search string) ([]models.Team, error)
}

type ScoreUpdater interface {
	UpdateScore(ctx context.Context, assignee string, delta int) (*models.Preview, error)
}

// CreateInput describes a new challenge. Origin defaults to the caller.
type CreateInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Duration    string `json:"duration"`
	Score       int    `json:"score"`
	Origin      string `json:"origin"`
}

type ChallengeService struct {
	challenges  ChallengeRepository
	assignments AssignmentRepository
	memberships MembershipRepository
	teams       TeamLister
	scores      ScoreUpdater
	tx          database.Transactor
	bus         *observable.Observable
	now         func() time.Time
	newID       func() string
	Log         *logger.Logger
}

// Deps groups the collaborators of the challenge service.
type Deps struct {
	Challenges  ChallengeRepository
	Assignments AssignmentRepository
	Memberships MembershipRepository
	Teams       TeamLister
	Scores      ScoreUpdater
}

func NewChallengeService(deps Deps, tx database.Transactor, bus *observable.Observable, log *logger.Logger) *ChallengeService {
	return &ChallengeService{
		challenges:  deps.Challenges,
		assignments: deps.Assignments,
		memberships: deps.Memberships,
		teams:       deps.Teams,
		scores:      deps.Scores,
		tx:          tx,
		bus:         bus,
		now:         time.Now,
		newID:       uuid.NewString,
		Log:         log,
	}
}

func (cs *ChallengeService) Create(ctx context.Context, user models.Principal, input CreateInput) (*models.Challenge, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", models.ErrInvalidInput)
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return nil, fmt.Errorf("%w: title must be at most %d characters", models.ErrInvalidInput, maxTitleLength)
	}
	duration := strings.TrimSpace(input.Duration)
	if utf8.RuneCountInString(duration) > maxDurationLength {
		return nil, fmt.Errorf("%w: duration must be at most %d characters", models.ErrInvalidInput, maxDurationLength)
	}
	if input.Score < 0 {
		return nil, fmt.Errorf("%w: score must not be negative", models.ErrInvalidInput)
	}

	origin := input.Origin
	if origin == "" {
		origin = user.UserID
	}
	if err := cs.ensureContainer(ctx, user, origin); err != nil {
		return nil, err
	}

	now := cs.now().UTC().Unix()
	c := models.Challenge{
		ID:          cs.newID(),
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Duration:    duration,
		Score:       input.Score,
		Author:      user.UserID,
		Origin:      origin,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := cs.challenges.Create(ctx, c); err != nil {
		cs.Log.Error("Failed to create challenge", "user_id", user.UserID, "error", err)
		return nil, err
	}

	cs.notifyChange(c.ID, "", models.ChallengeCreated)
	return &c, nil
}

// ListForContainer splits the challenges into those accepted by the
// container and those still available.
func (cs *ChallengeService) ListForContainer(ctx context.Context, user models.Principal, containerID, search string) ([]models.Section[models.ChallengeItem], error) {
	if err := cs.ensureContainer(ctx, user, containerID); err != nil {
		return nil, err
	}

	challenges, err := cs.challenges.List(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, err
	}
	assignments, err := cs.assignments.ListByAssignees(ctx, []string{containerID})
	if err != nil {
		return nil, err
	}
	assigned := make(map[string]models.Assignment, len(assignments))
	for _, a := range assignments {
		assigned[a.ChallengeID] = a
	}

	active := &models.Section[models.ChallengeItem]{ID: containerID, Title: activeSectionTitle}
	available := &models.Section[models.ChallengeItem]{Title: availableSectionTitle}
	for _, c := range challenges {
		if a, ok := assigned[c.ID]; ok {
			active.Add(assignedItem(c, a))
		} else {
			available.Add(models.ChallengeItem{Challenge: c})
		}
	}

	return models.NonEmpty(active, available), nil
}

// ListForUser lists the challenges across the caller and all of the
// caller's teams: the caller's own first, then one section per team with
// the most recently assigned team first, then the available ones.
func (cs *ChallengeService) ListForUser(ctx context.Context, user models.Principal, search string) ([]models.Section[models.ChallengeItem], error) {
	teams, err := cs.teams.List(ctx, user, models.NamingShort, "")
	if err != nil {
		return nil, err
	}
	teamNames := make(map[string]string, len(teams))
	containers := make([]string, 0, len(teams)+1)
	containers = append(containers, user.UserID)
	for _, t := range teams {
		teamNames[t.ID] = t.Name
		containers = append(containers, t.ID)
	}

	challenges, err := cs.challenges.List(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, err
	}
	assignments, err := cs.assignments.ListByAssignees(ctx, containers)
	if err != nil {
		return nil, err
	}
	byChallenge := make(map[string][]models.Assignment)
	for _, a := range assignments {
		byChallenge[a.ChallengeID] = append(byChallenge[a.ChallengeID], a)
	}

	active := &models.Section[models.ChallengeItem]{ID: user.UserID, Title: activeSectionTitle}
	available := &models.Section[models.ChallengeItem]{Title: availableSectionTitle}
	teamSections := make(map[string]*models.Section[models.ChallengeItem])
	var ordered []*models.Section[models.ChallengeItem]

	for _, c := range challenges {
		matches := byChallenge[c.ID]
		if len(matches) == 0 {
			available.Add(models.ChallengeItem{Challenge: c})
			continue
		}
		for _, a := range matches {
			if a.Assignee == user.UserID {
				active.UpdatedAt = max(active.UpdatedAt, a.CreatedAt)
				active.Add(assignedItem(c, a))
				continue
			}
			section, ok := teamSections[a.Assignee]
			if !ok {
				section = &models.Section[models.ChallengeItem]{ID: a.Assignee, Title: teamNames[a.Assignee]}
				teamSections[a.Assignee] = section
				ordered = append(ordered, section)
			}
			section.UpdatedAt = max(section.UpdatedAt, a.CreatedAt)
			section.Add(assignedItem(c, a))
		}
	}

	slices.SortStableFunc(ordered, func(a, b *models.Section[models.ChallengeItem]) int {
		return cmp.Compare(b.UpdatedAt, a.UpdatedAt)
	})

	sections := make([]*models.Section[models.ChallengeItem], 0, len(ordered)+2)
	sections = append(sections, active)
	sections = append(sections, ordered...)
	sections = append(sections, available)

	return models.NonEmpty(sections...), nil
}

// Assign accepts a challenge for the caller or one of the caller's teams.
func (cs *ChallengeService) Assign(ctx context.Context, user models.Principal, challengeID, assignee string) (*models.Assignment, error) {
	if err := cs.ensureContainer(ctx, user, assignee); err != nil {
		return nil, err
	}
	if _, err := cs.challenges.GetByID(ctx, challengeID); err != nil {
		return nil, err
	}

	a := models.Assignment{
		ID:          cs.newID(),
		ChallengeID: challengeID,
		Assignee:    assignee,
		CreatedAt:   cs.now().UTC().Unix(),
	}
	if err := cs.assignments.Create(ctx, a); err != nil {
		if !errors.Is(err, models.ErrConflict) {
			cs.Log.Error("Failed to assign challenge", "challenge_id", challengeID, "assignee", assignee, "error", err)
		}
		return nil, err
	}

	cs.notifyChange(challengeID, assignee, models.ChallengeAssigned)
	return &a, nil
}

// Finish completes an accepted challenge and credits its score.
func (cs *ChallengeService) Finish(ctx context.Context, user models.Principal, challengeID, assignee string) (*models.Preview, error) {
	return cs.settle(ctx, user, challengeID, assignee, 1, models.ChallengeFinished)
}

// Cancel gives up an accepted challenge and deducts its score.
func (cs *ChallengeService) Cancel(ctx context.Context, user models.Principal, challengeID, assignee string) (*models.Preview, error) {
	return cs.settle(ctx, user, challengeID, assignee, -1, models.ChallengeCanceled)
}

func (cs *ChallengeService) settle(ctx context.Context, user models.Principal, challengeID, assignee string, sign int, action string) (*models.Preview, error) {
	if err := cs.ensureContainer(ctx, user, assignee); err != nil {
		return nil, err
	}
	challenge, err := cs.challenges.GetByID(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	var preview *models.Preview
	err = cs.tx.Do(ctx, func(ctx context.Context) error {
		a, err := cs.assignments.Find(ctx, challengeID, assignee)
		switch {
		case err == nil:
			if err := cs.assignments.Delete(ctx, a.ID); err != nil {
				return err
			}
		case !errors.Is(err, models.ErrNotFound):
			return err
		}

		preview, err = cs.scores.UpdateScore(ctx, assignee, sign*challenge.Score)
		return err
	})
	if err != nil {
		cs.Log.Error("Failed to settle challenge", "challenge_id", challengeID, "assignee", assignee, "action", action, "error", err)
		return nil, err
	}

	cs.Log.Info("Challenge settled", "challenge_id", challengeID, "assignee", assignee, "action", action, "score", preview.Score)
	cs.bus.NotifyAll(observable.Event{Type: models.EventScoreChanged, Data: *preview})
	cs.notifyChange(challengeID, assignee, action)
	return preview, nil
}

// Delete removes a challenge and every assignment of it. Only the author
// may delete a challenge.
func (cs *ChallengeService) Delete(ctx context.Context, user models.Principal, challengeID string) error {
	challenge, err := cs.challenges.GetByID(ctx, challengeID)
	if err != nil {
		return err
	}
	if challenge.Author != user.UserID {
		return models.ErrForbidden
	}

	err = cs.tx.Do(ctx, func(ctx context.Context) error {
		if _, err := cs.assignments.DeleteByChallenge(ctx, challengeID); err != nil {
			return err
		}
		return cs.challenges.Delete(ctx, challengeID)
	})
	if err != nil {
		cs.Log.Error("Failed to delete challenge", "challenge_id", challengeID, "error", err)
		return err
	}

	cs.notifyChange(challengeID, "", models.ChallengeDeleted)
	return nil
}

// ensureContainer accepts the caller itself or a team the caller is a
// member of.
func (cs *ChallengeService) ensureContainer(ctx context.Context, user models.Principal, containerID string) error {
	if containerID == "" {
		return fmt.Errorf("%w: assignee is required", models.ErrInvalidInput)
	}
	if containerID == user.UserID {
		return nil
	}
	_, err := cs.memberships.GetByUser(ctx, containerID, user.UserID)
	if errors.Is(err, models.ErrNotFound) {
		return models.ErrForbidden
	}
	return err
}

func (cs *ChallengeService) notifyChange(challengeID, assignee, action string) {
	cs.bus.NotifyAll(observable.Event{
		Type: models.EventChallengeChanged,
		Data: models.ChallengeChange{ChallengeID: challengeID, Assignee: assignee, Action: action},
	})
}

func assignedItem(c models.Challenge, a models.Assignment) models.ChallengeItem {
	return models.ChallengeItem{Challenge: c, Assignee: a.Assignee, AssignedAt: a.CreatedAt}
}
