package messageService

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
	maxMessageLength = 2000
	dayTitleLayout   = "02.01.2006"
)

type MessageRepository interface {
	Create(ctx context.Context, m models.Message) error
	ListByTeam(ctx context.Context, teamID string) ([]models.Message, error)
}

type MembershipRepository interface {
	GetByUser(ctx context.Context, teamID, userID string) (*models.Membership, error)
	ListByTeam(ctx context.Context, teamID string) ([]models.Membership, error)
}

// PreviewUpdater keeps the last message pointer of a team.
type PreviewUpdater interface {
	SetMessage(ctx context.Context, teamID, messageID string) error
}

type MessageService struct {
	messages    MessageRepository
	memberships MembershipRepository
	previews    PreviewUpdater
	tx          database.Transactor
	bus         *observable.Observable
	now         func() time.Time
	newID       func() string
	Log         *logger.Logger
}

func NewMessageService(messages MessageRepository, memberships MembershipRepository, previews PreviewUpdater, tx database.Transactor, bus *observable.Observable, log *logger.Logger) *MessageService {
	return &MessageService{
		messages:    messages,
		memberships: memberships,
		previews:    previews,
		tx:          tx,
		bus:         bus,
		now:         time.Now,
		newID:       uuid.NewString,
		Log:         log,
	}
}

// List returns the messages of a team grouped by day, oldest first.
func (ms *MessageService) List(ctx context.Context, user models.Principal, teamID string) ([]models.Section[models.MessageItem], error) {
	if err := ms.ensureMember(ctx, teamID, user.UserID); err != nil {
		return nil, err
	}

	members, err := ms.memberships.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(members))
	for _, m := range members {
		names[m.UserID] = m.UserName
	}

	messages, err := ms.messages.ListByTeam(ctx, teamID)
	if err != nil {
		ms.Log.Error("Failed to list messages", "team_id", teamID, "error", err)
		return nil, err
	}

	var sections []models.Section[models.MessageItem]
	for _, m := range messages {
		day := dayStart(m.CreatedAt)
		if len(sections) == 0 || sections[len(sections)-1].UpdatedAt != day {
			sections = append(sections, models.Section[models.MessageItem]{
				ID:        strconv.FormatInt(day, 10),
				Title:     time.Unix(day, 0).UTC().Format(dayTitleLayout),
				UpdatedAt: day,
			})
		}
		sections[len(sections)-1].Add(models.MessageItem{
			Message:    m,
			AuthorName: names[m.Author],
			Incoming:   m.Author != user.UserID,
		})
	}
	return sections, nil
}

// Send stores a message and points the team preview at it.
func (ms *MessageService) Send(ctx context.Context, user models.Principal, teamID, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: message is empty", models.ErrInvalidInput)
	}
	if utf8.RuneCountInString(content) > maxMessageLength {
		return nil, fmt.Errorf("%w: message must be at most %d characters", models.ErrInvalidInput, maxMessageLength)
	}
	if err := ms.ensureMember(ctx, teamID, user.UserID); err != nil {
		return nil, err
	}

	msg := models.Message{
		ID:        ms.newID(),
		TeamID:    teamID,
		Author:    user.UserID,
		Content:   content,
		CreatedAt: ms.now().UTC().Unix(),
	}

	err := ms.tx.Do(ctx, func(ctx context.Context) error {
		if err := ms.messages.Create(ctx, msg); err != nil {
			return err
		}
		return ms.previews.SetMessage(ctx, teamID, msg.ID)
	})
	if err != nil {
		ms.Log.Error("Failed to insert message", "team_id", teamID, "user_id", user.UserID, "error", err)
		return nil, err
	}

	ms.bus.NotifyAll(observable.Event{Type: models.EventMessageCreated, Data: models.MessageItem{
		Message:    msg,
		AuthorName: user.Name,
	}})
	return &msg, nil
}

func (ms *MessageService) ensureMember(ctx context.Context, teamID, userID string) error {
	_, err := ms.memberships.GetByUser(ctx, teamID, userID)
	if errors.Is(err, models.ErrNotFound) {
		return models.ErrForbidden
	}
	return err
}

// dayStart truncates a unix timestamp to midnight UTC.
func dayStart(ts int64) int64 {
	const day = 24 * 60 * 60
	if ts < 0 {
		return ts - (day+ts%day)%day
	}
	return ts - ts%day
}
