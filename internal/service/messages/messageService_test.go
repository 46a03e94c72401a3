package messageService

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhil/begreen/internal/logger"
	"github.com/nikhil/begreen/internal/models"
	"github.com/nikhil/begreen/internal/observable"
)

type fakeTx struct{}

func (fakeTx) Do(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

type fakeMessages struct {
	rows []models.Message
}

func (f *fakeMessages) Create(_ context.Context, m models.Message) error {
	f.rows = append(f.rows, m)
	return nil
}

func (f *fakeMessages) ListByTeam(_ context.Context, teamID string) ([]models.Message, error) {
	var out []models.Message
	for _, m := range f.rows {
		if m.TeamID == teamID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeMemberships []models.Membership

func (f fakeMemberships) GetByUser(_ context.Context, teamID, userID string) (*models.Membership, error) {
	for _, m := range f {
		if m.TeamID == teamID && m.UserID == userID {
			return &m, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f fakeMemberships) ListByTeam(_ context.Context, teamID string) ([]models.Membership, error) {
	var out []models.Membership
	for _, m := range f {
		if m.TeamID == teamID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakePreviews struct {
	pointers map[string]string
	err      error
}

func (f *fakePreviews) SetMessage(_ context.Context, teamID, messageID string) error {
	if f.err != nil {
		return f.err
	}
	f.pointers[teamID] = messageID
	return nil
}

var (
	alex  = models.Principal{UserID: "u-alex", Name: "Alex"}
	billy = models.Principal{UserID: "u-billy", Name: "Billy"}
)

func newTestService() (*MessageService, *fakeMessages, *fakePreviews, *[]observable.Event) {
	messages := &fakeMessages{}
	memberships := fakeMemberships{
		{TeamID: "t1", UserID: alex.UserID, UserName: "Alex"},
		{TeamID: "t1", UserID: billy.UserID, UserName: "Billy"},
	}
	previews := &fakePreviews{pointers: map[string]string{}}

	events := &[]observable.Event{}
	bus := observable.New()
	bus.AddEventListener(models.EventMessageCreated, func(e observable.Event) { *events = append(*events, e) })

	s := NewMessageService(messages, memberships, previews, fakeTx{}, bus, logger.NewNop())
	s.newID = func() string { return "msg-1" }
	s.now = func() time.Time { return time.Date(2024, 5, 3, 18, 30, 0, 0, time.UTC) }
	return s, messages, previews, events
}

func TestSend(t *testing.T) {
	s, messages, previews, events := newTestService()

	msg, err := s.Send(t.Context(), alex, "t1", "  Heute Fahrrad statt Auto!  ")
	require.NoError(t, err)

	assert.Equal(t, "Heute Fahrrad statt Auto!", msg.Content)
	assert.Equal(t, alex.UserID, msg.Author)
	assert.Len(t, messages.rows, 1)
	assert.Equal(t, "msg-1", previews.pointers["t1"])

	require.Len(t, *events, 1)
	item := (*events)[0].Data.(models.MessageItem)
	assert.Equal(t, "t1", item.TeamID)
	assert.Equal(t, "Alex", item.AuthorName)
}

func TestSendValidation(t *testing.T) {
	s, messages, _, events := newTestService()

	_, err := s.Send(t.Context(), alex, "t1", "   ")
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = s.Send(t.Context(), alex, "t1", strings.Repeat("a", maxMessageLength+1))
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = s.Send(t.Context(), models.Principal{UserID: "stranger"}, "t1", "hi")
	assert.ErrorIs(t, err, models.ErrForbidden)

	assert.Empty(t, messages.rows)
	assert.Empty(t, *events)
}

func TestSendPreviewFailure(t *testing.T) {
	s, _, previews, events := newTestService()
	previews.err = errors.New("db down")

	_, err := s.Send(t.Context(), alex, "t1", "hi")
	require.Error(t, err)
	assert.Empty(t, *events)
}

func TestListGroupsByDay(t *testing.T) {
	s, messages, _, _ := newTestService()
	day1 := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC).Unix()
	day2 := time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC).Unix()
	messages.rows = []models.Message{
		{ID: "a", TeamID: "t1", Author: billy.UserID, Content: "Hallo", CreatedAt: day1 + 60},
		{ID: "b", TeamID: "t1", Author: alex.UserID, Content: "Hi", CreatedAt: day1 + 3600},
		{ID: "c", TeamID: "t1", Author: "u-gone", Content: "Tschüss", CreatedAt: day2 + 10},
		{ID: "d", TeamID: "t2", Author: alex.UserID, Content: "other team", CreatedAt: day2},
	}

	sections, err := s.List(t.Context(), alex, "t1")
	require.NoError(t, err)
	require.Len(t, sections, 2)

	assert.Equal(t, "1714608000", sections[0].ID)
	assert.Equal(t, "02.05.2024", sections[0].Title)
	require.Len(t, sections[0].Items, 2)
	assert.True(t, sections[0].Items[0].Incoming)
	assert.Equal(t, "Billy", sections[0].Items[0].AuthorName)
	assert.False(t, sections[0].Items[1].Incoming)

	require.Len(t, sections[1].Items, 1)
	assert.Equal(t, day2, sections[1].UpdatedAt)
	assert.Equal(t, "", sections[1].Items[0].AuthorName)
}

func TestListRequiresMembership(t *testing.T) {
	s, _, _, _ := newTestService()

	_, err := s.List(t.Context(), models.Principal{UserID: "stranger"}, "t1")
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestDayStart(t *testing.T) {
	assert.Equal(t, int64(86400), dayStart(86400+3599))
	assert.Equal(t, int64(0), dayStart(0))
	assert.Equal(t, int64(-86400), dayStart(-1))
}
