package teamService

import (
	"context"
	"fmt"
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

type fakeTeams struct {
	rows  []models.Team
	store *fakeMemberships
}

func (f *fakeTeams) Create(_ context.Context, team models.Team) error {
	f.rows = append(f.rows, team)
	return nil
}

func (f *fakeTeams) GetByID(_ context.Context, id string) (*models.Team, error) {
	for _, t := range f.rows {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeTeams) ListForUser(_ context.Context, userID string) ([]models.Team, error) {
	var out []models.Team
	for _, t := range f.rows {
		for _, m := range f.store.rows {
			if m.TeamID == t.ID && m.UserID == userID {
				out = append(out, t)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeTeams) UpdateName(_ context.Context, id, name string, updatedAt int64) error {
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows[i].Name = name
			f.rows[i].UpdatedAt = updatedAt
			return nil
		}
	}
	return models.ErrNotFound
}

func (f *fakeTeams) Delete(_ context.Context, id string) error {
	for i, t := range f.rows {
		if t.ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			var kept []models.Membership
			for _, m := range f.store.rows {
				if m.TeamID != id {
					kept = append(kept, m)
				}
			}
			f.store.rows = kept
			return nil
		}
	}
	return models.ErrNotFound
}

type fakeMemberships struct {
	rows []models.Membership
}

func (f *fakeMemberships) Create(_ context.Context, m models.Membership) error {
	for _, existing := range f.rows {
		if existing.TeamID == m.TeamID && existing.UserID == m.UserID {
			return models.ErrConflict
		}
	}
	f.rows = append(f.rows, m)
	return nil
}

func (f *fakeMemberships) ListByTeam(ctx context.Context, teamID string) ([]models.Membership, error) {
	return f.ListByTeams(ctx, []string{teamID})
}

func (f *fakeMemberships) ListByTeams(_ context.Context, teamIDs []string) ([]models.Membership, error) {
	var out []models.Membership
	for _, id := range teamIDs {
		for _, m := range f.rows {
			if m.TeamID == id {
				out = append(out, m)
			}
		}
	}
	return out, nil
}

func (f *fakeMemberships) GetByUser(_ context.Context, teamID, userID string) (*models.Membership, error) {
	for _, m := range f.rows {
		if m.TeamID == teamID && m.UserID == userID {
			return &m, nil
		}
	}
	return nil, models.ErrNotFound
}

type fakeUsers map[string]models.User

func (f fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := f[email]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &u, nil
}

type fakeAssignments struct {
	deleted []string
}

func (f *fakeAssignments) DeleteByAssignee(_ context.Context, assignee string) (int64, error) {
	f.deleted = append(f.deleted, assignee)
	return 1, nil
}

type fakePreviews struct {
	rows    map[string]models.Preview
	deleted []string
}

func (f *fakePreviews) ListByIDs(_ context.Context, ids []string) ([]models.Preview, error) {
	var out []models.Preview
	for _, id := range ids {
		if p, ok := f.rows[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePreviews) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	delete(f.rows, id)
	return nil
}

type fakeMessages map[string]models.Message

func (f fakeMessages) GetByIDs(_ context.Context, ids []string) ([]models.Message, error) {
	var out []models.Message
	for _, id := range ids {
		if m, ok := f[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

type fixture struct {
	service     *TeamService
	teams       *fakeTeams
	memberships *fakeMemberships
	assignments *fakeAssignments
	previews    *fakePreviews
	messages    fakeMessages
	events      []observable.Event
}

var (
	alex  = models.Principal{UserID: "u-alex", Email: "alex@example.com", Name: "Alex"}
	billy = models.User{UserID: "u-billy", Email: "billy@example.com", Name: "Billy"}
	casey = models.User{UserID: "u-casey", Email: "casey@example.com", Name: "Casey"}
)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		memberships: &fakeMemberships{},
		assignments: &fakeAssignments{},
		previews:    &fakePreviews{rows: map[string]models.Preview{}},
		messages:    fakeMessages{},
	}
	f.teams = &fakeTeams{store: f.memberships}

	bus := observable.New()
	bus.AddEventListener(observable.Wildcard, func(e observable.Event) { f.events = append(f.events, e) })

	users := fakeUsers{
		alex.Email:  {UserID: alex.UserID, Email: alex.Email, Name: alex.Name},
		billy.Email: billy,
		casey.Email: casey,
	}

	f.service = NewTeamService(Deps{
		Teams:       f.teams,
		Memberships: f.memberships,
		Users:       users,
		Assignments: f.assignments,
		Previews:    f.previews,
		Messages:    f.messages,
	}, fakeTx{}, bus, logger.NewNop())

	seq := 0
	f.service.newID = func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	f.service.now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	return f
}

// addTeam stores a team with members in the given order.
func (f *fixture) addTeam(id, name, teamType string, members ...models.Membership) {
	f.teams.rows = append(f.teams.rows, models.Team{ID: id, Name: name, Type: teamType})
	for i, m := range members {
		m.ID = fmt.Sprintf("%s-m%d", id, i)
		m.TeamID = id
		if m.Role == "" {
			m.Role = models.RoleMember
		}
		f.memberships.rows = append(f.memberships.rows, m)
	}
}

func member(u models.User) models.Membership {
	return models.Membership{UserID: u.UserID, UserName: u.Name}
}

var me = models.Membership{UserID: alex.UserID, UserName: alex.Name, Role: models.RoleOwner}

func TestCreateGroup(t *testing.T) {
	f := newFixture(t)

	team, err := f.service.CreateGroup(t.Context(), alex, "  Klimaheld:innen ")
	require.NoError(t, err)

	assert.Equal(t, "Klimaheld:innen", team.Name)
	assert.Equal(t, models.TeamTypeGroup, team.Type)
	require.Len(t, f.memberships.rows, 1)
	assert.Equal(t, models.RoleOwner, f.memberships.rows[0].Role)
	assert.Equal(t, alex.UserID, f.memberships.rows[0].UserID)

	require.Len(t, f.events, 1)
	assert.Equal(t, models.EventTeamCreated, f.events[0].Type)
}

func TestCreateGroupValidatesName(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.CreateGroup(t.Context(), alex, "   ")
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	long := make([]rune, maxTeamNameLength+1)
	for i := range long {
		long[i] = 'ä'
	}
	_, err = f.service.CreateGroup(t.Context(), alex, string(long))
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	assert.Empty(t, f.teams.rows)
}

func TestCreateChat(t *testing.T) {
	f := newFixture(t)

	team, err := f.service.CreateChat(t.Context(), alex, billy.Email)
	require.NoError(t, err)
	assert.Equal(t, "Billy", team.Name)
	assert.Equal(t, models.TeamTypeChat, team.Type)
	assert.Equal(t, "chat", f.teams.rows[0].Name)

	require.Len(t, f.memberships.rows, 2)
	for _, m := range f.memberships.rows {
		assert.Equal(t, models.RoleOwner, m.Role)
	}
	assert.Equal(t, alex.UserID, f.memberships.rows[1].InvitedBy)
}

func TestCreateChatErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.CreateChat(t.Context(), alex, "nobody@example.com")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = f.service.CreateChat(t.Context(), alex, alex.Email)
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = f.service.CreateChat(t.Context(), alex, "")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	assert.Empty(t, f.events)
}

func TestListNaming(t *testing.T) {
	f := newFixture(t)
	f.addTeam("t-group", "Nachbarschaft", models.TeamTypeGroup, me, member(billy))
	f.addTeam("t-chat", "chat", models.TeamTypeChat, me, member(billy))
	f.addTeam("t-alone", "chat", models.TeamTypeChat, me)

	short, err := f.service.List(t.Context(), alex, models.NamingShort, "")
	require.NoError(t, err)
	require.Len(t, short, 2)
	assert.Equal(t, "Nachbarschaft", short[0].Name)
	assert.Equal(t, "Billy", short[1].Name)

	full, err := f.service.List(t.Context(), alex, models.NamingFull, "")
	require.NoError(t, err)
	require.Len(t, full, 3)
	assert.Equal(t, "Alex + Billy", full[1].Name)
	assert.Equal(t, "Alex", full[2].Name)
}

func TestListRejectsUnknownNaming(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.List(t.Context(), alex, "medium", "")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestListSearch(t *testing.T) {
	f := newFixture(t)
	f.addTeam("t-group", "Nachbarschaft", models.TeamTypeGroup, me)
	f.addTeam("t-chat", "chat", models.TeamTypeChat, me, member(billy))

	teams, err := f.service.List(t.Context(), alex, models.NamingShort, "BIL")
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, "t-chat", teams[0].ID)
}

func TestDisplayName(t *testing.T) {
	members := []models.Membership{me, member(billy), member(casey)}

	name, ok := DisplayName(members, alex.UserID, models.NamingShort)
	assert.True(t, ok)
	assert.Equal(t, "Billy", name)

	name, ok = DisplayName(members, alex.UserID, models.NamingFull)
	assert.True(t, ok)
	assert.Equal(t, "Alex + Billy + Casey", name)

	_, ok = DisplayName(nil, alex.UserID, models.NamingFull)
	assert.False(t, ok)
}

func TestOverview(t *testing.T) {
	f := newFixture(t)
	f.addTeam("t-group", "Nachbarschaft", models.TeamTypeGroup, me)
	f.addTeam("t-scored", "WG", models.TeamTypeGroup, me)
	f.addTeam("t-chat", "chat", models.TeamTypeChat, me, member(billy))
	f.previews.rows["t-scored"] = models.Preview{ID: "t-scored", Score: 25}
	f.previews.rows["t-chat"] = models.Preview{ID: "t-chat", Score: 5, MessageID: "msg-1"}
	f.messages["msg-1"] = models.Message{ID: "msg-1", Content: "Bis morgen!"}

	sections, err := f.service.Overview(t.Context(), alex, "")
	require.NoError(t, err)
	require.Len(t, sections, 2)

	assert.Equal(t, "Gruppen", sections[0].Title)
	require.Len(t, sections[0].Items, 2)
	assert.Equal(t, "", sections[0].Items[0].Detail)
	assert.Equal(t, "25 🍀", sections[0].Items[1].Detail)

	assert.Equal(t, "Freunde", sections[1].Title)
	require.Len(t, sections[1].Items, 1)
	assert.Equal(t, "Billy", sections[1].Items[0].Name)
	assert.Equal(t, "Bis morgen!", sections[1].Items[0].Detail)
}

func TestOverviewDropsEmptySections(t *testing.T) {
	f := newFixture(t)
	f.addTeam("t-group", "Nachbarschaft", models.TeamTypeGroup, me)

	sections, err := f.service.Overview(t.Context(), alex, "")
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, "groups", sections[0].ID)
}

func TestGetRequiresMembership(t *testing.T) {
	f := newFixture(t)
	f.addTeam("t-chat", "chat", models.TeamTypeChat, member(billy), member(casey))

	_, err := f.service.Get(t.Context(), alex, "t-chat")
	assert.ErrorIs(t, err, models.ErrForbidden)

	team, err := f.service.Get(t.Context(), models.Principal{UserID: billy.UserID}, "t-chat")
	require.NoError(t, err)
	assert.Equal(t, "Casey", team.Name)
}

func TestRename(t *testing.T) {
	f := newFixture(t)
	f.addTeam("t-group", "Alt", models.TeamTypeGroup, me, member(billy))
	f.addTeam("t-chat", "chat", models.TeamTypeChat, me, member(billy))

	team, err := f.service.Rename(t.Context(), alex, "t-group", "Neu")
	require.NoError(t, err)
	assert.Equal(t, "Neu", team.Name)
	assert.Equal(t, "Neu", f.teams.rows[0].Name)

	_, err = f.service.Rename(t.Context(), models.Principal{UserID: billy.UserID}, "t-group", "Billys")
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = f.service.Rename(t.Context(), alex, "t-chat", "Neu")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	f.addTeam("t-group", "WG", models.TeamTypeGroup, me, member(billy))
	f.previews.rows["t-group"] = models.Preview{ID: "t-group", Score: 10}

	err := f.service.Delete(t.Context(), models.Principal{UserID: billy.UserID}, "t-group")
	assert.ErrorIs(t, err, models.ErrForbidden)

	require.NoError(t, f.service.Delete(t.Context(), alex, "t-group"))
	assert.Empty(t, f.teams.rows)
	assert.Empty(t, f.memberships.rows)
	assert.Equal(t, []string{"t-group"}, f.assignments.deleted)
	assert.Equal(t, []string{"t-group"}, f.previews.deleted)

	require.Len(t, f.events, 1)
	assert.Equal(t, models.EventTeamDeleted, f.events[0].Type)
	assert.Equal(t, "t-group", f.events[0].Data.(models.Team).ID)
}
