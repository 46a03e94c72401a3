package repository

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhil/begreen/internal/database"
	"github.com/nikhil/begreen/internal/models"
)

func newMockDB(t *testing.T) (*database.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})

	return database.NewDB(db), mock
}

func TestHandleErrors(t *testing.T) {
	assert.ErrorIs(t, HandleNoRowsError(sql.ErrNoRows), models.ErrNotFound)
	other := errors.New("boom")
	assert.Equal(t, other, HandleNoRowsError(other))

	assert.ErrorIs(t, HandleDuplicateError(&mysql.MySQLError{Number: 1062}), models.ErrConflict)
	assert.Equal(t, other, HandleDuplicateError(other))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "", placeholders(0))
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?, ?, ?", placeholders(3))
}

func TestLikePatternEscapesWildcards(t *testing.T) {
	assert.Equal(t, `%100\% bio\_%`, likePattern("100% bio_"))
}

func TestTeamRepositoryListForUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTeamRepository(db)

	rows := sqlmock.NewRows([]string{"team_id", "team_name", "team_type", "created_by", "created_at", "updated_at"}).
		AddRow("t1", "Gruppe", models.TeamTypeGroup, "u1", int64(20), int64(20)).
		AddRow("t2", "chat", models.TeamTypeChat, "u1", int64(10), int64(10))
	mock.ExpectQuery(`FROM teams t\s+JOIN user_teams_mapper tm`).
		WithArgs("u1").
		WillReturnRows(rows)

	teams, err := repo.ListForUser(t.Context(), "u1")
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, "Gruppe", teams[0].Name)
	assert.Equal(t, models.TeamTypeChat, teams[1].Type)
}

func TestTeamRepositoryGetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTeamRepository(db)

	mock.ExpectQuery(`FROM teams WHERE team_id = \?`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(t.Context(), "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestTeamRepositoryDeleteReportsMissingTeam(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTeamRepository(db)

	mock.ExpectExec(`DELETE FROM teams WHERE team_id = \?`).
		WithArgs("t1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(t.Context(), "t1"), models.ErrNotFound)
}

func TestMembershipRepositoryListByTeamsExpandsPlaceholders(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMembershipRepository(db)

	rows := sqlmock.NewRows([]string{"membership_id", "team_id", "user_id", "name", "email", "role", "joined_at", "invited_by"}).
		AddRow("m1", "t1", "u1", "Alex", "alex@example.com", models.RoleOwner, int64(1), nil).
		AddRow("m2", "t2", "u2", "Sam", "sam@example.com", models.RoleAdmin, int64(2), "u1")
	mock.ExpectQuery(`WHERE tm.team_id IN \(\?, \?\)`).
		WithArgs("t1", "t2").
		WillReturnRows(rows)

	memberships, err := repo.ListByTeams(t.Context(), []string{"t1", "t2"})
	require.NoError(t, err)
	require.Len(t, memberships, 2)
	assert.Empty(t, memberships[0].InvitedBy)
	assert.Equal(t, "u1", memberships[1].InvitedBy)
	assert.Equal(t, "Sam", memberships[1].UserName)
}

func TestMembershipRepositoryListByTeamsEmpty(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewMembershipRepository(db)

	memberships, err := repo.ListByTeams(t.Context(), nil)
	require.NoError(t, err)
	assert.Empty(t, memberships)
}

func TestMembershipRepositoryCreateDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMembershipRepository(db)

	mock.ExpectExec(`INSERT INTO user_teams_mapper`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := repo.Create(t.Context(), models.Membership{ID: "m1", TeamID: "t1", UserID: "u1", Role: models.RoleAdmin})
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestChallengeRepositoryListWithSearch(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewChallengeRepository(db)

	rows := sqlmock.NewRows([]string{"challenge_id", "title", "description", "duration", "score", "author", "origin", "created_at", "updated_at"}).
		AddRow("c1", "Fahrrad fahren", "", "1 Woche", 30, "u1", "u1", int64(1), int64(1))
	mock.ExpectQuery(`WHERE LOWER\(title\) LIKE LOWER\(\?\)`).
		WithArgs("%rad%").
		WillReturnRows(rows)

	challenges, err := repo.List(t.Context(), "rad")
	require.NoError(t, err)
	require.Len(t, challenges, 1)
	assert.Equal(t, 30, challenges[0].Score)
}

func TestPreviewRepositoryGetForUpdate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPreviewRepository(db)

	rows := sqlmock.NewRows([]string{"preview_id", "score", "message_id", "created_at", "updated_at"}).
		AddRow("t1", 15, nil, int64(1), int64(2))
	mock.ExpectQuery(`FROM previews WHERE preview_id = \? FOR UPDATE`).
		WithArgs("t1").
		WillReturnRows(rows)

	p, err := repo.GetForUpdate(t.Context(), "t1")
	require.NoError(t, err)
	assert.Equal(t, 15, p.Score)
	assert.Empty(t, p.MessageID)
}

func TestPreviewRepositoryUpdateWritesNullMessage(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPreviewRepository(db)

	mock.ExpectExec(`UPDATE previews SET score = \?, message_id = \?, updated_at = \? WHERE preview_id = \?`).
		WithArgs(5, sql.NullString{}, int64(3), "t1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(t.Context(), models.Preview{ID: "t1", Score: 5, UpdatedAt: 3}))
}
