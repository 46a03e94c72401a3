package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nikhil/begreen/internal/database"
	"github.com/nikhil/begreen/internal/models"
)

const membershipColumns = `
	tm.membership_id, tm.team_id, tm.user_id, u.name, u.email, tm.role, tm.joined_at, tm.invited_by`

type MembershipRepository struct {
	db *database.DB
}

func NewMembershipRepository(db *database.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

func (r *MembershipRepository) Create(ctx context.Context, m models.Membership) error {
	conn := r.db.Conn(ctx)

	var invitedBy sql.NullString
	if m.InvitedBy != "" {
		invitedBy = sql.NullString{String: m.InvitedBy, Valid: true}
	}

	_, err := conn.ExecContext(ctx, `
		INSERT INTO user_teams_mapper (membership_id, team_id, user_id, role, joined_at, invited_by)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.TeamID, m.UserID, m.Role, m.JoinedAt, invitedBy)
	if err != nil {
		if HandleDuplicateError(err) == models.ErrConflict {
			return models.ErrConflict
		}
		return fmt.Errorf("failed to insert membership: %w", err)
	}
	return nil
}

// ListByTeam returns the members of a team in joining order.
func (r *MembershipRepository) ListByTeam(ctx context.Context, teamID string) ([]models.Membership, error) {
	return r.ListByTeams(ctx, []string{teamID})
}

// ListByTeams returns the members of several teams, grouped by team and in
// joining order within a team.
func (r *MembershipRepository) ListByTeams(ctx context.Context, teamIDs []string) ([]models.Membership, error) {
	if len(teamIDs) == 0 {
		return nil, nil
	}
	conn := r.db.Conn(ctx)

	query := fmt.Sprintf(`
		SELECT %s
		FROM user_teams_mapper tm
		JOIN users u ON u.user_id = tm.user_id
		WHERE tm.team_id IN (%s)
		ORDER BY tm.team_id, tm.joined_at, tm.membership_id`, membershipColumns, placeholders(len(teamIDs)))
	rows, err := conn.QueryContext(ctx, query, stringArgs(teamIDs)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query memberships: %w", err)
	}
	defer rows.Close()

	var memberships []models.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating memberships: %w", err)
	}
	return memberships, nil
}

func (r *MembershipRepository) Get(ctx context.Context, teamID, membershipID string) (*models.Membership, error) {
	conn := r.db.Conn(ctx)

	row := conn.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s
		FROM user_teams_mapper tm
		JOIN users u ON u.user_id = tm.user_id
		WHERE tm.team_id = ? AND tm.membership_id = ?`, membershipColumns), teamID, membershipID)
	m, err := scanMembership(row)
	if err != nil {
		if err = HandleNoRowsError(err); err == models.ErrNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return m, nil
}

// GetByUser returns the membership of userID in teamID.
func (r *MembershipRepository) GetByUser(ctx context.Context, teamID, userID string) (*models.Membership, error) {
	conn := r.db.Conn(ctx)

	row := conn.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s
		FROM user_teams_mapper tm
		JOIN users u ON u.user_id = tm.user_id
		WHERE tm.team_id = ? AND tm.user_id = ?`, membershipColumns), teamID, userID)
	m, err := scanMembership(row)
	if err != nil {
		if err = HandleNoRowsError(err); err == models.ErrNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return m, nil
}

func (r *MembershipRepository) Delete(ctx context.Context, membershipID string) error {
	conn := r.db.Conn(ctx)

	res, err := conn.ExecContext(ctx, "DELETE FROM user_teams_mapper WHERE membership_id = ?", membershipID)
	if err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanMembership(s scanner) (*models.Membership, error) {
	var (
		m         models.Membership
		invitedBy sql.NullString
	)
	if err := s.Scan(&m.ID, &m.TeamID, &m.UserID, &m.UserName, &m.UserEmail, &m.Role, &m.JoinedAt, &invitedBy); err != nil {
		return nil, err
	}
	m.InvitedBy = invitedBy.String
	return &m, nil
}
