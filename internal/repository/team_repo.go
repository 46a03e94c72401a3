package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nikhil/begreen/internal/database"
	"github.com/nikhil/begreen/internal/models"
)

type TeamRepository struct {
	db *database.DB
}

func NewTeamRepository(db *database.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) Create(ctx context.Context, team models.Team) error {
	conn := r.db.Conn(ctx)

	_, err := conn.ExecContext(ctx, `
		INSERT INTO teams (team_id, team_name, team_type, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		team.ID, team.Name, team.Type, team.CreatedBy, team.CreatedAt, team.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert team: %w", err)
	}
	return nil
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (*models.Team, error) {
	conn := r.db.Conn(ctx)

	var t models.Team
	err := conn.QueryRowContext(ctx, `
		SELECT team_id, team_name, team_type, created_by, created_at, updated_at
		FROM teams WHERE team_id = ?`, teamID).
		Scan(&t.ID, &t.Name, &t.Type, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err = HandleNoRowsError(err); err == models.ErrNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return &t, nil
}

// ListForUser returns the teams the user is a member of, newest first.
func (r *TeamRepository) ListForUser(ctx context.Context, userID string) ([]models.Team, error) {
	conn := r.db.Conn(ctx)

	rows, err := conn.QueryContext(ctx, `
		SELECT t.team_id, t.team_name, t.team_type, t.created_by, t.created_at, t.updated_at
		FROM teams t
		JOIN user_teams_mapper tm ON t.team_id = tm.team_id
		WHERE tm.user_id = ?
		ORDER BY t.created_at DESC, t.team_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer rows.Close()

	return scanTeams(rows)
}

func (r *TeamRepository) UpdateName(ctx context.Context, teamID, name string, updatedAt int64) error {
	conn := r.db.Conn(ctx)

	res, err := conn.ExecContext(ctx,
		"UPDATE teams SET team_name = ?, updated_at = ? WHERE team_id = ?", name, updatedAt, teamID)
	if err != nil {
		return fmt.Errorf("failed to update team: %w", err)
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

// Delete removes the team; memberships and messages cascade.
func (r *TeamRepository) Delete(ctx context.Context, teamID string) error {
	conn := r.db.Conn(ctx)

	res, err := conn.ExecContext(ctx, "DELETE FROM teams WHERE team_id = ?", teamID)
	if err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
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

func scanTeams(rows *sql.Rows) ([]models.Team, error) {
	var teams []models.Team
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.Type, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating teams: %w", err)
	}
	return teams, nil
}
