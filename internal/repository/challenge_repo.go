package repository

import (
	"context"
	"fmt"

	"github.com/nikhil/begreen/internal/database"
	"github.com/nikhil/begreen/internal/models"
)

type ChallengeRepository struct {
	db *database.DB
}

func NewChallengeRepository(db *database.DB) *ChallengeRepository {
	return &ChallengeRepository{db: db}
}

func (r *ChallengeRepository) Create(ctx context.Context, c models.Challenge) error {
	conn := r.db.Conn(ctx)

	_, err := conn.ExecContext(ctx, `
		INSERT INTO challenges (challenge_id, title, description, duration, score, author, origin, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Title, c.Description, c.Duration, c.Score, c.Author, c.Origin, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert challenge: %w", err)
	}
	return nil
}

func (r *ChallengeRepository) GetByID(ctx context.Context, challengeID string) (*models.Challenge, error) {
	conn := r.db.Conn(ctx)

	var c models.Challenge
	err := conn.QueryRowContext(ctx, `
		SELECT challenge_id, title, description, duration, score, author, origin, created_at, updated_at
		FROM challenges WHERE challenge_id = ?`, challengeID).
		Scan(&c.ID, &c.Title, &c.Description, &c.Duration, &c.Score, &c.Author, &c.Origin, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err = HandleNoRowsError(err); err == models.ErrNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	return &c, nil
}

// List returns all challenges in creation order, optionally filtered by a
// case-insensitive title search.
func (r *ChallengeRepository) List(ctx context.Context, search string) ([]models.Challenge, error) {
	conn := r.db.Conn(ctx)

	query := `
		SELECT challenge_id, title, description, duration, score, author, origin, created_at, updated_at
		FROM challenges`
	var args []interface{}
	if search != "" {
		query += ` WHERE LOWER(title) LIKE LOWER(?)`
		args = append(args, likePattern(search))
	}
	query += ` ORDER BY created_at, challenge_id`

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query challenges: %w", err)
	}
	defer rows.Close()

	var challenges []models.Challenge
	for rows.Next() {
		var c models.Challenge
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.Duration, &c.Score, &c.Author, &c.Origin, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		challenges = append(challenges, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating challenges: %w", err)
	}
	return challenges, nil
}

func (r *ChallengeRepository) Delete(ctx context.Context, challengeID string) error {
	conn := r.db.Conn(ctx)

	res, err := conn.ExecContext(ctx, "DELETE FROM challenges WHERE challenge_id = ?", challengeID)
	if err != nil {
		return fmt.Errorf("failed to delete challenge: %w", err)
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
