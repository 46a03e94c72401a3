package repository

import (
	"context"
	"fmt"

	"github.com/nikhil/begreen/internal/database"
	"github.com/nikhil/begreen/internal/models"
)

type AssignmentRepository struct {
	db *database.DB
}

func NewAssignmentRepository(db *database.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

func (r *AssignmentRepository) Create(ctx context.Context, a models.Assignment) error {
	conn := r.db.Conn(ctx)

	_, err := conn.ExecContext(ctx,
		"INSERT INTO assignments (assignment_id, challenge_id, assignee, created_at) VALUES (?, ?, ?, ?)",
		a.ID, a.ChallengeID, a.Assignee, a.CreatedAt)
	if err != nil {
		if HandleDuplicateError(err) == models.ErrConflict {
			return models.ErrConflict
		}
		return fmt.Errorf("failed to insert assignment: %w", err)
	}
	return nil
}

// ListByAssignees returns the assignments of any of the given containers.
func (r *AssignmentRepository) ListByAssignees(ctx context.Context, assignees []string) ([]models.Assignment, error) {
	if len(assignees) == 0 {
		return nil, nil
	}
	conn := r.db.Conn(ctx)

	query := fmt.Sprintf(`
		SELECT assignment_id, challenge_id, assignee, created_at
		FROM assignments
		WHERE assignee IN (%s)
		ORDER BY created_at, assignment_id`, placeholders(len(assignees)))
	rows, err := conn.QueryContext(ctx, query, stringArgs(assignees)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var assignments []models.Assignment
	for rows.Next() {
		var a models.Assignment
		if err := rows.Scan(&a.ID, &a.ChallengeID, &a.Assignee, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignments: %w", err)
	}
	return assignments, nil
}

func (r *AssignmentRepository) Find(ctx context.Context, challengeID, assignee string) (*models.Assignment, error) {
	conn := r.db.Conn(ctx)

	var a models.Assignment
	err := conn.QueryRowContext(ctx, `
		SELECT assignment_id, challenge_id, assignee, created_at
		FROM assignments WHERE challenge_id = ? AND assignee = ?`, challengeID, assignee).
		Scan(&a.ID, &a.ChallengeID, &a.Assignee, &a.CreatedAt)
	if err != nil {
		if err = HandleNoRowsError(err); err == models.ErrNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	return &a, nil
}

func (r *AssignmentRepository) Delete(ctx context.Context, assignmentID string) error {
	conn := r.db.Conn(ctx)

	if _, err := conn.ExecContext(ctx, "DELETE FROM assignments WHERE assignment_id = ?", assignmentID); err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}
	return nil
}

func (r *AssignmentRepository) DeleteByChallenge(ctx context.Context, challengeID string) (int64, error) {
	conn := r.db.Conn(ctx)

	res, err := conn.ExecContext(ctx, "DELETE FROM assignments WHERE challenge_id = ?", challengeID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete assignments: %w", err)
	}
	return res.RowsAffected()
}

func (r *AssignmentRepository) DeleteByAssignee(ctx context.Context, assignee string) (int64, error) {
	conn := r.db.Conn(ctx)

	res, err := conn.ExecContext(ctx, "DELETE FROM assignments WHERE assignee = ?", assignee)
	if err != nil {
		return 0, fmt.Errorf("failed to delete assignments: %w", err)
	}
	return res.RowsAffected()
}
