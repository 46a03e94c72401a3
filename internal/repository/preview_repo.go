package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nikhil/begreen/internal/database"
	"github.com/nikhil/begreen/internal/models"
)

type PreviewRepository struct {
	db *database.DB
}

func NewPreviewRepository(db *database.DB) *PreviewRepository {
	return &PreviewRepository{db: db}
}

// GetForUpdate loads a preview and locks its row for the surrounding
// transaction.
func (r *PreviewRepository) GetForUpdate(ctx context.Context, previewID string) (*models.Preview, error) {
	conn := r.db.Conn(ctx)

	row := conn.QueryRowContext(ctx, `
		SELECT preview_id, score, message_id, created_at, updated_at
		FROM previews WHERE preview_id = ? FOR UPDATE`, previewID)
	p, err := scanPreview(row)
	if err != nil {
		if err = HandleNoRowsError(err); err == models.ErrNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get preview: %w", err)
	}
	return p, nil
}

func (r *PreviewRepository) ListByIDs(ctx context.Context, previewIDs []string) ([]models.Preview, error) {
	if len(previewIDs) == 0 {
		return nil, nil
	}
	conn := r.db.Conn(ctx)

	query := fmt.Sprintf(`
		SELECT preview_id, score, message_id, created_at, updated_at
		FROM previews WHERE preview_id IN (%s)`, placeholders(len(previewIDs)))
	rows, err := conn.QueryContext(ctx, query, stringArgs(previewIDs)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query previews: %w", err)
	}
	defer rows.Close()

	return scanPreviews(rows)
}

// ListByScore returns every preview, best score first.
func (r *PreviewRepository) ListByScore(ctx context.Context) ([]models.Preview, error) {
	conn := r.db.Conn(ctx)

	rows, err := conn.QueryContext(ctx, `
		SELECT preview_id, score, message_id, created_at, updated_at
		FROM previews
		ORDER BY score DESC, preview_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query previews: %w", err)
	}
	defer rows.Close()

	return scanPreviews(rows)
}

func (r *PreviewRepository) Create(ctx context.Context, p models.Preview) error {
	conn := r.db.Conn(ctx)

	_, err := conn.ExecContext(ctx, `
		INSERT INTO previews (preview_id, score, message_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Score, nullString(p.MessageID), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if HandleDuplicateError(err) == models.ErrConflict {
			return models.ErrConflict
		}
		return fmt.Errorf("failed to insert preview: %w", err)
	}
	return nil
}

// Update writes score and message pointer of an existing preview.
func (r *PreviewRepository) Update(ctx context.Context, p models.Preview) error {
	conn := r.db.Conn(ctx)

	res, err := conn.ExecContext(ctx, `
		UPDATE previews SET score = ?, message_id = ?, updated_at = ? WHERE preview_id = ?`,
		p.Score, nullString(p.MessageID), p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update preview: %w", err)
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

func (r *PreviewRepository) Delete(ctx context.Context, previewID string) error {
	conn := r.db.Conn(ctx)

	if _, err := conn.ExecContext(ctx, "DELETE FROM previews WHERE preview_id = ?", previewID); err != nil {
		return fmt.Errorf("failed to delete preview: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func scanPreview(s scanner) (*models.Preview, error) {
	var (
		p         models.Preview
		messageID sql.NullString
	)
	if err := s.Scan(&p.ID, &p.Score, &messageID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.MessageID = messageID.String
	return &p, nil
}

func scanPreviews(rows *sql.Rows) ([]models.Preview, error) {
	var previews []models.Preview
	for rows.Next() {
		p, err := scanPreview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan preview: %w", err)
		}
		previews = append(previews, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating previews: %w", err)
	}
	return previews, nil
}
