package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nikhil/begreen/internal/database"
	"github.com/nikhil/begreen/internal/models"
)

type MessageRepository struct {
	db *database.DB
}

func NewMessageRepository(db *database.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, m models.Message) error {
	conn := r.db.Conn(ctx)

	_, err := conn.ExecContext(ctx,
		`INSERT INTO messages (message_id, team_id, user_id, content, message_created_at) VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.TeamID, m.Author, m.Content, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// ListByTeam returns the messages of a team, oldest first.
func (r *MessageRepository) ListByTeam(ctx context.Context, teamID string) ([]models.Message, error) {
	conn := r.db.Conn(ctx)

	rows, err := conn.QueryContext(ctx, `
		SELECT message_id, team_id, user_id, content, message_created_at
		FROM messages
		WHERE team_id = ?
		ORDER BY message_created_at, message_id`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (r *MessageRepository) GetByIDs(ctx context.Context, messageIDs []string) ([]models.Message, error) {
	if len(messageIDs) == 0 {
		return nil, nil
	}
	conn := r.db.Conn(ctx)

	query := fmt.Sprintf(`
		SELECT message_id, team_id, user_id, content, message_created_at
		FROM messages
		WHERE message_id IN (%s)`, placeholders(len(messageIDs)))
	rows, err := conn.QueryContext(ctx, query, stringArgs(messageIDs)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]models.Message, error) {
	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.TeamID, &m.Author, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}
	return messages, nil
}
