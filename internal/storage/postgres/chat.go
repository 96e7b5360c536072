package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/hongminglow/gigdash/internal/models"
)

// AppendChatMessage stores one conversation turn.
func (s *Store) AppendChatMessage(ctx context.Context, m models.ChatMessage) (models.ChatMessage, error) {
	err := s.pool.QueryRow(ctx, `INSERT INTO chat_messages (user_id, role, content) VALUES ($1, $2, $3)
		RETURNING id, created_at`, m.UserID, m.Role, m.Content).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return models.ChatMessage{}, mapWriteErr(err)
	}
	return m, nil
}

// ListChatMessages returns the latest limit messages in chronological order.
func (s *Store) ListChatMessages(ctx context.Context, userID int64, limit int) ([]models.ChatMessage, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, user_id, role, content, created_at FROM (
			SELECT * FROM chat_messages WHERE user_id = $1 ORDER BY id DESC LIMIT $2
		) recent ORDER BY id`, userID, limit)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row pgx.Row) (models.ChatMessage, error) {
		var m models.ChatMessage
		err := row.Scan(&m.ID, &m.UserID, &m.Role, &m.Content, &m.CreatedAt)
		return m, err
	})
}

// ClearChat removes a user's conversation history.
func (s *Store) ClearChat(ctx context.Context, userID int64) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM chat_messages WHERE user_id = $1`, userID)
	return err
}
