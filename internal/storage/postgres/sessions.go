package postgres

import (
	"context"
	"time"

	"github.com/hongminglow/gigdash/internal/models"
)

// CreateSession stores a login session.
func (s *Store) CreateSession(ctx context.Context, sess models.Session) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO sessions (sid, user_id, expires_at) VALUES ($1, $2, $3)`,
		sess.ID, sess.UserID, sess.ExpiresAt)
	return mapWriteErr(err)
}

// GetSession fetches a session by id, expired or not.
func (s *Store) GetSession(ctx context.Context, id string) (models.Session, error) {
	var sess models.Session
	err := s.pool.QueryRow(ctx, `SELECT sid, user_id, expires_at, created_at FROM sessions WHERE sid = $1`, id).
		Scan(&sess.ID, &sess.UserID, &sess.ExpiresAt, &sess.CreatedAt)
	return sess, mapReadErr(err)
}

// DeleteSession removes a session. Deleting a missing session is not an error.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE sid = $1`, id)
	return err
}

// DeleteExpiredSessions purges sessions past expiry and reports how many were removed.
func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
