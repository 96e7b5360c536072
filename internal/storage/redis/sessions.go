// Package redis keeps login sessions in Redis so several server instances can share them.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/hongminglow/gigdash/internal/models"
	"github.com/hongminglow/gigdash/internal/storage"
)

const keyPrefix = "gigdash:session:"

// SessionStore implements storage.SessionStore on Redis keys with a TTL.
type SessionStore struct {
	client *goredis.Client
	now    func() time.Time
}

// NewSessionStore parses a redis:// URL and verifies the connection.
func NewSessionStore(ctx context.Context, url string) (*SessionStore, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &SessionStore{client: client, now: time.Now}, nil
}

// Close releases the connection pool.
func (s *SessionStore) Close() error {
	return s.client.Close()
}

// CreateSession stores the session; the key expires with the session.
func (s *SessionStore) CreateSession(ctx context.Context, sess models.Session) error {
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = s.now()
	}
	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return fmt.Errorf("create session: already expired")
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	ok, err := s.client.SetNX(ctx, keyPrefix+sess.ID, payload, ttl).Result()
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	if !ok {
		return storage.ErrAlreadyExists
	}
	return nil
}

// GetSession loads a session; Redis drops expired keys on its own.
func (s *SessionStore) GetSession(ctx context.Context, id string) (models.Session, error) {
	raw, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, goredis.Nil) {
		return models.Session{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("get session: %w", err)
	}
	var sess models.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return models.Session{}, fmt.Errorf("decode session: %w", err)
	}
	return sess, nil
}

// DeleteSession removes a session key.
func (s *SessionStore) DeleteSession(ctx context.Context, id string) error {
	return s.client.Del(ctx, keyPrefix+id).Err()
}

// DeleteExpiredSessions is a no-op: key TTLs already evict expired sessions.
func (s *SessionStore) DeleteExpiredSessions(context.Context, time.Time) (int64, error) {
	return 0, nil
}

var _ storage.SessionStore = (*SessionStore)(nil)
