package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/gigdash/internal/models"
	"github.com/hongminglow/gigdash/internal/storage"
)

func newTestStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := NewSessionStore(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)
	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)

	require.NoError(t, s.CreateSession(ctx, models.Session{ID: "sid-1", UserID: 7, ExpiresAt: expires}))
	assert.True(t, mr.Exists(keyPrefix+"sid-1"))
	ttl := mr.TTL(keyPrefix + "sid-1")
	assert.Greater(t, ttl, 59*time.Minute)
	assert.LessOrEqual(t, ttl, time.Hour)

	got, err := s.GetSession(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.UserID)
	assert.True(t, expires.Equal(got.ExpiresAt))
	assert.False(t, got.CreatedAt.IsZero())

	err = s.CreateSession(ctx, models.Session{ID: "sid-1", UserID: 8, ExpiresAt: expires})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	require.NoError(t, s.DeleteSession(ctx, "sid-1"))
	_, err = s.GetSession(ctx, "sid-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSessionExpiresWithKey(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)

	require.NoError(t, s.CreateSession(ctx, models.Session{ID: "sid-2", UserID: 1, ExpiresAt: time.Now().Add(time.Minute)}))
	mr.FastForward(2 * time.Minute)
	_, err := s.GetSession(ctx, "sid-2")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	n, err := s.DeleteExpiredSessions(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreateExpiredSession(t *testing.T) {
	s, mr := newTestStore(t)
	err := s.CreateSession(context.Background(), models.Session{ID: "old", UserID: 1, ExpiresAt: time.Now().Add(-time.Second)})
	assert.Error(t, err)
	assert.False(t, mr.Exists(keyPrefix+"old"))
}

func TestCorruptSession(t *testing.T) {
	s, mr := newTestStore(t)
	require.NoError(t, mr.Set(keyPrefix+"bad", "{not json"))
	_, err := s.GetSession(context.Background(), "bad")
	assert.ErrorContains(t, err, "decode session")
}

func TestNewSessionStoreErrors(t *testing.T) {
	_, err := NewSessionStore(context.Background(), "not-a-url")
	assert.ErrorContains(t, err, "parse redis url")

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = NewSessionStore(ctx, "redis://"+addr+"/0")
	assert.ErrorContains(t, err, "connect to redis")
}
