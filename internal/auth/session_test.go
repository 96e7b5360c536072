package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/gigdash/internal/storage/memory"
)

func TestSessionLifecycle(t *testing.T) {
	store := memory.New()
	m := NewSessionManager(store, time.Hour, true)

	rec := httptest.NewRecorder()
	sess, err := m.Start(context.Background(), rec, 7)
	require.NoError(t, err)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, SessionCookieName, c.Name)
	assert.Equal(t, sess.ID, c.Value)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	uid, err := m.Resolve(req)
	require.NoError(t, err)
	assert.Equal(t, int64(7), uid)

	out := httptest.NewRecorder()
	require.NoError(t, m.End(out, req))
	cleared := out.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Empty(t, cleared[0].Value)

	_, err = m.Resolve(req)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSessionExpiry(t *testing.T) {
	store := memory.New()
	m := NewSessionManager(store, time.Hour, false)

	rec := httptest.NewRecorder()
	sess, err := m.Start(context.Background(), rec, 7)
	require.NoError(t, err)

	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(rec.Result().Cookies()[0])
	_, err = m.Resolve(req)
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = store.GetSession(context.Background(), sess.ID)
	assert.Error(t, err, "expired session should be removed on access")
}

func TestSessionSweep(t *testing.T) {
	store := memory.New()
	m := NewSessionManager(store, time.Minute, false)
	for i := 0; i < 3; i++ {
		_, err := m.Start(context.Background(), httptest.NewRecorder(), int64(i+1))
		require.NoError(t, err)
	}
	n, err := m.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	m.now = func() time.Time { return time.Now().Add(time.Hour) }
	n, err = m.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestResolveWithoutCookie(t *testing.T) {
	m := NewSessionManager(memory.New(), time.Hour, false)
	_, err := m.Resolve(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.ErrorIs(t, err, ErrNoSession)
}
