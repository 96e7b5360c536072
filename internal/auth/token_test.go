package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/gigdash/internal/models"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", "gigdash", time.Hour)
	token, err := tm.Generate(models.User{ID: 42, Username: "sam", Role: models.RoleWorker})
	require.NoError(t, err)

	id, err := tm.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestTokenRejected(t *testing.T) {
	tm := NewTokenManager("secret", "gigdash", time.Hour)
	token, err := tm.Generate(models.User{ID: 42})
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewTokenManager("other", "gigdash", time.Hour).Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
	t.Run("wrong issuer", func(t *testing.T) {
		_, err := NewTokenManager("secret", "someone-else", time.Hour).Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
	t.Run("expired", func(t *testing.T) {
		later := NewTokenManager("secret", "gigdash", time.Hour)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
	t.Run("garbage", func(t *testing.T) {
		_, err := tm.Parse("not.a.jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
	t.Run("state token is not a login token", func(t *testing.T) {
		state, err := tm.SignState("nonce", "/", time.Minute)
		require.NoError(t, err)
		_, err = tm.Parse(state)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestStateRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", "gigdash", time.Hour)
	state, err := tm.SignState("n-1", "/dashboard", time.Minute)
	require.NoError(t, err)

	nonce, redirect, err := tm.ParseState(state)
	require.NoError(t, err)
	assert.Equal(t, "n-1", nonce)
	assert.Equal(t, "/dashboard", redirect)

	login, err := tm.Generate(models.User{ID: 1})
	require.NoError(t, err)
	_, _, err = tm.ParseState(login)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
