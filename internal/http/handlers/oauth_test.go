package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hongminglow/gigdash/internal/auth"
	"github.com/hongminglow/gigdash/internal/models"
	"github.com/hongminglow/gigdash/internal/storage/memory"
)

func TestOAuthResolveUser(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	existing, err := store.CreateUser(ctx, models.User{Username: "dee", Email: "Dee@example.com", PasswordHash: "x"})
	require.NoError(t, err)
	h := NewOAuthHandler(nil, store, nil, zap.NewNop())

	t.Run("unverified email does not link", func(t *testing.T) {
		_, err := h.resolveUser(ctx, auth.Identity{Provider: "oidc", Subject: "s1", Email: "dee@example.com"})
		assert.ErrorIs(t, err, errUnverifiedEmail)
		_, err = store.FindByProvider(ctx, "oidc", "s1")
		assert.Error(t, err)
	})

	t.Run("verified email links", func(t *testing.T) {
		user, err := h.resolveUser(ctx, auth.Identity{Provider: "oidc", Subject: "s1", Email: "dee@example.com", EmailVerified: true})
		require.NoError(t, err)
		assert.Equal(t, existing.ID, user.ID)

		again, err := h.resolveUser(ctx, auth.Identity{Provider: "oidc", Subject: "s1", Email: "other@example.com"})
		require.NoError(t, err)
		assert.Equal(t, existing.ID, again.ID)
	})

	t.Run("new email creates a worker", func(t *testing.T) {
		user, err := h.resolveUser(ctx, auth.Identity{Provider: "oidc", Subject: "s2", Email: "dee@elsewhere.example"})
		require.NoError(t, err)
		assert.NotEqual(t, existing.ID, user.ID)
		assert.Equal(t, models.RoleWorker, user.Role)
		assert.Equal(t, "dee2", user.Username)
	})
}
