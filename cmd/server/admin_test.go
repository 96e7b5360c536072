package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/gigdash/internal/models"
	"github.com/hongminglow/gigdash/internal/rbac"
	"github.com/hongminglow/gigdash/internal/storage"
	"github.com/hongminglow/gigdash/internal/storage/memory"
)

func TestGrantRole(t *testing.T) {
	store := memory.New()
	_, err := store.CreateUser(context.Background(), models.User{Username: "sam", Email: "sam@example.com"})
	require.NoError(t, err)

	user, err := grantRole(context.Background(), store, "sam@example.com", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.True(t, user.HasPermission(rbac.UsersManage))

	_, err = grantRole(context.Background(), store, "nobody", models.RoleAdmin)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRootCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "migrate", "seed-companies", "grant-role"} {
		assert.True(t, names[want], want)
	}
}
