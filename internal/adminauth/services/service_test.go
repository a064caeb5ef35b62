package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_GrantAndRevoke(t *testing.T) {
	ctx := context.Background()
	svc, err := NewMemoryService()
	require.NoError(t, err)

	ok, err := svc.IsAdmin(ctx, "player-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, svc.Grant(ctx, "player-1"))

	ok, err = svc.IsAdmin(ctx, "player-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.IsAdmin(ctx, "PLAYER-1")
	require.NoError(t, err)
	assert.True(t, ok, "player ids compare case-insensitively")

	admins, err := svc.Admins()
	require.NoError(t, err)
	assert.Equal(t, []string{"player-1"}, admins)

	require.NoError(t, svc.Revoke(ctx, "player-1"))

	ok, err = svc.IsAdmin(ctx, "player-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_EmptyPlayerIsNeverAdmin(t *testing.T) {
	svc, err := NewMemoryService()
	require.NoError(t, err)

	ok, err := svc.IsAdmin(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_GrantIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, err := NewMemoryService()
	require.NoError(t, err)

	require.NoError(t, svc.Grant(ctx, "player-1"))
	require.NoError(t, svc.Grant(ctx, "player-1"))

	admins, err := svc.Admins()
	require.NoError(t, err)
	assert.Len(t, admins, 1)
}
