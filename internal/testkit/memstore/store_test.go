package memstore

import (
	"context"
	"errors"
	"testing"

	dirmodels "statecraft/internal/directory/models"
	"statecraft/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTransaction_HooksRunAfterCommit(t *testing.T) {
	store := New()
	var ran []string

	err := store.WithTransaction(context.Background(), func(ctx context.Context) error {
		store.States().Add(dirmodels.State{UUID: "s1"})
		require.NoError(t, database.AfterCommit(ctx, func(ctx context.Context) error {
			ran = append(ran, "outer")
			return nil
		}))
		// a nested call joins the outer transaction and its scope
		return store.WithTransaction(ctx, func(ctx context.Context) error {
			return database.AfterCommit(ctx, func(ctx context.Context) error {
				ran = append(ran, "inner")
				return nil
			})
		})
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, ran)
}

func TestWithTransaction_RollbackDropsHooks(t *testing.T) {
	store := New()
	ran := false

	err := store.WithTransaction(context.Background(), func(ctx context.Context) error {
		store.States().Add(dirmodels.State{UUID: "s1"})
		require.NoError(t, database.AfterCommit(ctx, func(ctx context.Context) error {
			ran = true
			return nil
		}))
		return errors.New("boom")
	})

	require.Error(t, err)
	assert.False(t, ran)
	ok, err := store.States().Exists(context.Background(), "s1")
	require.NoError(t, err)
	assert.False(t, ok)
}
