package database

import (
	"context"
	"errors"
	"testing"

	"statecraft/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestAfterCommit_RunsImmediatelyOutsideTransaction(t *testing.T) {
	ran := false
	err := AfterCommit(context.Background(), func(ctx context.Context) error {
		ran = true
		return errors.New("sink down")
	})
	assert.True(t, ran)
	assert.EqualError(t, err, "sink down")
}

func TestCommitScope_FlushRunsQueuedHooksInOrder(t *testing.T) {
	ctx, scope := NewCommitScope(context.Background())

	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		require.NoError(t, AfterCommit(ctx, func(ctx context.Context) error {
			order = append(order, i)
			if i == 2 {
				return errors.New("ignored")
			}
			return nil
		}))
	}
	assert.Empty(t, order)
	assert.Equal(t, 3, scope.Len())

	scope.Flush(context.Background())
	assert.Equal(t, []int{1, 2, 3}, order)
	assert.Zero(t, scope.Len())

	scope.Flush(context.Background())
	assert.Len(t, order, 3)
}

func duplicateKeyError() error {
	return mongo.WriteException{WriteErrors: mongo.WriteErrors{{
		Code:    11000,
		Message: "E11000 duplicate key error collection: statecraft.state_members",
	}}}
}

func TestMapWriteError(t *testing.T) {
	t.Run("duplicate key becomes the given conflict", func(t *testing.T) {
		err := MapWriteError(duplicateKeyError(), apperrors.ErrAlreadyMember)
		assert.True(t, errors.Is(err, apperrors.ErrAlreadyMember))
		assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))

		var domain *apperrors.Error
		require.True(t, errors.As(err, &domain))
		assert.True(t, mongo.IsDuplicateKeyError(domain.Cause))
	})

	t.Run("duplicate pending request", func(t *testing.T) {
		err := MapWriteError(duplicateKeyError(), apperrors.ErrAlreadyRequested)
		assert.Equal(t, apperrors.CodeAlreadyRequested, apperrors.CodeOf(err))
		assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	})

	t.Run("duplicate key without a code", func(t *testing.T) {
		err := MapWriteError(duplicateKeyError(), nil)
		assert.True(t, errors.Is(err, apperrors.ErrDuplicate))
	})

	t.Run("other errors pass through", func(t *testing.T) {
		other := errors.New("socket closed")
		assert.Same(t, other, MapWriteError(other, apperrors.ErrAlreadyMember))
		assert.NoError(t, MapWriteError(nil, apperrors.ErrAlreadyMember))
	})
}
