package services

import (
	"context"
	"errors"
	"testing"

	"statecraft/internal/directory/models"
	"statecraft/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockReader struct {
	mock.Mock
}

func (m *mockReader) GetState(ctx context.Context, stateID string) (*models.State, error) {
	args := m.Called(ctx, stateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.State), args.Error(1)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) GetState(ctx context.Context, stateID string) (*models.State, bool, error) {
	args := m.Called(ctx, stateID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.State), args.Bool(1), args.Error(2)
}

func (m *mockCache) SetState(ctx context.Context, state *models.State) error {
	return m.Called(ctx, state).Error(0)
}

func (m *mockCache) Invalidate(ctx context.Context, stateID string) error {
	return m.Called(ctx, stateID).Error(0)
}

func TestService_GetCacheHit(t *testing.T) {
	reader := &mockReader{}
	cache := &mockCache{}
	state := &models.State{UUID: "s1", Name: "Avalon"}
	cache.On("GetState", mock.Anything, "s1").Return(state, true, nil)

	got, err := NewService(reader, cache).Get(context.Background(), "s1")

	require.NoError(t, err)
	assert.Equal(t, state, got)
	reader.AssertNotCalled(t, "GetState", mock.Anything, mock.Anything)
}

func TestService_GetCacheMissFillsCache(t *testing.T) {
	reader := &mockReader{}
	cache := &mockCache{}
	state := &models.State{UUID: "s1", Name: "Avalon"}
	cache.On("GetState", mock.Anything, "s1").Return(nil, false, nil)
	reader.On("GetState", mock.Anything, "s1").Return(state, nil)
	cache.On("SetState", mock.Anything, state).Return(nil)

	got, err := NewService(reader, cache).Get(context.Background(), "s1")

	require.NoError(t, err)
	assert.Equal(t, "Avalon", got.Name)
	cache.AssertExpectations(t)
}

func TestService_CacheErrorsFallBackToReader(t *testing.T) {
	reader := &mockReader{}
	cache := &mockCache{}
	state := &models.State{UUID: "s1"}
	cache.On("GetState", mock.Anything, "s1").Return(nil, false, errors.New("redis down"))
	reader.On("GetState", mock.Anything, "s1").Return(state, nil)
	cache.On("SetState", mock.Anything, state).Return(errors.New("redis down"))

	got, err := NewService(reader, cache).Get(context.Background(), "s1")

	require.NoError(t, err)
	assert.Equal(t, state, got)
}

func TestService_Exists(t *testing.T) {
	reader := &mockReader{}
	reader.On("GetState", mock.Anything, "known").Return(&models.State{UUID: "known"}, nil)
	reader.On("GetState", mock.Anything, "unknown").Return(nil, apperrors.ErrStateNotFound)
	reader.On("GetState", mock.Anything, "broken").Return(nil, errors.New("connection reset"))

	svc := NewService(reader, nil)

	ok, err := svc.Exists(context.Background(), "known")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Exists(context.Background(), "unknown")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.Exists(context.Background(), "broken")
	assert.Error(t, err)

	assert.NoError(t, svc.Invalidate(context.Background(), "known"))
}
