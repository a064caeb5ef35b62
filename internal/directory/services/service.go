package services

import (
	"context"
	"errors"
	"log/slog"

	"statecraft/internal/directory/models"
	"statecraft/pkg/apperrors"
)

// StateReader is the backing lookup for states
type StateReader interface {
	GetState(ctx context.Context, stateID string) (*models.State, error)
}

// Cache is an optional read-through cache in front of the StateReader
type Cache interface {
	GetState(ctx context.Context, stateID string) (*models.State, bool, error)
	SetState(ctx context.Context, state *models.State) error
	Invalidate(ctx context.Context, stateID string) error
}

// Service answers state existence and lookup for the rest of the engine
type Service struct {
	reader StateReader
	cache  Cache
}

// NewService creates a directory service. cache may be nil.
func NewService(reader StateReader, cache Cache) *Service {
	return &Service{reader: reader, cache: cache}
}

// Get returns the state or apperrors.ErrStateNotFound
func (s *Service) Get(ctx context.Context, stateID string) (*models.State, error) {
	if s.cache != nil {
		state, ok, err := s.cache.GetState(ctx, stateID)
		if err != nil {
			slog.WarnContext(ctx, "State cache read failed", "state_id", stateID, "error", err)
		} else if ok {
			return state, nil
		}
	}

	state, err := s.reader.GetState(ctx, stateID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetState(ctx, state); err != nil {
			slog.WarnContext(ctx, "State cache write failed", "state_id", stateID, "error", err)
		}
	}
	return state, nil
}

// Exists reports whether stateID names a known state
func (s *Service) Exists(ctx context.Context, stateID string) (bool, error) {
	_, err := s.Get(ctx, stateID)
	if err != nil {
		if errors.Is(err, apperrors.ErrStateNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Invalidate drops any cached copy of the state after the platform edits it
func (s *Service) Invalidate(ctx context.Context, stateID string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx, stateID)
}
