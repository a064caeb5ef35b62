package memstore

import (
	"context"

	dirmodels "statecraft/internal/directory/models"
	"statecraft/pkg/apperrors"
)

// States implements the state directory
type States struct {
	s *Store
}

// Add registers a state
func (v *States) Add(state dirmodels.State) {
	defer v.s.lock()()
	v.s.data.states = append(v.s.data.states, state)
}

// Get returns the state or apperrors.ErrStateNotFound
func (v *States) Get(ctx context.Context, stateID string) (*dirmodels.State, error) {
	defer v.s.lock()()
	for _, st := range v.s.data.states {
		if st.UUID == stateID {
			found := st
			return &found, nil
		}
	}
	return nil, apperrors.With(apperrors.ErrStateNotFound, "state %s not found", stateID)
}

// GetState is Get under the directory reader name
func (v *States) GetState(ctx context.Context, stateID string) (*dirmodels.State, error) {
	return v.Get(ctx, stateID)
}

// Exists reports whether the state is registered
func (v *States) Exists(ctx context.Context, stateID string) (bool, error) {
	_, err := v.Get(ctx, stateID)
	if err != nil {
		return false, nil
	}
	return true, nil
}
