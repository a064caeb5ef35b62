package memstore

import (
	"context"
	"time"

	citizenmodels "statecraft/internal/citizenship/models"
	"statecraft/internal/roles"
	"statecraft/pkg/apperrors"

	"github.com/google/uuid"
)

// Members implements the citizenship repository
type Members struct {
	s *Store
}

// Seed inserts a membership row directly, bypassing every guard
func (v *Members) Seed(stateID, playerID string, role roles.Role) {
	defer v.s.lock()()
	now := time.Now().UnixMilli()
	v.s.data.members = append(v.s.data.members, citizenmodels.Member{
		UUID:     uuid.NewString(),
		StateID:  stateID,
		PlayerID: playerID,
		Role:     role,
		Created:  now,
		Updated:  now,
	})
}

// CountRole counts rows of a state holding role
func (v *Members) CountRole(stateID string, role roles.Role) int {
	defer v.s.lock()()
	n := 0
	for _, m := range v.s.data.members {
		if m.StateID == stateID && m.Role == role {
			n++
		}
	}
	return n
}

func (v *Members) GetMember(ctx context.Context, stateID, playerID string) (*citizenmodels.Member, error) {
	defer v.s.lock()()
	for _, m := range v.s.data.members {
		if m.StateID == stateID && m.PlayerID == playerID {
			found := m
			return &found, nil
		}
	}
	return nil, apperrors.ErrNotMember
}

func (v *Members) FindRuler(ctx context.Context, stateID string) (*citizenmodels.Member, error) {
	defer v.s.lock()()
	for _, m := range v.s.data.members {
		if m.StateID == stateID && m.Role == roles.Ruler {
			found := m
			return &found, nil
		}
	}
	return nil, nil
}

func (v *Members) ListMembers(ctx context.Context, stateID string) ([]citizenmodels.Member, error) {
	defer v.s.lock()()
	out := []citizenmodels.Member{}
	for _, m := range v.s.data.members {
		if m.StateID == stateID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (v *Members) ListMembershipsForPlayer(ctx context.Context, playerID string) ([]citizenmodels.Member, error) {
	defer v.s.lock()()
	out := []citizenmodels.Member{}
	for _, m := range v.s.data.members {
		if m.PlayerID == playerID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (v *Members) CountNonApplicants(ctx context.Context, stateID string) (int64, error) {
	defer v.s.lock()()
	var n int64
	for _, m := range v.s.data.members {
		if m.StateID == stateID && m.Role != roles.Applicant {
			n++
		}
	}
	return n, nil
}

func (v *Members) InsertMember(ctx context.Context, member *citizenmodels.Member) error {
	defer v.s.lock()()
	for _, m := range v.s.data.members {
		if m.StateID == member.StateID && m.PlayerID == member.PlayerID {
			return apperrors.ErrAlreadyMember
		}
	}
	v.s.data.members = append(v.s.data.members, *member)
	return nil
}

func (v *Members) UpdateMemberRole(ctx context.Context, stateID, playerID string, role roles.Role, updated int64) error {
	defer v.s.lock()()
	for i := range v.s.data.members {
		m := &v.s.data.members[i]
		if m.StateID == stateID && m.PlayerID == playerID {
			m.Role = role
			m.Updated = updated
			return nil
		}
	}
	return apperrors.ErrNoRowsAffected
}

func (v *Members) DeleteMember(ctx context.Context, stateID, playerID string) error {
	defer v.s.lock()()
	for i, m := range v.s.data.members {
		if m.StateID == stateID && m.PlayerID == playerID {
			v.s.data.members = append(v.s.data.members[:i:i], v.s.data.members[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNoRowsAffected
}
