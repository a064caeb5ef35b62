package memstore

import (
	"context"
	"sort"
	"strings"

	alliancemodels "statecraft/internal/alliance/models"
	"statecraft/pkg/apperrors"
)

// Alliances implements the alliance repository
type Alliances struct {
	s *Store
}

// RowCount counts membership rows of an alliance, pending included
func (v *Alliances) RowCount(allianceID string) int {
	defer v.s.lock()()
	n := 0
	for _, m := range v.s.data.allianceMembers {
		if m.AllianceID == allianceID {
			n++
		}
	}
	return n
}

func (v *Alliances) GetAlliance(ctx context.Context, allianceID string) (*alliancemodels.Alliance, error) {
	defer v.s.lock()()
	for _, a := range v.s.data.alliances {
		if a.UUID == allianceID {
			found := a
			return &found, nil
		}
	}
	return nil, apperrors.With(apperrors.ErrAllianceNotFound, "alliance %s not found", allianceID)
}

func (v *Alliances) FindAllianceByName(ctx context.Context, name string) (*alliancemodels.Alliance, error) {
	defer v.s.lock()()
	for _, a := range v.s.data.alliances {
		if strings.EqualFold(a.Name, name) {
			found := a
			return &found, nil
		}
	}
	return nil, nil
}

func (v *Alliances) InsertAlliance(ctx context.Context, alliance *alliancemodels.Alliance) error {
	defer v.s.lock()()
	for _, a := range v.s.data.alliances {
		if strings.EqualFold(a.Name, alliance.Name) {
			return apperrors.ErrAllianceNameTaken
		}
	}
	v.s.data.alliances = append(v.s.data.alliances, *alliance)
	return nil
}

func (v *Alliances) MarkDissolved(ctx context.Context, allianceID string, at int64) error {
	defer v.s.lock()()
	for i := range v.s.data.alliances {
		a := &v.s.data.alliances[i]
		if a.UUID == allianceID && a.Status == alliancemodels.StatusActive {
			a.Status = alliancemodels.StatusDissolved
			a.Dissolved = &at
			a.Updated = at
			return nil
		}
	}
	return apperrors.ErrNoRowsAffected
}

func (v *Alliances) ListActiveAlliances(ctx context.Context, skip, limit int64) ([]alliancemodels.Alliance, int64, error) {
	defer v.s.lock()()
	active := []alliancemodels.Alliance{}
	for _, a := range v.s.data.alliances {
		if a.Status == alliancemodels.StatusActive {
			active = append(active, a)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return strings.ToLower(active[i].Name) < strings.ToLower(active[j].Name)
	})

	total := int64(len(active))
	if skip >= total {
		return []alliancemodels.Alliance{}, total, nil
	}
	end := skip + limit
	if end > total {
		end = total
	}
	return active[skip:end], total, nil
}

func (v *Alliances) GetMember(ctx context.Context, allianceID, stateID string) (*alliancemodels.Member, error) {
	defer v.s.lock()()
	for _, m := range v.s.data.allianceMembers {
		if m.AllianceID == allianceID && m.StateID == stateID {
			found := m
			return &found, nil
		}
	}
	return nil, apperrors.With(apperrors.ErrAllianceMemberNotFound, "state %s has no row in alliance %s", stateID, allianceID)
}

func (v *Alliances) InsertMember(ctx context.Context, member *alliancemodels.Member) error {
	defer v.s.lock()()
	for _, m := range v.s.data.allianceMembers {
		if m.AllianceID == member.AllianceID && m.StateID == member.StateID {
			return apperrors.ErrAlreadyAllianceMember
		}
	}
	v.s.data.allianceMembers = append(v.s.data.allianceMembers, *member)
	return nil
}

func (v *Alliances) ConfirmMember(ctx context.Context, allianceID, stateID string, updated int64) error {
	defer v.s.lock()()
	for i := range v.s.data.allianceMembers {
		m := &v.s.data.allianceMembers[i]
		if m.AllianceID == allianceID && m.StateID == stateID && m.IsPending {
			m.IsPending = false
			m.Updated = updated
			return nil
		}
	}
	return apperrors.ErrNoRowsAffected
}

func (v *Alliances) DeleteMember(ctx context.Context, allianceID, stateID string) error {
	defer v.s.lock()()
	for i, m := range v.s.data.allianceMembers {
		if m.AllianceID == allianceID && m.StateID == stateID {
			v.s.data.allianceMembers = append(v.s.data.allianceMembers[:i:i], v.s.data.allianceMembers[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNoRowsAffected
}

func (v *Alliances) DeleteAllMembers(ctx context.Context, allianceID string) (int64, error) {
	defer v.s.lock()()
	kept := []alliancemodels.Member{}
	var removed int64
	for _, m := range v.s.data.allianceMembers {
		if m.AllianceID == allianceID {
			removed++
			continue
		}
		kept = append(kept, m)
	}
	v.s.data.allianceMembers = kept
	return removed, nil
}

func (v *Alliances) ListMembers(ctx context.Context, allianceID string, pending bool) ([]alliancemodels.Member, error) {
	defer v.s.lock()()
	out := []alliancemodels.Member{}
	for _, m := range v.s.data.allianceMembers {
		if m.AllianceID == allianceID && m.IsPending == pending {
			out = append(out, m)
		}
	}
	return out, nil
}

func (v *Alliances) CountConfirmed(ctx context.Context, allianceID string) (int64, error) {
	members, err := v.ListMembers(ctx, allianceID, false)
	return int64(len(members)), err
}

func (v *Alliances) ListStateMemberships(ctx context.Context, stateID string) ([]alliancemodels.Member, error) {
	defer v.s.lock()()
	out := []alliancemodels.Member{}
	for _, m := range v.s.data.allianceMembers {
		if m.StateID == stateID && !m.IsPending {
			out = append(out, m)
		}
	}
	return out, nil
}
