package memstore

import (
	"context"
	"sort"

	"statecraft/internal/wars/models"
	warservices "statecraft/internal/wars/services"
	"statecraft/pkg/apperrors"
)

// Wars implements the war repository
type Wars struct {
	s *Store
}

func (v *Wars) GetWar(ctx context.Context, warID string) (*models.War, error) {
	defer v.s.lock()()
	for _, w := range v.s.data.wars {
		if w.UUID == warID {
			found := w
			return &found, nil
		}
	}
	return nil, apperrors.With(apperrors.ErrWarNotFound, "war %s not found", warID)
}

func (v *Wars) InsertWar(ctx context.Context, war *models.War) error {
	defer v.s.lock()()
	for _, w := range v.s.data.wars {
		if w.UUID == war.UUID {
			return apperrors.ErrDuplicate
		}
	}
	v.s.data.wars = append(v.s.data.wars, *war)
	return nil
}

func (v *Wars) ChangeWarStatus(ctx context.Context, warID string, from models.Status, change warservices.StatusChange) error {
	defer v.s.lock()()
	for i := range v.s.data.wars {
		w := &v.s.data.wars[i]
		if w.UUID != warID || w.Status != from {
			continue
		}
		w.Status = change.To
		w.Updated = change.Updated
		if change.Result != nil {
			result := *change.Result
			w.Result = &result
		}
		if change.ResultAction != nil {
			action := *change.ResultAction
			w.ResultAction = &action
		}
		if change.ScheduledFor != nil {
			at := *change.ScheduledFor
			w.ScheduledFor = &at
		}
		if change.Started != nil {
			at := *change.Started
			w.Started = &at
		}
		if change.Ended != nil {
			at := *change.Ended
			w.Ended = &at
		}
		return nil
	}
	return apperrors.ErrNoRowsAffected
}

func (v *Wars) FindActiveWarBetween(ctx context.Context, stateA, stateB string) (*models.War, error) {
	defer v.s.lock()()
	for _, w := range v.s.data.wars {
		if w.Status.IsTerminal() {
			continue
		}
		if (w.AttackerStateID == stateA && w.DefenderStateID == stateB) ||
			(w.AttackerStateID == stateB && w.DefenderStateID == stateA) {
			found := w
			return &found, nil
		}
	}
	return nil, nil
}

func (v *Wars) ListWarsForState(ctx context.Context, stateID string) ([]models.War, error) {
	defer v.s.lock()()
	ids := map[string]bool{}
	for _, p := range v.s.data.participants {
		if p.StateID == stateID {
			ids[p.WarID] = true
		}
	}
	out := []models.War{}
	for i := len(v.s.data.wars) - 1; i >= 0; i-- {
		if ids[v.s.data.wars[i].UUID] {
			out = append(out, v.s.data.wars[i])
		}
	}
	return out, nil
}

func (v *Wars) ListScheduledBefore(ctx context.Context, before int64) ([]models.War, error) {
	defer v.s.lock()()
	out := []models.War{}
	for _, w := range v.s.data.wars {
		if w.Status == models.StatusScheduled && w.ScheduledFor != nil && *w.ScheduledFor <= before {
			out = append(out, w)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return *out[i].ScheduledFor < *out[j].ScheduledFor })
	return out, nil
}

func (v *Wars) InsertParticipants(ctx context.Context, participants []models.Participant) error {
	defer v.s.lock()()
	for _, p := range participants {
		for _, existing := range v.s.data.participants {
			if existing.WarID == p.WarID && existing.StateID == p.StateID {
				return apperrors.ErrDuplicate
			}
		}
		v.s.data.participants = append(v.s.data.participants, p)
	}
	return nil
}

func (v *Wars) GetParticipant(ctx context.Context, warID, stateID string) (*models.Participant, error) {
	defer v.s.lock()()
	for _, p := range v.s.data.participants {
		if p.WarID == warID && p.StateID == stateID {
			found := p
			return &found, nil
		}
	}
	return nil, apperrors.With(apperrors.ErrNotParticipant, "state %s is not part of war %s", stateID, warID)
}

func (v *Wars) ListParticipants(ctx context.Context, warID string) ([]models.Participant, error) {
	defer v.s.lock()()
	out := []models.Participant{}
	for _, p := range v.s.data.participants {
		if p.WarID == warID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (v *Wars) InsertBattle(ctx context.Context, battle *models.Battle) error {
	defer v.s.lock()()
	v.s.data.battles = append(v.s.data.battles, *battle)
	return nil
}

func (v *Wars) GetBattle(ctx context.Context, battleID string) (*models.Battle, error) {
	defer v.s.lock()()
	for _, b := range v.s.data.battles {
		if b.UUID == battleID {
			found := b
			return &found, nil
		}
	}
	return nil, apperrors.With(apperrors.ErrBattleNotFound, "battle %s not found", battleID)
}

func (v *Wars) UpdateBattle(ctx context.Context, battleID string, change warservices.BattleChange) error {
	defer v.s.lock()()
	for i := range v.s.data.battles {
		b := &v.s.data.battles[i]
		if b.UUID != battleID {
			continue
		}
		b.Status = change.Status
		b.Updated = change.Updated
		if change.Result != nil {
			result := *change.Result
			b.Result = &result
		}
		if change.EndDate != nil {
			end := *change.EndDate
			b.EndDate = &end
		}
		return nil
	}
	return apperrors.ErrNoRowsAffected
}

func (v *Wars) ListBattles(ctx context.Context, warID string) ([]models.Battle, error) {
	defer v.s.lock()()
	out := []models.Battle{}
	for _, b := range v.s.data.battles {
		if b.WarID == warID {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartDate < out[j].StartDate })
	return out, nil
}
