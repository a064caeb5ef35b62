package memstore

import (
	"context"

	relationmodels "statecraft/internal/relations/models"
	"statecraft/pkg/apperrors"
)

// Relations implements the relation repository
type Relations struct {
	s *Store
}

// RequestsForPair returns every request row of a canonical pair
func (v *Relations) RequestsForPair(stateA, stateB string) []relationmodels.Request {
	defer v.s.lock()()
	var out []relationmodels.Request
	for _, r := range v.s.data.requests {
		if r.StateA == stateA && r.StateB == stateB {
			out = append(out, r)
		}
	}
	return out
}

// RelationRows counts live relation rows of a canonical pair
func (v *Relations) RelationRows(stateA, stateB string) int {
	defer v.s.lock()()
	n := 0
	for _, r := range v.s.data.relations {
		if r.StateA == stateA && r.StateB == stateB {
			n++
		}
	}
	return n
}

func (v *Relations) GetRelation(ctx context.Context, stateA, stateB string) (*relationmodels.Relation, error) {
	defer v.s.lock()()
	for _, r := range v.s.data.relations {
		if r.StateA == stateA && r.StateB == stateB {
			found := r
			return &found, nil
		}
	}
	return nil, nil
}

func (v *Relations) UpsertRelation(ctx context.Context, relation *relationmodels.Relation) error {
	defer v.s.lock()()
	for i := range v.s.data.relations {
		r := &v.s.data.relations[i]
		if r.StateA == relation.StateA && r.StateB == relation.StateB {
			r.Kind = relation.Kind
			r.Updated = relation.Updated
			return nil
		}
	}
	v.s.data.relations = append(v.s.data.relations, *relation)
	return nil
}

func (v *Relations) DeleteRelation(ctx context.Context, stateA, stateB string) error {
	defer v.s.lock()()
	for i, r := range v.s.data.relations {
		if r.StateA == stateA && r.StateB == stateB {
			v.s.data.relations = append(v.s.data.relations[:i:i], v.s.data.relations[i+1:]...)
			return nil
		}
	}
	return nil
}

func (v *Relations) ListRelationsForState(ctx context.Context, stateID string) ([]relationmodels.Relation, error) {
	defer v.s.lock()()
	out := []relationmodels.Relation{}
	for _, r := range v.s.data.relations {
		if r.StateA == stateID || r.StateB == stateID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (v *Relations) GetRequest(ctx context.Context, requestID string) (*relationmodels.Request, error) {
	defer v.s.lock()()
	for _, r := range v.s.data.requests {
		if r.UUID == requestID {
			found := r
			return &found, nil
		}
	}
	return nil, apperrors.With(apperrors.ErrRequestNotFound, "relation request %s not found", requestID)
}

func (v *Relations) FindPendingRequest(ctx context.Context, stateA, stateB string) (*relationmodels.Request, error) {
	defer v.s.lock()()
	for _, r := range v.s.data.requests {
		if r.StateA == stateA && r.StateB == stateB && r.Status == relationmodels.RequestPending {
			found := r
			return &found, nil
		}
	}
	return nil, nil
}

func (v *Relations) InsertRequest(ctx context.Context, request *relationmodels.Request) error {
	defer v.s.lock()()
	if request.Status == relationmodels.RequestPending {
		for _, r := range v.s.data.requests {
			if r.StateA == request.StateA && r.StateB == request.StateB && r.Status == relationmodels.RequestPending {
				return apperrors.ErrAlreadyRequested
			}
		}
	}
	v.s.data.requests = append(v.s.data.requests, *request)
	return nil
}

func (v *Relations) ResolveRequest(ctx context.Context, requestID string, status relationmodels.RequestStatus, reviewerID string, updated int64) error {
	defer v.s.lock()()
	for i := range v.s.data.requests {
		r := &v.s.data.requests[i]
		if r.UUID == requestID && r.Status == relationmodels.RequestPending {
			reviewer := reviewerID
			r.Status = status
			r.ReviewerPlayerID = &reviewer
			r.Updated = updated
			return nil
		}
	}
	return apperrors.ErrNoRowsAffected
}

func (v *Relations) DeleteOtherRequests(ctx context.Context, stateA, stateB, keepID string, statuses ...relationmodels.RequestStatus) (int64, error) {
	defer v.s.lock()()
	match := map[relationmodels.RequestStatus]bool{}
	for _, st := range statuses {
		match[st] = true
	}

	kept := []relationmodels.Request{}
	var removed int64
	for _, r := range v.s.data.requests {
		if r.StateA == stateA && r.StateB == stateB && r.UUID != keepID && match[r.Status] {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	v.s.data.requests = kept
	return removed, nil
}

func (v *Relations) ListPendingRequestsForState(ctx context.Context, stateID string) ([]relationmodels.Request, error) {
	defer v.s.lock()()
	out := []relationmodels.Request{}
	for _, r := range v.s.data.requests {
		if r.Status == relationmodels.RequestPending && (r.StateA == stateID || r.StateB == stateID) {
			out = append(out, r)
		}
	}
	return out, nil
}
