package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	historymodels "statecraft/internal/history/models"
	history "statecraft/internal/history/services"
	"statecraft/internal/relations/models"
	"statecraft/internal/roles"
	"statecraft/pkg/apperrors"
	"statecraft/pkg/database"

	"github.com/google/uuid"
)

// Authorizer answers the role predicate inside a state
type Authorizer interface {
	HasAtLeastRole(ctx context.Context, stateID, actorID string, minRole roles.Role, excluded ...roles.Role) (bool, error)
}

// AdminChecker answers platform-administrator privilege
type AdminChecker interface {
	IsAdmin(ctx context.Context, playerID string) (bool, error)
}

// StateDirectory answers state existence
type StateDirectory interface {
	Exists(ctx context.Context, stateID string) (bool, error)
}

// Service negotiates bilateral relations between states
type Service struct {
	repo    Repository
	tx      database.Transactor
	authz   Authorizer
	admins  AdminChecker
	states  StateDirectory
	history history.Log
	now     func() time.Time
}

// NewService creates a new relation service
func NewService(repo Repository, tx database.Transactor, authz Authorizer, admins AdminChecker, states StateDirectory, log history.Log) *Service {
	return &Service{
		repo:    repo,
		tx:      tx,
		authz:   authz,
		admins:  admins,
		states:  states,
		history: log,
		now:     time.Now,
	}
}

// RequestRelationChange proposes kind for the pair (proposer, target). A nil
// kind proposes dropping the treaty. Returns the request id.
func (s *Service) RequestRelationChange(ctx context.Context, proposerStateID, targetStateID string, kind *models.Kind, playerID string) (string, error) {
	if proposerStateID == targetStateID {
		return "", apperrors.New(apperrors.KindInvalidInput, apperrors.CodeSelfPair, "a state cannot negotiate with itself")
	}
	if kind != nil && !kind.Valid() {
		return "", apperrors.Newf(apperrors.KindInvalidInput, apperrors.CodeInvalidKind, "unknown relation kind %q", *kind)
	}

	var request *models.Request
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		ok, err := s.states.Exists(ctx, targetStateID)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.With(apperrors.ErrStateNotFound, "state %s not found", targetStateID)
		}

		allowed, err := s.authz.HasAtLeastRole(ctx, proposerStateID, playerID, roles.Diplomat)
		if err != nil {
			return err
		}
		if !allowed {
			return apperrors.With(apperrors.ErrInsufficientRole, "diplomat role required in state %s", proposerStateID)
		}

		stateA, stateB := models.CanonicalPair(proposerStateID, targetStateID)
		pending, err := s.repo.FindPendingRequest(ctx, stateA, stateB)
		if err != nil {
			return err
		}
		if pending != nil {
			return apperrors.With(apperrors.ErrAlreadyRequested, "request %s is already pending for this pair", pending.UUID)
		}

		now := s.now().UnixMilli()
		request = &models.Request{
			UUID:             uuid.NewString(),
			StateA:           stateA,
			StateB:           stateB,
			ProposerStateID:  proposerStateID,
			ProposerPlayerID: playerID,
			RequestedKind:    kind,
			Status:           models.RequestPending,
			Created:          now,
			Updated:          now,
		}
		if err := s.repo.InsertRequest(ctx, request); err != nil {
			return err
		}

		history.Record(ctx, s.history, historymodels.Event{
			Type:             historymodels.EventRelationRequested,
			Title:            "Relation change proposed",
			Description:      fmt.Sprintf("State %s proposed %s to %s", proposerStateID, describeKind(kind), targetStateID),
			RelatedStateIDs:  []string{proposerStateID, targetStateID},
			RelatedPlayerIDs: []string{playerID},
			DetailsJSON:      history.Details(map[string]any{"request_id": request.UUID, "requested_kind": kind}),
			ActorID:          playerID,
		})
		return nil
	})
	if err != nil {
		return "", err
	}

	slog.InfoContext(ctx, "Relation change requested", "request_id", request.UUID, "proposer", proposerStateID, "target", targetStateID)
	return request.UUID, nil
}

// ReviewRelationChange approves or declines a pending request from the
// non-proposing side. Approval rewrites the live relation; a decline keeps
// the request as DECLINED and leaves the relation untouched.
func (s *Service) ReviewRelationChange(ctx context.Context, requestID, reviewerStateID, reviewerPlayerID string, approve bool) error {
	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		request, err := s.repo.GetRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if reviewerStateID != request.ReviewingState() {
			return apperrors.Newf(apperrors.KindForbidden, apperrors.CodeWrongReviewingSide,
				"request %s must be reviewed by state %s", requestID, request.ReviewingState())
		}
		if err := s.requireDiplomatOrAdmin(ctx, reviewerStateID, reviewerPlayerID); err != nil {
			return err
		}
		if request.Status != models.RequestPending {
			return apperrors.With(apperrors.ErrRequestNotPending, "request %s is %s", requestID, request.Status)
		}

		now := s.now().UnixMilli()
		event := historymodels.Event{
			RelatedStateIDs:  []string{request.StateA, request.StateB},
			RelatedPlayerIDs: []string{request.ProposerPlayerID, reviewerPlayerID},
			DetailsJSON:      history.Details(map[string]any{"request_id": requestID, "requested_kind": request.RequestedKind}),
			ActorID:          reviewerPlayerID,
		}

		if !approve {
			if err := s.repo.ResolveRequest(ctx, requestID, models.RequestDeclined, reviewerPlayerID, now); err != nil {
				return err
			}
			event.Type = historymodels.EventRelationDeclined
			event.Title = "Relation change declined"
			event.Description = fmt.Sprintf("State %s declined %s with %s", reviewerStateID, describeKind(request.RequestedKind), request.ProposerStateID)
			history.Record(ctx, s.history, event)
			return nil
		}

		if _, err := s.repo.DeleteOtherRequests(ctx, request.StateA, request.StateB, requestID,
			models.RequestPending, models.RequestApproved); err != nil {
			return err
		}

		if request.RequestedKind == nil {
			if err := s.repo.DeleteRelation(ctx, request.StateA, request.StateB); err != nil {
				return err
			}
			event.Description = fmt.Sprintf("States %s and %s dissolved their treaty", request.StateA, request.StateB)
		} else {
			if err := s.repo.UpsertRelation(ctx, &models.Relation{
				UUID:    uuid.NewString(),
				StateA:  request.StateA,
				StateB:  request.StateB,
				Kind:    *request.RequestedKind,
				Created: now,
				Updated: now,
			}); err != nil {
				return err
			}
			event.Description = fmt.Sprintf("States %s and %s are now %s", request.StateA, request.StateB, *request.RequestedKind)
		}

		if err := s.repo.ResolveRequest(ctx, requestID, models.RequestApproved, reviewerPlayerID, now); err != nil {
			return err
		}
		event.Type = historymodels.EventRelationChanged
		event.Title = "Relation changed"
		history.Record(ctx, s.history, event)
		return nil
	})
}

// requireDiplomatOrAdmin passes a DIPLOMAT (or higher) of stateID or any
// platform administrator, who need not be a member of the state
func (s *Service) requireDiplomatOrAdmin(ctx context.Context, stateID, playerID string) error {
	ok, err := s.authz.HasAtLeastRole(ctx, stateID, playerID, roles.Diplomat)
	if err != nil && !errors.Is(err, apperrors.ErrNotMember) {
		return err
	}
	if ok {
		return nil
	}

	admin, adminErr := s.admins.IsAdmin(ctx, playerID)
	if adminErr != nil {
		return adminErr
	}
	if admin {
		return nil
	}
	if err != nil {
		return err
	}
	return apperrors.With(apperrors.ErrInsufficientRole, "diplomat role required in state %s", stateID)
}

// GetRelation returns the kind between a and b in either order, or nil
// when no treaty exists
func (s *Service) GetRelation(ctx context.Context, a, b string) (*models.Kind, error) {
	stateA, stateB := models.CanonicalPair(a, b)
	relation, err := s.repo.GetRelation(ctx, stateA, stateB)
	if err != nil || relation == nil {
		return nil, err
	}
	kind := relation.Kind
	return &kind, nil
}

// GetStateRelationsList returns every relation the state is part of
func (s *Service) GetStateRelationsList(ctx context.Context, stateID string) ([]models.Relation, error) {
	return s.repo.ListRelationsForState(ctx, stateID)
}

// ListPendingRelationRequests returns pending requests involving the state
func (s *Service) ListPendingRelationRequests(ctx context.Context, stateID string) ([]models.Request, error) {
	return s.repo.ListPendingRequestsForState(ctx, stateID)
}

// GetRelationRequest returns a request by id
func (s *Service) GetRelationRequest(ctx context.Context, requestID string) (*models.Request, error) {
	return s.repo.GetRequest(ctx, requestID)
}

func describeKind(kind *models.Kind) string {
	if kind == nil {
		return "ending the treaty"
	}
	return string(*kind)
}
