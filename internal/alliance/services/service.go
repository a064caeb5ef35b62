package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"statecraft/internal/alliance/dto"
	"statecraft/internal/alliance/models"
	historymodels "statecraft/internal/history/models"
	history "statecraft/internal/history/services"
	"statecraft/internal/roles"
	"statecraft/pkg/apperrors"
	"statecraft/pkg/database"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// FlagKind is the storage kind under which alliance flags are written
const FlagKind = "alliance_flags"

// Authorizer gates operations on the actor's role inside a state
type Authorizer interface {
	RequireRole(ctx context.Context, stateID, actorID string, minRole roles.Role, excluded ...roles.Role) error
}

// AdminChecker answers platform-administrator privilege
type AdminChecker interface {
	IsAdmin(ctx context.Context, playerID string) (bool, error)
}

// StateDirectory answers state existence
type StateDirectory interface {
	Exists(ctx context.Context, stateID string) (bool, error)
}

// FlagStore persists flag images and returns an opaque path
type FlagStore interface {
	Store(ctx context.Context, data []byte, kind string) (string, error)
	Remove(ctx context.Context, path string) error
}

// dissolution names who or what ended an alliance
type dissolution int

const (
	dissolvedByRuler dissolution = iota
	dissolvedByAdmin
	dissolvedByCascade
)

// Service manages alliances and their membership workflow
type Service struct {
	repo     Repository
	tx       database.Transactor
	authz    Authorizer
	admins   AdminChecker
	states   StateDirectory
	flags    FlagStore
	history  history.Log
	validate *validator.Validate
	now      func() time.Time
}

// NewService creates a new alliance service. flags may be nil when flag
// uploads are not supported.
func NewService(repo Repository, tx database.Transactor, authz Authorizer, admins AdminChecker, states StateDirectory, flags FlagStore, log history.Log) (*Service, error) {
	validate, err := dto.NewValidator()
	if err != nil {
		return nil, err
	}
	return &Service{
		repo:     repo,
		tx:       tx,
		authz:    authz,
		admins:   admins,
		states:   states,
		flags:    flags,
		history:  log,
		validate: validate,
		now:      time.Now,
	}, nil
}

// CreateAlliance creates an ACTIVE alliance with the creator state as its
// first confirmed member
func (s *Service) CreateAlliance(ctx context.Context, input dto.CreateAllianceInput) (*models.Alliance, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := dto.ValidateStruct(s.validate, &input); err != nil {
		return nil, err
	}

	var alliance *models.Alliance
	var flagPath *string
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.requireState(ctx, input.CreatorStateID); err != nil {
			return err
		}
		if err := s.authz.RequireRole(ctx, input.CreatorStateID, input.CreatorPlayerID, roles.ViceRuler); err != nil {
			return err
		}

		existing, err := s.repo.FindAllianceByName(ctx, input.Name)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperrors.With(apperrors.ErrAllianceNameTaken, "alliance name %q is already taken", input.Name)
		}

		if len(input.Flag) > 0 && s.flags != nil {
			path, err := s.flags.Store(ctx, input.Flag, FlagKind)
			if err != nil {
				return err
			}
			flagPath = &path
		}

		now := s.now().UnixMilli()
		alliance = &models.Alliance{
			UUID:           uuid.NewString(),
			Name:           input.Name,
			Purpose:        input.Purpose,
			Color:          strings.ToUpper(input.Color),
			FlagPath:       flagPath,
			CreatorStateID: input.CreatorStateID,
			Status:         models.StatusActive,
			Created:        now,
			Updated:        now,
		}
		if err := s.repo.InsertAlliance(ctx, alliance); err != nil {
			return err
		}
		if err := s.repo.InsertMember(ctx, &models.Member{
			UUID:       uuid.NewString(),
			AllianceID: alliance.UUID,
			StateID:    input.CreatorStateID,
			IsPending:  false,
			Created:    now,
			Updated:    now,
		}); err != nil {
			return err
		}

		history.Record(ctx, s.history, historymodels.Event{
			Type:               historymodels.EventAllianceCreated,
			Title:              "Alliance founded",
			Description:        fmt.Sprintf("Alliance %s was founded", alliance.Name),
			RelatedStateIDs:    []string{input.CreatorStateID},
			RelatedPlayerIDs:   []string{input.CreatorPlayerID},
			RelatedAllianceIDs: []string{alliance.UUID},
			DetailsJSON:        history.Details(map[string]string{"color": alliance.Color, "purpose": alliance.Purpose}),
			ActorID:            input.CreatorPlayerID,
		})
		return nil
	})
	if err != nil {
		// the flag was written before a failed insert or commit
		if flagPath != nil {
			if rmErr := s.flags.Remove(context.WithoutCancel(ctx), *flagPath); rmErr != nil {
				slog.WarnContext(ctx, "Failed to remove orphaned alliance flag", "path", *flagPath, "error", rmErr)
			}
		}
		return nil, err
	}

	slog.InfoContext(ctx, "Alliance created", "alliance_id", alliance.UUID, "name", alliance.Name)
	return alliance, nil
}

// RequestAllianceJoin files a pending membership row for stateID
func (s *Service) RequestAllianceJoin(ctx context.Context, allianceID, stateID, playerID string) (*models.Member, error) {
	var member *models.Member
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.authz.RequireRole(ctx, stateID, playerID, roles.ViceRuler); err != nil {
			return err
		}

		alliance, err := s.repo.GetAlliance(ctx, allianceID)
		if err != nil {
			return err
		}
		if !alliance.IsActive() {
			return apperrors.With(apperrors.ErrAllianceNotActive, "alliance %s is %s", allianceID, alliance.Status)
		}

		if _, err := s.repo.GetMember(ctx, allianceID, stateID); err == nil {
			return apperrors.With(apperrors.ErrAlreadyAllianceMember, "state %s already has a row in alliance %s", stateID, allianceID)
		} else if !errors.Is(err, apperrors.ErrAllianceMemberNotFound) {
			return err
		}

		now := s.now().UnixMilli()
		member = &models.Member{
			UUID:       uuid.NewString(),
			AllianceID: allianceID,
			StateID:    stateID,
			IsPending:  true,
			Created:    now,
			Updated:    now,
		}
		if err := s.repo.InsertMember(ctx, member); err != nil {
			return err
		}

		history.Record(ctx, s.history, historymodels.Event{
			Type:               historymodels.EventAllianceJoinRequest,
			Title:              "Alliance join requested",
			Description:        fmt.Sprintf("State %s asked to join %s", stateID, alliance.Name),
			RelatedStateIDs:    []string{stateID},
			RelatedPlayerIDs:   []string{playerID},
			RelatedAllianceIDs: []string{allianceID},
			ActorID:            playerID,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// ReviewAllianceJoin approves or rejects a pending join request on behalf
// of a confirmed member state
func (s *Service) ReviewAllianceJoin(ctx context.Context, allianceID, applicantStateID, approverStateID, approverPlayerID string, approve bool) error {
	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.authz.RequireRole(ctx, approverStateID, approverPlayerID, roles.Diplomat); err != nil {
			return err
		}

		alliance, err := s.repo.GetAlliance(ctx, allianceID)
		if err != nil {
			return err
		}
		if err := s.requireVotingMember(ctx, allianceID, approverStateID); err != nil {
			return err
		}

		applicant, err := s.repo.GetMember(ctx, allianceID, applicantStateID)
		if err != nil {
			return err
		}
		if !applicant.IsPending {
			return apperrors.With(apperrors.ErrAllianceMemberNotFound, "state %s has no pending request in alliance %s", applicantStateID, allianceID)
		}

		event := historymodels.Event{
			RelatedStateIDs:    []string{applicantStateID, approverStateID},
			RelatedPlayerIDs:   []string{approverPlayerID},
			RelatedAllianceIDs: []string{allianceID},
			ActorID:            approverPlayerID,
		}
		if approve {
			if err := s.repo.ConfirmMember(ctx, allianceID, applicantStateID, s.now().UnixMilli()); err != nil {
				return err
			}
			event.Type = historymodels.EventAllianceJoined
			event.Title = "Alliance joined"
			event.Description = fmt.Sprintf("State %s joined %s", applicantStateID, alliance.Name)
		} else {
			if err := s.repo.DeleteMember(ctx, allianceID, applicantStateID); err != nil {
				return err
			}
			event.Type = historymodels.EventAllianceJoinDenied
			event.Title = "Alliance join denied"
			event.Description = fmt.Sprintf("Request of state %s to join %s was denied", applicantStateID, alliance.Name)
		}
		history.Record(ctx, s.history, event)
		return nil
	})
}

// LeaveAlliance removes a confirmed member. When the last confirmed member
// leaves, the alliance is dissolved in the same transaction.
func (s *Service) LeaveAlliance(ctx context.Context, allianceID, stateID, playerID string) error {
	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.authz.RequireRole(ctx, stateID, playerID, roles.ViceRuler); err != nil {
			return err
		}

		alliance, err := s.repo.GetAlliance(ctx, allianceID)
		if err != nil {
			return err
		}
		if err := s.requireConfirmed(ctx, allianceID, stateID); err != nil {
			return err
		}
		if err := s.repo.DeleteMember(ctx, allianceID, stateID); err != nil {
			return err
		}

		history.Record(ctx, s.history, historymodels.Event{
			Type:               historymodels.EventAllianceLeft,
			Title:              "Alliance left",
			Description:        fmt.Sprintf("State %s left %s", stateID, alliance.Name),
			RelatedStateIDs:    []string{stateID},
			RelatedPlayerIDs:   []string{playerID},
			RelatedAllianceIDs: []string{allianceID},
			ActorID:            playerID,
		})

		remaining, err := s.repo.CountConfirmed(ctx, allianceID)
		if err != nil {
			return err
		}
		if remaining > 0 || !alliance.IsActive() {
			return nil
		}

		// Nobody is left to authorize this; it is the automatic branch.
		slog.InfoContext(ctx, "Last member left, dissolving alliance", "alliance_id", allianceID)
		return s.dissolve(ctx, alliance, dissolvedByCascade, playerID)
	})
}

// DissolveAlliance ends an alliance. With stateID set, the caller must rule
// that state and the state must be a confirmed member; without it, the
// caller must be a platform administrator.
func (s *Service) DissolveAlliance(ctx context.Context, allianceID, byPlayerID string, stateID *string) error {
	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		cause := dissolvedByAdmin
		if stateID != nil {
			if err := s.authz.RequireRole(ctx, *stateID, byPlayerID, roles.Ruler); err != nil {
				return err
			}
			cause = dissolvedByRuler
		} else {
			ok, err := s.admins.IsAdmin(ctx, byPlayerID)
			if err != nil {
				return err
			}
			if !ok {
				return apperrors.With(apperrors.ErrAdminOnly, "player %s cannot dissolve alliances", byPlayerID)
			}
		}

		alliance, err := s.repo.GetAlliance(ctx, allianceID)
		if err != nil {
			return err
		}
		if !alliance.IsActive() {
			return apperrors.With(apperrors.ErrAllianceNotActive, "alliance %s is already %s", allianceID, alliance.Status)
		}
		if stateID != nil {
			if err := s.requireVotingMember(ctx, allianceID, *stateID); err != nil {
				return err
			}
		}

		return s.dissolve(ctx, alliance, cause, byPlayerID)
	})
}

// dissolve marks the alliance DISSOLVED and drops every membership row.
// It performs no authorization; callers decide who may reach it.
func (s *Service) dissolve(ctx context.Context, alliance *models.Alliance, cause dissolution, actorID string) error {
	now := s.now().UnixMilli()
	if err := s.repo.MarkDissolved(ctx, alliance.UUID, now); err != nil {
		return err
	}
	removed, err := s.repo.DeleteAllMembers(ctx, alliance.UUID)
	if err != nil {
		return err
	}

	var description string
	switch cause {
	case dissolvedByRuler:
		description = fmt.Sprintf("Alliance %s was dissolved by the ruler of a member state", alliance.Name)
	case dissolvedByAdmin:
		description = fmt.Sprintf("Alliance %s was dissolved by an administrator", alliance.Name)
	default:
		description = fmt.Sprintf("Alliance %s was dissolved automatically after its last member left", alliance.Name)
	}

	history.Record(ctx, s.history, historymodels.Event{
		Type:               historymodels.EventAllianceDissolved,
		Title:              "Alliance dissolved",
		Description:        description,
		RelatedPlayerIDs:   []string{actorID},
		RelatedAllianceIDs: []string{alliance.UUID},
		DetailsJSON:        history.Details(map[string]any{"removed_rows": removed, "automatic": cause == dissolvedByCascade}),
		ActorID:            actorID,
	})

	alliance.Status = models.StatusDissolved
	alliance.Dissolved = &now
	alliance.Updated = now
	slog.InfoContext(ctx, "Alliance dissolved", "alliance_id", alliance.UUID, "removed_rows", removed)
	return nil
}

func (s *Service) requireState(ctx context.Context, stateID string) error {
	ok, err := s.states.Exists(ctx, stateID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.With(apperrors.ErrStateNotFound, "state %s not found", stateID)
	}
	return nil
}

func (s *Service) requireConfirmed(ctx context.Context, allianceID, stateID string) error {
	member, err := s.repo.GetMember(ctx, allianceID, stateID)
	if err != nil {
		return err
	}
	if member.IsPending {
		return apperrors.With(apperrors.ErrAllianceMemberNotFound, "state %s is not a confirmed member of alliance %s", stateID, allianceID)
	}
	return nil
}

// requireVotingMember admits only confirmed members to act for the alliance
func (s *Service) requireVotingMember(ctx context.Context, allianceID, stateID string) error {
	err := s.requireConfirmed(ctx, allianceID, stateID)
	if errors.Is(err, apperrors.ErrAllianceMemberNotFound) {
		return apperrors.Newf(apperrors.KindForbidden, apperrors.CodeForbidden,
			"state %s is not a member of alliance %s", stateID, allianceID)
	}
	return err
}

// GetAllianceByUUID returns the alliance or apperrors.ErrAllianceNotFound
func (s *Service) GetAllianceByUUID(ctx context.Context, allianceID string) (*models.Alliance, error) {
	return s.repo.GetAlliance(ctx, allianceID)
}

// ListAllianceMembers returns the confirmed members of an alliance
func (s *Service) ListAllianceMembers(ctx context.Context, allianceID string) ([]models.Member, error) {
	return s.repo.ListMembers(ctx, allianceID, false)
}

// ListPendingJoinRequests returns the pending rows of an alliance
func (s *Service) ListPendingJoinRequests(ctx context.Context, allianceID string) ([]models.Member, error) {
	return s.repo.ListMembers(ctx, allianceID, true)
}

// ListAlliancesForState returns the ACTIVE alliances stateID is a
// confirmed member of
func (s *Service) ListAlliancesForState(ctx context.Context, stateID string) ([]models.Alliance, error) {
	memberships, err := s.repo.ListStateMemberships(ctx, stateID)
	if err != nil {
		return nil, err
	}

	alliances := make([]models.Alliance, 0, len(memberships))
	for _, m := range memberships {
		alliance, err := s.repo.GetAlliance(ctx, m.AllianceID)
		if err != nil {
			if errors.Is(err, apperrors.ErrAllianceNotFound) {
				continue
			}
			return nil, err
		}
		if alliance.IsActive() {
			alliances = append(alliances, *alliance)
		}
	}
	return alliances, nil
}

// ListAlliances returns one page of ACTIVE alliances ordered by name
func (s *Service) ListAlliances(ctx context.Context, input dto.ListAlliancesInput) (*dto.AllianceListOutput, error) {
	input.SetDefaults()
	if err := dto.ValidateStruct(s.validate, &input); err != nil {
		return nil, err
	}

	skip := int64((input.Page - 1) * input.PageSize)
	alliances, total, err := s.repo.ListActiveAlliances(ctx, skip, int64(input.PageSize))
	if err != nil {
		return nil, err
	}
	return &dto.AllianceListOutput{
		Alliances: alliances,
		Total:     total,
		Page:      input.Page,
		PageSize:  input.PageSize,
	}, nil
}
