package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"statecraft/internal/citizenship/models"
	dirmodels "statecraft/internal/directory/models"
	historymodels "statecraft/internal/history/models"
	history "statecraft/internal/history/services"
	"statecraft/internal/roles"
	"statecraft/pkg/apperrors"
	"statecraft/pkg/database"

	"github.com/google/uuid"
)

// StateDirectory resolves states for existence and policy checks
type StateDirectory interface {
	Get(ctx context.Context, stateID string) (*dirmodels.State, error)
}

// Service manages state memberships and the ruler succession
type Service struct {
	repo    Repository
	tx      database.Transactor
	states  StateDirectory
	history history.Log
	checker *roles.Checker
	now     func() time.Time
}

// NewService creates a new citizenship service
func NewService(repo Repository, tx database.Transactor, states StateDirectory, log history.Log) *Service {
	s := &Service{
		repo:    repo,
		tx:      tx,
		states:  states,
		history: log,
		now:     time.Now,
	}
	s.checker = roles.NewChecker(s)
	return s
}

// ApplyForMembership files an APPLICANT row for applicantID in stateID
func (s *Service) ApplyForMembership(ctx context.Context, stateID, applicantID string) (*models.Member, error) {
	var member *models.Member
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		state, err := s.states.Get(ctx, stateID)
		if err != nil {
			return err
		}

		if _, err := s.repo.GetMember(ctx, stateID, applicantID); err == nil {
			return apperrors.With(apperrors.ErrAlreadyMember, "player %s already has a membership in state %s", applicantID, stateID)
		} else if !errors.Is(err, apperrors.ErrNotMember) {
			return err
		}

		if err := s.checkDualCitizenship(ctx, state, applicantID); err != nil {
			return err
		}

		now := s.now().UnixMilli()
		member = &models.Member{
			UUID:     uuid.NewString(),
			StateID:  stateID,
			PlayerID: applicantID,
			Role:     roles.Applicant,
			Created:  now,
			Updated:  now,
		}
		if err := s.repo.InsertMember(ctx, member); err != nil {
			return err
		}

		history.Record(ctx, s.history, historymodels.Event{
			Type:             historymodels.EventMembershipApplied,
			Title:            "Membership application",
			Description:      fmt.Sprintf("Player %s applied to join %s", applicantID, state.Name),
			RelatedStateIDs:  []string{stateID},
			RelatedPlayerIDs: []string{applicantID},
			ActorID:          applicantID,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Membership application filed", "state_id", stateID, "player_id", applicantID)
	return member, nil
}

// checkDualCitizenship denies another membership unless every state the
// player already belongs to allows dual citizenship. Pending applications
// count as memberships. The target state's own flag only binds players who
// join it later.
func (s *Service) checkDualCitizenship(ctx context.Context, target *dirmodels.State, playerID string) error {
	allowed, err := s.IsDualCitizenshipAllowed(ctx, playerID)
	if err != nil {
		return err
	}
	if allowed == nil || *allowed {
		return nil
	}
	return apperrors.With(apperrors.ErrDualCitizenship, "player %s belongs to a state that does not allow dual citizenship, cannot join %s", playerID, target.UUID)
}

// ReviewMembershipApplication approves (APPLICANT -> CITIZEN) or rejects
// (row deleted) a pending application
func (s *Service) ReviewMembershipApplication(ctx context.Context, stateID, applicantID, reviewerID string, approve bool) error {
	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.checker.Require(ctx, stateID, reviewerID, roles.Officer, roles.Diplomat); err != nil {
			return err
		}

		applicant, err := s.repo.GetMember(ctx, stateID, applicantID)
		if err != nil {
			return memberNotFound(err, stateID, applicantID)
		}
		if !applicant.IsApplicant() {
			return apperrors.Newf(apperrors.KindInvalidStateTransition, apperrors.CodeNotApplicant,
				"player %s is already %s in state %s", applicantID, applicant.Role, stateID)
		}

		event := historymodels.Event{
			RelatedStateIDs:  []string{stateID},
			RelatedPlayerIDs: []string{applicantID, reviewerID},
			ActorID:          reviewerID,
		}
		if approve {
			if err := s.repo.UpdateMemberRole(ctx, stateID, applicantID, roles.Citizen, s.now().UnixMilli()); err != nil {
				return err
			}
			event.Type = historymodels.EventMembershipApproved
			event.Title = "Membership approved"
			event.Description = fmt.Sprintf("Player %s became a citizen", applicantID)
		} else {
			if err := s.repo.DeleteMember(ctx, stateID, applicantID); err != nil {
				return err
			}
			event.Type = historymodels.EventMembershipRejected
			event.Title = "Membership rejected"
			event.Description = fmt.Sprintf("Application of player %s was rejected", applicantID)
		}
		history.Record(ctx, s.history, event)
		return nil
	})
}

// RemoveMember deletes target's membership on behalf of remover
func (s *Service) RemoveMember(ctx context.Context, stateID, targetID, removerID string) error {
	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.checker.Require(ctx, stateID, removerID, roles.Officer, roles.Diplomat); err != nil {
			return err
		}

		if _, err := s.repo.GetMember(ctx, stateID, targetID); err != nil {
			return memberNotFound(err, stateID, targetID)
		}
		if err := s.repo.DeleteMember(ctx, stateID, targetID); err != nil {
			return err
		}

		history.Record(ctx, s.history, historymodels.Event{
			Type:             historymodels.EventMemberRemoved,
			Title:            "Member removed",
			Description:      fmt.Sprintf("Player %s was removed by %s", targetID, removerID),
			RelatedStateIDs:  []string{stateID},
			RelatedPlayerIDs: []string{targetID, removerID},
			ActorID:          removerID,
		})
		return nil
	})
}

// UpdateMemberRole changes target's role. Promoting to RULER is reserved
// to the current ruler, who steps down to VICE_RULER in the same transaction.
func (s *Service) UpdateMemberRole(ctx context.Context, stateID, targetID, updaterID string, newRole roles.Role) error {
	if targetID == updaterID {
		return apperrors.New(apperrors.KindForbidden, apperrors.CodeSelfRoleChange, "players cannot change their own role")
	}

	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		updater, err := s.repo.GetMember(ctx, stateID, updaterID)
		if err != nil {
			return err
		}
		target, err := s.repo.GetMember(ctx, stateID, targetID)
		if err != nil {
			return memberNotFound(err, stateID, targetID)
		}
		if !newRole.Valid() {
			return apperrors.Newf(apperrors.KindInvalidInput, apperrors.CodeInvalidRole, "unknown role %q", newRole)
		}

		if !updater.Role.Outranks(target.Role) {
			return apperrors.With(apperrors.ErrInsufficientRole, "%s cannot change the role of a %s", updater.Role, target.Role)
		}

		now := s.now().UnixMilli()
		if newRole == roles.Ruler {
			if updater.Role != roles.Ruler {
				return apperrors.New(apperrors.KindForbidden, apperrors.CodeRulerOnly, "only the ruler can appoint a successor")
			}
			return s.succeed(ctx, stateID, updater, target, now)
		}

		if !updater.Role.Outranks(newRole) {
			return apperrors.With(apperrors.ErrInsufficientRole, "%s cannot grant %s", updater.Role, newRole)
		}
		if err := s.repo.UpdateMemberRole(ctx, stateID, targetID, newRole, now); err != nil {
			return err
		}

		history.Record(ctx, s.history, historymodels.Event{
			Type:             historymodels.EventMemberRoleChanged,
			Title:            "Role changed",
			Description:      fmt.Sprintf("Player %s changed from %s to %s", targetID, target.Role, newRole),
			RelatedStateIDs:  []string{stateID},
			RelatedPlayerIDs: []string{targetID, updaterID},
			DetailsJSON:      history.Details(map[string]roles.Role{"from": target.Role, "to": newRole}),
			ActorID:          updaterID,
		})
		return nil
	})
}

// succeed demotes every current RULER row and promotes target
func (s *Service) succeed(ctx context.Context, stateID string, ruler, target *models.Member, now int64) error {
	for {
		incumbent, err := s.repo.FindRuler(ctx, stateID)
		if err != nil {
			return err
		}
		if incumbent == nil {
			break
		}
		if err := s.repo.UpdateMemberRole(ctx, stateID, incumbent.PlayerID, roles.ViceRuler, now); err != nil {
			return err
		}
	}
	if err := s.repo.UpdateMemberRole(ctx, stateID, target.PlayerID, roles.Ruler, now); err != nil {
		return err
	}

	history.Record(ctx, s.history, historymodels.Event{
		Type:             historymodels.EventRulerSucceeded,
		Title:            "New ruler",
		Description:      fmt.Sprintf("Player %s succeeded %s as ruler", target.PlayerID, ruler.PlayerID),
		RelatedStateIDs:  []string{stateID},
		RelatedPlayerIDs: []string{target.PlayerID, ruler.PlayerID},
		ActorID:          ruler.PlayerID,
	})
	slog.InfoContext(ctx, "Ruler succession", "state_id", stateID, "from", ruler.PlayerID, "to", target.PlayerID)
	return nil
}

// LeaveState removes the caller's own membership. A ruler must hand over
// the title first.
func (s *Service) LeaveState(ctx context.Context, stateID, playerID string) error {
	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		member, err := s.repo.GetMember(ctx, stateID, playerID)
		if err != nil {
			return err
		}
		if member.Role == roles.Ruler {
			return apperrors.With(apperrors.ErrCannotLeaveRuler, "player %s rules state %s", playerID, stateID)
		}
		if err := s.repo.DeleteMember(ctx, stateID, playerID); err != nil {
			return err
		}

		history.Record(ctx, s.history, historymodels.Event{
			Type:             historymodels.EventMemberLeft,
			Title:            "Member left",
			Description:      fmt.Sprintf("Player %s left the state", playerID),
			RelatedStateIDs:  []string{stateID},
			RelatedPlayerIDs: []string{playerID},
			ActorID:          playerID,
		})
		return nil
	})
}

// GetMember returns the membership row or apperrors.ErrNotMember
func (s *Service) GetMember(ctx context.Context, stateID, playerID string) (*models.Member, error) {
	return s.repo.GetMember(ctx, stateID, playerID)
}

// GetMembers returns the state's rows, highest role first, then by join time
func (s *Service) GetMembers(ctx context.Context, stateID string) ([]models.Member, error) {
	members, err := s.repo.ListMembers(ctx, stateID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(members, func(i, j int) bool {
		ri, rj := roles.Rank(members[i].Role), roles.Rank(members[j].Role)
		if ri != rj {
			return ri > rj
		}
		return members[i].Created < members[j].Created
	})
	return members, nil
}

// GetStateMembersCount counts confirmed (non-applicant) members
func (s *Service) GetStateMembersCount(ctx context.Context, stateID string) (int64, error) {
	return s.repo.CountNonApplicants(ctx, stateID)
}

// IsPlayerInState reports whether player is a confirmed member of state
func (s *Service) IsPlayerInState(ctx context.Context, stateID, playerID string) (bool, error) {
	member, err := s.repo.GetMember(ctx, stateID, playerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotMember) {
			return false, nil
		}
		return false, err
	}
	return !member.IsApplicant(), nil
}

// IsPlayerRulerSomewhere reports whether player rules any state
func (s *Service) IsPlayerRulerSomewhere(ctx context.Context, playerID string) (bool, error) {
	memberships, err := s.repo.ListMembershipsForPlayer(ctx, playerID)
	if err != nil {
		return false, err
	}
	for _, m := range memberships {
		if m.Role == roles.Ruler {
			return true, nil
		}
	}
	return false, nil
}

// IsDualCitizenshipAllowed returns nil for a player in no state, otherwise
// whether every state the player belongs to allows dual citizenship
func (s *Service) IsDualCitizenshipAllowed(ctx context.Context, playerID string) (*bool, error) {
	memberships, err := s.repo.ListMembershipsForPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if len(memberships) == 0 {
		return nil, nil
	}

	allowed := true
	for _, m := range memberships {
		state, err := s.states.Get(ctx, m.StateID)
		if err != nil {
			if errors.Is(err, apperrors.ErrStateNotFound) {
				continue
			}
			return nil, err
		}
		allowed = allowed && state.AllowDualCitizenship
	}
	return &allowed, nil
}

// GetMemberRole implements roles.RoleSource
func (s *Service) GetMemberRole(ctx context.Context, stateID, playerID string) (roles.Role, error) {
	member, err := s.repo.GetMember(ctx, stateID, playerID)
	if err != nil {
		return "", err
	}
	return member.Role, nil
}

// HasAtLeastRole reports whether actor holds minRole or higher in state
func (s *Service) HasAtLeastRole(ctx context.Context, stateID, actorID string, minRole roles.Role, excluded ...roles.Role) (bool, error) {
	return s.checker.HasAtLeastRole(ctx, stateID, actorID, minRole, excluded...)
}

// RequireRole is HasAtLeastRole as a guard
func (s *Service) RequireRole(ctx context.Context, stateID, actorID string, minRole roles.Role, excluded ...roles.Role) error {
	return s.checker.Require(ctx, stateID, actorID, minRole, excluded...)
}

// memberNotFound reports a missing target row with its own code so callers
// can tell it from the actor not being a member
func memberNotFound(err error, stateID, playerID string) error {
	if errors.Is(err, apperrors.ErrNotMember) {
		return apperrors.Newf(apperrors.KindNotFound, apperrors.CodeMemberNotFound,
			"player %s has no membership in state %s", playerID, stateID)
	}
	return err
}
