package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	alliancemodels "statecraft/internal/alliance/models"
	historymodels "statecraft/internal/history/models"
	history "statecraft/internal/history/services"
	"statecraft/internal/roles"
	"statecraft/internal/wars/dto"
	"statecraft/internal/wars/models"
	"statecraft/pkg/apperrors"
	"statecraft/pkg/database"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

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

// AllianceReader exposes the alliance membership read at declaration time
type AllianceReader interface {
	ListAlliancesForState(ctx context.Context, stateID string) ([]alliancemodels.Alliance, error)
	ListAllianceMembers(ctx context.Context, allianceID string) ([]alliancemodels.Member, error)
}

// Service orchestrates the war and battle lifecycle
type Service struct {
	repo      Repository
	tx        database.Transactor
	authz     Authorizer
	admins    AdminChecker
	states    StateDirectory
	alliances AllianceReader
	history   history.Log
	validate  *validator.Validate
	now       func() time.Time
}

// NewService creates a new war service
func NewService(repo Repository, tx database.Transactor, authz Authorizer, admins AdminChecker, states StateDirectory, alliances AllianceReader, log history.Log) (*Service, error) {
	validate, err := dto.NewValidator()
	if err != nil {
		return nil, err
	}
	return &Service{
		repo:      repo,
		tx:        tx,
		authz:     authz,
		admins:    admins,
		states:    states,
		alliances: alliances,
		history:   log,
		validate:  validate,
		now:       time.Now,
	}, nil
}

// DeclareWar opens a PROPOSED war and snapshots both sides, including the
// confirmed members of every active alliance each side belongs to
func (s *Service) DeclareWar(ctx context.Context, input dto.DeclareWarInput) (*models.War, error) {
	if err := dto.ValidateStruct(s.validate, &input); err != nil {
		return nil, err
	}
	if input.AttackerStateID == input.DefenderStateID {
		return nil, apperrors.New(apperrors.KindInvalidInput, apperrors.CodeSelfPair, "a state cannot declare war on itself")
	}

	var war *models.War
	var participants []models.Participant
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		for _, id := range []string{input.AttackerStateID, input.DefenderStateID} {
			ok, err := s.states.Exists(ctx, id)
			if err != nil {
				return err
			}
			if !ok {
				return apperrors.With(apperrors.ErrStateNotFound, "state %s not found", id)
			}
		}
		if err := s.authz.RequireRole(ctx, input.AttackerStateID, input.AttackerPlayerID, roles.Diplomat); err != nil {
			return err
		}

		existing, err := s.repo.FindActiveWarBetween(ctx, input.AttackerStateID, input.DefenderStateID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperrors.With(apperrors.ErrWarInProgress, "war %s between these states is %s", existing.UUID, existing.Status)
		}

		now := s.now().UnixMilli()
		war = &models.War{
			UUID:             uuid.NewString(),
			Name:             strings.TrimSpace(input.Name),
			Reason:           input.Reason,
			VictoryCondition: input.VictoryCondition,
			Status:           models.StatusProposed,
			AttackerStateID:  input.AttackerStateID,
			DefenderStateID:  input.DefenderStateID,
			DeclaredBy:       input.AttackerPlayerID,
			Created:          now,
			Updated:          now,
		}
		if err := s.repo.InsertWar(ctx, war); err != nil {
			return err
		}

		var allianceIDs []string
		participants, allianceIDs, err = s.propagate(ctx, war, now)
		if err != nil {
			return err
		}
		if err := s.repo.InsertParticipants(ctx, participants); err != nil {
			return err
		}

		stateIDs := make([]string, len(participants))
		sides := make(map[string]models.Side, len(participants))
		for i, p := range participants {
			stateIDs[i] = p.StateID
			sides[p.StateID] = p.Side
		}
		history.Record(ctx, s.history, historymodels.Event{
			Type:               historymodels.EventWarDeclared,
			Title:              "War declared",
			Description:        fmt.Sprintf("State %s declared war %q on %s", war.AttackerStateID, war.Name, war.DefenderStateID),
			RelatedStateIDs:    stateIDs,
			RelatedPlayerIDs:   []string{input.AttackerPlayerID},
			RelatedAllianceIDs: allianceIDs,
			RelatedWarID:       war.UUID,
			DetailsJSON:        history.Details(map[string]any{"participants": sides, "alliances": allianceIDs}),
			ActorID:            input.AttackerPlayerID,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "War declared",
		"war_id", war.UUID,
		"attacker", war.AttackerStateID,
		"defender", war.DefenderStateID,
		"participants", len(participants))
	return war, nil
}

// propagate builds the participant snapshot. The attacker side is walked
// first; a state already placed keeps its first side.
func (s *Service) propagate(ctx context.Context, war *models.War, now int64) ([]models.Participant, []string, error) {
	seen := map[string]bool{}
	var participants []models.Participant
	add := func(stateID string, side models.Side, via *string) {
		if seen[stateID] {
			return
		}
		seen[stateID] = true
		participants = append(participants, models.Participant{
			UUID:          uuid.NewString(),
			WarID:         war.UUID,
			StateID:       stateID,
			Side:          side,
			ViaAllianceID: via,
			Created:       now,
		})
	}

	add(war.AttackerStateID, models.SideAttacker, nil)
	add(war.DefenderStateID, models.SideDefender, nil)

	var allianceIDs []string
	sides := []struct {
		stateID string
		side    models.Side
	}{
		{war.AttackerStateID, models.SideAllyAttacker},
		{war.DefenderStateID, models.SideAllyDefender},
	}
	for _, side := range sides {
		alliances, err := s.alliances.ListAlliancesForState(ctx, side.stateID)
		if err != nil {
			return nil, nil, err
		}
		for _, alliance := range alliances {
			if !alliance.IsActive() {
				continue
			}
			allianceIDs = append(allianceIDs, alliance.UUID)

			members, err := s.alliances.ListAllianceMembers(ctx, alliance.UUID)
			if err != nil {
				return nil, nil, err
			}
			for _, m := range members {
				if m.IsPending {
					continue
				}
				via := alliance.UUID
				add(m.StateID, side.side, &via)
			}
		}
	}
	return participants, allianceIDs, nil
}

// RespondWarDeclaration lets the defender accept or decline a PROPOSED war
func (s *Service) RespondWarDeclaration(ctx context.Context, warID, defenderStateID, defenderPlayerID string, accept bool) error {
	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		war, err := s.repo.GetWar(ctx, warID)
		if err != nil {
			return err
		}
		if war.Status != models.StatusProposed {
			return apperrors.With(apperrors.ErrInvalidWarState, "war %s is %s, not %s", warID, war.Status, models.StatusProposed)
		}

		participant, err := s.repo.GetParticipant(ctx, warID, defenderStateID)
		if err != nil {
			return err
		}
		if participant.Side != models.SideDefender {
			return apperrors.With(apperrors.ErrNotParticipant, "state %s is not the defender of war %s", defenderStateID, warID)
		}
		if err := s.authz.RequireRole(ctx, defenderStateID, defenderPlayerID, roles.Diplomat); err != nil {
			return err
		}

		to, eventType, verb := models.StatusDeclined, historymodels.EventWarDeclined, "declined"
		if accept {
			to, eventType, verb = models.StatusAccepted, historymodels.EventWarAccepted, "accepted"
		}
		if err := s.repo.ChangeWarStatus(ctx, warID, war.Status, StatusChange{To: to, Updated: s.now().UnixMilli()}); err != nil {
			return err
		}

		history.Record(ctx, s.history, historymodels.Event{
			Type:             eventType,
			Title:            "War " + verb,
			Description:      fmt.Sprintf("State %s %s war %q", defenderStateID, verb, war.Name),
			RelatedStateIDs:  []string{war.AttackerStateID, war.DefenderStateID},
			RelatedPlayerIDs: []string{defenderPlayerID},
			RelatedWarID:     warID,
			ActorID:          defenderPlayerID,
		})
		return nil
	})
}

// ScheduleWar moves an ACCEPTED war to SCHEDULED. scheduledFor is in
// milliseconds since epoch.
func (s *Service) ScheduleWar(ctx context.Context, warID, adminID string, scheduledFor int64) error {
	return s.adminTransition(ctx, warID, adminID, models.StatusScheduled,
		func(c *StatusChange) { c.ScheduledFor = &scheduledFor },
		historymodels.EventWarScheduled, "War scheduled")
}

// StartWar moves a SCHEDULED war to ONGOING
func (s *Service) StartWar(ctx context.Context, warID, adminID string) error {
	return s.adminTransition(ctx, warID, adminID, models.StatusOngoing,
		func(c *StatusChange) { c.Started = &c.Updated },
		historymodels.EventWarStarted, "War started")
}

// FinishWar ends a SCHEDULED or ONGOING war and records its outcome
func (s *Service) FinishWar(ctx context.Context, warID, adminID, result, resultAction string) error {
	return s.adminTransition(ctx, warID, adminID, models.StatusEnded,
		func(c *StatusChange) {
			c.Result = &result
			c.ResultAction = &resultAction
			c.Ended = &c.Updated
		},
		historymodels.EventWarEnded, "War ended")
}

// CancelWar cancels a war that has not started yet
func (s *Service) CancelWar(ctx context.Context, warID, adminID string) error {
	return s.adminTransition(ctx, warID, adminID, models.StatusCancelled,
		func(c *StatusChange) { c.Ended = &c.Updated },
		historymodels.EventWarCancelled, "War cancelled")
}

func (s *Service) adminTransition(ctx context.Context, warID, adminID string, to models.Status, apply func(*StatusChange), eventType historymodels.EventType, title string) error {
	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.requireAdmin(ctx, adminID); err != nil {
			return err
		}

		war, err := s.repo.GetWar(ctx, warID)
		if err != nil {
			return err
		}
		if !models.CanTransition(war.Status, to) {
			return apperrors.With(apperrors.ErrInvalidWarState, "war %s cannot move from %s to %s", warID, war.Status, to)
		}

		change := StatusChange{To: to, Updated: s.now().UnixMilli()}
		apply(&change)
		if err := s.repo.ChangeWarStatus(ctx, warID, war.Status, change); err != nil {
			return err
		}

		details := map[string]any{"from": war.Status, "to": to}
		if change.Result != nil {
			details["result"] = *change.Result
			details["result_action"] = *change.ResultAction
		}
		if change.ScheduledFor != nil {
			details["scheduled_for"] = *change.ScheduledFor
		}
		history.Record(ctx, s.history, historymodels.Event{
			Type:             eventType,
			Title:            title,
			Description:      fmt.Sprintf("War %q moved from %s to %s", war.Name, war.Status, to),
			RelatedStateIDs:  []string{war.AttackerStateID, war.DefenderStateID},
			RelatedPlayerIDs: []string{adminID},
			RelatedWarID:     warID,
			DetailsJSON:      history.Details(details),
			ActorID:          adminID,
		})

		slog.InfoContext(ctx, "War status changed", "war_id", warID, "from", war.Status, "to", to)
		return nil
	})
}

// CreateBattle schedules a battle in a war the creator state takes part in
func (s *Service) CreateBattle(ctx context.Context, input dto.CreateBattleInput) (*models.Battle, error) {
	if err := dto.ValidateStruct(s.validate, &input); err != nil {
		return nil, err
	}

	var battle *models.Battle
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		war, err := s.repo.GetWar(ctx, input.WarID)
		if err != nil {
			return err
		}
		if war.Status.IsTerminal() {
			return apperrors.With(apperrors.ErrInvalidWarState, "war %s is %s", war.UUID, war.Status)
		}
		if _, err := s.repo.GetParticipant(ctx, input.WarID, input.CreatorStateID); err != nil {
			return err
		}
		if err := s.authz.RequireRole(ctx, input.CreatorStateID, input.CreatorPlayerID, roles.Officer); err != nil {
			return err
		}

		now := s.now().UnixMilli()
		battle = &models.Battle{
			UUID:           uuid.NewString(),
			WarID:          input.WarID,
			Name:           strings.TrimSpace(input.Name),
			Description:    input.Description,
			Type:           models.BattleType(input.Type),
			Status:         models.StatusScheduled,
			StartDate:      input.StartDate,
			CreatorStateID: input.CreatorStateID,
			Created:        now,
			Updated:        now,
		}
		if err := s.repo.InsertBattle(ctx, battle); err != nil {
			return err
		}

		history.Record(ctx, s.history, historymodels.Event{
			Type:             historymodels.EventBattleCreated,
			Title:            "Battle scheduled",
			Description:      fmt.Sprintf("%s %q was scheduled in war %q", battle.Type, battle.Name, war.Name),
			RelatedStateIDs:  []string{input.CreatorStateID},
			RelatedPlayerIDs: []string{input.CreatorPlayerID},
			RelatedWarID:     war.UUID,
			DetailsJSON:      history.Details(map[string]any{"battle_id": battle.UUID, "start_date": battle.StartDate}),
			ActorID:          input.CreatorPlayerID,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return battle, nil
}

// UpdateBattleStatus lets an administrator set any recognized status on a
// battle, together with an optional result and end date
func (s *Service) UpdateBattleStatus(ctx context.Context, battleID string, status models.Status, adminID string, result *string, endDate *int64) error {
	if !status.Valid() {
		return apperrors.Newf(apperrors.KindInvalidInput, apperrors.CodeInvalidStatus, "unknown status %q", status)
	}

	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.requireAdmin(ctx, adminID); err != nil {
			return err
		}
		battle, err := s.repo.GetBattle(ctx, battleID)
		if err != nil {
			return err
		}

		if err := s.repo.UpdateBattle(ctx, battleID, BattleChange{
			Status:  status,
			Result:  result,
			EndDate: endDate,
			Updated: s.now().UnixMilli(),
		}); err != nil {
			return err
		}

		history.Record(ctx, s.history, historymodels.Event{
			Type:             historymodels.EventBattleUpdated,
			Title:            "Battle updated",
			Description:      fmt.Sprintf("Battle %q moved from %s to %s", battle.Name, battle.Status, status),
			RelatedPlayerIDs: []string{adminID},
			RelatedWarID:     battle.WarID,
			DetailsJSON:      history.Details(map[string]any{"battle_id": battleID, "result": result, "end_date": endDate}),
			ActorID:          adminID,
		})
		return nil
	})
}

func (s *Service) requireAdmin(ctx context.Context, playerID string) error {
	ok, err := s.admins.IsAdmin(ctx, playerID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.With(apperrors.ErrAdminOnly, "player %s is not a platform administrator", playerID)
	}
	return nil
}

// GetWarByUUID returns the war or apperrors.ErrWarNotFound
func (s *Service) GetWarByUUID(ctx context.Context, warID string) (*models.War, error) {
	return s.repo.GetWar(ctx, warID)
}

// ListWarParticipants returns the participant snapshot of a war
func (s *Service) ListWarParticipants(ctx context.Context, warID string) ([]models.Participant, error) {
	if _, err := s.repo.GetWar(ctx, warID); err != nil {
		return nil, err
	}
	return s.repo.ListParticipants(ctx, warID)
}

// ListWarBattles returns the battles of a war ordered by start date
func (s *Service) ListWarBattles(ctx context.Context, warID string) ([]models.Battle, error) {
	if _, err := s.repo.GetWar(ctx, warID); err != nil {
		return nil, err
	}
	return s.repo.ListBattles(ctx, warID)
}

// ListWarsForState returns the wars a state takes part in, newest first
func (s *Service) ListWarsForState(ctx context.Context, stateID string) ([]models.War, error) {
	return s.repo.ListWarsForState(ctx, stateID)
}

// ListDueWars returns SCHEDULED wars whose start time has passed at, for
// an administrator to start
func (s *Service) ListDueWars(ctx context.Context, at time.Time) ([]models.War, error) {
	return s.repo.ListScheduledBefore(ctx, at.UnixMilli())
}

// IsParticipant reports whether stateID takes part in warID
func (s *Service) IsParticipant(ctx context.Context, warID, stateID string) (bool, error) {
	_, err := s.repo.GetParticipant(ctx, warID, stateID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotParticipant) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
