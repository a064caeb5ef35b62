package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	adminauth "statecraft/internal/adminauth/services"
	alliancemodels "statecraft/internal/alliance/models"
	alliances "statecraft/internal/alliance/services"
	citizenship "statecraft/internal/citizenship/services"
	dirmodels "statecraft/internal/directory/models"
	historymodels "statecraft/internal/history/models"
	"statecraft/internal/roles"
	"statecraft/internal/testkit/memstore"
	"statecraft/internal/wars/dto"
	"statecraft/internal/wars/models"
	"statecraft/internal/wars/services"
	"statecraft/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	attacker     = "state-attacker"
	defender     = "state-defender"
	attackerAlly = "state-attacker-ally"
	defenderAlly = "state-defender-ally"
	bothSides    = "state-both"
	bystander    = "state-bystander"
	admin        = "moderator"
)

type fixture struct {
	svc    *services.Service
	store  *memstore.Store
	admins *adminauth.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	for _, id := range []string{attacker, defender, attackerAlly, defenderAlly, bothSides, bystander} {
		store.States().Add(dirmodels.State{UUID: id, Name: id})
		store.Members().Seed(id, id+"-ruler", roles.Ruler)
		store.Members().Seed(id, id+"-diplomat", roles.Diplomat)
		store.Members().Seed(id, id+"-officer", roles.Officer)
		store.Members().Seed(id, id+"-citizen", roles.Citizen)
	}

	seedAlliance(t, store, "alliance-red", attacker, attackerAlly, bothSides)
	seedAlliance(t, store, "alliance-blue", defender, defenderAlly, bothSides)

	admins, err := adminauth.NewMemoryService()
	require.NoError(t, err)
	require.NoError(t, admins.Grant(ctx, admin))

	authz := citizenship.NewService(store.Members(), store, store.States(), store.History())
	allianceSvc, err := alliances.NewService(store.Alliances(), store, authz, admins, store.States(), nil, store.History())
	require.NoError(t, err)

	svc, err := services.NewService(store.Wars(), store, authz, admins, store.States(), allianceSvc, store.History())
	require.NoError(t, err)
	return &fixture{svc: svc, store: store, admins: admins}
}

func seedAlliance(t *testing.T, store *memstore.Store, allianceID string, stateIDs ...string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.Alliances().InsertAlliance(ctx, &alliancemodels.Alliance{
		UUID:           allianceID,
		Name:           allianceID,
		Color:          "#FF0000",
		CreatorStateID: stateIDs[0],
		Status:         alliancemodels.StatusActive,
	}))
	for _, stateID := range stateIDs {
		require.NoError(t, store.Alliances().InsertMember(ctx, &alliancemodels.Member{
			UUID:       allianceID + "/" + stateID,
			AllianceID: allianceID,
			StateID:    stateID,
		}))
	}
}

func (f *fixture) declare(t *testing.T) *models.War {
	t.Helper()
	war, err := f.svc.DeclareWar(context.Background(), dto.DeclareWarInput{
		AttackerStateID:  attacker,
		DefenderStateID:  defender,
		AttackerPlayerID: attacker + "-diplomat",
		Name:             "War of the Fords",
		Reason:           "Border dispute",
	})
	require.NoError(t, err)
	return war
}

func sidesOf(t *testing.T, f *fixture, warID string) map[string]models.Side {
	t.Helper()
	participants, err := f.svc.ListWarParticipants(context.Background(), warID)
	require.NoError(t, err)
	sides := map[string]models.Side{}
	for _, p := range participants {
		_, dup := sides[p.StateID]
		require.False(t, dup, "state %s appears twice", p.StateID)
		sides[p.StateID] = p.Side
	}
	return sides
}

func TestDeclareWar_Propagation(t *testing.T) {
	f := newFixture(t)
	war := f.declare(t)

	assert.Equal(t, models.StatusProposed, war.Status)
	assert.Equal(t, attacker+"-diplomat", war.DeclaredBy)
	assert.Equal(t, map[string]models.Side{
		attacker:     models.SideAttacker,
		defender:     models.SideDefender,
		attackerAlly: models.SideAllyAttacker,
		defenderAlly: models.SideAllyDefender,
		bothSides:    models.SideAllyAttacker,
	}, sidesOf(t, f, war.UUID))

	participants, err := f.svc.ListWarParticipants(context.Background(), war.UUID)
	require.NoError(t, err)
	for _, p := range participants {
		switch p.Side {
		case models.SideAttacker, models.SideDefender:
			assert.Nil(t, p.ViaAllianceID)
		default:
			assert.NotNil(t, p.ViaAllianceID)
		}
	}

	declared := f.store.History().OfType(historymodels.EventWarDeclared)
	require.Len(t, declared, 1)
	assert.ElementsMatch(t, []string{"alliance-red", "alliance-blue"}, declared[0].RelatedAllianceIDs)
}

func TestDeclareWar_SnapshotIsFixed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	war := f.declare(t)

	require.NoError(t, f.store.Alliances().InsertMember(ctx, &alliancemodels.Member{
		UUID:       "late-joiner",
		AllianceID: "alliance-red",
		StateID:    bystander,
	}))

	sides := sidesOf(t, f, war.UUID)
	assert.NotContains(t, sides, bystander)
	assert.Len(t, sides, 5)

	ok, err := f.svc.IsParticipant(ctx, war.UUID, bystander)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeclareWar_Rejects(t *testing.T) {
	ctx := context.Background()

	t.Run("self", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.DeclareWar(ctx, dto.DeclareWarInput{
			AttackerStateID: attacker, DefenderStateID: attacker, AttackerPlayerID: attacker + "-diplomat", Name: "Civil War",
		})
		assert.Equal(t, apperrors.CodeSelfPair, apperrors.CodeOf(err))
	})

	t.Run("unknown defender", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.DeclareWar(ctx, dto.DeclareWarInput{
			AttackerStateID: attacker, DefenderStateID: "state-missing", AttackerPlayerID: attacker + "-diplomat", Name: "Phantom War",
		})
		assert.True(t, errors.Is(err, apperrors.ErrStateNotFound))
	})

	t.Run("officer cannot declare", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.DeclareWar(ctx, dto.DeclareWarInput{
			AttackerStateID: attacker, DefenderStateID: defender, AttackerPlayerID: attacker + "-officer", Name: "Skirmish",
		})
		assert.True(t, errors.Is(err, apperrors.ErrInsufficientRole))
		assert.Empty(t, f.store.History().Events())
	})

	t.Run("active war in either direction", func(t *testing.T) {
		f := newFixture(t)
		f.declare(t)
		_, err := f.svc.DeclareWar(ctx, dto.DeclareWarInput{
			AttackerStateID: defender, DefenderStateID: attacker, AttackerPlayerID: defender + "-ruler", Name: "Counterstrike",
		})
		assert.True(t, errors.Is(err, apperrors.ErrWarInProgress))
		assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	})

	t.Run("terminal war frees the pair", func(t *testing.T) {
		f := newFixture(t)
		war := f.declare(t)
		require.NoError(t, f.svc.CancelWar(ctx, war.UUID, admin))
		f.declare(t)
	})

	t.Run("invalid input", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.DeclareWar(ctx, dto.DeclareWarInput{AttackerStateID: attacker, DefenderStateID: defender})
		assert.Equal(t, apperrors.KindInvalidInput, apperrors.KindOf(err))
	})
}

func TestRespondWarDeclaration(t *testing.T) {
	ctx := context.Background()

	t.Run("only the defender answers", func(t *testing.T) {
		f := newFixture(t)
		war := f.declare(t)

		err := f.svc.RespondWarDeclaration(ctx, war.UUID, defenderAlly, defenderAlly+"-ruler", true)
		assert.True(t, errors.Is(err, apperrors.ErrNotParticipant))

		err = f.svc.RespondWarDeclaration(ctx, war.UUID, bystander, bystander+"-ruler", true)
		assert.True(t, errors.Is(err, apperrors.ErrNotParticipant))

		err = f.svc.RespondWarDeclaration(ctx, war.UUID, defender, defender+"-officer", true)
		assert.True(t, errors.Is(err, apperrors.ErrInsufficientRole))
	})

	t.Run("accept", func(t *testing.T) {
		f := newFixture(t)
		war := f.declare(t)
		require.NoError(t, f.svc.RespondWarDeclaration(ctx, war.UUID, defender, defender+"-diplomat", true))

		current, err := f.svc.GetWarByUUID(ctx, war.UUID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusAccepted, current.Status)

		err = f.svc.RespondWarDeclaration(ctx, war.UUID, defender, defender+"-diplomat", false)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidWarState))
	})

	t.Run("decline", func(t *testing.T) {
		f := newFixture(t)
		war := f.declare(t)
		require.NoError(t, f.svc.RespondWarDeclaration(ctx, war.UUID, defender, defender+"-ruler", false))

		current, err := f.svc.GetWarByUUID(ctx, war.UUID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusDeclined, current.Status)
		assert.Len(t, f.store.History().OfType(historymodels.EventWarDeclined), 1)
	})
}

func TestAdminLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	war := f.declare(t)

	err := f.svc.StartWar(ctx, war.UUID, attacker+"-ruler")
	assert.True(t, errors.Is(err, apperrors.ErrAdminOnly))

	err = f.svc.StartWar(ctx, war.UUID, admin)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidWarState))
	assert.Equal(t, apperrors.KindInvalidStateTransition, apperrors.KindOf(err))

	require.NoError(t, f.svc.RespondWarDeclaration(ctx, war.UUID, defender, defender+"-diplomat", true))
	require.NoError(t, f.svc.ScheduleWar(ctx, war.UUID, admin, 1_900_000_000_000))
	require.NoError(t, f.svc.StartWar(ctx, war.UUID, admin))

	err = f.svc.CancelWar(ctx, war.UUID, admin)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidWarState))

	require.NoError(t, f.svc.FinishWar(ctx, war.UUID, admin, "ATTACKER_VICTORY", "Fords ceded"))

	current, err := f.svc.GetWarByUUID(ctx, war.UUID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusEnded, current.Status)
	require.NotNil(t, current.ScheduledFor)
	assert.Equal(t, int64(1_900_000_000_000), *current.ScheduledFor)
	assert.NotNil(t, current.Started)
	assert.NotNil(t, current.Ended)
	require.NotNil(t, current.Result)
	assert.Equal(t, "ATTACKER_VICTORY", *current.Result)
	require.NotNil(t, current.ResultAction)
	assert.Equal(t, "Fords ceded", *current.ResultAction)

	for _, eventType := range []historymodels.EventType{
		historymodels.EventWarAccepted,
		historymodels.EventWarScheduled,
		historymodels.EventWarStarted,
		historymodels.EventWarEnded,
	} {
		assert.Len(t, f.store.History().OfType(eventType), 1, string(eventType))
	}

	err = f.svc.ScheduleWar(ctx, war.UUID, admin, 1_900_000_000_000)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidWarState))
}

func TestBattles(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	war := f.declare(t)

	input := dto.CreateBattleInput{
		WarID:           war.UUID,
		CreatorStateID:  defenderAlly,
		CreatorPlayerID: defenderAlly + "-officer",
		Name:            "Siege of the Mill",
		Type:            string(models.BattleSiege),
		StartDate:       2_000,
	}

	t.Run("create", func(t *testing.T) {
		battle, err := f.svc.CreateBattle(ctx, input)
		require.NoError(t, err)
		assert.Equal(t, models.StatusScheduled, battle.Status)

		early := input
		early.Name = "Opening Skirmish"
		early.Type = string(models.BattleField)
		early.StartDate = 1_000
		_, err = f.svc.CreateBattle(ctx, early)
		require.NoError(t, err)

		battles, err := f.svc.ListWarBattles(ctx, war.UUID)
		require.NoError(t, err)
		require.Len(t, battles, 2)
		assert.Equal(t, "Opening Skirmish", battles[0].Name)
	})

	t.Run("rejects", func(t *testing.T) {
		outsider := input
		outsider.CreatorStateID = bystander
		outsider.CreatorPlayerID = bystander + "-ruler"
		_, err := f.svc.CreateBattle(ctx, outsider)
		assert.True(t, errors.Is(err, apperrors.ErrNotParticipant))

		citizen := input
		citizen.CreatorPlayerID = defenderAlly + "-citizen"
		_, err = f.svc.CreateBattle(ctx, citizen)
		assert.True(t, errors.Is(err, apperrors.ErrInsufficientRole))

		badType := input
		badType.Type = "RAID"
		_, err = f.svc.CreateBattle(ctx, badType)
		assert.Equal(t, apperrors.KindInvalidInput, apperrors.KindOf(err))
	})

	t.Run("admin updates status", func(t *testing.T) {
		battles, err := f.svc.ListWarBattles(ctx, war.UUID)
		require.NoError(t, err)
		battleID := battles[0].UUID

		err = f.svc.UpdateBattleStatus(ctx, battleID, "WON", admin, nil, nil)
		assert.Equal(t, apperrors.CodeInvalidStatus, apperrors.CodeOf(err))

		err = f.svc.UpdateBattleStatus(ctx, battleID, models.StatusEnded, defender+"-ruler", nil, nil)
		assert.True(t, errors.Is(err, apperrors.ErrAdminOnly))

		err = f.svc.UpdateBattleStatus(ctx, "battle-missing", models.StatusEnded, admin, nil, nil)
		assert.True(t, errors.Is(err, apperrors.ErrBattleNotFound))

		result := "DEFENDER_VICTORY"
		end := int64(5_000)
		require.NoError(t, f.svc.UpdateBattleStatus(ctx, battleID, models.StatusEnded, admin, &result, &end))

		battles, err = f.svc.ListWarBattles(ctx, war.UUID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusEnded, battles[0].Status)
		require.NotNil(t, battles[0].Result)
		assert.Equal(t, result, *battles[0].Result)
		require.NotNil(t, battles[0].EndDate)
		assert.Equal(t, end, *battles[0].EndDate)
	})

	t.Run("terminal war takes no battles", func(t *testing.T) {
		require.NoError(t, f.svc.CancelWar(ctx, war.UUID, admin))
		_, err := f.svc.CreateBattle(ctx, input)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidWarState))
	})
}

func TestListWarsForState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	war := f.declare(t)

	for _, stateID := range []string{attacker, bothSides, defenderAlly} {
		wars, err := f.svc.ListWarsForState(ctx, stateID)
		require.NoError(t, err)
		require.Len(t, wars, 1, stateID)
		assert.Equal(t, war.UUID, wars[0].UUID)
	}

	wars, err := f.svc.ListWarsForState(ctx, bystander)
	require.NoError(t, err)
	assert.Empty(t, wars)

	_, err = f.svc.ListWarParticipants(ctx, "war-missing")
	assert.True(t, errors.Is(err, apperrors.ErrWarNotFound))
}

func TestListDueWars(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	war := f.declare(t)
	require.NoError(t, f.svc.RespondWarDeclaration(ctx, war.UUID, defender, defender+"-diplomat", true))

	at := time.Date(2026, 11, 1, 18, 0, 0, 0, time.UTC)
	require.NoError(t, f.svc.ScheduleWar(ctx, war.UUID, admin, at.UnixMilli()))

	due, err := f.svc.ListDueWars(ctx, at.Add(-time.Minute))
	require.NoError(t, err)
	assert.Empty(t, due)

	due, err = f.svc.ListDueWars(ctx, at)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, war.UUID, due[0].UUID)

	require.NoError(t, f.svc.StartWar(ctx, war.UUID, admin))
	due, err = f.svc.ListDueWars(ctx, at.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, due)
}
