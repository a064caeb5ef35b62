package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	adminauth "statecraft/internal/adminauth/services"
	"statecraft/internal/alliance/dto"
	"statecraft/internal/alliance/models"
	citizenship "statecraft/internal/citizenship/services"
	dirmodels "statecraft/internal/directory/models"
	historymodels "statecraft/internal/history/models"
	history "statecraft/internal/history/services"
	"statecraft/internal/roles"
	"statecraft/internal/testkit/memstore"
	"statecraft/pkg/apperrors"
	"statecraft/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	northState = "state-north"
	southState = "state-south"
	eastState  = "state-east"
)

type recordingFlags struct {
	stored  [][]byte
	removed []string
}

func (f *recordingFlags) Store(ctx context.Context, data []byte, kind string) (string, error) {
	f.stored = append(f.stored, data)
	return fmt.Sprintf("%s/flag-%d.png", kind, len(f.stored)), nil
}

func (f *recordingFlags) Remove(ctx context.Context, path string) error {
	f.removed = append(f.removed, path)
	return nil
}

// committedLog behaves like an external audit sink: events only land once
// the surrounding transaction commits
type committedLog struct {
	events []historymodels.Event
}

func (l *committedLog) Append(ctx context.Context, event historymodels.Event) error {
	return database.AfterCommit(ctx, func(ctx context.Context) error {
		l.events = append(l.events, event)
		return nil
	})
}

// staleNameLookup misses names inserted concurrently, so the unique index
// is the only guard left
type staleNameLookup struct {
	*memstore.Alliances
}

func (staleNameLookup) FindAllianceByName(ctx context.Context, name string) (*models.Alliance, error) {
	return nil, nil
}

type failingMemberPurge struct {
	*memstore.Alliances
}

func (failingMemberPurge) DeleteAllMembers(ctx context.Context, allianceID string) (int64, error) {
	return 0, errors.New("connection reset")
}

type fixture struct {
	svc    *Service
	store  *memstore.Store
	admins *adminauth.Service
	flags  *recordingFlags
}

// newFixture seeds three states, each ruled by "<state>-ruler" with a
// vice ruler, a diplomat and a citizen
func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	for _, id := range []string{northState, southState, eastState} {
		store.States().Add(dirmodels.State{UUID: id, Name: id})
		store.Members().Seed(id, id+"-ruler", roles.Ruler)
		store.Members().Seed(id, id+"-vice", roles.ViceRuler)
		store.Members().Seed(id, id+"-diplomat", roles.Diplomat)
		store.Members().Seed(id, id+"-citizen", roles.Citizen)
	}

	admins, err := adminauth.NewMemoryService()
	require.NoError(t, err)

	authz := citizenship.NewService(store.Members(), store, store.States(), store.History())
	flags := &recordingFlags{}
	svc, err := NewService(store.Alliances(), store, authz, admins, store.States(), flags, store.History())
	require.NoError(t, err)
	return &fixture{svc: svc, store: store, admins: admins, flags: flags}
}

// serviceWith builds a second service over the fixture's store with a
// different repository and history sink
func (f *fixture) serviceWith(t *testing.T, repo Repository, log history.Log) *Service {
	t.Helper()
	authz := citizenship.NewService(f.store.Members(), f.store, f.store.States(), f.store.History())
	svc, err := NewService(repo, f.store, authz, f.admins, f.store.States(), f.flags, log)
	require.NoError(t, err)
	return svc
}

func (f *fixture) create(t *testing.T, name string) *models.Alliance {
	t.Helper()
	alliance, err := f.svc.CreateAlliance(context.Background(), dto.CreateAllianceInput{
		CreatorStateID:  northState,
		CreatorPlayerID: northState + "-ruler",
		Name:            name,
		Color:           "#aa33ff",
	})
	require.NoError(t, err)
	return alliance
}

func (f *fixture) join(t *testing.T, allianceID, stateID string) {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.RequestAllianceJoin(ctx, allianceID, stateID, stateID+"-vice")
	require.NoError(t, err)
	require.NoError(t, f.svc.ReviewAllianceJoin(ctx, allianceID, stateID, northState, northState+"-diplomat", true))
}

func TestCreateAlliance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	alliance, err := f.svc.CreateAlliance(ctx, dto.CreateAllianceInput{
		CreatorStateID:  northState,
		CreatorPlayerID: northState + "-vice",
		Name:            "  Iron Pact ",
		Purpose:         "Mutual defence",
		Color:           "#aa33ff",
		Flag:            []byte("png"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Iron Pact", alliance.Name)
	assert.Equal(t, "#AA33FF", alliance.Color)
	assert.Equal(t, models.StatusActive, alliance.Status)
	require.NotNil(t, alliance.FlagPath)
	assert.Equal(t, FlagKind+"/flag-1.png", *alliance.FlagPath)

	members, err := f.svc.ListAllianceMembers(ctx, alliance.UUID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, northState, members[0].StateID)
	assert.False(t, members[0].IsPending)
	assert.Len(t, f.store.History().OfType(historymodels.EventAllianceCreated), 1)
}

func TestCreateAlliance_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		input dto.CreateAllianceInput
		kind  apperrors.Kind
		code  apperrors.Code
	}{
		{
			name:  "invalid color",
			input: dto.CreateAllianceInput{CreatorStateID: northState, CreatorPlayerID: northState + "-ruler", Name: "Pact", Color: "red"},
			kind:  apperrors.KindInvalidInput,
			code:  apperrors.CodeInvalidColor,
		},
		{
			name:  "short name",
			input: dto.CreateAllianceInput{CreatorStateID: northState, CreatorPlayerID: northState + "-ruler", Name: " P ", Color: "#000000"},
			kind:  apperrors.KindInvalidInput,
			code:  apperrors.CodeInvalidInput,
		},
		{
			name:  "unknown state",
			input: dto.CreateAllianceInput{CreatorStateID: "state-missing", CreatorPlayerID: northState + "-ruler", Name: "Pact", Color: "#000000"},
			kind:  apperrors.KindNotFound,
			code:  apperrors.CodeStateNotFound,
		},
		{
			name:  "diplomat cannot found",
			input: dto.CreateAllianceInput{CreatorStateID: northState, CreatorPlayerID: northState + "-diplomat", Name: "Pact", Color: "#000000"},
			kind:  apperrors.KindForbidden,
			code:  apperrors.CodeInsufficientRole,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.CreateAlliance(context.Background(), tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperrors.KindOf(err))
			assert.Equal(t, tt.code, apperrors.CodeOf(err))
			assert.Empty(t, f.store.History().Events())
		})
	}
}

func TestCreateAlliance_NameIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	f.create(t, "Iron Pact")

	_, err := f.svc.CreateAlliance(context.Background(), dto.CreateAllianceInput{
		CreatorStateID:  southState,
		CreatorPlayerID: southState + "-ruler",
		Name:            "IRON PACT",
		Color:           "#123456",
	})
	assert.True(t, errors.Is(err, apperrors.ErrAllianceNameTaken))
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
}

func TestAllianceJoinWorkflow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alliance := f.create(t, "Iron Pact")

	t.Run("citizen cannot request", func(t *testing.T) {
		_, err := f.svc.RequestAllianceJoin(ctx, alliance.UUID, southState, southState+"-citizen")
		assert.True(t, errors.Is(err, apperrors.ErrInsufficientRole))
	})

	t.Run("request is pending", func(t *testing.T) {
		member, err := f.svc.RequestAllianceJoin(ctx, alliance.UUID, southState, southState+"-vice")
		require.NoError(t, err)
		assert.True(t, member.IsPending)

		pending, err := f.svc.ListPendingJoinRequests(ctx, alliance.UUID)
		require.NoError(t, err)
		assert.Len(t, pending, 1)
	})

	t.Run("duplicate request conflicts", func(t *testing.T) {
		_, err := f.svc.RequestAllianceJoin(ctx, alliance.UUID, southState, southState+"-ruler")
		assert.True(t, errors.Is(err, apperrors.ErrAlreadyAllianceMember))
	})

	t.Run("non member state cannot review", func(t *testing.T) {
		err := f.svc.ReviewAllianceJoin(ctx, alliance.UUID, southState, eastState, eastState+"-diplomat", true)
		assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
	})

	t.Run("citizen of member state cannot review", func(t *testing.T) {
		err := f.svc.ReviewAllianceJoin(ctx, alliance.UUID, southState, northState, northState+"-citizen", true)
		assert.True(t, errors.Is(err, apperrors.ErrInsufficientRole))
	})

	t.Run("approve confirms", func(t *testing.T) {
		require.NoError(t, f.svc.ReviewAllianceJoin(ctx, alliance.UUID, southState, northState, northState+"-diplomat", true))

		members, err := f.svc.ListAllianceMembers(ctx, alliance.UUID)
		require.NoError(t, err)
		assert.Len(t, members, 2)
		assert.Len(t, f.store.History().OfType(historymodels.EventAllianceJoined), 1)
	})

	t.Run("confirmed member has no pending request", func(t *testing.T) {
		err := f.svc.ReviewAllianceJoin(ctx, alliance.UUID, southState, northState, northState+"-diplomat", true)
		assert.True(t, errors.Is(err, apperrors.ErrAllianceMemberNotFound))
	})

	t.Run("reject removes the row", func(t *testing.T) {
		_, err := f.svc.RequestAllianceJoin(ctx, alliance.UUID, eastState, eastState+"-vice")
		require.NoError(t, err)
		require.NoError(t, f.svc.ReviewAllianceJoin(ctx, alliance.UUID, eastState, southState, southState+"-diplomat", false))

		assert.Equal(t, 2, f.store.Alliances().RowCount(alliance.UUID))
		assert.Len(t, f.store.History().OfType(historymodels.EventAllianceJoinDenied), 1)
	})
}

func TestRequestAllianceJoin_DissolvedAlliance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alliance := f.create(t, "Iron Pact")
	require.NoError(t, f.svc.DissolveAlliance(ctx, alliance.UUID, northState+"-ruler", strPtr(northState)))

	_, err := f.svc.RequestAllianceJoin(ctx, alliance.UUID, southState, southState+"-vice")
	assert.True(t, errors.Is(err, apperrors.ErrAllianceNotActive))
	assert.Equal(t, apperrors.KindInvalidStateTransition, apperrors.KindOf(err))
}

func TestLeaveAlliance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alliance := f.create(t, "Iron Pact")
	f.join(t, alliance.UUID, southState)

	err := f.svc.LeaveAlliance(ctx, alliance.UUID, eastState, eastState+"-vice")
	assert.True(t, errors.Is(err, apperrors.ErrAllianceMemberNotFound))

	require.NoError(t, f.svc.LeaveAlliance(ctx, alliance.UUID, southState, southState+"-vice"))
	current, err := f.svc.GetAllianceByUUID(ctx, alliance.UUID)
	require.NoError(t, err)
	assert.True(t, current.IsActive())
	assert.Equal(t, 1, f.store.Alliances().RowCount(alliance.UUID))
}

func TestLeaveAlliance_LastMemberDissolves(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alliance := f.create(t, "Iron Pact")
	_, err := f.svc.RequestAllianceJoin(ctx, alliance.UUID, southState, southState+"-vice")
	require.NoError(t, err)

	require.NoError(t, f.svc.LeaveAlliance(ctx, alliance.UUID, northState, northState+"-ruler"))

	current, err := f.svc.GetAllianceByUUID(ctx, alliance.UUID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDissolved, current.Status)
	assert.NotNil(t, current.Dissolved)
	assert.Zero(t, f.store.Alliances().RowCount(alliance.UUID))

	dissolved := f.store.History().OfType(historymodels.EventAllianceDissolved)
	require.Len(t, dissolved, 1)
	assert.Contains(t, dissolved[0].Description, "automatically")
}

func TestDissolveAlliance(t *testing.T) {
	ctx := context.Background()

	t.Run("ruler of member state", func(t *testing.T) {
		f := newFixture(t)
		alliance := f.create(t, "Iron Pact")
		f.join(t, alliance.UUID, southState)

		err := f.svc.DissolveAlliance(ctx, alliance.UUID, southState+"-vice", strPtr(southState))
		assert.True(t, errors.Is(err, apperrors.ErrInsufficientRole))

		err = f.svc.DissolveAlliance(ctx, alliance.UUID, eastState+"-ruler", strPtr(eastState))
		assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

		require.NoError(t, f.svc.DissolveAlliance(ctx, alliance.UUID, southState+"-ruler", strPtr(southState)))
		assert.Zero(t, f.store.Alliances().RowCount(alliance.UUID))

		err = f.svc.DissolveAlliance(ctx, alliance.UUID, northState+"-ruler", strPtr(northState))
		assert.True(t, errors.Is(err, apperrors.ErrAllianceNotActive))
	})

	t.Run("administrator", func(t *testing.T) {
		f := newFixture(t)
		alliance := f.create(t, "Iron Pact")

		err := f.svc.DissolveAlliance(ctx, alliance.UUID, "moderator", nil)
		assert.True(t, errors.Is(err, apperrors.ErrAdminOnly))

		require.NoError(t, f.admins.Grant(ctx, "moderator"))
		require.NoError(t, f.svc.DissolveAlliance(ctx, alliance.UUID, "moderator", nil))

		dissolved := f.store.History().OfType(historymodels.EventAllianceDissolved)
		require.Len(t, dissolved, 1)
		assert.Contains(t, dissolved[0].Description, "administrator")
	})
}

func TestListAlliances(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for _, name := range []string{"Delta League", "alpha Accord", "Charlie Compact", "Bravo Bloc"} {
		f.create(t, name)
	}
	gone := f.create(t, "Echo Entente")
	require.NoError(t, f.svc.DissolveAlliance(ctx, gone.UUID, northState+"-ruler", strPtr(northState)))

	page, err := f.svc.ListAlliances(ctx, dto.ListAlliancesInput{Page: 2, PageSize: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.Total)
	require.Len(t, page.Alliances, 1)
	assert.Equal(t, "Delta League", page.Alliances[0].Name)

	page, err = f.svc.ListAlliances(ctx, dto.ListAlliancesInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)
	require.Len(t, page.Alliances, 4)
	assert.Equal(t, "alpha Accord", page.Alliances[0].Name)

	_, err = f.svc.ListAlliances(ctx, dto.ListAlliancesInput{PageSize: 500})
	assert.Equal(t, apperrors.KindInvalidInput, apperrors.KindOf(err))

	forState, err := f.svc.ListAlliancesForState(ctx, northState)
	require.NoError(t, err)
	assert.Len(t, forState, 4)
}

func strPtr(s string) *string { return &s }

func TestCreateAlliance_FailedInsertRemovesFlag(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.create(t, "Iron Pact")
	svc := f.serviceWith(t, staleNameLookup{f.store.Alliances()}, f.store.History())

	_, err := svc.CreateAlliance(ctx, dto.CreateAllianceInput{
		CreatorStateID:  southState,
		CreatorPlayerID: southState + "-ruler",
		Name:            "iron pact",
		Color:           "#123456",
		Flag:            []byte("flag"),
	})
	assert.True(t, errors.Is(err, apperrors.ErrAllianceNameTaken))
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	require.Len(t, f.flags.stored, 1)
	assert.Equal(t, []string{FlagKind + "/flag-1.png"}, f.flags.removed)

	alliances, err := f.svc.ListAlliancesForState(ctx, southState)
	require.NoError(t, err)
	assert.Empty(t, alliances)
}

func TestCreateAlliance_KeepsFlagOnSuccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	alliance, err := f.svc.CreateAlliance(ctx, dto.CreateAllianceInput{
		CreatorStateID:  northState,
		CreatorPlayerID: northState + "-ruler",
		Name:            "Banner Guild",
		Color:           "#123456",
		Flag:            []byte("flag"),
	})
	require.NoError(t, err)
	require.NotNil(t, alliance.FlagPath)
	assert.Empty(t, f.flags.removed)
}

func TestLeaveAlliance_RolledBackCascadeLeavesNoAuditTrail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sink := &committedLog{}
	svc := f.serviceWith(t, failingMemberPurge{f.store.Alliances()}, sink)

	alliance, err := svc.CreateAlliance(ctx, dto.CreateAllianceInput{
		CreatorStateID:  northState,
		CreatorPlayerID: northState + "-ruler",
		Name:            "Short Lived",
		Color:           "#123456",
	})
	require.NoError(t, err)
	require.Len(t, sink.events, 1)
	assert.Equal(t, historymodels.EventAllianceCreated, sink.events[0].Type)

	err = svc.LeaveAlliance(ctx, alliance.UUID, northState, northState+"-vice")
	require.Error(t, err)

	// neither the leave nor the dissolution was committed
	assert.Len(t, sink.events, 1)
	members, err := f.svc.ListAllianceMembers(ctx, alliance.UUID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, northState, members[0].StateID)
	got, err := f.svc.GetAllianceByUUID(ctx, alliance.UUID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, got.Status)
}
