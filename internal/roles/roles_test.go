package roles

import (
	"context"
	"errors"
	"testing"

	"statecraft/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRoleSource struct {
	mock.Mock
}

func (m *mockRoleSource) GetMemberRole(ctx context.Context, stateID, playerID string) (Role, error) {
	args := m.Called(ctx, stateID, playerID)
	return args.Get(0).(Role), args.Error(1)
}

func TestRankIsTotalOrder(t *testing.T) {
	all := All()
	for i := 1; i < len(all); i++ {
		assert.True(t, all[i].Outranks(all[i-1]), "%s should outrank %s", all[i], all[i-1])
		assert.False(t, all[i-1].Outranks(all[i]))
	}
	assert.Equal(t, -1, Rank(Role("EMPEROR")))
	assert.False(t, Ruler.Outranks(Ruler))
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"RULER", Ruler, false},
		{"vice_ruler", ViceRuler, false},
		{"  diplomat ", Diplomat, false},
		{"EMPEROR", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, apperrors.KindInvalidInput, apperrors.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChecker_HasAtLeastRole(t *testing.T) {
	tests := []struct {
		name     string
		role     Role
		min      Role
		excluded []Role
		want     bool
	}{
		{"equal rank passes", Officer, Officer, nil, true},
		{"higher rank passes", Ruler, Officer, nil, true},
		{"lower rank fails", Citizen, Officer, nil, false},
		{"excluded role denied despite rank", Diplomat, Officer, []Role{Diplomat}, false},
		{"exclusion does not affect others", Minister, Officer, []Role{Diplomat}, true},
		{"applicant below citizen", Applicant, Citizen, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &mockRoleSource{}
			source.On("GetMemberRole", mock.Anything, "state-1", "player-1").Return(tt.role, nil)

			got, err := NewChecker(source).HasAtLeastRole(context.Background(), "state-1", "player-1", tt.min, tt.excluded...)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			source.AssertExpectations(t)
		})
	}
}

func TestChecker_NotMember(t *testing.T) {
	source := &mockRoleSource{}
	source.On("GetMemberRole", mock.Anything, "state-1", "stranger").Return(Role(""), apperrors.ErrNotMember)

	checker := NewChecker(source)

	_, err := checker.HasAtLeastRole(context.Background(), "state-1", "stranger", Citizen)
	assert.True(t, errors.Is(err, apperrors.ErrNotMember))

	err = checker.Require(context.Background(), "state-1", "stranger", Citizen)
	assert.True(t, errors.Is(err, apperrors.ErrNotMember))
}

func TestChecker_RequireForbidden(t *testing.T) {
	source := &mockRoleSource{}
	source.On("GetMemberRole", mock.Anything, "state-1", "player-1").Return(Citizen, nil)

	err := NewChecker(source).Require(context.Background(), "state-1", "player-1", ViceRuler)

	require.Error(t, err)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
	assert.True(t, errors.Is(err, apperrors.ErrInsufficientRole))
}
