package dto

import (
	"testing"

	"statecraft/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateStruct_CreateAlliance(t *testing.T) {
	validate, err := NewValidator()
	require.NoError(t, err)

	valid := CreateAllianceInput{
		CreatorStateID:  "state-a",
		CreatorPlayerID: "player-a",
		Name:            "Northern Pact",
		Color:           "#1a2B3c",
	}

	tests := []struct {
		name     string
		mutate   func(in *CreateAllianceInput)
		wantCode apperrors.Code
	}{
		{"valid", func(in *CreateAllianceInput) {}, ""},
		{"missing name", func(in *CreateAllianceInput) { in.Name = "" }, apperrors.CodeInvalidInput},
		{"name too short", func(in *CreateAllianceInput) { in.Name = "x" }, apperrors.CodeInvalidInput},
		{"color without hash", func(in *CreateAllianceInput) { in.Color = "1a2b3c" }, apperrors.CodeInvalidColor},
		{"short color", func(in *CreateAllianceInput) { in.Color = "#fff" }, apperrors.CodeInvalidColor},
		{"non hex color", func(in *CreateAllianceInput) { in.Color = "#gggggg" }, apperrors.CodeInvalidColor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)

			err := ValidateStruct(validate, &in)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, apperrors.KindInvalidInput, apperrors.KindOf(err))
			assert.Equal(t, tt.wantCode, apperrors.CodeOf(err))
		})
	}
}

func TestListAlliancesInput_SetDefaults(t *testing.T) {
	in := ListAlliancesInput{}
	in.SetDefaults()
	assert.Equal(t, 1, in.Page)
	assert.Equal(t, 20, in.PageSize)

	in = ListAlliancesInput{Page: 3, PageSize: 5}
	in.SetDefaults()
	assert.Equal(t, 3, in.Page)
	assert.Equal(t, 5, in.PageSize)
}
