package migrations

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisteredMigrations(t *testing.T) {
	require.NotEmpty(t, registeredMigrations)

	seen := map[string]bool{}
	versions := make([]string, 0, len(registeredMigrations))
	for _, m := range registeredMigrations {
		assert.False(t, seen[m.Version], "duplicate version %s", m.Version)
		seen[m.Version] = true
		versions = append(versions, m.Version)

		assert.NotNil(t, m.Up, m.Version)
		assert.NotNil(t, m.Down, m.Version)
		assert.NotEmpty(t, m.Description, m.Version)
		assert.Regexp(t, `^\d{3}_[a-z_]+$`, m.Version)
	}

	// init order follows file names, so registration order is version order
	assert.True(t, sort.StringsAreSorted(versions), strings.Join(versions, ", "))
}

func TestIsIndexExistsError(t *testing.T) {
	assert.False(t, isIndexExistsError(nil))
	assert.True(t, isIndexExistsError(errString("Index with name: name_1 already exists with different options")))
	assert.True(t, isIndexExistsError(errString("IndexOptionsConflict")))
	assert.False(t, isIndexExistsError(errString("connection refused")))
}

type errString string

func (e errString) Error() string { return string(e) }
