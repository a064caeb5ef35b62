package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"statecraft/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// smallest valid PNG signature + IHDR chunk header is enough for detection
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13, 'I', 'H', 'D', 'R'}

func TestLocalStore_StorePNG(t *testing.T) {
	root := t.TempDir()
	store := NewLocalStore(root)

	rel, err := store.Store(context.Background(), pngHeader, "alliance_flags")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rel, "alliance_flags/"))
	assert.True(t, strings.HasSuffix(rel, ".png"))

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)
}

func TestLocalStore_Rejects(t *testing.T) {
	store := NewLocalStore(t.TempDir())

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not an image", []byte("just some text")},
		{"too large", append(append([]byte{}, pngHeader...), make([]byte, MaxFlagBytes)...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Store(context.Background(), tt.data, "alliance_flags")
			require.Error(t, err)
			assert.Equal(t, apperrors.KindInvalidInput, apperrors.KindOf(err))
		})
	}
}

func TestLocalStore_Remove(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store := NewLocalStore(root)

	rel, err := store.Store(ctx, pngHeader, "alliance_flags")
	require.NoError(t, err)

	require.NoError(t, store.Remove(ctx, rel))
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Remove(ctx, rel), "removing twice is harmless")

	for _, bad := range []string{"", "../outside.png", "alliance_flags/../../x.png", "/etc/passwd"} {
		err := store.Remove(ctx, bad)
		assert.Equal(t, apperrors.KindInvalidInput, apperrors.KindOf(err), bad)
	}
}
