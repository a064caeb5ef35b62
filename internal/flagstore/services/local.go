package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"statecraft/pkg/apperrors"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MaxFlagBytes caps the size of a stored flag image.
const MaxFlagBytes = 2 << 20

var allowedFlagTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// LocalStore writes blobs under a root directory on local disk
type LocalStore struct {
	root string
}

// NewLocalStore creates a store rooted at dir
func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{root: dir}
}

// Store writes data under <root>/<kind>/ with a generated name and returns
// the path relative to root, always slash-separated.
func (s *LocalStore) Store(ctx context.Context, data []byte, kind string) (string, error) {
	if len(data) == 0 {
		return "", apperrors.New(apperrors.KindInvalidInput, apperrors.CodeInvalidInput, "empty file")
	}
	if len(data) > MaxFlagBytes {
		return "", apperrors.Newf(apperrors.KindInvalidInput, apperrors.CodeInvalidInput, "file exceeds %d bytes", MaxFlagBytes)
	}

	mt := mimetype.Detect(data)
	if !allowedFlagTypes[mt.String()] {
		return "", apperrors.Newf(apperrors.KindInvalidInput, apperrors.CodeInvalidInput, "unsupported image type %s", mt.String())
	}

	dir := filepath.Join(s.root, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create storage directory: %w", err)
	}

	name := uuid.NewString() + mt.Extension()
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	rel := path.Join(kind, name)
	slog.InfoContext(ctx, "Stored file", "kind", kind, "path", rel, "bytes", len(data))
	return rel, nil
}

// Remove deletes a file previously returned by Store. A missing file is not
// an error.
func (s *LocalStore) Remove(ctx context.Context, rel string) error {
	clean := path.Clean("/" + rel)[1:]
	if clean == "" || clean != rel {
		return apperrors.Newf(apperrors.KindInvalidInput, apperrors.CodeInvalidInput, "invalid stored path %q", rel)
	}
	if err := os.Remove(filepath.Join(s.root, filepath.FromSlash(clean))); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	slog.InfoContext(ctx, "Removed file", "path", rel)
	return nil
}
