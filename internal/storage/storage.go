// Package storage is the object-storage boundary for generated artifacts.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/promoforge/promoforge/internal/types"
)

// ArtifactStore persists generated artifact bytes and returns a stable URL.
type ArtifactStore interface {
	// SaveArtifact writes the artifact and returns its URL. format is a
	// file extension without the dot ("png", "jpg").
	SaveArtifact(ctx context.Context, data []byte, format string) (string, error)
}

// DiskStore is an ArtifactStore writing to a local directory. The returned
// URL is a file:// URL; swapping in a bucket-backed store changes only the
// constructor wiring.
type DiskStore struct {
	dir string
}

// NewDiskStore creates a DiskStore rooted at dir, creating it if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, types.WrapError(types.STORAGE_SAVE_FAILED,
			fmt.Sprintf("failed to create artifact directory %s", dir), err)
	}
	return &DiskStore{dir: dir}, nil
}

// SaveArtifact writes the artifact and returns its file URL.
func (s *DiskStore) SaveArtifact(ctx context.Context, data []byte, format string) (string, error) {
	if len(data) == 0 {
		return "", types.NewError(types.STORAGE_SAVE_FAILED, "artifact is empty")
	}
	if format == "" {
		format = "png"
	}

	name := fmt.Sprintf("%s.%s", types.NewID(), format)
	path := filepath.Join(s.dir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", types.WrapError(types.STORAGE_SAVE_FAILED,
			fmt.Sprintf("failed to write artifact %s", name), err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return "file://" + abs, nil
}
