package storage

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promoforge/promoforge/internal/types"
)

func TestDiskStore_SaveArtifact(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	url, err := store.SaveArtifact(context.Background(), []byte("fake png bytes"), "png")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "file://"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	data, err := os.ReadFile(strings.TrimPrefix(url, "file://"))
	require.NoError(t, err)
	assert.Equal(t, []byte("fake png bytes"), data)
}

func TestDiskStore_DefaultsToPNG(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	url, err := store.SaveArtifact(context.Background(), []byte{1}, "")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(url, ".png"))
}

func TestDiskStore_RejectsEmptyArtifact(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.SaveArtifact(context.Background(), nil, "png")
	assert.True(t, types.HasCode(err, types.STORAGE_SAVE_FAILED))
}
