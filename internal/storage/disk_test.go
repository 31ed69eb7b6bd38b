package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) ArtifactStore {
	t.Helper()
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestNewDiskStoreCreatesRoots(t *testing.T) {
	dir := t.TempDir()
	_, err := NewDiskStore(dir)
	require.NoError(t, err)

	for _, root := range Roots {
		info, err := os.Stat(filepath.Join(dir, root))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}

	// Re-initializing over an existing tree must be a no-op.
	_, err = NewDiskStore(dir)
	assert.NoError(t, err)
}

func TestSaveReturnsResolvableLocator(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	locator, err := store.Save(ctx, RootPhotos, "image", "Sunset.JPG", strings.NewReader("jpeg bytes"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(locator, RootPhotos+"/image-"))
	assert.True(t, strings.HasSuffix(locator, ".jpg"), "extension should be preserved lowercase: %s", locator)

	exists, err := store.Exists(ctx, locator)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSaveNeverCollides(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		locator, err := store.Save(ctx, RootThumbnails, "thumbnail", "t.png", strings.NewReader("png"))
		require.NoError(t, err)
		assert.False(t, seen[locator], "duplicate locator %s", locator)
		seen[locator] = true
	}
}

func TestSaveRejectsUnknownRoot(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Save(context.Background(), "secrets", "image", "x.jpg", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrInvalidLocator)
}

func TestDeleteIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	locator, err := store.Save(ctx, RootVideos, "video", "clip.mp4", strings.NewReader("mp4"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, locator))

	exists, err := store.Exists(ctx, locator)
	require.NoError(t, err)
	assert.False(t, exists)

	// Deleting a missing artifact is a no-op, not an error.
	assert.NoError(t, store.Delete(ctx, locator))
	assert.NoError(t, store.Delete(ctx, RootVideos+"/video-never-existed.mp4"))
}

func TestLocatorsCannotEscapeStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, locator := range []string{
		"../etc/passwd",
		"photos/../../etc/passwd",
		"/etc/passwd",
		"passwd",
		"secrets/file.jpg",
	} {
		err := store.Delete(ctx, locator)
		assert.ErrorIs(t, err, ErrInvalidLocator, "locator %q", locator)

		_, err = store.Exists(ctx, locator)
		assert.ErrorIs(t, err, ErrInvalidLocator, "locator %q", locator)
	}
}

func TestDeriveArtifactName(t *testing.T) {
	name := DeriveArtifactName("image", "Holiday Photo.JPEG")
	assert.True(t, strings.HasPrefix(name, "image-"))
	assert.True(t, strings.HasSuffix(name, ".jpeg"))

	// No extension on the original stays extensionless.
	name = DeriveArtifactName("video", "rawstream")
	assert.True(t, strings.HasPrefix(name, "video-"))
	assert.NotContains(t, name, ".")
}
