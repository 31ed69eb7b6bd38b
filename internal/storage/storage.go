package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Roots are the managed artifact namespaces. A locator is always
// "<root>/<name>", relative to the store, and doubles as the public path
// clients use to fetch the artifact.
const (
	RootPhotos     = "photos"
	RootVideos     = "videos"
	RootThumbnails = "thumbnails"
)

// Roots lists every managed artifact namespace.
var Roots = []string{RootPhotos, RootVideos, RootThumbnails}

// Error constants for storage layer
var (
	ErrWriteFailed    = errors.New("storage write failed")
	ErrInvalidLocator = errors.New("invalid artifact locator")
)

// ArtifactStore abstracts binary artifact persistence. It carries no
// knowledge of asset records; consistency between the two is the lifecycle
// manager's job.
type ArtifactStore interface {
	// Save persists the payload under a collision-resistant name derived
	// from fieldName, preserving the extension of originalName, and returns
	// the locator. An existing artifact is never overwritten.
	Save(ctx context.Context, root, fieldName, originalName string, payload io.Reader) (string, error)

	// Delete removes the artifact at locator. Deleting a missing artifact
	// is a no-op, not an error.
	Delete(ctx context.Context, locator string) error

	// Exists reports whether the locator resolves to a stored artifact.
	Exists(ctx context.Context, locator string) (bool, error)
}

// DeriveArtifactName builds a collision-resistant artifact file name:
// <fieldName>-<unix ms>-<random>.<ext>.
func DeriveArtifactName(fieldName, originalName string) string {
	ext := strings.ToLower(path.Ext(originalName))
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("%s-%d-%s%s", fieldName, time.Now().UnixMilli(), suffix, ext)
}
