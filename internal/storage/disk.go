package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// diskStore implements ArtifactStore on the local filesystem under a single
// base directory.
type diskStore struct {
	baseDir string
}

// NewDiskStore creates a disk-backed artifact store rooted at baseDir and
// ensures the managed namespaces exist. Safe to call repeatedly.
func NewDiskStore(baseDir string) (ArtifactStore, error) {
	for _, root := range Roots {
		if err := os.MkdirAll(filepath.Join(baseDir, root), 0o755); err != nil {
			return nil, fmt.Errorf("%w: creating %s: %v", ErrWriteFailed, root, err)
		}
	}
	return &diskStore{baseDir: baseDir}, nil
}

// Save writes the payload to a freshly derived name under root.
// O_EXCL guarantees an existing artifact is never overwritten.
func (s *diskStore) Save(ctx context.Context, root, fieldName, originalName string, payload io.Reader) (string, error) {
	if !validRoot(root) {
		return "", fmt.Errorf("%w: unknown root %q", ErrInvalidLocator, root)
	}

	locator := path.Join(root, DeriveArtifactName(fieldName, originalName))
	fullPath := filepath.Join(s.baseDir, filepath.FromSlash(locator))

	f, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	if _, err := io.Copy(f, payload); err != nil {
		f.Close()
		os.Remove(fullPath) // drop the partial write
		return "", fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	return locator, nil
}

// Delete removes the artifact at locator. A missing artifact is not an
// error, so delete is idempotent.
func (s *diskStore) Delete(ctx context.Context, locator string) error {
	fullPath, err := s.resolve(locator)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return nil
}

// Exists reports whether the locator resolves to a stored artifact.
func (s *diskStore) Exists(ctx context.Context, locator string) (bool, error) {
	fullPath, err := s.resolve(locator)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// resolve maps a locator to an absolute path, rejecting anything that would
// escape the managed namespaces.
func (s *diskStore) resolve(locator string) (string, error) {
	clean := path.Clean(locator)
	if clean != locator || strings.HasPrefix(clean, "..") || path.IsAbs(clean) {
		return "", fmt.Errorf("%w: %q", ErrInvalidLocator, locator)
	}
	root, _, found := strings.Cut(clean, "/")
	if !found || !validRoot(root) {
		return "", fmt.Errorf("%w: %q", ErrInvalidLocator, locator)
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(clean)), nil
}

func validRoot(root string) bool {
	for _, r := range Roots {
		if root == r {
			return true
		}
	}
	return false
}
