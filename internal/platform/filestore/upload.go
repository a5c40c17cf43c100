package filestore

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

// SavedName builds a collision-resistant filename for an uploaded
// document, preserving the original extension:
// prescription-<unix millis>-<random><ext>.
func SavedName(originalName string, now time.Time) string {
	ext := filepath.Ext(originalName)
	return fmt.Sprintf("prescription-%d-%d%s", now.UnixMilli(), rand.Int63n(1_000_000_000), ext)
}

// SaveUpload writes content into the resolver's primary directory under a
// freshly generated name and returns that name. The directory is created
// if absent.
func (r *Resolver) SaveUpload(originalName string, content io.Reader) (string, error) {
	if err := r.EnsureDirs(); err != nil {
		return "", fmt.Errorf("creating %s: %w", r.primaryDir, err)
	}

	name := SavedName(originalName, time.Now())
	dst, err := os.Create(filepath.Join(r.primaryDir, name))
	if err != nil {
		return "", fmt.Errorf("creating upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, content); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("writing upload: %w", err)
	}
	return name, nil
}

// Remove unlinks the file backing a stored reference, resolving it the
// same way downloads do. Used by best-effort cleanup paths.
func (r *Resolver) Remove(stored string) error {
	abs, err := r.Resolve(stored)
	if err != nil {
		return err
	}
	return os.Remove(abs)
}
