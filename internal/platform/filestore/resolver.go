// Package filestore locates and serves the PDF documents backing
// prescriptions and lab reports. Stored file references were produced by
// several writers over time (bare filename, subdirectory-prefixed,
// absolute), so lookup probes an ordered list of candidate locations
// rather than trusting any single convention.
package filestore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNotFound means the stored reference is empty or no candidate
	// location holds the file.
	ErrNotFound = errors.New("file not found")
	// ErrTransferFailed means the file was located but could not be
	// opened or streamed before response headers were written.
	ErrTransferFailed = errors.New("file transfer failed")
)

// Resolver maps a persisted relative file reference to an existing
// absolute path.
type Resolver struct {
	primaryDir string // e.g. prescriptions/
	legacyDir  string // e.g. uploads/prescriptions/
}

func NewResolver(primaryDir, legacyDir string) *Resolver {
	return &Resolver{primaryDir: primaryDir, legacyDir: legacyDir}
}

// Candidates returns the ordered list of locations probed for a stored
// reference. The order is load-bearing: records written under older
// conventions must keep resolving to the same file.
func (r *Resolver) Candidates(stored string) []string {
	base := filepath.Base(stored)
	var out []string
	if strings.HasPrefix(stored, string(filepath.Separator)) {
		out = append(out, stored)
	}
	out = append(out,
		filepath.Join(r.primaryDir, stored),
		filepath.Join(r.primaryDir, base),
		filepath.Join(r.legacyDir, base),
	)
	return out
}

// Resolve returns the first candidate path that exists as a regular file.
// An empty stored reference short-circuits to ErrNotFound without
// touching the filesystem.
func (r *Resolver) Resolve(stored string) (string, error) {
	if stored == "" {
		return "", ErrNotFound
	}
	for _, candidate := range r.Candidates(stored) {
		info, err := os.Stat(candidate)
		if err != nil {
			continue
		}
		if info.Mode().IsRegular() {
			abs, err := filepath.Abs(candidate)
			if err != nil {
				return candidate, nil
			}
			return abs, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, stored)
}

// EnsureDirs creates the primary directory if absent. Safe to call
// concurrently; "already exists" is not an error.
func (r *Resolver) EnsureDirs() error {
	return os.MkdirAll(r.primaryDir, 0o755)
}
