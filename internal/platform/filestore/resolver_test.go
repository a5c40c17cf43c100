package filestore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestResolver(t *testing.T) (*Resolver, string) {
	t.Helper()
	root := t.TempDir()
	primary := filepath.Join(root, "prescriptions")
	legacy := filepath.Join(root, "uploads", "prescriptions")
	if err := os.MkdirAll(primary, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.MkdirAll(legacy, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	return NewResolver(primary, legacy), root
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("%PDF-1.4 test"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestResolveEmptyShortCircuits(t *testing.T) {
	r := NewResolver("/nonexistent/primary", "/nonexistent/legacy")
	if _, err := r.Resolve(""); err == nil {
		t.Error("expected ErrNotFound for empty reference")
	}
}

func TestResolveBareFilenameInPrimary(t *testing.T) {
	r, _ := newTestResolver(t)
	writeFile(t, filepath.Join(r.primaryDir, "rx-1.pdf"))

	got, err := r.Resolve("rx-1.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(got) != "rx-1.pdf" {
		t.Errorf("unexpected path: %s", got)
	}
}

func TestResolveSubdirPrefixedReference(t *testing.T) {
	r, _ := newTestResolver(t)
	// Record stored "prescriptions/rx-2.pdf"; only the base name exists
	// under the primary dir, so candidate (c) must hit.
	writeFile(t, filepath.Join(r.primaryDir, "rx-2.pdf"))

	got, err := r.Resolve("prescriptions/rx-2.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(got) != "rx-2.pdf" {
		t.Errorf("unexpected path: %s", got)
	}
}

func TestResolveLegacyUploadDir(t *testing.T) {
	r, _ := newTestResolver(t)
	writeFile(t, filepath.Join(r.legacyDir, "rx-3.pdf"))

	got, err := r.Resolve("rx-3.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, filepath.Join("uploads", "prescriptions")) {
		t.Errorf("expected legacy dir hit, got %s", got)
	}
}

func TestResolveAbsoluteReference(t *testing.T) {
	r, root := newTestResolver(t)
	abs := filepath.Join(root, "elsewhere.pdf")
	writeFile(t, abs)

	got, err := r.Resolve(abs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != abs {
		t.Errorf("expected %s, got %s", abs, got)
	}
}

func TestResolvePrefersPrimaryOverLegacy(t *testing.T) {
	r, _ := newTestResolver(t)
	writeFile(t, filepath.Join(r.primaryDir, "rx-4.pdf"))
	writeFile(t, filepath.Join(r.legacyDir, "rx-4.pdf"))

	got, err := r.Resolve("rx-4.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(got, "uploads") {
		t.Errorf("expected primary dir to win, got %s", got)
	}
}

func TestResolveMissingEverywhere(t *testing.T) {
	r, _ := newTestResolver(t)
	if _, err := r.Resolve("ghost.pdf"); err == nil {
		t.Error("expected ErrNotFound")
	}
}

func TestCandidateOrder(t *testing.T) {
	r := NewResolver("prescriptions", filepath.Join("uploads", "prescriptions"))
	c := r.Candidates("/abs/rx.pdf")
	if len(c) != 4 {
		t.Fatalf("expected 4 candidates for absolute reference, got %d", len(c))
	}
	if c[0] != "/abs/rx.pdf" {
		t.Errorf("expected absolute path first, got %s", c[0])
	}

	c = r.Candidates("rx.pdf")
	if len(c) != 3 {
		t.Fatalf("expected 3 candidates for relative reference, got %d", len(c))
	}
	if c[0] != filepath.Join("prescriptions", "rx.pdf") {
		t.Errorf("unexpected first candidate: %s", c[0])
	}
	if c[2] != filepath.Join("uploads", "prescriptions", "rx.pdf") {
		t.Errorf("unexpected last candidate: %s", c[2])
	}
}

func TestEnsureDirsIdempotent(t *testing.T) {
	r, _ := newTestResolver(t)
	if err := r.EnsureDirs(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.EnsureDirs(); err != nil {
		t.Fatalf("second call should be a no-op, got %v", err)
	}
}

func TestSuggestedFileName(t *testing.T) {
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

	got := SuggestedFileName("Jane O'Connor", "", now)
	if got != "prescription_Jane_O_Connor_2025-03-14.pdf" {
		t.Errorf("unexpected name: %s", got)
	}

	got = SuggestedFileName("", "P-123", now)
	if got != "prescription_P-123_2025-03-14.pdf" {
		t.Errorf("unexpected fallback name: %s", got)
	}

	got = SuggestedFileName("", "", now)
	if !strings.HasPrefix(got, "prescription_unknown_patient_") {
		t.Errorf("unexpected empty-input name: %s", got)
	}
}

func TestSavedNamePreservesExtension(t *testing.T) {
	name := SavedName("scan.pdf", time.Now())
	if !strings.HasPrefix(name, "prescription-") || !strings.HasSuffix(name, ".pdf") {
		t.Errorf("unexpected saved name: %s", name)
	}
}

func TestSaveUploadAndRemove(t *testing.T) {
	r, _ := newTestResolver(t)

	name, err := r.SaveUpload("scan.pdf", strings.NewReader("%PDF-1.4 payload"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	abs, err := r.Resolve(name)
	if err != nil {
		t.Fatalf("saved file should resolve: %v", err)
	}

	if err := r.Remove(name); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(abs); !os.IsNotExist(err) {
		t.Error("expected file to be unlinked")
	}
}
