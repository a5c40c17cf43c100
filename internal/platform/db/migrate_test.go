package db

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMigrationsSortsAndFilters(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"002_labreports.sql": "CREATE TABLE lab_report (id UUID);",
		"001_core.sql":       "CREATE TABLE staff_account (id UUID);",
		"notes.txt":          "not a migration",
		"README.sql":         "no numeric prefix",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	m := NewMigrator(nil, dir)
	migrations, err := m.LoadMigrations()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(migrations) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[1].Version != 2 {
		t.Errorf("expected version order 1,2; got %d,%d", migrations[0].Version, migrations[1].Version)
	}
	if migrations[0].Name != "001_core.sql" {
		t.Errorf("unexpected first migration: %s", migrations[0].Name)
	}
}

func TestLoadMigrationsMissingDir(t *testing.T) {
	m := NewMigrator(nil, filepath.Join(t.TempDir(), "nope"))
	if _, err := m.LoadMigrations(); err == nil {
		t.Error("expected error for missing directory")
	}
}
