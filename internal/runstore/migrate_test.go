package runstore

import (
	"database/sql"
	"path/filepath"
	"testing"
)

const testMigrationsDir = "../../migrations"

// openBareStore opens a store without applying the embedded schema, so the
// migrations are the only thing shaping the database.
func openBareStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("failed to open test DB: %v", err)
	}
	s := &Store{db: db}
	t.Cleanup(func() { s.Close() })
	return s
}

func (s *Store) tableExists(t *testing.T, name string) bool {
	t.Helper()
	var exists bool
	err := s.db.QueryRow(`
		SELECT COUNT(*) > 0
		FROM sqlite_master
		WHERE type='table' AND name=?
	`, name).Scan(&exists)
	if err != nil {
		t.Fatalf("failed to check table %s: %v", name, err)
	}
	return exists
}

func TestMigrateUp(t *testing.T) {
	s := openBareStore(t)

	// Version before any migrations.
	version, dirty, err := s.MigrateVersion(testMigrationsDir)
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 0 {
		t.Errorf("expected version 0 before migrations, got %d", version)
	}
	if dirty {
		t.Error("database should not be dirty before any migrations")
	}

	if err := s.MigrateUp(testMigrationsDir); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}

	version, dirty, err = s.MigrateVersion(testMigrationsDir)
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 1 {
		t.Errorf("expected version 1, got %d", version)
	}
	if dirty {
		t.Error("database should not be dirty after successful migration")
	}

	if !s.tableExists(t, "smoothing_runs") {
		t.Error("smoothing_runs should exist after migration")
	}

	// The migrated schema must accept real rows.
	if _, err := s.RecordRun(&Run{
		Points:       3,
		InputPath:    []float64{0, 0, 1, 1, 2, 2},
		SmoothedPath: []float64{0, 0, 1, 1, 2, 2},
	}); err != nil {
		t.Errorf("RecordRun on migrated schema failed: %v", err)
	}
}

func TestMigrateUp_Idempotency(t *testing.T) {
	s := openBareStore(t)

	if err := s.MigrateUp(testMigrationsDir); err != nil {
		t.Fatalf("first MigrateUp failed: %v", err)
	}
	if err := s.MigrateUp(testMigrationsDir); err != nil {
		t.Fatalf("second MigrateUp failed: %v", err)
	}

	version, _, err := s.MigrateVersion(testMigrationsDir)
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 1 {
		t.Errorf("expected version 1 after idempotent up, got %d", version)
	}
}

func TestMigrateDown(t *testing.T) {
	s := openBareStore(t)

	if err := s.MigrateUp(testMigrationsDir); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}
	if err := s.MigrateDown(testMigrationsDir); err != nil {
		t.Fatalf("MigrateDown failed: %v", err)
	}

	version, dirty, err := s.MigrateVersion(testMigrationsDir)
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 0 {
		t.Errorf("expected version 0 after rolling back, got %d", version)
	}
	if dirty {
		t.Error("database should not be dirty after successful down migration")
	}

	if s.tableExists(t, "smoothing_runs") {
		t.Error("smoothing_runs should not exist after rolling back")
	}
}
