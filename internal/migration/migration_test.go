package migration

import (
	"database/sql"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) (*sql.DB, func()) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "test.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	cleanup := func() {
		db.Close()
	}

	return db, cleanup
}

func setupTestMigrations(t *testing.T, migrations map[string]string) fs.FS {
	tempDir := t.TempDir()

	for filename, content := range migrations {
		path := filepath.Join(tempDir, filename)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write test migration %s: %v", filename, err)
		}
	}

	return os.DirFS(tempDir)
}

func TestGetCurrentVersion(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	runner := NewRunner(db, setupTestMigrations(t, map[string]string{
		"001_test.sql": "CREATE TABLE test (id INTEGER);",
	}), DriverSQLite)

	version, err := runner.GetCurrentVersion()
	if err != nil {
		t.Fatalf("GetCurrentVersion failed: %v", err)
	}
	if version != 0 {
		t.Errorf("expected version 0, got %d", version)
	}

	if err := runner.SetVersion(3); err != nil {
		t.Fatalf("SetVersion failed: %v", err)
	}
	version, err = runner.GetCurrentVersion()
	if err != nil {
		t.Fatalf("GetCurrentVersion failed: %v", err)
	}
	if version != 3 {
		t.Errorf("expected version 3, got %d", version)
	}
}

func TestSetVersionKeepsSingleRow(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	runner := NewRunner(db, setupTestMigrations(t, map[string]string{
		"001_test.sql": "CREATE TABLE test (id INTEGER);",
	}), DriverSQLite)

	for _, v := range []int{1, 4, 2} {
		if err := runner.SetVersion(v); err != nil {
			t.Fatalf("SetVersion(%d) failed: %v", v, err)
		}
	}

	var rows int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&rows); err != nil {
		t.Fatalf("failed to count versions: %v", err)
	}
	if rows != 1 {
		t.Errorf("schema_version has %d rows, want 1", rows)
	}
	if version, _ := runner.GetCurrentVersion(); version != 2 {
		t.Errorf("expected version 2, got %d", version)
	}
}

func TestReadMigrationFiles(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	runner := NewRunner(db, setupTestMigrations(t, map[string]string{
		"002_second.sql": "CREATE TABLE second (id INTEGER);",
		"001_first.sql":  "CREATE TABLE first (id INTEGER);",
		"README.md":      "not a migration",
	}), DriverSQLite)

	migrations, err := runner.ReadMigrationFiles()
	if err != nil {
		t.Fatalf("ReadMigrationFiles failed: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[0].Name != "first" {
		t.Errorf("unexpected first migration: %+v", migrations[0])
	}
	if migrations[1].Version != 2 || migrations[1].Name != "second" {
		t.Errorf("unexpected second migration: %+v", migrations[1])
	}
}

func TestApplyMigrationsFromScratch(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	runner := NewRunner(db, setupTestMigrations(t, map[string]string{
		"001_users.sql": "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT);",
		"002_posts.sql": "CREATE TABLE posts (id INTEGER PRIMARY KEY, user_id INTEGER);",
	}), DriverSQLite)

	var messages []string
	count, err := runner.ApplyMigrations(func(msg string) {
		messages = append(messages, msg)
	})
	if err != nil {
		t.Fatalf("ApplyMigrations failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 migrations applied, got %d", count)
	}
	if len(messages) == 0 {
		t.Error("expected progress messages")
	}

	upToDate, err := runner.IsUpToDate()
	if err != nil {
		t.Fatalf("IsUpToDate failed: %v", err)
	}
	if !upToDate {
		t.Error("expected schema to be up to date")
	}

	count, err = runner.ApplyMigrations(nil)
	if err != nil {
		t.Fatalf("second ApplyMigrations failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 migrations on second run, got %d", count)
	}
}

func TestMigrationRollbackOnError(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	runner := NewRunner(db, setupTestMigrations(t, map[string]string{
		"001_good.sql": "CREATE TABLE good (id INTEGER);",
		"002_bad.sql":  "CREATE TABLE bad (id INTEGER); THIS IS NOT SQL;",
	}), DriverSQLite)

	count, err := runner.ApplyMigrations(nil)
	if err == nil {
		t.Fatal("expected error from invalid migration")
	}
	if count != 1 {
		t.Errorf("expected 1 migration applied before failure, got %d", count)
	}

	version, err := runner.GetCurrentVersion()
	if err != nil {
		t.Fatalf("GetCurrentVersion failed: %v", err)
	}
	if version != 1 {
		t.Errorf("expected version 1 after failed migration, got %d", version)
	}
}

func TestValidateVersionNewerDatabase(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	runner := NewRunner(db, setupTestMigrations(t, map[string]string{
		"001_init.sql": "CREATE TABLE test (id INTEGER);",
	}), DriverSQLite)

	if err := runner.SetVersion(5); err != nil {
		t.Fatalf("SetVersion failed: %v", err)
	}

	err := runner.ValidateVersion()
	if err == nil {
		t.Fatal("expected error for newer database version")
	}
	if !strings.Contains(err.Error(), "newer than supported") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestMigrationFilenameValidation(t *testing.T) {
	tests := []struct {
		name     string
		filename string
	}{
		{name: "missing underscore", filename: "001init.sql"},
		{name: "non-numeric version", filename: "abc_init.sql"},
		{name: "zero version", filename: "000_init.sql"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, cleanup := setupTestDB(t)
			defer cleanup()

			runner := NewRunner(db, setupTestMigrations(t, map[string]string{
				tt.filename: "CREATE TABLE test (id INTEGER);",
			}), DriverSQLite)

			if _, err := runner.ReadMigrationFiles(); err == nil {
				t.Errorf("expected error for filename %s", tt.filename)
			}
		})
	}
}

func TestDuplicateVersionDetection(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	runner := NewRunner(db, setupTestMigrations(t, map[string]string{
		"001_first.sql":  "CREATE TABLE a (id INTEGER);",
		"001_second.sql": "CREATE TABLE b (id INTEGER);",
	}), DriverSQLite)

	_, err := runner.ReadMigrationFiles()
	if err == nil || !strings.Contains(err.Error(), "duplicate migration version") {
		t.Errorf("expected duplicate version error, got %v", err)
	}
}
