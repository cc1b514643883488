package migration

import (
	"database/sql"
	"os"
	"testing"

	_ "github.com/lib/pq"
)

// setupPostgresTestDB creates a test PostgreSQL database connection
// Set POSTGRES_TEST_URL environment variable to run this test
// Example: POSTGRES_TEST_URL="postgres://user@localhost:5432/testdb?sslmode=disable"
func setupPostgresTestDB(t *testing.T) (*sql.DB, func()) {
	connStr := os.Getenv("POSTGRES_TEST_URL")
	if connStr == "" {
		t.Skip("POSTGRES_TEST_URL not set, skipping PostgreSQL integration test")
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("failed to open postgres database: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Fatalf("failed to ping postgres database: %v", err)
	}

	// Start from a clean slate in case a previous run was interrupted
	db.Exec("DROP TABLE IF EXISTS schema_version")
	db.Exec("DROP TABLE IF EXISTS test_posts")
	db.Exec("DROP TABLE IF EXISTS test_users")

	cleanup := func() {
		db.Exec("DROP TABLE IF EXISTS schema_version")
		db.Exec("DROP TABLE IF EXISTS test_posts")
		db.Exec("DROP TABLE IF EXISTS test_users")
		db.Close()
	}

	return db, cleanup
}

// TestPostgresSetVersion verifies SetVersion works with PostgreSQL $1 placeholders
func TestPostgresSetVersion(t *testing.T) {
	db, cleanup := setupPostgresTestDB(t)
	defer cleanup()

	runner := NewRunner(db, setupTestMigrations(t, map[string]string{
		"001_init.sql": "CREATE TABLE test_users (id SERIAL PRIMARY KEY);",
	}), DriverPostgres)

	if err := runner.SetVersion(1); err != nil {
		t.Fatalf("SetVersion failed: %v", err)
	}

	version, err := runner.GetCurrentVersion()
	if err != nil {
		t.Fatalf("GetCurrentVersion failed: %v", err)
	}
	if version != 1 {
		t.Errorf("expected version 1, got %d", version)
	}
}

// TestPostgresApplyMigrations verifies ApplyMigrations works with PostgreSQL $1 placeholders
func TestPostgresApplyMigrations(t *testing.T) {
	db, cleanup := setupPostgresTestDB(t)
	defer cleanup()

	runner := NewRunner(db, setupTestMigrations(t, map[string]string{
		"001_init.sql": `
			CREATE TABLE test_users (
				id SERIAL PRIMARY KEY,
				name TEXT NOT NULL
			);
		`,
		"002_posts.sql": `
			CREATE TABLE test_posts (
				id SERIAL PRIMARY KEY,
				user_id INTEGER NOT NULL REFERENCES test_users(id),
				title TEXT NOT NULL
			);
		`,
	}), DriverPostgres)

	count, err := runner.ApplyMigrations(nil)
	if err != nil {
		t.Fatalf("ApplyMigrations failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 migrations applied, got %d", count)
	}

	var exists bool
	err = db.QueryRow("SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_name = 'test_posts')").Scan(&exists)
	if err != nil {
		t.Fatalf("failed to check test_posts table: %v", err)
	}
	if !exists {
		t.Error("test_posts table was not created")
	}

	count, err = runner.ApplyMigrations(nil)
	if err != nil {
		t.Fatalf("ApplyMigrations (2nd) failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 migrations on second run, got %d", count)
	}
}

// TestPostgresMigrationRollbackOnError verifies transaction rollback works with PostgreSQL
func TestPostgresMigrationRollbackOnError(t *testing.T) {
	db, cleanup := setupPostgresTestDB(t)
	defer cleanup()

	runner := NewRunner(db, setupTestMigrations(t, map[string]string{
		"001_bad.sql": `
			CREATE TABLE test_users (id SERIAL PRIMARY KEY);
			THIS IS INVALID SQL;
		`,
	}), DriverPostgres)

	if _, err := runner.ApplyMigrations(nil); err == nil {
		t.Fatal("ApplyMigrations should have failed with invalid SQL")
	}

	version, err := runner.GetCurrentVersion()
	if err != nil {
		t.Fatalf("GetCurrentVersion failed: %v", err)
	}
	if version != 0 {
		t.Errorf("expected version 0 after failed migration, got %d", version)
	}
}
