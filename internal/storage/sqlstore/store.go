// Package sqlstore implements the storage.Provider data operations over
// database/sql. Dialect differences (placeholders, unique violations and
// per-user write locking) are supplied by the sqlite and postgres packages.
package sqlstore

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/gradually/internal/migration"
)

// Dialect captures what differs between the supported SQL engines
type Dialect interface {
	Driver() migration.Driver
	// Rebind rewrites a query written with '?' placeholders for the engine
	Rebind(query string) string
	// IsUniqueViolation reports whether err is a unique constraint failure
	IsUniqueViolation(err error) bool
	// LockUser serializes writers for one user for the remainder of tx
	LockUser(ctx context.Context, tx *sql.Tx, userID int64) error
}

type Store struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

func New(dialect Dialect) *Store {
	return &Store{
		dialect: dialect,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetDB attaches an open connection pool. Called by the engine packages after Init/Load.
func (s *Store) SetDB(db *sql.DB) {
	s.db = db
}

// GetDB returns the underlying database connection.
// Returns nil if the database has not been initialized or loaded.
func (s *Store) GetDB() *sql.DB {
	return s.db
}

// SetClock overrides the clock used for created_at stamps.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Store) q(query string) string {
	return s.dialect.Rebind(query)
}

func (s *Store) stamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

// RebindDollar rewrites '?' placeholders as $1, $2, ... in order.
func RebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// CountDuplicateEntries counts (user, task, date) keys with more than one entry.
func (s *Store) CountDuplicateEntries(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM (
			SELECT user_id, task_name, log_date FROM daily_schedules
			GROUP BY user_id, task_name, log_date HAVING COUNT(*) > 1
		) dupes`).Scan(&count)
	return count, err
}
