package system

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/julianstephens/gradually/internal/cli"
	"github.com/julianstephens/gradually/internal/keyring"
	"github.com/julianstephens/gradually/internal/tz"
)

type DoctorCmd struct{}

type check struct {
	name     string
	needsDB  bool
	warnOnly bool
	run      func(context.Context, *cli.Context) error
}

var checks = []check{
	{name: "Schema version", needsDB: true, run: checkSchemaVersion},
	{name: "Duplicate schedule entries", needsDB: true, run: checkDuplicateEntries},
	{name: "User timezones", needsDB: true, run: checkUserTimezones},
	{name: "Clock/timezone", run: checkClockTimezone},
	{name: "OS keyring", warnOnly: true, run: checkKeyring},
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	bg := context.Background()
	hasError := false

	dbReachable := true
	if err := checkDBReachable(bg, ctx); err != nil {
		ctx.Printf("❌ Database reachable: FAIL\n")
		ctx.Printf("   Error: %v\n", err)
		hasError = true
		dbReachable = false
	} else {
		ctx.Printf("✓ Database reachable: OK\n")
	}

	for _, c := range checks {
		if c.needsDB && !dbReachable {
			ctx.Printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run(bg, ctx)
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", c.name)
		case c.warnOnly:
			ctx.Printf("⚠ %s: WARNING\n", c.name)
			ctx.Printf("   %v\n", err)
		default:
			ctx.Printf("❌ %s: FAIL\n", c.name)
			ctx.Printf("   Error: %v\n", err)
			hasError = true
		}
	}

	ctx.Println()
	if hasError {
		ctx.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	ctx.Println("All diagnostics passed!")
	return nil
}

type dbHandle interface {
	GetDB() *sql.DB
}

func checkDBReachable(ctx context.Context, c *cli.Context) error {
	if err := c.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}

	h, ok := c.Store.(dbHandle)
	if !ok {
		return nil
	}
	db := h.GetDB()
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}
	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("failed to query database: %w", err)
	}
	return nil
}

func checkSchemaVersion(_ context.Context, c *cli.Context) error {
	upToDate, err := c.Store.SchemaUpToDate()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if !upToDate {
		return fmt.Errorf("schema version does not match this build (run 'gradually migrate' or upgrade)")
	}
	return nil
}

func checkDuplicateEntries(ctx context.Context, c *cli.Context) error {
	n, err := c.Store.CountDuplicateEntries(ctx)
	if err != nil {
		return fmt.Errorf("failed to check schedule entries: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("found %d user+task+date combinations with duplicate entries", n)
	}
	return nil
}

func checkUserTimezones(ctx context.Context, c *cli.Context) error {
	users, err := c.Store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	var bad []string
	for _, u := range users {
		if u.Timezone == "" {
			continue
		}
		if err := tz.Validate(u.Timezone); err != nil {
			bad = append(bad, fmt.Sprintf("%s (%s)", u.Username, u.Timezone))
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("users with unloadable timezones: %v", bad)
	}
	return nil
}

func checkClockTimezone(context.Context, *cli.Context) error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	// Zone data must be present for per-user conversions to work.
	if err := tz.Validate("America/New_York"); err != nil {
		return fmt.Errorf("timezone database unavailable: %w", err)
	}
	return nil
}

func checkKeyring(context.Context, *cli.Context) error {
	if !keyring.IsAvailable() {
		return fmt.Errorf("OS keyring is not available; use %s environment variables instead", "GRADUALLY_*")
	}
	return nil
}
