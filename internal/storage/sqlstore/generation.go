package sqlstore

import (
	"context"
	"fmt"

	"github.com/julianstephens/gradually/internal/constants"
	"github.com/julianstephens/gradually/internal/models"
	"github.com/julianstephens/gradually/internal/storage"
)

// CommitGeneration writes all entries and ledger records of a batch in one
// transaction. The per-user lock plus the guarded upsert mean at most one
// concurrent caller commits a planned batch for a (user, date); the rest get
// storage.ErrAlreadyGenerated. Ad-hoc rows already present for a task are
// promoted into the batch and keep their completion data.
func (s *Store) CommitGeneration(ctx context.Context, batch models.GenerationBatch) error {
	if batch.ID == "" {
		return fmt.Errorf("generation batch has no id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.dialect.LockUser(ctx, tx, batch.UserID); err != nil {
		return fmt.Errorf("failed to lock user %d: %w", batch.UserID, err)
	}

	var planned int
	err = tx.QueryRowContext(ctx, s.q(`
		SELECT COUNT(*) FROM daily_schedules
		WHERE user_id = ? AND log_date = ? AND generation_id IS NOT NULL`), batch.UserID, batch.Date).Scan(&planned)
	if err != nil {
		return err
	}
	if planned > 0 {
		return storage.ErrAlreadyGenerated
	}

	entryStmt, err := tx.PrepareContext(ctx, s.q(`
		INSERT INTO daily_schedules (user_id, task_name, log_date, scheduled_time, previous_scheduled_time,
			goal_time, status, user_timezone, generation_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, task_name, log_date) DO UPDATE SET
			scheduled_time = excluded.scheduled_time,
			previous_scheduled_time = excluded.previous_scheduled_time,
			goal_time = excluded.goal_time,
			generation_id = excluded.generation_id
		WHERE daily_schedules.generation_id IS NULL`))
	if err != nil {
		return err
	}
	defer entryStmt.Close()

	createdAt := s.stamp()
	for _, e := range batch.Entries {
		status := e.Status
		if status == "" {
			status = constants.StatusPending
		}
		res, err := entryStmt.ExecContext(ctx,
			batch.UserID, e.TaskName, batch.Date, nullClock(e.ScheduledTime), nullClock(e.PreviousScheduledTime),
			nullClock(e.GoalTime), string(status), e.UserTimezone, batch.ID, createdAt,
		)
		if err != nil {
			if s.dialect.IsUniqueViolation(err) {
				return storage.ErrAlreadyGenerated
			}
			return fmt.Errorf("failed to insert entry %q: %w", e.TaskName, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return storage.ErrAlreadyGenerated
		}
	}

	for _, adj := range batch.Adjustments {
		adj.UserID = batch.UserID
		if _, err := s.insertAdjustment(ctx, tx, adj); err != nil {
			return err
		}
	}

	return tx.Commit()
}
