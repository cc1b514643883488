package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/julianstephens/gradually/internal/constants"
	"github.com/julianstephens/gradually/internal/models"
	"github.com/julianstephens/gradually/internal/storage"
)

func (s *Store) HasPlannedEntries(ctx context.Context, userID int64, date string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, s.q(`
		SELECT COUNT(*) FROM daily_schedules
		WHERE user_id = ? AND log_date = ? AND generation_id IS NOT NULL`), userID, date).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) GetEntry(ctx context.Context, userID int64, taskName, date string) (models.DailyScheduleEntry, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+entryColumns+` FROM daily_schedules
		WHERE user_id = ? AND task_name = ? AND log_date = ?`), userID, taskName, date)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DailyScheduleEntry{}, fmt.Errorf("entry %q on %s: %w", taskName, date, storage.ErrNotFound)
	}
	return e, err
}

func (s *Store) GetEntriesForDate(ctx context.Context, userID int64, date string) ([]models.DailyScheduleEntry, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT `+entryColumns+` FROM daily_schedules
		WHERE user_id = ? AND log_date = ? ORDER BY scheduled_time IS NULL, scheduled_time, task_name`), userID, date)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

func (s *Store) GetLatestScheduledEntry(ctx context.Context, userID int64, taskName, before string) (models.DailyScheduleEntry, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+entryColumns+` FROM daily_schedules
		WHERE user_id = ? AND task_name = ? AND log_date < ? AND scheduled_time IS NOT NULL
		ORDER BY log_date DESC LIMIT 1`), userID, taskName, before)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DailyScheduleEntry{}, fmt.Errorf("no scheduled entry for %q before %s: %w", taskName, before, storage.ErrNotFound)
	}
	return e, err
}

func (s *Store) GetCompletedEntries(ctx context.Context, userID int64, from, to string) ([]models.DailyScheduleEntry, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT `+entryColumns+` FROM daily_schedules
		WHERE user_id = ? AND log_date >= ? AND log_date < ?
		AND status = ? AND actual_completed_time IS NOT NULL
		ORDER BY log_date, task_name`), userID, from, to, string(constants.StatusCompleted))
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

// LogCompletion upserts the (user, task, date) entry. A missing entry becomes an
// ad-hoc row with no scheduled time. Logging as not completed resets the entry
// to pending and clears any recorded completion time.
func (s *Store) LogCompletion(ctx context.Context, log models.CompletionLog) (models.DailyScheduleEntry, error) {
	status := constants.StatusPending
	var completedAt sql.NullString
	if log.Completed {
		status = constants.StatusCompleted
		completedAt = nullTimestamp(&log.CompletedAt)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.DailyScheduleEntry{}, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.q(`
		INSERT INTO daily_schedules (user_id, task_name, log_date, status, actual_completed_time, user_timezone, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, task_name, log_date) DO UPDATE SET
			status = excluded.status,
			actual_completed_time = excluded.actual_completed_time`),
		log.UserID, log.TaskName, log.LogDate, string(status), completedAt, log.UserTimezone, s.stamp(),
	)
	if err != nil {
		return models.DailyScheduleEntry{}, fmt.Errorf("failed to log completion for %q: %w", log.TaskName, err)
	}

	row := tx.QueryRowContext(ctx, s.q(`SELECT `+entryColumns+` FROM daily_schedules
		WHERE user_id = ? AND task_name = ? AND log_date = ?`), log.UserID, log.TaskName, log.LogDate)
	entry, err := scanEntry(row)
	if err != nil {
		return models.DailyScheduleEntry{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.DailyScheduleEntry{}, err
	}
	return entry, nil
}
