package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/julianstephens/gradually/internal/constants"
	"github.com/julianstephens/gradually/internal/models"
)

type scanner interface {
	Scan(dest ...any) error
}

// rowQuerier is satisfied by both *sql.DB and *sql.Tx
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func nullClock(t *models.TimeOfDay) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.String(), Valid: true}
}

func parseNullClock(ns sql.NullString) (*models.TimeOfDay, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := models.ParseTimeOfDay(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullTimestamp(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func parseNullTimestamp(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, ns.String)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp %q: %w", ns.String, err)
	}
	t = t.UTC()
	return &t, nil
}

func parseStamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

const entryColumns = `id, user_id, task_name, log_date, scheduled_time, previous_scheduled_time, goal_time,
	status, actual_completed_time, user_timezone, generation_id, created_at`

func scanEntry(row scanner) (models.DailyScheduleEntry, error) {
	var e models.DailyScheduleEntry
	var status, createdAt string
	var scheduled, previous, goal, completedAt, generationID sql.NullString

	err := row.Scan(
		&e.ID, &e.UserID, &e.TaskName, &e.LogDate, &scheduled, &previous, &goal,
		&status, &completedAt, &e.UserTimezone, &generationID, &createdAt,
	)
	if err != nil {
		return models.DailyScheduleEntry{}, err
	}

	e.Status = constants.EntryStatus(status)
	e.GenerationID = generationID.String
	e.CreatedAt = parseStamp(createdAt)

	if e.ScheduledTime, err = parseNullClock(scheduled); err != nil {
		return models.DailyScheduleEntry{}, err
	}
	if e.PreviousScheduledTime, err = parseNullClock(previous); err != nil {
		return models.DailyScheduleEntry{}, err
	}
	if e.GoalTime, err = parseNullClock(goal); err != nil {
		return models.DailyScheduleEntry{}, err
	}
	if e.ActualCompletedAt, err = parseNullTimestamp(completedAt); err != nil {
		return models.DailyScheduleEntry{}, err
	}

	return e, nil
}

func scanEntries(rows *sql.Rows) ([]models.DailyScheduleEntry, error) {
	defer rows.Close()

	var entries []models.DailyScheduleEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

const adjustmentColumns = `id, user_id, task_name, previous_scheduled_time, new_scheduled_time,
	adjustment_reason, log_date, created_at`

func scanAdjustment(row scanner) (models.ScheduleAdjustment, error) {
	var a models.ScheduleAdjustment
	var previous sql.NullString
	var newTime, createdAt string

	err := row.Scan(&a.ID, &a.UserID, &a.TaskName, &previous, &newTime, &a.Reason, &a.EffectiveDate, &createdAt)
	if err != nil {
		return models.ScheduleAdjustment{}, err
	}

	if a.PreviousScheduledTime, err = parseNullClock(previous); err != nil {
		return models.ScheduleAdjustment{}, err
	}
	if a.NewScheduledTime, err = models.ParseTimeOfDay(newTime); err != nil {
		return models.ScheduleAdjustment{}, err
	}
	a.CreatedAt = parseStamp(createdAt)

	return a, nil
}

const suggestionColumns = `id, user_id, habit, log_date, current_value, suggested_value, reason, status, created_at`

func scanSuggestion(row scanner) (models.HabitSuggestion, error) {
	var sg models.HabitSuggestion
	var current sql.NullString
	var suggested, status, createdAt string

	err := row.Scan(&sg.ID, &sg.UserID, &sg.Habit, &sg.LogDate, &current, &suggested, &sg.Reason, &status, &createdAt)
	if err != nil {
		return models.HabitSuggestion{}, err
	}

	if sg.CurrentValue, err = parseNullClock(current); err != nil {
		return models.HabitSuggestion{}, err
	}
	if sg.SuggestedValue, err = models.ParseTimeOfDay(suggested); err != nil {
		return models.HabitSuggestion{}, err
	}
	sg.Status = constants.SuggestionStatus(status)
	sg.CreatedAt = parseStamp(createdAt)

	return sg, nil
}
