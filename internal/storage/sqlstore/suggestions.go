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

func (s *Store) AddSuggestions(ctx context.Context, suggestions []models.HabitSuggestion) ([]models.HabitSuggestion, error) {
	if len(suggestions) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	createdAt := s.stamp()
	saved := make([]models.HabitSuggestion, 0, len(suggestions))
	for _, sg := range suggestions {
		sg.Status = constants.SuggestionPending
		err := tx.QueryRowContext(ctx, s.q(`
			INSERT INTO habit_adjustments (user_id, habit, log_date, current_value, suggested_value, reason, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
			sg.UserID, sg.Habit, sg.LogDate, nullClock(sg.CurrentValue), sg.SuggestedValue.String(),
			sg.Reason, string(sg.Status), createdAt,
		).Scan(&sg.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to store suggestion for %q: %w", sg.Habit, err)
		}
		sg.CreatedAt = parseStamp(createdAt)
		saved = append(saved, sg)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return saved, nil
}

// GetPendingSuggestion returns the pending suggestion for the habit with the
// latest log date, newest first on ties.
func (s *Store) GetPendingSuggestion(ctx context.Context, userID int64, habit string) (models.HabitSuggestion, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+suggestionColumns+` FROM habit_adjustments
		WHERE user_id = ? AND habit = ? AND status = ?
		ORDER BY log_date DESC, id DESC LIMIT 1`), userID, habit, string(constants.SuggestionPending))
	sg, err := scanSuggestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.HabitSuggestion{}, fmt.Errorf("pending suggestion for %q: %w", habit, storage.ErrNotFound)
	}
	return sg, err
}

// ListSuggestions returns the user's suggestions, newest first. An empty status lists all.
func (s *Store) ListSuggestions(ctx context.Context, userID int64, status constants.SuggestionStatus) ([]models.HabitSuggestion, error) {
	query := `SELECT ` + suggestionColumns + ` FROM habit_adjustments WHERE user_id = ?`
	args := []any{userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY id DESC`

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.HabitSuggestion
	for rows.Next() {
		sg, err := scanSuggestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sg)
	}
	return out, rows.Err()
}

func (s *Store) ResolveSuggestion(ctx context.Context, id int64, decision constants.SuggestionStatus, ledgerReason string) (storage.Resolution, error) {
	if decision != constants.SuggestionAccepted && decision != constants.SuggestionRejected {
		return storage.Resolution{}, fmt.Errorf("invalid suggestion decision %q", decision)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storage.Resolution{}, err
	}
	defer tx.Rollback()

	sg, err := scanSuggestion(tx.QueryRowContext(ctx,
		s.q(`SELECT `+suggestionColumns+` FROM habit_adjustments WHERE id = ?`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Resolution{}, fmt.Errorf("suggestion %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return storage.Resolution{}, err
	}

	if err := s.dialect.LockUser(ctx, tx, sg.UserID); err != nil {
		return storage.Resolution{}, fmt.Errorf("failed to lock user %d: %w", sg.UserID, err)
	}

	res, err := tx.ExecContext(ctx, s.q(`UPDATE habit_adjustments SET status = ? WHERE id = ? AND status = ?`),
		string(decision), id, string(constants.SuggestionPending))
	if err != nil {
		return storage.Resolution{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return storage.Resolution{}, err
	} else if n == 0 {
		return storage.Resolution{}, storage.ErrSuggestionNotPending
	}
	sg.Status = decision

	out := storage.Resolution{Suggestion: sg}
	if decision == constants.SuggestionAccepted {
		var entryID int64
		var current sql.NullString
		err := tx.QueryRowContext(ctx, s.q(`SELECT id, scheduled_time FROM daily_schedules
			WHERE user_id = ? AND task_name = ? AND log_date = ?`), sg.UserID, sg.Habit, sg.LogDate).Scan(&entryID, &current)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			// Nothing materialized for that date; the decision is still recorded.
		case err != nil:
			return storage.Resolution{}, err
		default:
			previous, err := parseNullClock(current)
			if err != nil {
				return storage.Resolution{}, err
			}
			if _, err := tx.ExecContext(ctx, s.q(`UPDATE daily_schedules SET scheduled_time = ? WHERE id = ?`),
				sg.SuggestedValue.String(), entryID); err != nil {
				return storage.Resolution{}, err
			}
			out.EntryUpdated = true

			if previous == nil || *previous != sg.SuggestedValue {
				adj, err := s.insertAdjustment(ctx, tx, models.ScheduleAdjustment{
					UserID:                sg.UserID,
					TaskName:              sg.Habit,
					PreviousScheduledTime: previous,
					NewScheduledTime:      sg.SuggestedValue,
					Reason:                ledgerReason,
					EffectiveDate:         sg.LogDate,
				})
				if err != nil {
					return storage.Resolution{}, err
				}
				out.Adjustment = &adj
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return storage.Resolution{}, err
	}
	return out, nil
}
