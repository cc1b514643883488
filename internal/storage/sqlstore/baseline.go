package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/julianstephens/gradually/internal/models"
)

func (s *Store) ReplaceBaseline(ctx context.Context, userID int64, timezone string, tasks []models.BaselineTask) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.dialect.LockUser(ctx, tx, userID); err != nil {
		return fmt.Errorf("failed to lock user %d: %w", userID, err)
	}

	res, err := tx.ExecContext(ctx, s.q("UPDATE users SET timezone = ? WHERE id = ?"), timezone, userID)
	if err != nil {
		return fmt.Errorf("failed to update user timezone: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("user %d does not exist", userID)
	}

	if _, err := tx.ExecContext(ctx, s.q("DELETE FROM baseline_schedule WHERE user_id = ?"), userID); err != nil {
		return fmt.Errorf("failed to clear baseline: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, s.q(`
		INSERT INTO baseline_schedule (user_id, task_name, scheduled_time, goal_time, user_timezone, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return err
	}
	defer stmt.Close()

	createdAt := s.stamp()
	for _, task := range tasks {
		_, err := stmt.ExecContext(ctx,
			userID, task.TaskName, task.ScheduledTime.String(), nullClock(task.GoalTime), timezone, createdAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert baseline task %q: %w", task.TaskName, err)
		}
	}

	return tx.Commit()
}

func (s *Store) GetBaseline(ctx context.Context, userID int64) ([]models.BaselineTask, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT user_id, task_name, scheduled_time, goal_time, user_timezone, created_at
		FROM baseline_schedule WHERE user_id = ? ORDER BY scheduled_time, task_name`), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.BaselineTask
	for rows.Next() {
		var task models.BaselineTask
		var scheduled, createdAt string
		var goal sql.NullString
		if err := rows.Scan(&task.UserID, &task.TaskName, &scheduled, &goal, &task.UserTimezone, &createdAt); err != nil {
			return nil, err
		}
		if task.ScheduledTime, err = models.ParseTimeOfDay(scheduled); err != nil {
			return nil, err
		}
		if task.GoalTime, err = parseNullClock(goal); err != nil {
			return nil, err
		}
		task.CreatedAt = parseStamp(createdAt)
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}
