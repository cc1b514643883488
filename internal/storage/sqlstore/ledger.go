package sqlstore

import (
	"context"
	"fmt"

	"github.com/julianstephens/gradually/internal/ledger"
	"github.com/julianstephens/gradually/internal/models"
)

// insertAdjustment is the single write path into the ledger. Invalid records
// fail the surrounding transaction.
func (s *Store) insertAdjustment(ctx context.Context, tx rowQuerier, adj models.ScheduleAdjustment) (models.ScheduleAdjustment, error) {
	if err := ledger.Validate(adj); err != nil {
		return models.ScheduleAdjustment{}, err
	}
	createdAt := s.stamp()
	err := tx.QueryRowContext(ctx, s.q(`
		INSERT INTO schedule_adjustments (user_id, task_name, previous_scheduled_time, new_scheduled_time,
			adjustment_reason, log_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		adj.UserID, adj.TaskName, nullClock(adj.PreviousScheduledTime), adj.NewScheduledTime.String(),
		adj.Reason, adj.EffectiveDate, createdAt,
	).Scan(&adj.ID)
	if err != nil {
		return models.ScheduleAdjustment{}, fmt.Errorf("failed to record adjustment for %q: %w", adj.TaskName, err)
	}
	adj.CreatedAt = parseStamp(createdAt)
	return adj, nil
}

// GetAdjustmentHistory returns the user's ledger, most recent first.
func (s *Store) GetAdjustmentHistory(ctx context.Context, userID int64) ([]models.ScheduleAdjustment, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT `+adjustmentColumns+` FROM schedule_adjustments
		WHERE user_id = ? ORDER BY log_date DESC, id DESC`), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []models.ScheduleAdjustment
	for rows.Next() {
		adj, err := scanAdjustment(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, adj)
	}
	return history, rows.Err()
}
