package scheduler

import (
	"context"
	"fmt"

	"github.com/julianstephens/gradually/internal/models"
	"github.com/julianstephens/gradually/internal/utils"
)

// HistoryStore is the read side of the entry store used for completion history
type HistoryStore interface {
	GetCompletedEntries(ctx context.Context, userID int64, from, to string) ([]models.DailyScheduleEntry, error)
}

// HistoryReader turns completed entries into per-task completion samples.
type HistoryReader struct {
	store HistoryStore
}

func NewHistoryReader(store HistoryStore) *HistoryReader {
	return &HistoryReader{store: store}
}

// RecentCompletions returns canonical completion times per task for entries
// dated in [today-lookbackDays, today). Tasks without history are simply absent.
func (r *HistoryReader) RecentCompletions(ctx context.Context, userID int64, today string, lookbackDays int) (map[string][]models.TimeOfDay, error) {
	if lookbackDays < 0 {
		return nil, fmt.Errorf("lookback must not be negative, got %d", lookbackDays)
	}
	from, err := utils.AddDays(today, -lookbackDays)
	if err != nil {
		return nil, err
	}

	entries, err := r.store.GetCompletedEntries(ctx, userID, from, today)
	if err != nil {
		return nil, fmt.Errorf("failed to read completion history: %w", err)
	}

	samples := make(map[string][]models.TimeOfDay)
	for _, e := range entries {
		if e.ActualCompletedAt == nil {
			continue
		}
		samples[e.TaskName] = append(samples[e.TaskName], models.TimeOfDayFromTime(e.ActualCompletedAt.UTC()))
	}
	return samples, nil
}
