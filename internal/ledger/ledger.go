// Package ledger is the append-only history of scheduled-time changes.
// Records are written alongside the entries they document and never edited.
package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/julianstephens/gradually/internal/constants"
	"github.com/julianstephens/gradually/internal/models"
	"github.com/julianstephens/gradually/internal/utils"
)

// Store is the storage the ledger reads from. Writes happen inside the
// storage transactions that change the schedule, each checked with Validate.
type Store interface {
	GetAdjustmentHistory(ctx context.Context, userID int64) ([]models.ScheduleAdjustment, error)
}

type Ledger struct {
	store Store
}

func New(store Store) *Ledger {
	return &Ledger{store: store}
}

// History returns the user's adjustments ordered by effective date, newest first.
func (l *Ledger) History(ctx context.Context, userID int64) ([]models.ScheduleAdjustment, error) {
	history, err := l.store.GetAdjustmentHistory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load adjustment history: %w", err)
	}
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].EffectiveDate > history[j].EffectiveDate
	})
	return history, nil
}

// Validate checks that a record is complete enough to append. Storage calls
// it for every record it writes.
func Validate(adj models.ScheduleAdjustment) error {
	if strings.TrimSpace(adj.TaskName) == "" {
		return fmt.Errorf("adjustment has no task name")
	}
	if strings.TrimSpace(adj.Reason) == "" {
		return fmt.Errorf("adjustment for %q has no reason", adj.TaskName)
	}
	if !utils.ValidateDateFormat(adj.EffectiveDate) {
		return fmt.Errorf("adjustment for %q has invalid effective date %q", adj.TaskName, adj.EffectiveDate)
	}
	return nil
}

// Changed reports whether moving from previous to next is a shift worth
// recording. A task with no prior scheduled time has nothing to shift from.
func Changed(previous *models.TimeOfDay, next models.TimeOfDay) bool {
	return previous != nil && *previous != next
}

// NewRecord builds the record for a shift, or returns false when Changed is false.
func NewRecord(userID int64, task string, previous *models.TimeOfDay, next models.TimeOfDay, reason, date string) (models.ScheduleAdjustment, bool) {
	if !Changed(previous, next) {
		return models.ScheduleAdjustment{}, false
	}
	prev := *previous
	return models.ScheduleAdjustment{
		UserID:                userID,
		TaskName:              task,
		PreviousScheduledTime: &prev,
		NewScheduledTime:      next,
		Reason:                reason,
		EffectiveDate:         date,
	}, true
}

// SuggestionReason is the ledger reason for an accepted AI suggestion.
func SuggestionReason(reason string) string {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return strings.TrimSpace(constants.ReasonAIPrefix)
	}
	return constants.ReasonAIPrefix + reason
}
