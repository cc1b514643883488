package suggestion

import (
	"context"
	"errors"
	"fmt"

	"github.com/julianstephens/gradually/internal/constants"
	apperrors "github.com/julianstephens/gradually/internal/errors"
	"github.com/julianstephens/gradually/internal/ledger"
	"github.com/julianstephens/gradually/internal/logger"
	"github.com/julianstephens/gradually/internal/models"
	"github.com/julianstephens/gradually/internal/storage"
	"github.com/julianstephens/gradually/internal/tz"
	"github.com/julianstephens/gradually/internal/utils"
)

// Store is the storage the workflow needs
type Store interface {
	GetEntry(ctx context.Context, userID int64, taskName, date string) (models.DailyScheduleEntry, error)
	AddSuggestions(ctx context.Context, suggestions []models.HabitSuggestion) ([]models.HabitSuggestion, error)
	GetPendingSuggestion(ctx context.Context, userID int64, habit string) (models.HabitSuggestion, error)
	ListSuggestions(ctx context.Context, userID int64, status constants.SuggestionStatus) ([]models.HabitSuggestion, error)
	ResolveSuggestion(ctx context.Context, id int64, decision constants.SuggestionStatus, ledgerReason string) (storage.Resolution, error)
}

type Workflow struct {
	store Store
}

func NewWorkflow(store Store) *Workflow {
	return &Workflow{store: store}
}

// SubmitRequest is a batch of raw lines for one user and date. Times in the
// lines are read in Timezone; an empty Timezone means they are already canonical.
type SubmitRequest struct {
	UserID   int64
	Date     string
	Timezone string
	Lines    []string
}

type SubmitResult struct {
	Created []models.HabitSuggestion `json:"created"`
	Skipped []ParseFailure           `json:"skipped"`
}

// Submit parses the lines and stores every well-formed one as a pending
// suggestion. Malformed lines are returned in Skipped and logged.
func (w *Workflow) Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	if !utils.ValidateDateFormat(req.Date) {
		return SubmitResult{}, apperrors.Invalid("invalid date %q (expected YYYY-MM-DD)", req.Date)
	}
	anchor, _ := utils.ParseDate(req.Date)

	parsed, skipped := ParseLines(req.Lines)
	for _, f := range skipped {
		logger.Warn("Skipped suggestion line", "user_id", req.UserID, "line", f.Line, "raw", f.Reason)
	}

	pending := make([]models.HabitSuggestion, 0, len(parsed))
	for _, p := range parsed {
		value := p.SuggestedValue
		if req.Timezone != "" {
			canonical, err := tz.ToCanonical(value, req.Timezone, anchor)
			if err != nil {
				return SubmitResult{}, err
			}
			value = canonical
		}

		var current *models.TimeOfDay
		entry, err := w.store.GetEntry(ctx, req.UserID, p.Habit, req.Date)
		switch {
		case err == nil:
			current = entry.ScheduledTime
		case errors.Is(err, storage.ErrNotFound):
		default:
			return SubmitResult{}, fmt.Errorf("failed to load entry for %q: %w", p.Habit, err)
		}

		pending = append(pending, models.HabitSuggestion{
			UserID:         req.UserID,
			Habit:          p.Habit,
			LogDate:        req.Date,
			CurrentValue:   current,
			SuggestedValue: value,
			Reason:         p.Reason,
			Status:         constants.SuggestionPending,
		})
	}

	created, err := w.store.AddSuggestions(ctx, pending)
	if err != nil {
		return SubmitResult{}, err
	}

	return SubmitResult{Created: created, Skipped: skipped}, nil
}

// RespondResult reports what a decision did. Applied is false when there was
// no pending suggestion to decide on.
type RespondResult struct {
	Applied      bool                       `json:"applied"`
	Suggestion   *models.HabitSuggestion    `json:"suggestion,omitempty"`
	EntryUpdated bool                       `json:"entry_updated"`
	Adjustment   *models.ScheduleAdjustment `json:"adjustment,omitempty"`
}

// Respond accepts or rejects the pending suggestion for a habit. Each
// suggestion is consumed once; later calls find nothing pending and no-op.
func (w *Workflow) Respond(ctx context.Context, userID int64, habit string, decision constants.SuggestionStatus) (RespondResult, error) {
	if decision != constants.SuggestionAccepted && decision != constants.SuggestionRejected {
		return RespondResult{}, apperrors.Invalid("invalid decision %q (expected accepted or rejected)", decision)
	}

	sg, err := w.store.GetPendingSuggestion(ctx, userID, habit)
	if errors.Is(err, storage.ErrNotFound) {
		return RespondResult{}, nil
	}
	if err != nil {
		return RespondResult{}, err
	}

	res, err := w.store.ResolveSuggestion(ctx, sg.ID, decision, ledger.SuggestionReason(sg.Reason))
	if errors.Is(err, storage.ErrSuggestionNotPending) {
		// Lost a race with another responder.
		return RespondResult{}, nil
	}
	if err != nil {
		return RespondResult{}, err
	}

	logger.Info("Resolved suggestion", "user_id", userID, "habit", habit, "decision", decision,
		"entry_updated", res.EntryUpdated)

	resolved := res.Suggestion
	return RespondResult{
		Applied:      true,
		Suggestion:   &resolved,
		EntryUpdated: res.EntryUpdated,
		Adjustment:   res.Adjustment,
	}, nil
}

// List returns the user's suggestions, optionally filtered by status.
func (w *Workflow) List(ctx context.Context, userID int64, status constants.SuggestionStatus) ([]models.HabitSuggestion, error) {
	switch status {
	case "", constants.SuggestionPending, constants.SuggestionAccepted, constants.SuggestionRejected:
	default:
		return nil, apperrors.Invalid("invalid suggestion status %q", status)
	}
	return w.store.ListSuggestions(ctx, userID, status)
}
