package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/gradually/internal/constants"
	"github.com/julianstephens/gradually/internal/logger"
	"github.com/julianstephens/gradually/internal/models"
	"github.com/julianstephens/gradually/internal/suggestion"
	"github.com/julianstephens/gradually/internal/tz"
	"github.com/julianstephens/gradually/internal/utils"
)

// ErrNoSource is returned by RequestSuggestions when no source is configured
var ErrNoSource = errors.New("no suggestion source configured")

// SubmitAISuggestions stores the parseable lines as pending suggestions for
// date. Times in the lines are read in timezone; both default to the user's
// timezone and today there.
func (s *Service) SubmitAISuggestions(ctx context.Context, userID int64, date, timezone string, lines []string) (suggestion.SubmitResult, error) {
	_, zone, date, err := s.resolveDay(ctx, userID, timezone, date)
	if err != nil {
		return suggestion.SubmitResult{}, err
	}

	return s.workflow.Submit(ctx, suggestion.SubmitRequest{
		UserID:   userID,
		Date:     date,
		Timezone: zone,
		Lines:    lines,
	})
}

// RequestSuggestions hands today's entries to the configured source and submits
// whatever it returns. The source call is bounded by the suggestion timeout.
func (s *Service) RequestSuggestions(ctx context.Context, userID int64) (suggestion.SubmitResult, error) {
	if s.source == nil {
		return suggestion.SubmitResult{}, ErrNoSource
	}

	_, zone, date, err := s.resolveDay(ctx, userID, "", "")
	if err != nil {
		return suggestion.SubmitResult{}, err
	}

	entries, err := s.store.GetEntriesForDate(ctx, userID, date)
	if err != nil {
		return suggestion.SubmitResult{}, err
	}

	habits, err := habitData(entries, zone, date)
	if err != nil {
		return suggestion.SubmitResult{}, err
	}
	if len(habits) == 0 {
		logger.Debug("No entries to request suggestions for", "user_id", userID, "date", date)
		return suggestion.SubmitResult{}, nil
	}

	callCtx := ctx
	if s.suggestionTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.suggestionTimeout)
		defer cancel()
	}

	start := time.Now()
	text, err := s.source.GenerateSuggestions(callCtx, habits)
	if err != nil {
		logger.Warn("Suggestion source failed", "user_id", userID, "error", err, "elapsed", time.Since(start))
		return suggestion.SubmitResult{}, fmt.Errorf("suggestion source: %w", err)
	}

	return s.workflow.Submit(ctx, suggestion.SubmitRequest{
		UserID:   userID,
		Date:     date,
		Timezone: zone,
		Lines:    []string{text},
	})
}

// habitData renders entries as local-time habit snapshots.
func habitData(entries []models.DailyScheduleEntry, zone, date string) ([]models.HabitData, error) {
	anchor, err := utils.ParseDate(date)
	if err != nil {
		return nil, err
	}
	loc, err := tz.LoadLocation(zone)
	if err != nil {
		return nil, err
	}

	habits := make([]models.HabitData, 0, len(entries))
	for _, e := range entries {
		scheduled, err := tz.ToLocalPtr(e.ScheduledTime, zone, anchor)
		if err != nil {
			return nil, err
		}
		goal, err := tz.ToLocalPtr(e.GoalTime, zone, anchor)
		if err != nil {
			return nil, err
		}
		h := models.HabitData{
			Habit:         e.TaskName,
			ScheduledTime: scheduled,
			GoalTime:      goal,
			Status:        e.Status,
		}
		if e.ActualCompletedAt != nil {
			h.ActualCompletedAt = models.TimePtr(models.TimeOfDayFromTime(e.ActualCompletedAt.In(loc)))
		}
		habits = append(habits, h)
	}
	return habits, nil
}

// RespondToSuggestion accepts or rejects the pending suggestion for habit.
func (s *Service) RespondToSuggestion(ctx context.Context, userID int64, habit string, decision constants.SuggestionStatus) (suggestion.RespondResult, error) {
	return s.workflow.Respond(ctx, userID, habit, decision)
}

// ListSuggestions returns the user's suggestions, optionally filtered by status.
func (s *Service) ListSuggestions(ctx context.Context, userID int64, status constants.SuggestionStatus) ([]models.HabitSuggestion, error) {
	return s.workflow.List(ctx, userID, status)
}
