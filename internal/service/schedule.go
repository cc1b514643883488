package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/gradually/internal/constants"
	apperrors "github.com/julianstephens/gradually/internal/errors"
	"github.com/julianstephens/gradually/internal/models"
	"github.com/julianstephens/gradually/internal/scheduler"
	"github.com/julianstephens/gradually/internal/tz"
	"github.com/julianstephens/gradually/internal/utils"
)

// GenerateResult is a generation outcome together with the date it ran for.
type GenerateResult struct {
	Date string `json:"date"`
	scheduler.GenerationResult
}

// GenerateDailySchedule generates the planned batch for date, defaulting to
// today in the user's timezone.
func (s *Service) GenerateDailySchedule(ctx context.Context, userID int64, date string) (GenerateResult, error) {
	_, _, date, err := s.resolveDay(ctx, userID, "", date)
	if err != nil {
		return GenerateResult{}, err
	}

	res, err := s.generator.Generate(ctx, userID, date)
	if err != nil {
		return GenerateResult{}, err
	}
	return GenerateResult{Date: date, GenerationResult: res}, nil
}

// EntryView is a daily schedule entry rendered in a caller's timezone
type EntryView struct {
	TaskName              string                `json:"task_name"`
	LogDate               string                `json:"log_date"`
	ScheduledTime         *models.TimeOfDay     `json:"scheduled_time,omitempty"`
	PreviousScheduledTime *models.TimeOfDay     `json:"previous_scheduled_time,omitempty"`
	GoalTime              *models.TimeOfDay     `json:"goal_time,omitempty"`
	Status                constants.EntryStatus `json:"status"`
	ActualCompletedAt     *time.Time            `json:"actual_completed_at,omitempty"`
	AdHoc                 bool                  `json:"ad_hoc"`
	Timezone              string                `json:"timezone"`
}

// GetDailySchedule returns the entries for date rendered in timezone. Empty
// values default to the user's timezone and today there.
func (s *Service) GetDailySchedule(ctx context.Context, userID int64, timezone, date string) ([]EntryView, error) {
	_, zone, date, err := s.resolveDay(ctx, userID, timezone, date)
	if err != nil {
		return nil, err
	}

	entries, err := s.store.GetEntriesForDate(ctx, userID, date)
	if err != nil {
		return nil, err
	}

	anchor, _ := utils.ParseDate(date)
	views := make([]EntryView, 0, len(entries))
	for _, e := range entries {
		view, err := renderEntry(e, zone, anchor)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func renderEntry(e models.DailyScheduleEntry, zone string, anchor time.Time) (EntryView, error) {
	loc, err := tz.LoadLocation(zone)
	if err != nil {
		return EntryView{}, err
	}
	scheduled, err := tz.ToLocalPtr(e.ScheduledTime, zone, anchor)
	if err != nil {
		return EntryView{}, err
	}
	previous, err := tz.ToLocalPtr(e.PreviousScheduledTime, zone, anchor)
	if err != nil {
		return EntryView{}, err
	}
	goal, err := tz.ToLocalPtr(e.GoalTime, zone, anchor)
	if err != nil {
		return EntryView{}, err
	}

	view := EntryView{
		TaskName:              e.TaskName,
		LogDate:               e.LogDate,
		ScheduledTime:         scheduled,
		PreviousScheduledTime: previous,
		GoalTime:              goal,
		Status:                e.Status,
		AdHoc:                 e.IsAdHoc(),
		Timezone:              zone,
	}
	if e.ActualCompletedAt != nil {
		local := e.ActualCompletedAt.In(loc)
		view.ActualCompletedAt = &local
	}
	return view, nil
}

// CompletionRequest is one completion as reported by a user. ActualTime is a
// local wall-clock reading on Date in Timezone; empty means now. Empty Date
// and Timezone default to today in the user's timezone.
type CompletionRequest struct {
	TaskName   string `json:"task_name"`
	Completed  bool   `json:"completed"`
	ActualTime string `json:"actual_time,omitempty"`
	Date       string `json:"date,omitempty"`
	Timezone   string `json:"timezone,omitempty"`
}

// LogCompletion records a completion against the matching entry, creating an
// ad-hoc entry when the task was not generated for the date.
func (s *Service) LogCompletion(ctx context.Context, userID int64, req CompletionRequest) (models.DailyScheduleEntry, error) {
	name := strings.TrimSpace(req.TaskName)
	if name == "" {
		return models.DailyScheduleEntry{}, apperrors.Invalid("task name is required")
	}

	_, zone, date, err := s.resolveDay(ctx, userID, req.Timezone, req.Date)
	if err != nil {
		return models.DailyScheduleEntry{}, err
	}

	completedAt := s.now().UTC()
	if req.ActualTime != "" {
		local, err := models.ParseTimeOfDay(req.ActualTime)
		if err != nil {
			return models.DailyScheduleEntry{}, apperrors.Invalid("%v", err)
		}
		completedAt, err = tz.LocalInstant(date, local, zone)
		if err != nil {
			return models.DailyScheduleEntry{}, err
		}
	}

	return s.store.LogCompletion(ctx, models.CompletionLog{
		UserID:       userID,
		TaskName:     name,
		LogDate:      date,
		Completed:    req.Completed,
		CompletedAt:  completedAt,
		UserTimezone: zone,
	})
}

// LogCompletions applies several completions in order, each in its own
// transaction. It stops at the first failure and returns what was applied.
func (s *Service) LogCompletions(ctx context.Context, userID int64, reqs []CompletionRequest) ([]models.DailyScheduleEntry, error) {
	entries := make([]models.DailyScheduleEntry, 0, len(reqs))
	for i, req := range reqs {
		entry, err := s.LogCompletion(ctx, userID, req)
		if err != nil {
			return entries, fmt.Errorf("completion #%d (%q): %w", i+1, req.TaskName, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// GetAdjustmentHistory returns the user's ledger, newest effective date first.
func (s *Service) GetAdjustmentHistory(ctx context.Context, userID int64) ([]models.ScheduleAdjustment, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.ledger.History(ctx, userID)
}
