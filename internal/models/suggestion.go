package models

import (
	"time"

	"github.com/julianstephens/gradually/internal/constants"
)

// HabitSuggestion is a parsed AI adjustment awaiting an accept/reject decision.
type HabitSuggestion struct {
	ID             int64                      `json:"id"`
	UserID         int64                      `json:"user_id"`
	Habit          string                     `json:"habit"`
	LogDate        string                     `json:"log_date"`
	CurrentValue   *TimeOfDay                 `json:"current_value,omitempty"`
	SuggestedValue TimeOfDay                  `json:"suggested_value"`
	Reason         string                     `json:"reason"`
	Status         constants.SuggestionStatus `json:"status"`
	CreatedAt      time.Time                  `json:"created_at"`
}

// HabitData is the per-task snapshot handed to a suggestion source.
type HabitData struct {
	Habit             string                `json:"habit"`
	ScheduledTime     *TimeOfDay            `json:"scheduled_time,omitempty"`
	GoalTime          *TimeOfDay            `json:"goal_time,omitempty"`
	ActualCompletedAt *TimeOfDay            `json:"actual_completed_time,omitempty"`
	Status            constants.EntryStatus `json:"status"`
}
