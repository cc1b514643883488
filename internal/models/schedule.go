package models

import (
	"time"

	"github.com/julianstephens/gradually/internal/constants"
)

// BaselineTask is one row of a user's recurring template. Times are canonical (UTC).
type BaselineTask struct {
	UserID        int64      `json:"user_id"`
	TaskName      string     `json:"task_name"`
	ScheduledTime TimeOfDay  `json:"scheduled_time"`
	GoalTime      *TimeOfDay `json:"goal_time,omitempty"`
	UserTimezone  string     `json:"user_timezone"`
	CreatedAt     time.Time  `json:"created_at"`
}

// DailyScheduleEntry is the materialized instance of a task for one date.
// ScheduledTime is nil for ad-hoc entries created from a completion log;
// GenerationID is set only on entries belonging to a planned batch.
type DailyScheduleEntry struct {
	ID                    int64                 `json:"id"`
	UserID                int64                 `json:"user_id"`
	TaskName              string                `json:"task_name"`
	LogDate               string                `json:"log_date"` // YYYY-MM-DD format
	ScheduledTime         *TimeOfDay            `json:"scheduled_time,omitempty"`
	PreviousScheduledTime *TimeOfDay            `json:"previous_scheduled_time,omitempty"`
	GoalTime              *TimeOfDay            `json:"goal_time,omitempty"`
	Status                constants.EntryStatus `json:"status"`
	ActualCompletedAt     *time.Time            `json:"actual_completed_at,omitempty"` // UTC
	UserTimezone          string                `json:"user_timezone"`
	GenerationID          string                `json:"generation_id,omitempty"`
	CreatedAt             time.Time             `json:"created_at"`
}

// IsAdHoc reports whether the entry was created by a completion log rather than generation.
func (e DailyScheduleEntry) IsAdHoc() bool {
	return e.GenerationID == ""
}

// ScheduleAdjustment is one ledger record of a scheduled-time change.
type ScheduleAdjustment struct {
	ID                    int64      `json:"id"`
	UserID                int64      `json:"user_id"`
	TaskName              string     `json:"task_name"`
	PreviousScheduledTime *TimeOfDay `json:"previous_scheduled_time,omitempty"`
	NewScheduledTime      TimeOfDay  `json:"new_scheduled_time"`
	Reason                string     `json:"reason"`
	EffectiveDate         string     `json:"effective_date"` // YYYY-MM-DD format
	CreatedAt             time.Time  `json:"created_at"`
}

// GenerationBatch is everything one generation run writes, committed as a unit.
type GenerationBatch struct {
	ID          string
	UserID      int64
	Date        string
	Entries     []DailyScheduleEntry
	Adjustments []ScheduleAdjustment
}

// CompletionLog records how one task was actually done on one date.
type CompletionLog struct {
	UserID       int64
	TaskName     string
	LogDate      string
	Completed    bool
	CompletedAt  time.Time // UTC
	UserTimezone string
}
