package service

import (
	"context"
	"time"

	"github.com/julianstephens/gradually/internal/constants"
	"github.com/julianstephens/gradually/internal/logger"
	"github.com/julianstephens/gradually/internal/models"
	"github.com/julianstephens/gradually/internal/tz"
	"github.com/julianstephens/gradually/internal/validation"
)

// BaselineTaskView is a baseline row rendered in a caller's timezone
type BaselineTaskView struct {
	TaskName      string            `json:"task_name"`
	ScheduledTime models.TimeOfDay  `json:"scheduled_time"`
	GoalTime      *models.TimeOfDay `json:"goal_time,omitempty"`
	Timezone      string            `json:"timezone"`
}

// SetBaseline validates the tasks, canonicalizes their times from timezone
// using today's offset, and replaces the user's baseline in one transaction.
func (s *Service) SetBaseline(ctx context.Context, userID int64, timezone string, tasks []validation.TaskInput) ([]models.BaselineTask, error) {
	if timezone == "" {
		user, err := s.store.GetUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		timezone = userZone(user)
	}

	parsed, result := s.validator.ValidateBaseline(timezone, tasks)
	if err := result.Err(); err != nil {
		return nil, err
	}

	anchor := s.now()
	baseline := make([]models.BaselineTask, 0, len(parsed))
	for _, p := range parsed {
		scheduled, err := tz.ToCanonical(p.ScheduledTime, timezone, anchor)
		if err != nil {
			return nil, err
		}
		goal, err := tz.ToCanonicalPtr(p.GoalTime, timezone, anchor)
		if err != nil {
			return nil, err
		}
		baseline = append(baseline, models.BaselineTask{
			UserID:        userID,
			TaskName:      p.TaskName,
			ScheduledTime: scheduled,
			GoalTime:      goal,
			UserTimezone:  timezone,
		})
	}

	if err := s.store.ReplaceBaseline(ctx, userID, timezone, baseline); err != nil {
		return nil, err
	}

	logger.Info("Baseline replaced", "user_id", userID, "tasks", len(baseline), "timezone", timezone)
	return baseline, nil
}

// GetBaseline renders the baseline in timezone, or in each task's own stored
// timezone when timezone is empty.
func (s *Service) GetBaseline(ctx context.Context, userID int64, timezone string) ([]BaselineTaskView, error) {
	if timezone != "" {
		if err := tz.Validate(timezone); err != nil {
			return nil, err
		}
	}

	tasks, err := s.store.GetBaseline(ctx, userID)
	if err != nil {
		return nil, err
	}

	anchor := s.now()
	views := make([]BaselineTaskView, 0, len(tasks))
	for _, task := range tasks {
		zone := timezone
		if zone == "" {
			zone = task.UserTimezone
		}
		if zone == "" {
			zone = constants.DefaultTimezone
		}
		view, err := renderBaseline(task, zone, anchor)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func renderBaseline(task models.BaselineTask, zone string, anchor time.Time) (BaselineTaskView, error) {
	scheduled, err := tz.ToLocal(task.ScheduledTime, zone, anchor)
	if err != nil {
		return BaselineTaskView{}, err
	}
	goal, err := tz.ToLocalPtr(task.GoalTime, zone, anchor)
	if err != nil {
		return BaselineTaskView{}, err
	}
	return BaselineTaskView{
		TaskName:      task.TaskName,
		ScheduledTime: scheduled,
		GoalTime:      goal,
		Timezone:      zone,
	}, nil
}
