package adjuster

import (
	"fmt"

	"github.com/julianstephens/gradually/internal/constants"
	"github.com/julianstephens/gradually/internal/models"
)

// Adjuster nudges a scheduled time toward its goal by a fixed step per cycle.
//
// Minutes are compared on a numberline that starts at DayStartMin rather than at
// midnight, so a task whose samples and goal straddle 00:00 can be compared
// correctly by moving the day start past them. With the default day start of
// 00:00 this is plain minute-of-day arithmetic.
type Adjuster struct {
	StepMin     int
	DayStartMin int
}

// New creates an Adjuster with the default 5 minute step and a 00:00 day start.
func New() *Adjuster {
	return &Adjuster{StepMin: constants.DefaultStepMinutes}
}

// WithDayStart returns an Adjuster whose numberline begins at dayStart (HH:MM or HH:MM:SS).
func WithDayStart(stepMin int, dayStart string) (*Adjuster, error) {
	if stepMin <= 0 {
		return nil, fmt.Errorf("adjustment step must be positive, got %d", stepMin)
	}
	start, err := models.ParseTimeOfDay(dayStart)
	if err != nil {
		return nil, fmt.Errorf("invalid day start: %w", err)
	}
	return &Adjuster{StepMin: stepMin, DayStartMin: start.MinuteOfDay()}, nil
}

// Adjust computes the next scheduled time from the current one, the goal and
// recently observed completion times. The mean uses floor division.
func (a *Adjuster) Adjust(current models.TimeOfDay, goal *models.TimeOfDay, samples []models.TimeOfDay) (models.TimeOfDay, string) {
	if goal == nil || len(samples) == 0 {
		return current, constants.ReasonNoChange
	}

	sum := 0
	for _, s := range samples {
		sum += a.position(s)
	}
	mean := sum / len(samples)
	target := a.position(*goal)

	switch {
	case mean < target:
		return current.AddMinutes(-a.step()), constants.ReasonShiftEarlier
	case mean > target:
		return current.AddMinutes(a.step()), constants.ReasonShiftLater
	default:
		return current, constants.ReasonNoChange
	}
}

// position maps a time onto the shifted numberline, in minutes.
func (a *Adjuster) position(t models.TimeOfDay) int {
	return (t.MinuteOfDay() - a.DayStartMin + constants.MinutesPerDay) % constants.MinutesPerDay
}

func (a *Adjuster) step() int {
	if a.StepMin <= 0 {
		return constants.DefaultStepMinutes
	}
	return a.StepMin
}
