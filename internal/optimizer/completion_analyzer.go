package optimizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/julianstephens/gradually/internal/constants"
	"github.com/julianstephens/gradually/internal/models"
)

// OptimizationType represents the type of optimization suggested
type OptimizationType string

const (
	OptimizationFollowActual OptimizationType = "follow_actual"
	OptimizationTowardGoal   OptimizationType = "toward_goal"
)

// Optimization represents a suggested time change for a habit
type Optimization struct {
	Habit          string            `json:"habit"`
	Type           OptimizationType  `json:"type"`
	Reason         string            `json:"reason"`
	CurrentValue   *models.TimeOfDay `json:"current_value,omitempty"`
	SuggestedValue models.TimeOfDay  `json:"suggested_value"`
}

// Line renders the optimization as "<habit>: <HH:MM:SS> - <reason>"
func (o Optimization) Line() string {
	return fmt.Sprintf("%s: %s - %s", o.Habit, o.SuggestedValue, o.Reason)
}

// CompletionAnalyzer is a fixed-ruleset suggestion source. It compares each
// habit's scheduled time with when it was actually completed and with its goal.
type CompletionAnalyzer struct {
	// DriftThresholdMin is how far off schedule a completion must land before
	// the schedule is pulled toward it.
	DriftThresholdMin int
	// GoalStepMin is how far an on-time habit is moved toward its goal.
	GoalStepMin int
}

// NewCompletionAnalyzer creates an analyzer with a 15 minute drift threshold
// and a 10 minute goal step.
func NewCompletionAnalyzer() *CompletionAnalyzer {
	return &CompletionAnalyzer{DriftThresholdMin: 15, GoalStepMin: 10}
}

// Analyze returns at most one optimization per habit.
func (ca *CompletionAnalyzer) Analyze(habits []models.HabitData) []Optimization {
	var optimizations []Optimization
	for _, h := range habits {
		if opt, ok := ca.analyzeHabit(h); ok {
			optimizations = append(optimizations, opt)
		}
	}
	return optimizations
}

func (ca *CompletionAnalyzer) analyzeHabit(h models.HabitData) (Optimization, bool) {
	if h.ScheduledTime == nil || strings.TrimSpace(h.Habit) == "" {
		return Optimization{}, false
	}
	scheduled := *h.ScheduledTime

	// Completed well off schedule: meet the habit halfway toward reality
	if h.Status == constants.StatusCompleted && h.ActualCompletedAt != nil {
		drift := signedMinutes(*h.ActualCompletedAt, scheduled)
		if abs(drift) >= ca.DriftThresholdMin {
			direction := "later"
			if drift < 0 {
				direction = "earlier"
			}
			return Optimization{
				Habit:          h.Habit,
				Type:           OptimizationFollowActual,
				Reason:         fmt.Sprintf("completed %d minutes %s than scheduled", abs(drift), direction),
				CurrentValue:   h.ScheduledTime,
				SuggestedValue: scheduled.AddMinutes(drift / 2),
			}, true
		}
	}

	// Completed on time: push a little further toward the goal
	if h.Status == constants.StatusCompleted && h.GoalTime != nil {
		gap := signedMinutes(*h.GoalTime, scheduled)
		if gap == 0 {
			return Optimization{}, false
		}
		step := ca.GoalStepMin
		if abs(gap) < step {
			step = abs(gap)
		}
		if gap < 0 {
			step = -step
		}
		return Optimization{
			Habit:          h.Habit,
			Type:           OptimizationTowardGoal,
			Reason:         fmt.Sprintf("on track, %d minutes from goal %s", abs(gap), h.GoalTime.Short()),
			CurrentValue:   h.ScheduledTime,
			SuggestedValue: scheduled.AddMinutes(step),
		}, true
	}

	return Optimization{}, false
}

// GenerateSuggestions implements suggestion.Source.
func (ca *CompletionAnalyzer) GenerateSuggestions(ctx context.Context, habits []models.HabitData) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	opts := ca.Analyze(habits)
	lines := make([]string, 0, len(opts))
	for _, o := range opts {
		lines = append(lines, o.Line())
	}
	return strings.Join(lines, "\n"), nil
}

// signedMinutes returns the shortest signed distance from b to a, in minutes,
// within [-720, 720).
func signedMinutes(a, b models.TimeOfDay) int {
	d := (a.MinuteOfDay() - b.MinuteOfDay()) % constants.MinutesPerDay
	if d < -constants.MinutesPerDay/2 {
		d += constants.MinutesPerDay
	}
	if d >= constants.MinutesPerDay/2 {
		d -= constants.MinutesPerDay
	}
	return d
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
