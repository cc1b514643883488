package validation

import (
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/julianstephens/gradually/internal/errors"
	"github.com/julianstephens/gradually/internal/models"
	"github.com/julianstephens/gradually/internal/tz"
)

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	ConflictEmptyTaskName     ConflictType = "empty_task_name"
	ConflictDuplicateTaskName ConflictType = "duplicate_task_name"
	ConflictInvalidTime       ConflictType = "invalid_time"
	ConflictInvalidTimezone   ConflictType = "invalid_timezone"
)

// Conflict represents a detected problem in a baseline
type Conflict struct {
	Type        ConflictType `json:"type"`
	Description string       `json:"description"`
	Items       []string     `json:"items,omitempty"` // Task names involved
	Index       int          `json:"index"`           // Position in the submitted list, -1 if not row-specific
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict `json:"conflicts"`
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	var b strings.Builder
	b.WriteString("Conflicts detected:\n")
	for _, conflict := range vr.Conflicts {
		fmt.Fprintf(&b, "- %s\n", conflict.Description)
	}
	return b.String()
}

// Err returns the result as an *Error, or nil when there are no conflicts.
func (vr ValidationResult) Err() error {
	if !vr.HasConflicts() {
		return nil
	}
	return &Error{Result: vr}
}

// Error is returned when a baseline fails validation. It unwraps to
// apperrors.ErrInvalidInput.
type Error struct {
	Result ValidationResult
}

func (e *Error) Error() string {
	descs := make([]string, len(e.Result.Conflicts))
	for i, c := range e.Result.Conflicts {
		descs[i] = c.Description
	}
	return "invalid baseline: " + strings.Join(descs, "; ")
}

func (e *Error) Unwrap() error {
	return apperrors.ErrInvalidInput
}

// TaskInput is one baseline row as supplied by a caller, before parsing.
// Times are wall-clock readings in the baseline's timezone.
type TaskInput struct {
	TaskName      string `json:"task_name"`
	ScheduledTime string `json:"scheduled_time"`
	GoalTime      string `json:"goal_time,omitempty"`
}

// ParsedTask is a TaskInput that passed validation.
type ParsedTask struct {
	TaskName      string
	ScheduledTime models.TimeOfDay
	GoalTime      *models.TimeOfDay
}

// Validator validates baselines before they replace a user's snapshot
type Validator struct{}

// New creates a new Validator
func New() *Validator {
	return &Validator{}
}

// ValidateBaseline checks a submitted baseline. An empty list is valid and
// clears the user's baseline.
func (v *Validator) ValidateBaseline(timezone string, tasks []TaskInput) ([]ParsedTask, ValidationResult) {
	result := ValidationResult{Conflicts: []Conflict{}}

	if err := tz.Validate(timezone); err != nil {
		result.Conflicts = append(result.Conflicts, Conflict{
			Type:        ConflictInvalidTimezone,
			Description: fmt.Sprintf("Invalid timezone: %q", timezone),
			Index:       -1,
		})
	}

	// Check for duplicate task names
	nameIdx := make(map[string][]int)
	for i, task := range tasks {
		name := strings.TrimSpace(task.TaskName)
		if name == "" {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictEmptyTaskName,
				Description: fmt.Sprintf("Task #%d has no name", i+1),
				Index:       i,
			})
			continue
		}
		nameIdx[name] = append(nameIdx[name], i)
	}

	names := make([]string, 0, len(nameIdx))
	for name := range nameIdx {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if idx := nameIdx[name]; len(idx) > 1 {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictDuplicateTaskName,
				Description: fmt.Sprintf("Duplicate task name: %q (rows: %s)", name, formatRows(idx)),
				Items:       []string{name},
				Index:       idx[1],
			})
		}
	}

	parsed := make([]ParsedTask, 0, len(tasks))
	for i, task := range tasks {
		name := strings.TrimSpace(task.TaskName)
		pt := ParsedTask{TaskName: name}

		scheduled, err := models.ParseTimeOfDay(task.ScheduledTime)
		if err != nil {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictInvalidTime,
				Description: fmt.Sprintf("Task %q has invalid scheduled_time: %q", name, task.ScheduledTime),
				Items:       []string{name},
				Index:       i,
			})
		}
		pt.ScheduledTime = scheduled

		if strings.TrimSpace(task.GoalTime) != "" {
			goal, err := models.ParseTimeOfDay(task.GoalTime)
			if err != nil {
				result.Conflicts = append(result.Conflicts, Conflict{
					Type:        ConflictInvalidTime,
					Description: fmt.Sprintf("Task %q has invalid goal_time: %q", name, task.GoalTime),
					Items:       []string{name},
					Index:       i,
				})
			} else {
				pt.GoalTime = &goal
			}
		}

		parsed = append(parsed, pt)
	}

	if result.HasConflicts() {
		return nil, result
	}
	return parsed, result
}

func formatRows(idx []int) string {
	rows := make([]string, len(idx))
	for i, n := range idx {
		rows[i] = fmt.Sprint(n + 1)
	}
	return strings.Join(rows, ", ")
}
