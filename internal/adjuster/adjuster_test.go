package adjuster

import (
	"testing"

	"github.com/julianstephens/gradually/internal/constants"
	"github.com/julianstephens/gradually/internal/models"
)

func times(ss ...string) []models.TimeOfDay {
	out := make([]models.TimeOfDay, 0, len(ss))
	for _, s := range ss {
		out = append(out, models.MustParseTimeOfDay(s))
	}
	return out
}

func TestAdjust(t *testing.T) {
	goal := models.TimePtr(models.MustParseTimeOfDay("08:00:00"))

	tests := []struct {
		name       string
		current    string
		goal       *models.TimeOfDay
		samples    []models.TimeOfDay
		wantTime   string
		wantReason string
	}{
		{
			name:       "mean later than goal shifts later",
			current:    "09:30:00",
			goal:       goal,
			samples:    times("08:50:00", "09:10:00"),
			wantTime:   "09:35:00",
			wantReason: constants.ReasonShiftLater,
		},
		{
			name:       "mean earlier than goal shifts earlier",
			current:    "09:30:00",
			goal:       goal,
			samples:    times("07:40:00", "07:50:00"),
			wantTime:   "09:25:00",
			wantReason: constants.ReasonShiftEarlier,
		},
		{
			name:       "no samples",
			current:    "09:30:00",
			goal:       goal,
			samples:    nil,
			wantTime:   "09:30:00",
			wantReason: constants.ReasonNoChange,
		},
		{
			name:       "no goal",
			current:    "09:30:00",
			goal:       nil,
			samples:    times("07:40:00"),
			wantTime:   "09:30:00",
			wantReason: constants.ReasonNoChange,
		},
		{
			name:       "mean equals goal",
			current:    "09:30:00",
			goal:       goal,
			samples:    times("07:50:00", "08:10:00"),
			wantTime:   "09:30:00",
			wantReason: constants.ReasonNoChange,
		},
		{
			name:    "floor division truncates the mean",
			current: "09:30:00",
			goal:    goal,
			// (479 + 480) / 2 = 479.5 -> 479, earlier than 480
			samples:    times("07:59:00", "08:00:00"),
			wantTime:   "09:25:00",
			wantReason: constants.ReasonShiftEarlier,
		},
		{
			name:       "seconds are ignored in the mean",
			current:    "09:30:00",
			goal:       goal,
			samples:    times("08:00:59"),
			wantTime:   "09:30:00",
			wantReason: constants.ReasonNoChange,
		},
		{
			name:       "step is fixed regardless of divergence",
			current:    "09:30:00",
			goal:       goal,
			samples:    times("11:00:00", "12:00:00"),
			wantTime:   "09:35:00",
			wantReason: constants.ReasonShiftLater,
		},
	}

	a := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := a.Adjust(models.MustParseTimeOfDay(tt.current), tt.goal, tt.samples)
			if got.String() != tt.wantTime {
				t.Errorf("Adjust() time = %s, want %s", got, tt.wantTime)
			}
			if reason != tt.wantReason {
				t.Errorf("Adjust() reason = %q, want %q", reason, tt.wantReason)
			}
		})
	}
}

func TestAdjustAcrossMidnight(t *testing.T) {
	goal := models.TimePtr(models.MustParseTimeOfDay("23:30:00"))
	samples := times("01:50:00", "02:10:00")
	current := models.MustParseTimeOfDay("02:00:00")

	// On the raw minute-of-day line 02:00 reads as earlier than 23:30.
	raw := New()
	got, reason := raw.Adjust(current, goal, samples)
	if got.String() != "01:55:00" || reason != constants.ReasonShiftEarlier {
		t.Errorf("raw numberline: got %s %q", got, reason)
	}

	// Starting the day at 12:00 puts the late-night samples after the goal.
	shifted, err := WithDayStart(5, "12:00")
	if err != nil {
		t.Fatalf("WithDayStart failed: %v", err)
	}
	got, reason = shifted.Adjust(current, goal, samples)
	if got.String() != "02:05:00" || reason != constants.ReasonShiftLater {
		t.Errorf("shifted numberline: got %s %q", got, reason)
	}
}

func TestAdjustWrapsScheduledTime(t *testing.T) {
	goal := models.TimePtr(models.MustParseTimeOfDay("06:00:00"))
	got, _ := New().Adjust(models.MustParseTimeOfDay("00:02:00"), goal, times("05:00:00"))
	if got.String() != "23:57:00" {
		t.Errorf("Adjust() = %s, want 23:57:00", got)
	}
}

func TestWithDayStartValidation(t *testing.T) {
	if _, err := WithDayStart(0, "00:00"); err == nil {
		t.Error("expected error for zero step")
	}
	if _, err := WithDayStart(5, "25:00"); err == nil {
		t.Error("expected error for invalid day start")
	}
}
