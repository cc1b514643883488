package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/gradually/internal/constants"
)

const secondsPerDay = 24 * 60 * 60

// TimeOfDay is a wall-clock time with second precision, stored as seconds since midnight.
// It carries no date or zone; the zone is implied by context (canonical UTC at rest).
type TimeOfDay int

// NewTimeOfDay builds a TimeOfDay from its components.
func NewTimeOfDay(hour, minute, second int) TimeOfDay {
	return TimeOfDay(hour*3600 + minute*60 + second)
}

// ParseTimeOfDay parses "H:MM:SS", "HH:MM:SS" or "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid time of day %q (expected HH:MM:SS)", s)
	}

	limits := []int{23, 59, 59}
	values := make([]int, 3)
	for i, p := range parts {
		if p == "" || len(p) > 2 || (i > 0 && len(p) != 2) {
			return 0, fmt.Errorf("invalid time of day %q (expected HH:MM:SS)", s)
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > limits[i] {
			return 0, fmt.Errorf("invalid time of day %q (expected HH:MM:SS)", s)
		}
		values[i] = n
	}

	return NewTimeOfDay(values[0], values[1], values[2]), nil
}

// MustParseTimeOfDay is ParseTimeOfDay for literals known to be valid.
func MustParseTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// TimeOfDayFromTime extracts the clock reading of t in t's own location.
func TimeOfDayFromTime(t time.Time) TimeOfDay {
	return NewTimeOfDay(t.Hour(), t.Minute(), t.Second())
}

func (t TimeOfDay) Hour() int   { return int(t) / 3600 }
func (t TimeOfDay) Minute() int { return (int(t) % 3600) / 60 }
func (t TimeOfDay) Second() int { return int(t) % 60 }

// MinuteOfDay returns the whole minutes since midnight; seconds are truncated.
func (t TimeOfDay) MinuteOfDay() int {
	return int(t) / 60
}

// AddMinutes shifts the time by n minutes, wrapping around midnight.
func (t TimeOfDay) AddMinutes(n int) TimeOfDay {
	s := (int(t) + n*60) % secondsPerDay
	if s < 0 {
		s += secondsPerDay
	}
	return TimeOfDay(s)
}

// On anchors the time of day to the calendar date of day in loc.
func (t TimeOfDay) On(day time.Time, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc)
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second())
}

// Short formats the time as HH:MM.
func (t TimeOfDay) Short() string {
	return t.On(time.Time{}, time.UTC).Format(constants.ShortTimeFormat)
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// TimePtr returns a pointer to t, for optional fields.
func TimePtr(t TimeOfDay) *TimeOfDay {
	return &t
}

// FormatOptional renders an optional time, or "" when absent.
func FormatOptional(t *TimeOfDay) string {
	if t == nil {
		return ""
	}
	return t.String()
}
