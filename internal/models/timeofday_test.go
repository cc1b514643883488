package models

import (
	"encoding/json"
	"testing"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"07:45:00", "07:45:00", false},
		{"7:45:00", "07:45:00", false},
		{"23:59:59", "23:59:59", false},
		{"08:30", "08:30:00", false},
		{" 09:00:00 ", "09:00:00", false},
		{"24:00:00", "", true},
		{"12:60:00", "", true},
		{"12:00:60", "", true},
		{"12:0:00", "", true},
		{"noon", "", true},
		{"", "", true},
		{"1:2:3:4", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseTimeOfDay(%q) expected error, got %s", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTimeOfDay(%q) unexpected error: %v", tt.input, err)
			}
			if got.String() != tt.want {
				t.Errorf("ParseTimeOfDay(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestTimeOfDayAddMinutesWraps(t *testing.T) {
	tests := []struct {
		start string
		delta int
		want  string
	}{
		{"09:30:00", 5, "09:35:00"},
		{"09:30:00", -5, "09:25:00"},
		{"23:58:00", 5, "00:03:00"},
		{"00:02:00", -5, "23:57:00"},
	}

	for _, tt := range tests {
		got := MustParseTimeOfDay(tt.start).AddMinutes(tt.delta)
		if got.String() != tt.want {
			t.Errorf("%s + %d min = %s, want %s", tt.start, tt.delta, got, tt.want)
		}
	}
}

func TestTimeOfDayMinuteOfDayTruncatesSeconds(t *testing.T) {
	if got := MustParseTimeOfDay("08:50:59").MinuteOfDay(); got != 8*60+50 {
		t.Errorf("MinuteOfDay() = %d, want %d", got, 8*60+50)
	}
}

func TestTimeOfDayJSON(t *testing.T) {
	entry := DailyScheduleEntry{TaskName: "Wake Up", ScheduledTime: TimePtr(MustParseTimeOfDay("07:45:00"))}
	data, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded DailyScheduleEntry
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.ScheduledTime == nil || decoded.ScheduledTime.String() != "07:45:00" {
		t.Errorf("round-tripped scheduled time = %v, want 07:45:00", decoded.ScheduledTime)
	}
	if decoded.GoalTime != nil {
		t.Errorf("expected nil goal time, got %v", decoded.GoalTime)
	}
}
