package utils

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid date", input: "2025-03-09", wantErr: false},
		{name: "leap day", input: "2024-02-29", wantErr: false},
		{name: "invalid leap day", input: "2025-02-29", wantErr: true},
		{name: "wrong separator", input: "2025/03/09", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseDate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestAddDays(t *testing.T) {
	tests := []struct {
		date string
		n    int
		want string
	}{
		{"2025-03-09", -7, "2025-03-02"},
		{"2025-03-01", -1, "2025-02-28"},
		{"2024-12-31", 1, "2025-01-01"},
		{"2025-06-15", 0, "2025-06-15"},
	}

	for _, tt := range tests {
		got, err := AddDays(tt.date, tt.n)
		if err != nil {
			t.Fatalf("AddDays(%q, %d) unexpected error: %v", tt.date, tt.n, err)
		}
		if got != tt.want {
			t.Errorf("AddDays(%q, %d) = %s, want %s", tt.date, tt.n, got, tt.want)
		}
	}

	if _, err := AddDays("not-a-date", 1); err == nil {
		t.Error("AddDays() expected error for invalid date")
	}
}

func TestTodayIn(t *testing.T) {
	// 2025-06-15 03:00 UTC is still June 14th in Chicago
	now := time.Date(2025, 6, 15, 3, 0, 0, 0, time.UTC)
	chicago, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	if got := TodayIn(now, chicago); got != "2025-06-14" {
		t.Errorf("TodayIn(Chicago) = %s, want 2025-06-14", got)
	}
	if got := TodayIn(now, time.UTC); got != "2025-06-15" {
		t.Errorf("TodayIn(UTC) = %s, want 2025-06-15", got)
	}
}
