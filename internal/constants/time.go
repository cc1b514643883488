package constants

const (
	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time-of-day format used for storage and output (HH:MM:SS)
	TimeFormat = "15:04:05"

	// ShortTimeFormat is accepted on input wherever a time-of-day is expected (HH:MM)
	ShortTimeFormat = "15:04"

	// MinutesPerDay is the length of the minute-of-day numberline
	MinutesPerDay = 24 * 60
)
