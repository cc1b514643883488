package constants

import "time"

// EntryStatus represents the completion state of a daily schedule entry
type EntryStatus string

// SuggestionStatus represents the lifecycle state of a habit adjustment suggestion
type SuggestionStatus string

const (
	AppName            = "gradually"
	DefaultKeyringUser = "database-connection"
	APITokenKeyringKey = "api-token"
	DefaultConfigPath  = "~/.config/gradually/gradually.db"
	Version            = "v0.1.0"

	// DBConnectionEnvVar holds a PostgreSQL connection string when no keyring entry exists
	DBConnectionEnvVar = "GRADUALLY_DB_CONNECTION"
	// APITokenEnvVar holds the bearer token required by the HTTP API
	APITokenEnvVar = "GRADUALLY_API_TOKEN"

	// Runner constants
	RunnerLockfileName = "gradually-runner.lock"

	// Entry Status constants
	StatusPending   EntryStatus = "pending"
	StatusCompleted EntryStatus = "completed"

	// Suggestion Status constants
	SuggestionPending  SuggestionStatus = "pending"
	SuggestionAccepted SuggestionStatus = "accepted"
	SuggestionRejected SuggestionStatus = "rejected"

	// Adjustment reasons
	ReasonNoChange     = "No change"
	ReasonShiftEarlier = "Shifted earlier toward goal time"
	ReasonShiftLater   = "Shifted later based on completion trends"
	ReasonAIPrefix     = "AI suggestion: "

	// Engine defaults
	DefaultTimezone          = "UTC" // fallback for users without a stored timezone
	DefaultLookbackDays      = 7
	DefaultStepMinutes       = 5
	DefaultDayStart          = "00:00"
	DefaultRunnerSpec        = "*/15 * * * *"
	DefaultRunnerConcurrency = 4
	DefaultSuggestionTimeout = 30 * time.Second
	DefaultListenAddr        = ":8080"
)
