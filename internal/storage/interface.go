package storage

import (
	"context"

	"github.com/julianstephens/gradually/internal/constants"
	"github.com/julianstephens/gradually/internal/models"
)

// Resolution describes the outcome of accepting or rejecting a suggestion.
type Resolution struct {
	Suggestion   models.HabitSuggestion
	EntryUpdated bool
	Adjustment   *models.ScheduleAdjustment
}

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error
	// Migrate applies pending schema migrations, reporting progress to logFn.
	Migrate(logFn func(string)) (int, error)

	// Users
	AddUser(ctx context.Context, user models.User) (models.User, error)
	GetUser(ctx context.Context, id int64) (models.User, error)
	GetUserByName(ctx context.Context, username string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)

	// Baseline
	// ReplaceBaseline deletes the user's existing baseline and inserts tasks in a
	// single transaction, recording timezone on the user.
	ReplaceBaseline(ctx context.Context, userID int64, timezone string, tasks []models.BaselineTask) error
	GetBaseline(ctx context.Context, userID int64) ([]models.BaselineTask, error)

	// Daily schedule entries
	HasPlannedEntries(ctx context.Context, userID int64, date string) (bool, error)
	GetEntry(ctx context.Context, userID int64, taskName, date string) (models.DailyScheduleEntry, error)
	GetEntriesForDate(ctx context.Context, userID int64, date string) ([]models.DailyScheduleEntry, error)
	// GetLatestScheduledEntry returns the most recent entry for the task dated
	// strictly before the given date that carries a scheduled time.
	GetLatestScheduledEntry(ctx context.Context, userID int64, taskName, before string) (models.DailyScheduleEntry, error)
	// GetCompletedEntries returns completed entries with an actual completion
	// time whose log date falls in [from, to).
	GetCompletedEntries(ctx context.Context, userID int64, from, to string) ([]models.DailyScheduleEntry, error)
	// CommitGeneration writes a planned batch and its ledger records atomically.
	// It returns ErrAlreadyGenerated if a planned batch already exists for the date.
	CommitGeneration(ctx context.Context, batch models.GenerationBatch) error
	// LogCompletion updates the matching entry or creates an ad-hoc one.
	LogCompletion(ctx context.Context, log models.CompletionLog) (models.DailyScheduleEntry, error)

	// Adjustment ledger. Records are only written by CommitGeneration and
	// ResolveSuggestion, inside their transactions.
	GetAdjustmentHistory(ctx context.Context, userID int64) ([]models.ScheduleAdjustment, error)

	// Suggestions
	AddSuggestions(ctx context.Context, suggestions []models.HabitSuggestion) ([]models.HabitSuggestion, error)
	GetPendingSuggestion(ctx context.Context, userID int64, habit string) (models.HabitSuggestion, error)
	ListSuggestions(ctx context.Context, userID int64, status constants.SuggestionStatus) ([]models.HabitSuggestion, error)
	// ResolveSuggestion moves a pending suggestion to accepted or rejected. On
	// acceptance it also updates the matching entry's scheduled time and, when the
	// time changed, appends a ledger record carrying ledgerReason. It returns
	// ErrSuggestionNotPending if the suggestion was already consumed.
	ResolveSuggestion(ctx context.Context, id int64, decision constants.SuggestionStatus, ledgerReason string) (Resolution, error)

	// Diagnostics
	CountDuplicateEntries(ctx context.Context) (int, error)
	SchemaUpToDate() (bool, error)

	// Utils
	GetConfigPath() string
}
