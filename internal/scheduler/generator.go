// Package scheduler materializes a user's baseline into the daily schedule for
// one date, nudging each task toward its goal from recent completion history.
package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/julianstephens/gradually/internal/adjuster"
	"github.com/julianstephens/gradually/internal/constants"
	apperrors "github.com/julianstephens/gradually/internal/errors"
	"github.com/julianstephens/gradually/internal/ledger"
	"github.com/julianstephens/gradually/internal/logger"
	"github.com/julianstephens/gradually/internal/models"
	"github.com/julianstephens/gradually/internal/storage"
	"github.com/julianstephens/gradually/internal/utils"
)

// Store is the storage the generator needs
type Store interface {
	HistoryStore
	GetUser(ctx context.Context, id int64) (models.User, error)
	GetBaseline(ctx context.Context, userID int64) ([]models.BaselineTask, error)
	HasPlannedEntries(ctx context.Context, userID int64, date string) (bool, error)
	GetLatestScheduledEntry(ctx context.Context, userID int64, taskName, before string) (models.DailyScheduleEntry, error)
	CommitGeneration(ctx context.Context, batch models.GenerationBatch) error
}

// Outcome distinguishes a fresh generation from an idempotent repeat
type Outcome int

const (
	Created Outcome = iota
	AlreadyExists
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case AlreadyExists:
		return "already_exists"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// GenerationResult is what Generate returns. Count, BatchID and Adjustments
// are only set when Outcome is Created.
type GenerationResult struct {
	Outcome     Outcome                     `json:"outcome"`
	Count       int                         `json:"count"`
	BatchID     string                      `json:"batch_id,omitempty"`
	Adjustments []models.ScheduleAdjustment `json:"adjustments,omitempty"`
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

type Generator struct {
	store        Store
	history      *HistoryReader
	adjuster     *adjuster.Adjuster
	lookbackDays int
	newID        func() string
}

type Option func(*Generator)

// WithAdjuster replaces the default 5 minute, midnight-based adjuster.
func WithAdjuster(a *adjuster.Adjuster) Option {
	return func(g *Generator) { g.adjuster = a }
}

// WithLookbackDays sets the completion history window.
func WithLookbackDays(days int) Option {
	return func(g *Generator) { g.lookbackDays = days }
}

// WithIDFunc overrides batch id generation.
func WithIDFunc(fn func() string) Option {
	return func(g *Generator) { g.newID = fn }
}

func New(store Store, opts ...Option) *Generator {
	g := &Generator{
		store:        store,
		history:      NewHistoryReader(store),
		adjuster:     adjuster.New(),
		lookbackDays: constants.DefaultLookbackDays,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate builds and commits the planned batch for (userID, date). A second
// call for the same pair, including a concurrent one, returns AlreadyExists
// and writes nothing. Any storage failure rolls back the whole batch.
func (g *Generator) Generate(ctx context.Context, userID int64, date string) (GenerationResult, error) {
	if !utils.ValidateDateFormat(date) {
		return GenerationResult{}, apperrors.Invalid("invalid date %q (expected YYYY-MM-DD)", date)
	}

	exists, err := g.store.HasPlannedEntries(ctx, userID, date)
	if err != nil {
		return GenerationResult{}, fmt.Errorf("failed to check existing schedule: %w", err)
	}
	if exists {
		return GenerationResult{Outcome: AlreadyExists}, nil
	}

	user, err := g.store.GetUser(ctx, userID)
	if err != nil {
		return GenerationResult{}, err
	}

	baseline, err := g.store.GetBaseline(ctx, userID)
	if err != nil {
		return GenerationResult{}, fmt.Errorf("failed to load baseline: %w", err)
	}

	samples, err := g.history.RecentCompletions(ctx, userID, date, g.lookbackDays)
	if err != nil {
		return GenerationResult{}, err
	}

	batch := models.GenerationBatch{ID: g.newID(), UserID: userID, Date: date}
	for _, task := range baseline {
		previous, err := g.previousScheduled(ctx, userID, task.TaskName, date)
		if err != nil {
			return GenerationResult{}, err
		}

		scheduled, reason := g.adjuster.Adjust(task.ScheduledTime, task.GoalTime, samples[task.TaskName])

		entry := models.DailyScheduleEntry{
			UserID:        userID,
			TaskName:      task.TaskName,
			LogDate:       date,
			ScheduledTime: models.TimePtr(scheduled),
			GoalTime:      task.GoalTime,
			Status:        constants.StatusPending,
			UserTimezone:  zoneOf(task, user),
		}
		if adj, ok := ledger.NewRecord(userID, task.TaskName, previous, scheduled, reason, date); ok {
			entry.PreviousScheduledTime = adj.PreviousScheduledTime
			batch.Adjustments = append(batch.Adjustments, adj)
		}
		batch.Entries = append(batch.Entries, entry)
	}

	if len(batch.Entries) == 0 {
		logger.Debug("No baseline tasks to generate", "user_id", userID, "date", date)
		return GenerationResult{Outcome: Created}, nil
	}

	if err := g.store.CommitGeneration(ctx, batch); err != nil {
		if errors.Is(err, storage.ErrAlreadyGenerated) {
			return GenerationResult{Outcome: AlreadyExists}, nil
		}
		logger.Error("Generation rolled back", "user_id", userID, "date", date, "error", err)
		return GenerationResult{}, fmt.Errorf("failed to commit schedule for %s: %w", date, err)
	}

	logger.Info("Generated daily schedule",
		"user_id", userID, "date", date, "entries", len(batch.Entries),
		"adjustments", len(batch.Adjustments), "batch", batch.ID)

	return GenerationResult{
		Outcome:     Created,
		Count:       len(batch.Entries),
		BatchID:     batch.ID,
		Adjustments: batch.Adjustments,
	}, nil
}

func (g *Generator) previousScheduled(ctx context.Context, userID int64, task, date string) (*models.TimeOfDay, error) {
	prior, err := g.store.GetLatestScheduledEntry(ctx, userID, task, date)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load previous entry for %q: %w", task, err)
	}
	return prior.ScheduledTime, nil
}

func zoneOf(task models.BaselineTask, user models.User) string {
	if task.UserTimezone != "" {
		return task.UserTimezone
	}
	if user.Timezone != "" {
		return user.Timezone
	}
	return constants.DefaultTimezone
}
