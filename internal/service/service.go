// Package service exposes the boundary operations of the engine. It owns the
// conversion between user-local wall-clock times and canonical storage times;
// everything below it works in UTC.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/gradually/internal/constants"
	apperrors "github.com/julianstephens/gradually/internal/errors"
	"github.com/julianstephens/gradually/internal/ledger"
	"github.com/julianstephens/gradually/internal/models"
	"github.com/julianstephens/gradually/internal/scheduler"
	"github.com/julianstephens/gradually/internal/storage"
	"github.com/julianstephens/gradually/internal/suggestion"
	"github.com/julianstephens/gradually/internal/tz"
	"github.com/julianstephens/gradually/internal/utils"
	"github.com/julianstephens/gradually/internal/validation"
)

type Service struct {
	store             storage.Provider
	generator         *scheduler.Generator
	ledger            *ledger.Ledger
	workflow          *suggestion.Workflow
	validator         *validation.Validator
	source            suggestion.Source
	suggestionTimeout time.Duration
	generatorOpts     []scheduler.Option
	now               func() time.Time
}

type Option func(*Service)

// WithGeneratorOptions passes options through to the schedule generator.
func WithGeneratorOptions(opts ...scheduler.Option) Option {
	return func(s *Service) { s.generatorOpts = append(s.generatorOpts, opts...) }
}

// WithSource sets the suggestion source used by RequestSuggestions.
func WithSource(src suggestion.Source) Option {
	return func(s *Service) { s.source = src }
}

// WithSuggestionTimeout bounds each call to the suggestion source.
func WithSuggestionTimeout(d time.Duration) Option {
	return func(s *Service) { s.suggestionTimeout = d }
}

// WithClock overrides the wall clock used for "today" and "now".
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(store storage.Provider, opts ...Option) *Service {
	s := &Service{
		store:             store,
		ledger:            ledger.New(store),
		workflow:          suggestion.NewWorkflow(store),
		validator:         validation.New(),
		suggestionTimeout: constants.DefaultSuggestionTimeout,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.generator = scheduler.New(store, s.generatorOpts...)
	return s
}

// Store returns the underlying provider.
func (s *Service) Store() storage.Provider {
	return s.store
}

// Ping runs a trivial query against the database.
func (s *Service) Ping(ctx context.Context) error {
	h, ok := s.store.(interface{ GetDB() *sql.DB })
	if !ok {
		return nil
	}
	db := h.GetDB()
	if db == nil {
		return storage.ErrNotInitialized
	}
	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	return nil
}

// AddUser registers a user. An empty timezone defaults to UTC.
func (s *Service) AddUser(ctx context.Context, username, timezone string) (models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.User{}, apperrors.Invalid("username is required")
	}
	if timezone == "" {
		timezone = constants.DefaultTimezone
	}
	if err := tz.Validate(timezone); err != nil {
		return models.User{}, err
	}
	return s.store.AddUser(ctx, models.User{Username: username, Timezone: timezone})
}

func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.store.ListUsers(ctx)
}

// LookupUser resolves a user by username.
func (s *Service) LookupUser(ctx context.Context, username string) (models.User, error) {
	user, err := s.store.GetUserByName(ctx, username)
	if errors.Is(err, storage.ErrNotFound) {
		return models.User{}, fmt.Errorf("user %q: %w", username, storage.ErrNotFound)
	}
	return user, err
}

// userZone returns the stored timezone of a user, or UTC when none is stored.
func userZone(user models.User) string {
	if user.Timezone == "" {
		return constants.DefaultTimezone
	}
	return user.Timezone
}

// resolveDay fills in the zone and date for a per-user call: an empty zone
// means the user's stored zone, an empty date means today in that zone.
func (s *Service) resolveDay(ctx context.Context, userID int64, zone, date string) (models.User, string, string, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return models.User{}, "", "", err
	}
	if zone == "" {
		zone = userZone(user)
	}
	if err := tz.Validate(zone); err != nil {
		return models.User{}, "", "", err
	}
	if date == "" {
		date, err = tz.Today(s.now(), zone)
		if err != nil {
			return models.User{}, "", "", err
		}
	} else if !utils.ValidateDateFormat(date) {
		return models.User{}, "", "", apperrors.Invalid("invalid date %q (expected YYYY-MM-DD)", date)
	}
	return user, zone, date, nil
}
