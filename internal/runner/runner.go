// Package runner triggers schedule generation for every user on a cron
// schedule. It sits outside the engine and only calls its public entry point.
package runner

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/gradually/internal/constants"
	"github.com/julianstephens/gradually/internal/logger"
	"github.com/julianstephens/gradually/internal/models"
	"github.com/julianstephens/gradually/internal/scheduler"
	"github.com/julianstephens/gradually/internal/service"
)

// Generator is the part of the service the runner drives
type Generator interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	GenerateDailySchedule(ctx context.Context, userID int64, date string) (service.GenerateResult, error)
}

// Summary counts what one pass over the users did
type Summary struct {
	Users         int `json:"users"`
	Created       int `json:"created"`
	AlreadyExists int `json:"already_exists"`
	Failed        int `json:"failed"`
}

type Runner struct {
	gen         Generator
	spec        string
	concurrency int
	runOnStart  bool
}

type Option func(*Runner)

// WithSpec sets the cron expression (standard 5-field or @descriptor).
func WithSpec(spec string) Option {
	return func(r *Runner) { r.spec = spec }
}

// WithConcurrency bounds how many users are generated at once.
func WithConcurrency(n int) Option {
	return func(r *Runner) { r.concurrency = n }
}

// WithRunOnStart makes Start run one pass before waiting for the first tick.
func WithRunOnStart() Option {
	return func(r *Runner) { r.runOnStart = true }
}

func New(gen Generator, opts ...Option) *Runner {
	r := &Runner{
		gen:         gen,
		spec:        constants.DefaultRunnerSpec,
		concurrency: constants.DefaultRunnerConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.concurrency <= 0 {
		r.concurrency = 1
	}
	return r
}

// ValidateSpec reports whether spec is a cron expression the runner accepts.
func ValidateSpec(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid runner schedule %q: %w", spec, err)
	}
	return nil
}

// RunOnce generates today's schedule, in each user's own timezone, for every
// user. A failure for one user is logged and counted but does not stop the
// others; only a failure to list users or a cancelled context is returned.
func (r *Runner) RunOnce(ctx context.Context) (Summary, error) {
	users, err := r.gen.ListUsers(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to list users: %w", err)
	}

	var created, existing, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for _, user := range users {
		user := user // per-iteration copy; go.mod targets go1.21 loop semantics
		g.Go(func() error {
			if gctx.Err() != nil {
				failed.Add(1)
				return nil
			}
			res, err := r.gen.GenerateDailySchedule(gctx, user.ID, "")
			if err != nil {
				failed.Add(1)
				logger.Error("Scheduled generation failed", "user_id", user.ID, "user", user.Username, "error", err)
				return nil
			}
			switch res.Outcome {
			case scheduler.Created:
				created.Add(1)
			case scheduler.AlreadyExists:
				existing.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	summary := Summary{
		Users:         len(users),
		Created:       int(created.Load()),
		AlreadyExists: int(existing.Load()),
		Failed:        int(failed.Load()),
	}
	logger.Info("Runner pass complete", "users", summary.Users, "created", summary.Created,
		"already_exists", summary.AlreadyExists, "failed", summary.Failed)

	return summary, ctx.Err()
}

// Start runs a pass on every cron tick until ctx is cancelled. Overlapping
// ticks are skipped while a pass is still running.
func (r *Runner) Start(ctx context.Context) error {
	if err := ValidateSpec(r.spec); err != nil {
		return err
	}

	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cronLogger{}),
		cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{})),
	)
	if _, err := c.AddFunc(r.spec, func() { r.pass(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule runner: %w", err)
	}

	logger.Info("Runner started", "spec", r.spec, "concurrency", r.concurrency)
	if r.runOnStart {
		r.pass(ctx)
	}

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	logger.Info("Runner stopped")
	return nil
}

func (r *Runner) pass(ctx context.Context) {
	if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
		logger.Error("Runner pass failed", "error", err)
	}
}

// cronLogger routes cron's internal logging to the application logger
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
