// Package daemon holds the long-running commands: the generation runner and
// the HTTP API.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/gradually/internal/api"
	"github.com/julianstephens/gradually/internal/cli"
	"github.com/julianstephens/gradually/internal/constants"
	"github.com/julianstephens/gradually/internal/keyring"
	"github.com/julianstephens/gradually/internal/logger"
	"github.com/julianstephens/gradually/internal/runner"
)

type RunCmd struct {
	Once bool   `help:"Run a single pass and exit."`
	Spec string `help:"Cron expression overriding GRADUALLY_RUNNER_SPEC."`
}

func (c *RunCmd) Run(ctx *cli.Context) error {
	r, err := newRunner(ctx, c.Spec)
	if err != nil {
		return err
	}

	if c.Once {
		summary, err := r.RunOnce(context.Background())
		if err != nil {
			return err
		}
		ctx.Printf("Users: %d, created: %d, already existed: %d, failed: %d\n",
			summary.Users, summary.Created, summary.AlreadyExists, summary.Failed)
		return nil
	}

	lock, err := runner.AcquireLock(ctx.ConfigDir)
	if err != nil {
		return err
	}
	defer lock.Release()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return r.Start(sigCtx)
}

type ServeCmd struct {
	Addr       string `help:"Listen address overriding GRADUALLY_LISTEN_ADDR."`
	WithRunner bool   `help:"Also run the generation runner in this process."`
}

func (c *ServeCmd) Run(ctx *cli.Context) error {
	token, source := keyring.ResolveAPIToken()
	if token == "" {
		return fmt.Errorf("no API token configured: set %s or run 'gradually keyring set-token'", constants.APITokenEnvVar)
	}
	logger.Info("API token resolved", "source", source)

	addr := c.Addr
	if addr == "" {
		addr = ctx.Config.ListenAddr
	}

	var r *runner.Runner
	if c.WithRunner {
		var err error
		if r, err = newRunner(ctx, ""); err != nil {
			return err
		}
		lock, err := runner.AcquireLock(ctx.ConfigDir)
		if err != nil {
			return err
		}
		defer lock.Release()
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(sigCtx)
	g.Go(func() error {
		return api.Serve(gctx, addr, api.NewHandler(ctx.Service, token))
	})
	if r != nil {
		g.Go(func() error { return r.Start(gctx) })
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func newRunner(ctx *cli.Context, spec string) (*runner.Runner, error) {
	if spec == "" {
		spec = ctx.Config.RunnerSpec
	}
	if err := runner.ValidateSpec(spec); err != nil {
		return nil, err
	}
	return runner.New(ctx.Service,
		runner.WithSpec(spec),
		runner.WithConcurrency(ctx.Config.RunnerConcurrency),
		runner.WithRunOnStart(),
	), nil
}
