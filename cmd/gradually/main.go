package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	_ "time/tzdata"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/gradually/internal/cli"
	"github.com/julianstephens/gradually/internal/cli/baseline"
	"github.com/julianstephens/gradually/internal/cli/daemon"
	"github.com/julianstephens/gradually/internal/cli/schedule"
	"github.com/julianstephens/gradually/internal/cli/suggest"
	"github.com/julianstephens/gradually/internal/cli/system"
	"github.com/julianstephens/gradually/internal/cli/users"
	"github.com/julianstephens/gradually/internal/config"
	"github.com/julianstephens/gradually/internal/constants"
	apperrors "github.com/julianstephens/gradually/internal/errors"
	"github.com/julianstephens/gradually/internal/keyring"
	"github.com/julianstephens/gradually/internal/logger"
	"github.com/julianstephens/gradually/internal/optimizer"
	"github.com/julianstephens/gradually/internal/service"
	"github.com/julianstephens/gradually/internal/storage"
	"github.com/julianstephens/gradually/internal/storage/postgres"
	"github.com/julianstephens/gradually/internal/storage/sqlite"
)

var CLI struct {
	Version  kong.VersionFlag
	Config   string `help:"SQLite database path or PostgreSQL connection string. For PostgreSQL, credentials must NOT be embedded in the connection string. Use GRADUALLY_DB_CONNECTION, .pgpass, or the OS keyring instead." type:"string" default:"~/.config/gradually/gradually.db"`
	Debug    bool   `help:"Enable debug logging to stderr."`
	Username string `help:"User to act as. May be omitted when only one user exists." name:"user" short:"u" env:"GRADUALLY_USER"`
	Timezone string `help:"IANA timezone for reading and showing times. Defaults to the user's timezone." name:"tz"`

	Init    system.InitCmd    `cmd:"" help:"Initialize gradually storage."`
	Migrate system.MigrateCmd `cmd:"" help:"Run database migrations."`
	Doctor  system.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`
	Env     system.EnvCmd     `cmd:"" help:"Show recognized GRADUALLY_* environment variables."`
	Keyring struct {
		Set         system.KeyringSetCmd         `cmd:"" help:"Store the database connection string."`
		Get         system.KeyringGetCmd         `cmd:"" help:"Show the stored connection string (password masked)."`
		Delete      system.KeyringDeleteCmd      `cmd:"" help:"Remove the stored connection string."`
		SetToken    system.KeyringSetTokenCmd    `cmd:"" name:"set-token" help:"Store the HTTP API bearer token."`
		DeleteToken system.KeyringDeleteTokenCmd `cmd:"" name:"delete-token" help:"Remove the HTTP API bearer token."`
		Status      system.KeyringStatusCmd      `cmd:"" help:"Check keyring availability."`
	} `cmd:"" help:"Manage credentials in the OS keyring."`

	User struct {
		Add  users.UserAddCmd  `cmd:"" help:"Register a user in the --tz timezone."`
		List users.UserListCmd `cmd:"" help:"List users."`
	} `cmd:"" help:"Manage users."`
	Baseline struct {
		Set  baseline.BaselineSetCmd  `cmd:"" help:"Replace the baseline task list."`
		Show baseline.BaselineShowCmd `cmd:"" help:"Show the baseline task list."`
	} `cmd:"" help:"Manage the recurring baseline."`
	Generate    schedule.GenerateCmd    `cmd:"" help:"Generate the daily schedule."`
	Schedule    schedule.ShowCmd        `cmd:"" help:"Show the daily schedule."`
	Log         schedule.LogCmd         `cmd:"" help:"Log task completions."`
	Adjustments schedule.AdjustmentsCmd `cmd:"" help:"Show the schedule adjustment history."`
	Suggest     struct {
		Submit  suggest.SubmitCmd  `cmd:"" help:"Submit AI suggestion lines."`
		Request suggest.RequestCmd `cmd:"" help:"Ask the built-in analyzer for suggestions."`
		Accept  suggest.AcceptCmd  `cmd:"" help:"Accept the pending suggestion for a habit."`
		Reject  suggest.RejectCmd  `cmd:"" help:"Reject the pending suggestion for a habit."`
		Review  suggest.ReviewCmd  `cmd:"" help:"Step through pending suggestions interactively."`
		List    suggest.ListCmd    `cmd:"" help:"List suggestions."`
	} `cmd:"" help:"Review schedule suggestions."`

	Run   daemon.RunCmd   `cmd:"" help:"Generate schedules for every user on a cron schedule."`
	Serve daemon.ServeCmd `cmd:"" help:"Serve the HTTP API."`
}

// Commands that must run before, or without, a loaded store.
var noLoad = map[string]bool{"init": true, "doctor": true, "keyring": true, "env": true}

var longRunning = map[string]bool{"run": true, "serve": true}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Gradual habit schedule generator and adjuster"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)
	command := strings.Fields(ctx.Command())[0]

	cfg, err := config.Load()
	if err != nil {
		apperrors.Fatal(err)
	}

	target, source := keyring.ResolveConnectionString(CLI.Config)
	store, configDir, err := openStore(target, source)
	if err != nil {
		apperrors.Fatal(err)
	}

	if err := logger.Init(logger.Config{
		Debug:     CLI.Debug,
		ConfigDir: configDir,
		Level:     cfg.LogLevel,
		JSON:      cfg.LogJSON,
		Stderr:    longRunning[command],
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}
	logger.Debug("Resolved storage", "source", source, "target", store.GetConfigPath())

	genOpts, err := cfg.GeneratorOptions()
	if err != nil {
		apperrors.Fatal(err)
	}
	svc := service.New(store,
		service.WithGeneratorOptions(genOpts...),
		service.WithSource(optimizer.NewCompletionAnalyzer()),
		service.WithSuggestionTimeout(cfg.SuggestionTimeout),
	)

	appCtx := &cli.Context{
		Store:     store,
		Service:   svc,
		Config:    cfg,
		ConfigDir: configDir,
		Username:  CLI.Username,
		Timezone:  CLI.Timezone,
	}

	if !noLoad[command] {
		if err := store.Load(); err != nil {
			apperrors.Fatal(err)
		}
	}

	err = ctx.Run(appCtx)
	_ = store.Close()
	apperrors.Fatal(err)
}

// openStore picks PostgreSQL for connection strings and SQLite for paths.
// configDir is where logs and the runner lockfile live.
func openStore(target string, source keyring.Source) (storage.Provider, string, error) {
	if isPostgres(target) {
		// Credentials are only tolerated from the environment or the keyring.
		if _, err := postgres.ValidateConnString(target); err != nil {
			if source == keyring.SourceFlag || !errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, "", fmt.Errorf("%w\n       Use 'gradually keyring set <conn>', %s, or a .pgpass file instead", err, constants.DBConnectionEnvVar)
			}
		}
		dir, err := cli.ExpandPath(filepath.Dir(constants.DefaultConfigPath))
		if err != nil {
			return nil, "", err
		}
		return postgres.New(target), dir, nil
	}

	path, err := cli.ExpandPath(target)
	if err != nil {
		return nil, "", err
	}
	return sqlite.NewStore(path), filepath.Dir(path), nil
}

func isPostgres(target string) bool {
	return strings.HasPrefix(target, "postgres://") ||
		strings.HasPrefix(target, "postgresql://") ||
		strings.Contains(target, "host=")
}
