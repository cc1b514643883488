package daemon

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/julianstephens/gradually/internal/cli"
	"github.com/julianstephens/gradually/internal/config"
	"github.com/julianstephens/gradually/internal/constants"
	"github.com/julianstephens/gradually/internal/service"
	"github.com/julianstephens/gradually/internal/storage/sqlite"
	"github.com/julianstephens/gradually/internal/validation"
)

func setup(t *testing.T) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	store := sqlite.NewStore(filepath.Join(dir, "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	now := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	svc := service.New(store, service.WithClock(func() time.Time { return now }))

	var out bytes.Buffer
	return &cli.Context{Store: store, Service: svc, Config: config.Default(), ConfigDir: dir, Out: &out}, &out
}

func TestRunCmd_Once(t *testing.T) {
	ctx, out := setup(t)
	bg := context.Background()

	user, err := ctx.Service.AddUser(bg, "alice", "UTC")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ctx.Service.SetBaseline(bg, user.ID, "UTC", []validation.TaskInput{{TaskName: "Run", ScheduledTime: "06:00"}}); err != nil {
		t.Fatal(err)
	}

	if err := (&RunCmd{Once: true}).Run(ctx); err != nil {
		t.Fatalf("run --once failed: %v", err)
	}
	if !strings.Contains(out.String(), "Users: 1, created: 1, already existed: 0, failed: 0") {
		t.Errorf("first pass output = %q", out)
	}

	out.Reset()
	if err := (&RunCmd{Once: true}).Run(ctx); err != nil {
		t.Fatalf("second run --once failed: %v", err)
	}
	if !strings.Contains(out.String(), "Users: 1, created: 0, already existed: 1, failed: 0") {
		t.Errorf("second pass output = %q", out)
	}
}

func TestRunCmd_InvalidSpec(t *testing.T) {
	ctx, _ := setup(t)
	if err := (&RunCmd{Once: true, Spec: "every tuesday"}).Run(ctx); err == nil {
		t.Error("expected an invalid cron expression to be rejected")
	}
}

func TestServeCmd_RequiresToken(t *testing.T) {
	gokeyring.MockInit()
	t.Setenv(constants.APITokenEnvVar, "")
	ctx, _ := setup(t)

	err := (&ServeCmd{Addr: "127.0.0.1:0"}).Run(ctx)
	if err == nil || !strings.Contains(err.Error(), constants.APITokenEnvVar) {
		t.Errorf("error = %v, want a hint naming %s", err, constants.APITokenEnvVar)
	}
}

func TestServeCmd_ListenError(t *testing.T) {
	t.Setenv(constants.APITokenEnvVar, "s3cret")
	ctx, _ := setup(t)

	if err := (&ServeCmd{Addr: "127.0.0.1:99999"}).Run(ctx); err == nil {
		t.Error("expected an unusable address to fail")
	}
}
