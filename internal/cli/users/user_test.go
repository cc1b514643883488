package users

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/julianstephens/gradually/internal/cli"
	apperrors "github.com/julianstephens/gradually/internal/errors"
	"github.com/julianstephens/gradually/internal/service"
	"github.com/julianstephens/gradually/internal/storage/sqlite"
)

func setup(t *testing.T) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	var out bytes.Buffer
	return &cli.Context{Store: store, Service: service.New(store), Out: &out}, &out
}

func TestUserAddAndList(t *testing.T) {
	ctx, out := setup(t)

	if err := (&UserListCmd{}).Run(ctx); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out.String(), "No users found") {
		t.Errorf("empty list output = %q", out)
	}

	out.Reset()
	if err := (&UserAddCmd{Username: "alice"}).Run(ctx); err != nil {
		t.Fatalf("add alice failed: %v", err)
	}
	if !strings.Contains(out.String(), "Added user alice") || !strings.Contains(out.String(), "UTC") {
		t.Errorf("add output = %q", out)
	}

	ctx.Timezone = "Asia/Tokyo"
	if err := (&UserAddCmd{Username: "bob"}).Run(ctx); err != nil {
		t.Fatalf("add bob failed: %v", err)
	}

	out.Reset()
	if err := (&UserListCmd{}).Run(ctx); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	for _, want := range []string{"alice", "bob", "Asia/Tokyo", "UTC"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}
}

func TestUserAddRejects(t *testing.T) {
	ctx, _ := setup(t)

	if err := (&UserAddCmd{Username: "alice"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if err := (&UserAddCmd{Username: "alice"}).Run(ctx); err == nil {
		t.Error("expected a duplicate username to fail")
	}

	ctx.Timezone = "Mars/Olympus"
	if err := (&UserAddCmd{Username: "zed"}).Run(ctx); !apperrors.IsInvalid(err) {
		t.Errorf("bad timezone: error = %v, want invalid input", err)
	}
}
