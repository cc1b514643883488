package baseline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/julianstephens/gradually/internal/cli"
	apperrors "github.com/julianstephens/gradually/internal/errors"
	"github.com/julianstephens/gradually/internal/service"
	"github.com/julianstephens/gradually/internal/storage/sqlite"
	"github.com/julianstephens/gradually/internal/validation"
)

func TestParseTaskSpec(t *testing.T) {
	tests := []struct {
		spec string
		want validation.TaskInput
	}{
		{"Wake Up=07:30", validation.TaskInput{TaskName: "Wake Up", ScheduledTime: "07:30"}},
		{"Wake Up=07:30,07:00", validation.TaskInput{TaskName: "Wake Up", ScheduledTime: "07:30", GoalTime: "07:00"}},
		{"a=b=21:00, 22:00", validation.TaskInput{TaskName: "a=b", ScheduledTime: "21:00", GoalTime: "22:00"}},
	}
	for _, tt := range tests {
		got, err := ParseTaskSpec(tt.spec)
		if err != nil {
			t.Fatalf("ParseTaskSpec(%q) failed: %v", tt.spec, err)
		}
		if got != tt.want {
			t.Errorf("ParseTaskSpec(%q) = %+v, want %+v", tt.spec, got, tt.want)
		}
	}

	if _, err := ParseTaskSpec("Wake Up 07:30"); !apperrors.IsInvalid(err) {
		t.Errorf("spec without '=' should be invalid input, got %v", err)
	}
}

func setup(t *testing.T) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	svc := service.New(store)
	if _, err := svc.AddUser(context.Background(), "alice", "UTC"); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	return &cli.Context{Store: store, Service: svc, Out: &out}, &out
}

func TestBaselineSetAndShow(t *testing.T) {
	ctx, out := setup(t)

	file := filepath.Join(t.TempDir(), "baseline.json")
	data := `[{"task_name": "Meditate", "scheduled_time": "06:15", "goal_time": "06:00"}]`
	if err := os.WriteFile(file, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := (&BaselineSetCmd{File: file}).Run(ctx); err != nil {
		t.Fatalf("set from file failed: %v", err)
	}

	out.Reset()
	if err := (&BaselineShowCmd{}).Run(ctx); err != nil {
		t.Fatalf("show failed: %v", err)
	}
	for _, want := range []string{"Meditate", "06:15", "06:00", "UTC"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}
}

func TestBaselineSetRejects(t *testing.T) {
	ctx, out := setup(t)

	if err := (&BaselineSetCmd{}).Run(ctx); !apperrors.IsInvalid(err) {
		t.Errorf("no tasks: error = %v, want invalid input", err)
	}
	if err := (&BaselineSetCmd{Tasks: []string{"A=07:00"}, File: "x.json"}).Run(ctx); !apperrors.IsInvalid(err) {
		t.Errorf("tasks and file: error = %v, want invalid input", err)
	}

	out.Reset()
	err := (&BaselineSetCmd{Tasks: []string{"Run=06:00", "Run=07:00", "Nap=25:00"}}).Run(ctx)
	if !apperrors.IsInvalid(err) {
		t.Fatalf("conflicting tasks: error = %v, want invalid input", err)
	}
	if !strings.Contains(out.String(), "Run") {
		t.Errorf("expected a conflict report, got %q", out)
	}
}
