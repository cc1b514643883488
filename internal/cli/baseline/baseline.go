package baseline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/julianstephens/gradually/internal/cli"
	apperrors "github.com/julianstephens/gradually/internal/errors"
	"github.com/julianstephens/gradually/internal/validation"
)

type BaselineSetCmd struct {
	Tasks []string `arg:"" optional:"" help:"Tasks as NAME=SCHEDULED[,GOAL], e.g. \"Wake Up=07:30,07:00\"."`
	File  string   `help:"Read tasks from a JSON array of {task_name, scheduled_time, goal_time}." type:"existingfile"`
}

func (c *BaselineSetCmd) Run(ctx *cli.Context) error {
	inputs, err := c.inputs()
	if err != nil {
		return err
	}

	bg := context.Background()
	user, err := ctx.CurrentUser(bg)
	if err != nil {
		return err
	}

	saved, err := ctx.Service.SetBaseline(bg, user.ID, ctx.Timezone, inputs)
	if err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			ctx.Println(verr.Result.FormatReport())
		}
		return err
	}

	ctx.Printf("✓ Baseline for %s set with %d task(s)\n", user.Username, len(saved))
	return nil
}

func (c *BaselineSetCmd) inputs() ([]validation.TaskInput, error) {
	switch {
	case c.File != "" && len(c.Tasks) > 0:
		return nil, apperrors.Invalid("give tasks as arguments or --file, not both")
	case c.File != "":
		data, err := os.ReadFile(c.File)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", c.File, err)
		}
		var inputs []validation.TaskInput
		if err := json.Unmarshal(data, &inputs); err != nil {
			return nil, apperrors.Invalid("failed to parse %s: %v", c.File, err)
		}
		return inputs, nil
	case len(c.Tasks) > 0:
		inputs := make([]validation.TaskInput, 0, len(c.Tasks))
		for _, spec := range c.Tasks {
			in, err := ParseTaskSpec(spec)
			if err != nil {
				return nil, err
			}
			inputs = append(inputs, in)
		}
		return inputs, nil
	default:
		return nil, apperrors.Invalid("no tasks given")
	}
}

// ParseTaskSpec splits NAME=SCHEDULED[,GOAL]. Times are validated later with
// the rest of the baseline.
func ParseTaskSpec(spec string) (validation.TaskInput, error) {
	idx := strings.LastIndex(spec, "=")
	if idx < 0 {
		return validation.TaskInput{}, apperrors.Invalid("task %q: expected NAME=SCHEDULED[,GOAL]", spec)
	}
	in := validation.TaskInput{TaskName: spec[:idx]}
	scheduled, goal, hasGoal := strings.Cut(spec[idx+1:], ",")
	in.ScheduledTime = strings.TrimSpace(scheduled)
	if hasGoal {
		in.GoalTime = strings.TrimSpace(goal)
	}
	return in, nil
}

type BaselineShowCmd struct{}

func (c *BaselineShowCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	user, err := ctx.CurrentUser(bg)
	if err != nil {
		return err
	}

	tasks, err := ctx.Service.GetBaseline(bg, user.ID, ctx.Timezone)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		ctx.Printf("No baseline set for %s\n", user.Username)
		return nil
	}

	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []string{t.TaskName, t.ScheduledTime.Short(), cli.ShortTime(t.GoalTime), t.Timezone})
	}
	ctx.Println(cli.TitleStyle.Render("Baseline for " + user.Username))
	ctx.Println(cli.RenderTable([]string{"Task", "Scheduled", "Goal", "Timezone"}, rows))
	return nil
}
