package schedule

import (
	"context"

	"github.com/julianstephens/gradually/internal/cli"
	"github.com/julianstephens/gradually/internal/service"
)

type LogCmd struct {
	Tasks []string `arg:"" help:"Task names to mark."`
	At    string   `help:"Local completion time (HH:MM[:SS]). Defaults to now."`
	Date  string   `help:"Date of the entry (YYYY-MM-DD). Defaults to today in the user's timezone."`
	Undo  bool     `help:"Mark the tasks as not completed."`
}

func (c *LogCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	user, err := ctx.CurrentUser(bg)
	if err != nil {
		return err
	}

	reqs := make([]service.CompletionRequest, 0, len(c.Tasks))
	for _, task := range c.Tasks {
		reqs = append(reqs, service.CompletionRequest{
			TaskName:   task,
			Completed:  !c.Undo,
			ActualTime: c.At,
			Date:       c.Date,
			Timezone:   ctx.Timezone,
		})
	}

	entries, err := ctx.Service.LogCompletions(bg, user.ID, reqs)
	for _, e := range entries {
		note := ""
		if e.IsAdHoc() {
			note = " (ad-hoc)"
		}
		ctx.Printf("✓ %s: %s on %s%s\n", e.TaskName, e.Status, e.LogDate, note)
	}
	return err
}
