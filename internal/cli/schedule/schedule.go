package schedule

import (
	"context"
	"fmt"

	"github.com/julianstephens/gradually/internal/cli"
	"github.com/julianstephens/gradually/internal/constants"
	"github.com/julianstephens/gradually/internal/models"
	"github.com/julianstephens/gradually/internal/runner"
	"github.com/julianstephens/gradually/internal/scheduler"
	"github.com/julianstephens/gradually/internal/service"
)

type GenerateCmd struct {
	Date string `help:"Date to generate (YYYY-MM-DD). Defaults to today in the user's timezone."`
	All  bool   `help:"Generate today's schedule for every user."`
}

func (c *GenerateCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	if c.All {
		if c.Date != "" {
			return fmt.Errorf("--all always uses each user's own today; drop --date")
		}
		summary, err := runner.New(ctx.Service, runner.WithConcurrency(ctx.Config.RunnerConcurrency)).RunOnce(bg)
		if err != nil {
			return err
		}
		ctx.Printf("Users: %d, created: %d, already existed: %d, failed: %d\n",
			summary.Users, summary.Created, summary.AlreadyExists, summary.Failed)
		if summary.Failed > 0 {
			return fmt.Errorf("%d user(s) failed; see the log for details", summary.Failed)
		}
		return nil
	}

	user, err := ctx.CurrentUser(bg)
	if err != nil {
		return err
	}
	res, err := ctx.Service.GenerateDailySchedule(bg, user.ID, c.Date)
	if err != nil {
		return err
	}

	if res.Outcome == scheduler.AlreadyExists {
		ctx.Printf("Schedule for %s on %s already exists\n", user.Username, res.Date)
		return nil
	}
	ctx.Printf("✓ Generated %d entr%s for %s on %s\n", res.Count, plural(res.Count), user.Username, res.Date)
	if len(res.Adjustments) > 0 {
		ctx.Println(renderAdjustments(res.Adjustments))
	}
	return nil
}

type ShowCmd struct {
	Date string `help:"Date to show (YYYY-MM-DD). Defaults to today in the user's timezone."`
}

func (c *ShowCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	user, err := ctx.CurrentUser(bg)
	if err != nil {
		return err
	}

	entries, err := ctx.Service.GetDailySchedule(bg, user.ID, ctx.Timezone, c.Date)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		ctx.Println("No schedule entries (run 'gradually generate')")
		return nil
	}

	ctx.Println(cli.TitleStyle.Render(fmt.Sprintf("%s on %s (%s)", user.Username, entries[0].LogDate, entries[0].Timezone)))
	ctx.Println(renderEntries(entries))
	return nil
}

func renderEntries(entries []service.EntryView) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		completed := "-"
		if e.ActualCompletedAt != nil {
			completed = e.ActualCompletedAt.Format(constants.ShortTimeFormat)
		}
		kind := "planned"
		if e.AdHoc {
			kind = "ad-hoc"
		}
		rows = append(rows, []string{
			e.TaskName,
			cli.ShortTime(e.ScheduledTime),
			cli.ShortTime(e.PreviousScheduledTime),
			cli.ShortTime(e.GoalTime),
			string(e.Status),
			completed,
			kind,
		})
	}
	return cli.RenderTable([]string{"Task", "Scheduled", "Previous", "Goal", "Status", "Completed", "Type"}, rows)
}

type AdjustmentsCmd struct {
	Task string `help:"Only show adjustments for this task."`
}

func (c *AdjustmentsCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	user, err := ctx.CurrentUser(bg)
	if err != nil {
		return err
	}

	history, err := ctx.Service.GetAdjustmentHistory(bg, user.ID)
	if err != nil {
		return err
	}
	if c.Task != "" {
		filtered := history[:0]
		for _, adj := range history {
			if adj.TaskName == c.Task {
				filtered = append(filtered, adj)
			}
		}
		history = filtered
	}
	if len(history) == 0 {
		ctx.Println("No adjustments recorded")
		return nil
	}

	ctx.Println(cli.MutedStyle.Render("Times are canonical (UTC)."))
	ctx.Println(renderAdjustments(history))
	return nil
}

func renderAdjustments(history []models.ScheduleAdjustment) string {
	rows := make([][]string, 0, len(history))
	for _, adj := range history {
		rows = append(rows, []string{
			adj.EffectiveDate,
			adj.TaskName,
			cli.ShortTime(adj.PreviousScheduledTime),
			adj.NewScheduledTime.Short(),
			adj.Reason,
		})
	}
	return cli.RenderTable([]string{"Effective", "Task", "Previous", "New", "Reason"}, rows)
}

func plural(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
