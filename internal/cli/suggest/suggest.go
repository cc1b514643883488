package suggest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/gradually/internal/cli"
	"github.com/julianstephens/gradually/internal/constants"
	"github.com/julianstephens/gradually/internal/models"
	"github.com/julianstephens/gradually/internal/suggestion"
)

type SubmitCmd struct {
	File string `arg:"" optional:"" help:"File of \"Habit: HH:MM:SS - reason\" lines. Omit or use - for stdin."`
	Date string `help:"Date the suggestions refer to (YYYY-MM-DD). Defaults to today in the user's timezone."`
}

func (c *SubmitCmd) Run(ctx *cli.Context) error {
	var r io.Reader = os.Stdin
	if c.File != "" && c.File != "-" {
		f, err := os.Open(c.File)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", c.File, err)
		}
		defer f.Close()
		r = f
	}
	lines, err := readLines(r)
	if err != nil {
		return err
	}

	bg := context.Background()
	user, err := ctx.CurrentUser(bg)
	if err != nil {
		return err
	}
	res, err := ctx.Service.SubmitAISuggestions(bg, user.ID, c.Date, ctx.Timezone, lines)
	if err != nil {
		return err
	}
	printSubmit(ctx, res)
	return nil
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read suggestions: %w", err)
	}
	return lines, nil
}

type RequestCmd struct{}

func (c *RequestCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	user, err := ctx.CurrentUser(bg)
	if err != nil {
		return err
	}
	res, err := ctx.Service.RequestSuggestions(bg, user.ID)
	if err != nil {
		return err
	}
	printSubmit(ctx, res)
	return nil
}

func printSubmit(ctx *cli.Context, res suggestion.SubmitResult) {
	if len(res.Created) == 0 {
		ctx.Println("No suggestions created")
	} else {
		ctx.Printf("✓ %d suggestion(s) pending\n", len(res.Created))
		ctx.Println(renderSuggestions(res.Created))
	}
	for _, f := range res.Skipped {
		ctx.Printf("⚠ Skipped line %d: %q\n", f.Line, f.Reason)
	}
}

type AcceptCmd struct {
	Habit string `arg:"" help:"Habit (task name) the suggestion is for."`
}

func (c *AcceptCmd) Run(ctx *cli.Context) error {
	return respond(ctx, c.Habit, constants.SuggestionAccepted)
}

type RejectCmd struct {
	Habit string `arg:"" help:"Habit (task name) the suggestion is for."`
}

func (c *RejectCmd) Run(ctx *cli.Context) error {
	return respond(ctx, c.Habit, constants.SuggestionRejected)
}

func respond(ctx *cli.Context, habit string, decision constants.SuggestionStatus) error {
	bg := context.Background()
	user, err := ctx.CurrentUser(bg)
	if err != nil {
		return err
	}
	res, err := ctx.Service.RespondToSuggestion(bg, user.ID, habit, decision)
	if err != nil {
		return err
	}

	if !res.Applied {
		ctx.Printf("No pending suggestion for %q\n", habit)
		return nil
	}
	ctx.Printf("✓ Suggestion for %s %s\n", habit, decision)
	switch {
	case res.Adjustment != nil:
		ctx.Printf("  Scheduled time on %s moved to %s UTC\n", res.Adjustment.EffectiveDate, res.Adjustment.NewScheduledTime.Short())
	case decision == constants.SuggestionAccepted && !res.EntryUpdated:
		ctx.Println(cli.MutedStyle.Render("  No schedule entry to update; the decision was recorded."))
	}
	return nil
}

const (
	choiceAccept  = "accept"
	choiceReject  = "reject"
	choiceSkip    = "skip"
	choiceSkipAll = "skip_all"
)

// prompt asks what to do with one suggestion and returns a choice* value.
var prompt = func(title string) (string, error) {
	var choice string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(title).
				Options(
					huh.NewOption("Accept", choiceAccept),
					huh.NewOption("Reject", choiceReject),
					huh.NewOption("Skip", choiceSkip),
					huh.NewOption("Skip remaining", choiceSkipAll),
				).
				Value(&choice),
		),
	)
	if err := form.Run(); err != nil {
		return "", err
	}
	return choice, nil
}

// ReviewCmd walks the pending suggestions one habit at a time.
type ReviewCmd struct{}

func (c *ReviewCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	user, err := ctx.CurrentUser(bg)
	if err != nil {
		return err
	}

	pending, err := ctx.Service.ListSuggestions(bg, user.ID, constants.SuggestionPending)
	if err != nil {
		return err
	}
	queue := reviewQueue(pending)
	if len(queue) == 0 {
		ctx.Println("No pending suggestions")
		return nil
	}

	ctx.Println(cli.MutedStyle.Render("Times are canonical (UTC)."))
	accepted, rejected, skipped := 0, 0, 0

review:
	for i, sg := range queue {
		ctx.Printf("\n[%d/%d] %s on %s: %s -> %s\n", i+1, len(queue),
			sg.Habit, sg.LogDate, cli.ShortTime(sg.CurrentValue), sg.SuggestedValue.Short())
		ctx.Printf("  %s\n", strings.TrimSpace(sg.Reason))

		choice, err := prompt("Apply this suggestion?")
		if errors.Is(err, huh.ErrUserAborted) {
			skipped += len(queue) - i
			break
		}
		if err != nil {
			return fmt.Errorf("interactive form error: %w", err)
		}

		switch choice {
		case choiceAccept:
			if err := respond(ctx, sg.Habit, constants.SuggestionAccepted); err != nil {
				return err
			}
			accepted++
		case choiceReject:
			if err := respond(ctx, sg.Habit, constants.SuggestionRejected); err != nil {
				return err
			}
			rejected++
		case choiceSkipAll:
			ctx.Println("  Skipping all remaining suggestions")
			skipped += len(queue) - i
			break review
		default:
			ctx.Println("  Skipped")
			skipped++
		}
	}

	ctx.Printf("\nCompleted: %d accepted, %d rejected, %d skipped\n", accepted, rejected, skipped)
	return nil
}

// reviewQueue keeps, per habit, the suggestion a response would resolve: the
// latest log date, newest on ties.
func reviewQueue(pending []models.HabitSuggestion) []models.HabitSuggestion {
	index := map[string]int{}
	var queue []models.HabitSuggestion
	for _, sg := range pending {
		i, seen := index[sg.Habit]
		if !seen {
			index[sg.Habit] = len(queue)
			queue = append(queue, sg)
			continue
		}
		cur := queue[i]
		if sg.LogDate > cur.LogDate || (sg.LogDate == cur.LogDate && sg.ID > cur.ID) {
			queue[i] = sg
		}
	}
	return queue
}

type ListCmd struct {
	Status string `help:"Filter by status." enum:"pending,accepted,rejected,all" default:"pending"`
}

func (c *ListCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	user, err := ctx.CurrentUser(bg)
	if err != nil {
		return err
	}

	status := constants.SuggestionStatus(c.Status)
	if c.Status == "all" {
		status = ""
	}
	list, err := ctx.Service.ListSuggestions(bg, user.ID, status)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		ctx.Println("No suggestions found")
		return nil
	}
	ctx.Println(cli.MutedStyle.Render("Times are canonical (UTC)."))
	ctx.Println(renderSuggestions(list))
	return nil
}

func renderSuggestions(list []models.HabitSuggestion) string {
	rows := make([][]string, 0, len(list))
	for _, s := range list {
		rows = append(rows, []string{
			s.LogDate,
			s.Habit,
			cli.ShortTime(s.CurrentValue),
			s.SuggestedValue.Short(),
			string(s.Status),
			strings.TrimSpace(s.Reason),
		})
	}
	return cli.RenderTable([]string{"Date", "Habit", "Current", "Suggested", "Status", "Reason"}, rows)
}
