package system

import (
	"strconv"

	"github.com/julianstephens/gradually/internal/cli"
	"github.com/julianstephens/gradually/internal/config"
)

// EnvCmd lists the GRADUALLY_* environment variables and the values in effect.
type EnvCmd struct{}

func (cmd *EnvCmd) Run(ctx *cli.Context) error {
	if err := config.Usage(); err != nil {
		return err
	}
	c := ctx.Config
	ctx.Println()
	ctx.Println(cli.TitleStyle.Render("In effect"))
	ctx.Println(cli.RenderTable([]string{"Setting", "Value"}, [][]string{
		{"Lookback days", itoa(c.LookbackDays)},
		{"Step minutes", itoa(c.StepMinutes)},
		{"Day start", c.DayStart},
		{"Runner spec", c.RunnerSpec},
		{"Runner concurrency", itoa(c.RunnerConcurrency)},
		{"Suggestion timeout", c.SuggestionTimeout.String()},
		{"Listen address", c.ListenAddr},
		{"Log level", cli.OrDash(c.LogLevel)},
	}))
	return nil
}

func itoa(n int) string { return strconv.Itoa(n) }
