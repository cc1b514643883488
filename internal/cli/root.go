package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/julianstephens/gradually/internal/config"
	apperrors "github.com/julianstephens/gradually/internal/errors"
	"github.com/julianstephens/gradually/internal/models"
	"github.com/julianstephens/gradually/internal/service"
	"github.com/julianstephens/gradually/internal/storage"
)

type Context struct {
	Store     storage.Provider
	Service   *service.Service
	Config    config.Config
	ConfigDir string
	// Username and Timezone come from the global --user and --timezone flags.
	Username string
	Timezone string
	// Out receives command output. Nil means stdout.
	Out io.Writer
}

func (c *Context) Writer() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c *Context) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.Writer(), format, args...)
}

func (c *Context) Println(args ...interface{}) {
	fmt.Fprintln(c.Writer(), args...)
}

// CurrentUser resolves --user. Without the flag it falls back to the only
// registered user, if there is exactly one.
func (c *Context) CurrentUser(ctx context.Context) (models.User, error) {
	if c.Username != "" {
		return c.Service.LookupUser(ctx, c.Username)
	}
	users, err := c.Service.ListUsers(ctx)
	if err != nil {
		return models.User{}, err
	}
	switch len(users) {
	case 0:
		return models.User{}, apperrors.Invalid("no users registered (run 'gradually user add <name>')")
	case 1:
		return users[0], nil
	default:
		return models.User{}, apperrors.Invalid("%d users registered; pick one with --user", len(users))
	}
}

// ExpandPath replaces a leading ~ with the home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	// TitleStyle renders section headings above tables.
	TitleStyle = lipgloss.NewStyle().Bold(true)
	// MutedStyle renders secondary notes.
	MutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// RenderTable lays rows out under headers with a rounded border.
func RenderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}

// OrDash returns "-" for an empty value so table columns never collapse.
func OrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// ShortTime renders an optional time of day as HH:MM, or "-" when unset.
func ShortTime(t *models.TimeOfDay) string {
	if t == nil {
		return "-"
	}
	return t.Short()
}
