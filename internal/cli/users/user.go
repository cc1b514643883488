package users

import (
	"context"
	"fmt"
	"strconv"

	"github.com/julianstephens/gradually/internal/cli"
	"github.com/julianstephens/gradually/internal/constants"
)

// UserAddCmd registers a user living in the global --tz zone (UTC if unset).
type UserAddCmd struct {
	Username string `arg:"" help:"Unique username."`
}

func (c *UserAddCmd) Run(ctx *cli.Context) error {
	user, err := ctx.Service.AddUser(context.Background(), c.Username, ctx.Timezone)
	if err != nil {
		return err
	}
	ctx.Printf("✓ Added user %s (id %d, %s)\n", user.Username, user.ID, user.Timezone)
	return nil
}

type UserListCmd struct{}

func (c *UserListCmd) Run(ctx *cli.Context) error {
	users, err := ctx.Service.ListUsers(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	if len(users) == 0 {
		ctx.Println("No users found")
		return nil
	}

	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{
			strconv.FormatInt(u.ID, 10),
			u.Username,
			u.Timezone,
			u.CreatedAt.Format(constants.DateFormat),
		})
	}
	ctx.Println(cli.RenderTable([]string{"ID", "Username", "Timezone", "Created"}, rows))
	return nil
}
