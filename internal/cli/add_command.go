package cli

import (
	"context"
	"strings"

	"star-task/internal/api"
	"star-task/internal/errors"
)

// AddCommand handles the add command
type AddCommand struct {
	app *App

	// Description and Repeat are filled from flags by the cobra layer
	Description string
	Repeat      string
}

// NewAddCommand creates a new add command handler
func NewAddCommand(app *App) *AddCommand {
	return &AddCommand{app: app}
}

// Execute runs the add command. All arguments are joined into the title.
func (c *AddCommand) Execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.NewInvalidInputError("title", "", "usage: st add <title...> [--description text] [--repeat NONE|DAILY|WEEKLY|MONTHLY]")
	}

	result, err := c.app.businessAPI.CreateMission(ctx, api.MissionDraft{
		Title:          strings.Join(args, " "),
		Description:    c.Description,
		RepeatInterval: c.Repeat,
	})
	if result != nil {
		c.app.printf("Mission logged: %s [%s]\n", result.Task.Title, shortID(result.Task.ID))
		c.app.printf("Codename: %s\n", result.Briefing.Codename)
		c.app.printf("Briefing: %s\n", result.Briefing.Tagline)
	}
	return NewErrorHandler().Handle("add mission", err)
}
