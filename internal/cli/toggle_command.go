package cli

import (
	"context"

	"star-task/internal/errors"
)

// ToggleCommand handles the toggle command
type ToggleCommand struct {
	app *App
}

// NewToggleCommand creates a new toggle command handler
func NewToggleCommand(app *App) *ToggleCommand {
	return &ToggleCommand{app: app}
}

// Execute flips completion of the mission named by id or id prefix
func (c *ToggleCommand) Execute(ctx context.Context, args []string) error {
	eh := NewErrorHandler()
	if len(args) != 1 {
		return eh.Handle("toggle mission", errors.NewInvalidInputError("id", args, "usage: st toggle <id>"))
	}

	target, err := c.app.businessAPI.ResolveMission(args[0])
	if err != nil {
		return eh.Handle("toggle mission", err)
	}

	task, err := c.app.businessAPI.ToggleMission(ctx, target.ID)
	if task != nil {
		if task.IsCompleted {
			c.app.printf("Mission accomplished: %s [%s]\n", task.Title, shortID(task.ID))
		} else {
			c.app.printf("Mission reactivated: %s [%s]\n", task.Title, shortID(task.ID))
		}
	}
	return eh.Handle("toggle mission", err)
}
