package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"star-task/internal/errors"
)

// ImportCommand handles the import command
type ImportCommand struct {
	app *App
}

// NewImportCommand creates a new import command handler
func NewImportCommand(app *App) *ImportCommand {
	return &ImportCommand{app: app}
}

// Execute replaces the mission log with a JSON array read from a file, or stdin for "-"
func (c *ImportCommand) Execute(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.NewInvalidInputError("file", args, "usage: st import <file|->")
	}

	var (
		data []byte
		err  error
	)
	if args[0] == "-" {
		data, err = io.ReadAll(c.app.in)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	n, err := c.app.businessAPI.ImportMissions(ctx, data)
	if err != nil {
		return NewErrorHandler().Handle("import missions", err)
	}
	c.app.printf("Imported %d missions\n", n)
	return nil
}
