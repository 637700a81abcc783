package cli

import (
	"bufio"
	"context"
	"strconv"
	"strings"

	"star-task/internal/domain"
	"star-task/internal/errors"
)

// DeleteCommand handles the delete command
type DeleteCommand struct {
	app *App
}

// NewDeleteCommand creates a new delete command handler
func NewDeleteCommand(app *App) *DeleteCommand {
	return &DeleteCommand{app: app}
}

// Execute deletes the mission named by id, or prompts for one when no id is given
func (c *DeleteCommand) Execute(ctx context.Context, args []string) error {
	eh := NewErrorHandler()

	var target *domain.Task
	switch len(args) {
	case 0:
		selected, err := c.selectMission()
		if err != nil || selected == nil {
			return eh.Handle("delete mission", err)
		}
		target = selected
	case 1:
		resolved, err := c.app.businessAPI.ResolveMission(args[0])
		if err != nil {
			return eh.Handle("delete mission", err)
		}
		target = resolved
	default:
		return eh.Handle("delete mission", errors.NewInvalidInputError("id", args, "usage: st delete [id]"))
	}

	removed, err := c.app.businessAPI.DeleteMission(ctx, target.ID)
	if removed {
		c.app.printf("Deleted mission: %s [%s]\n", target.Title, shortID(target.ID))
	}
	return eh.Handle("delete mission", err)
}

// selectMission lists every mission and reads a number from the input stream.
// It returns (nil, nil) when the user quits or there is nothing to delete.
func (c *DeleteCommand) selectMission() (*domain.Task, error) {
	missions := append(c.app.businessAPI.ActiveMissions(), c.app.businessAPI.ArchivedMissions()...)
	if len(missions) == 0 {
		c.app.printf("No missions found to delete.\n")
		return nil, nil
	}

	c.app.printf("Select a mission to delete:\n")
	for i, t := range missions {
		status := "active"
		if t.IsCompleted {
			status = "archived"
		}
		c.app.printf("%d. %s (%s, %s)\n", i+1, t.Title, t.MissionCodename, status)
	}
	c.app.printf("Enter number to delete, or 'q' to quit: ")

	line, _ := bufio.NewReader(c.app.in).ReadString('\n')
	input := strings.TrimSpace(line)
	if strings.EqualFold(input, "q") || input == "" {
		c.app.printf("Delete cancelled.\n")
		return nil, nil
	}

	idx, err := strconv.Atoi(input)
	if err != nil || idx < 1 || idx > len(missions) {
		return nil, errors.NewInvalidInputError("selection", input, "invalid selection")
	}
	return &missions[idx-1], nil
}
