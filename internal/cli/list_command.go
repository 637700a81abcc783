package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"star-task/internal/domain"
	"star-task/internal/errors"
	"star-task/internal/storage"
)

// ListCommand handles the list command
type ListCommand struct {
	app *App

	Archive bool
	Format  string
}

// NewListCommand creates a new list command handler
func NewListCommand(app *App) *ListCommand {
	return &ListCommand{app: app, Format: "table"}
}

// Execute runs the list command. "archive" as an argument selects the archive view.
func (c *ListCommand) Execute(ctx context.Context, args []string) error {
	archive := c.Archive
	for _, arg := range args {
		switch strings.ToLower(arg) {
		case "archive":
			archive = true
		case "active":
			archive = false
		default:
			return errors.NewInvalidInputError("view", arg, "expected active or archive")
		}
	}

	var tasks []domain.Task
	if archive {
		tasks = c.app.businessAPI.ArchivedMissions()
	} else {
		tasks = c.app.businessAPI.ActiveMissions()
	}

	switch strings.ToLower(c.Format) {
	case "", "table":
		return c.printTable(tasks, archive)
	case "json":
		return c.printJSON(tasks)
	default:
		return errors.NewInvalidInputError("format", c.Format, "supported formats: table, json")
	}
}

func (c *ListCommand) printTable(tasks []domain.Task, archive bool) error {
	counts := c.app.businessAPI.MissionCounts()
	if archive {
		c.app.printf("ARCHIVE [%d]\n", counts.Archive)
	} else {
		c.app.printf("ACTIVE [%d]\n", counts.Active)
	}

	if len(tasks) == 0 {
		if archive {
			c.app.printf("%s\n", domain.EmptyArchiveMessage)
		} else {
			c.app.printf("%s\n", domain.EmptyActiveMessage)
		}
		return nil
	}

	w := tabwriter.NewWriter(c.app.out, 0, 0, 2, ' ', 0)
	when := "CREATED"
	if archive {
		when = "COMPLETED"
	}
	fmt.Fprintf(w, "ID\tCODENAME\tREPEAT\t%s\tTITLE\n", when)
	for _, t := range tasks {
		stamp := t.CreatedAt
		if archive && t.CompletedAt != nil {
			stamp = *t.CompletedAt
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", shortID(t.ID), t.MissionCodename, t.RepeatInterval, c.app.formatMillis(stamp), t.Title)
	}
	return w.Flush()
}

func (c *ListCommand) printJSON(tasks []domain.Task) error {
	records := domain.NewMapper().Task.ToRecords(tasks)
	if records == nil {
		records = []storage.TaskRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode missions: %w", err)
	}
	c.app.printf("%s\n", data)
	return nil
}
