package cli

import (
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"star-task/internal/errors"
	"star-task/internal/storage"
)

// ExportCommand handles the export command
type ExportCommand struct {
	app *App

	Format string
}

// NewExportCommand creates a new export command handler
func NewExportCommand(app *App) *ExportCommand {
	return &ExportCommand{app: app, Format: "json"}
}

// Execute writes the whole mission log. JSON output is the stored blob and can be re-imported.
func (c *ExportCommand) Execute(ctx context.Context, args []string) error {
	format := c.Format
	for _, arg := range args {
		if !strings.HasPrefix(arg, "format=") {
			return errors.NewInvalidInputError("format", arg, "invalid format option")
		}
		format = strings.TrimPrefix(arg, "format=")
	}

	data, err := c.app.businessAPI.ExportMissions(ctx)
	if err != nil {
		return NewErrorHandler().Handle("export missions", err)
	}

	switch format {
	case "", "json":
		c.app.printf("%s\n", data)
		return nil
	case "csv":
		return c.outputCSV(data)
	default:
		return errors.NewInvalidInputError("format", format, "unsupported format")
	}
}

// outputCSV flattens the exported blob into one row per mission
func (c *ExportCommand) outputCSV(data []byte) error {
	records, err := storage.Decode(data)
	if err != nil {
		return fmt.Errorf("failed to read export: %w", err)
	}

	writer := csv.NewWriter(c.app.out)
	defer writer.Flush()

	header := []string{"ID", "Title", "Description", "Repeat", "Completed", "Created At", "Completed At", "Codename"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range records {
		var completedAt string
		if r.CompletedAt != nil {
			completedAt = time.UnixMilli(*r.CompletedAt).UTC().Format(time.RFC3339)
		}
		row := []string{
			r.ID,
			r.Title,
			r.Description,
			r.RepeatInterval,
			strconv.FormatBool(r.IsCompleted),
			time.UnixMilli(r.CreatedAt).UTC().Format(time.RFC3339),
			completedAt,
			r.MissionCodename,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	return nil
}
