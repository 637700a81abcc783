package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"star-task/internal/api"
	"star-task/internal/config"
)

// shortIDLength is how many id characters the CLI prints
const shortIDLength = 8

// App represents the main CLI application
type App struct {
	businessAPI api.BusinessAPI
	config      *config.Config
	in          io.Reader
	out         io.Writer
	registry    *CommandRegistry
}

// NewApp creates a new CLI application writing to stdout
func NewApp(businessAPI api.BusinessAPI, cfg *config.Config) *App {
	return NewAppWithIO(businessAPI, cfg, os.Stdin, os.Stdout)
}

// NewAppWithIO creates a CLI application with explicit streams
func NewAppWithIO(businessAPI api.BusinessAPI, cfg *config.Config, in io.Reader, out io.Writer) *App {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	app := &App{
		businessAPI: businessAPI,
		config:      cfg,
		in:          in,
		out:         out,
	}
	app.registry = NewCommandRegistry(app)
	return app
}

// Run executes the CLI application with the given arguments
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%s", a.registry.GetUsage())
	}

	return a.registry.Execute(ctx, args[0], args[1:])
}

func (a *App) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.out, format, args...)
}

// formatMillis renders epoch milliseconds with the configured time format
func (a *App) formatMillis(ms int64) string {
	return time.UnixMilli(ms).Format(a.config.Display.TimeFormat)
}

func shortID(id string) string {
	if len(id) > shortIDLength {
		return id[:shortIDLength]
	}
	return id
}
