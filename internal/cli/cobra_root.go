package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"star-task/internal/api"
	"star-task/internal/config"
)

// Session is the wired application handed back by a Bootstrap.
type Session struct {
	API api.BusinessAPI
	// Interactive runs the full-screen mission log; nil disables it
	Interactive func(ctx context.Context) error
	// Close releases storage and log files
	Close func() error
}

// Bootstrap builds a Session once flags have been applied to the configuration.
type Bootstrap func(ctx context.Context, cfg *config.Config) (*Session, error)

// RootCommand represents the base command when called without any subcommands
type RootCommand struct {
	cmd       *cobra.Command
	config    *config.Config
	bootstrap Bootstrap
	session   *Session
	in        io.Reader
	out       io.Writer
}

// NewRootCommand creates the root cobra command with global flags
func NewRootCommand(cfg *config.Config, bootstrap Bootstrap) *RootCommand {
	root := &RootCommand{
		config:    cfg,
		bootstrap: bootstrap,
		in:        os.Stdin,
		out:       os.Stdout,
	}

	root.cmd = &cobra.Command{
		Use:   "st",
		Short: "STAR-TASK: a mission log for your terminal",
		Long: `STAR-TASK (st) keeps a log of missions. Every new mission is issued a codename
by the command uplink (Gemini) or, when it is unreachable, by the fallback briefing.

Run st with no command to open the interactive mission log.

EXAMPLES:
  st                                        # Open the interactive mission log
  st add Scout the Crab Nebula              # Log a new mission
  st add Refuel --repeat weekly             # Log a recurring mission
  st list                                   # Active missions, newest first
  st list --archive                         # Completed missions
  st toggle 3f2a                            # Complete or reactivate by id prefix
  st delete 3f2a                            # Delete a mission
  st export > missions.json                 # Dump the mission log
  st import missions.json                   # Replace the mission log

CONFIGURATION:
  Priority order: command-line flags > environment variables > config.yaml > defaults
  config.yaml is read from the data directory.

  ST_DATA_DIR             Data directory (default: ~/.star-task)
  ST_DB_FILENAME          Database filename (default: star-task.db)
  ST_STORAGE_KEY          Storage key of the mission log (default: star-tasks)
  ST_DB_WRITE_TIMEOUT     Write timeout (default: 5s)
  ST_API_KEY              Gemini API key (falls back to GEMINI_API_KEY, API_KEY)
  ST_BRIEFING_ENABLED     Request codenames from Gemini (default: true)
  ST_BRIEFING_MODEL       Gemini model (default: gemini-3-flash-preview)
  ST_BRIEFING_TIMEOUT     Briefing timeout (default: 30s)
  ST_TITLE_MAX            Max title length, 0 for unlimited (default: 0)
  ST_DESCRIPTION_MAX      Max description length, 0 for unlimited (default: 0)
  ST_TIME_FORMAT          Time format (default: 2006-01-02 15:04)
  ST_APP_TIMEOUT          Command timeout (default: 60s)
  ST_DEBUG                Write debug lines to the log file`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := root.getConfigFromFlags(); err != nil {
				return err
			}
			return root.startSession(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return root.closeSession()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if root.session.Interactive == nil {
				return fmt.Errorf("interactive mode is not available; see st --help")
			}
			return root.session.Interactive(cmd.Context())
		},
	}

	root.addGlobalFlags()
	root.addSubcommands()

	return root
}

// Execute runs the root command
func (r *RootCommand) Execute() error {
	return r.ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx as the parent of every command context
func (r *RootCommand) ExecuteContext(ctx context.Context) error {
	err := r.cmd.ExecuteContext(ctx)
	if err != nil {
		// PersistentPostRunE is skipped when RunE fails
		r.closeSession()
	}
	return err
}

// SetArgs overrides os.Args, mainly for tests
func (r *RootCommand) SetArgs(args []string) {
	r.cmd.SetArgs(args)
}

// SetIO replaces stdin and stdout for commands and cobra output
func (r *RootCommand) SetIO(in io.Reader, out io.Writer) {
	r.in = in
	r.out = out
	r.cmd.SetIn(in)
	r.cmd.SetOut(out)
	r.cmd.SetErr(out)
}

func (r *RootCommand) startSession(ctx context.Context) error {
	if r.session != nil {
		return nil
	}
	session, err := r.bootstrap(ctx, r.config)
	if err != nil {
		return err
	}
	r.session = session
	return nil
}

func (r *RootCommand) closeSession() error {
	if r.session == nil || r.session.Close == nil {
		return nil
	}
	closeFn := r.session.Close
	r.session = nil
	return closeFn()
}

func (r *RootCommand) newApp() *App {
	return NewAppWithIO(r.session.API, r.config, r.in, r.out)
}

// commandContext bounds one command by the configured application timeout
func (r *RootCommand) commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, r.getAppTimeout())
}

// addGlobalFlags adds global configuration flags
func (r *RootCommand) addGlobalFlags() {
	flags := r.cmd.PersistentFlags()

	// Storage configuration
	flags.String("data-dir", "", "Data directory (overrides ST_DATA_DIR)")
	flags.String("db-filename", "", "Database filename (overrides ST_DB_FILENAME)")
	flags.String("storage-key", "", "Storage key of the mission log (overrides ST_STORAGE_KEY)")
	flags.Duration("db-write-timeout", 0, "Database write timeout (overrides ST_DB_WRITE_TIMEOUT)")

	// Briefing configuration
	flags.Bool("offline", false, "Skip the command uplink and use fallback briefings")
	flags.String("model", "", "Gemini model (overrides ST_BRIEFING_MODEL)")
	flags.Duration("briefing-timeout", 0, "Briefing timeout (overrides ST_BRIEFING_TIMEOUT)")

	// Display configuration
	flags.String("time-format", "", "Time display format (overrides ST_TIME_FORMAT)")

	// Application configuration
	flags.Duration("app-timeout", 0, "Application timeout (overrides ST_APP_TIMEOUT)")
	flags.Bool("verbose", false, "Enable verbose output (overrides ST_VERBOSE)")
}

// addSubcommands adds all CLI subcommands to the root command
func (r *RootCommand) addSubcommands() {
	var (
		addDescription string
		addRepeat      string
		listArchive    bool
		listFormat     string
		exportFormat   string
	)

	addCmd := &cobra.Command{
		Use:   "add <title...>",
		Short: "Log a new mission",
		Long: `Log a new mission. The words of the title may be given unquoted.
A codename is requested from the command uplink before the mission is stored.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := r.commandContext(cmd)
			defer cancel()

			handler := NewAddCommand(r.newApp())
			handler.Description = addDescription
			handler.Repeat = addRepeat
			return handler.Execute(ctx, args)
		},
	}
	addCmd.Flags().StringVarP(&addDescription, "description", "d", "", "Mission description")
	addCmd.Flags().StringVarP(&addRepeat, "repeat", "r", "NONE", "Repeat interval: NONE, DAILY, WEEKLY or MONTHLY")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List active or archived missions",
		Long: `List missions. Active missions are shown newest first; archived missions are
shown by completion time, most recent first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := r.commandContext(cmd)
			defer cancel()

			handler := NewListCommand(r.newApp())
			handler.Archive = listArchive
			handler.Format = listFormat
			return handler.Execute(ctx, args)
		},
	}
	listCmd.Flags().BoolVarP(&listArchive, "archive", "a", false, "Show completed missions")
	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "Output format: table or json")

	toggleCmd := &cobra.Command{
		Use:   "toggle <id>",
		Short: "Complete or reactivate a mission",
		Long:  "Flip the completion state of a mission. Any unambiguous id prefix is accepted.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := r.commandContext(cmd)
			defer cancel()

			return NewToggleCommand(r.newApp()).Execute(ctx, args)
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a mission",
		Long: `Delete a mission permanently. Without an id you are prompted to pick one.
This operation cannot be undone.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := r.commandContext(cmd)
			defer cancel()

			return NewDeleteCommand(r.newApp()).Execute(ctx, args)
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write the mission log to stdout",
		Long: `Write the whole mission log to stdout. The json format is the stored form and
can be loaded again with st import.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := r.commandContext(cmd)
			defer cancel()

			handler := NewExportCommand(r.newApp())
			handler.Format = exportFormat
			return handler.Execute(ctx, nil)
		},
	}
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "Output format: json or csv")

	importCmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace the mission log from a JSON export",
		Long: `Replace the whole mission log with a JSON array in the exported form.
Use - to read from stdin. The file is checked before anything is replaced.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := r.commandContext(cmd)
			defer cancel()

			return NewImportCommand(r.newApp()).Execute(ctx, args)
		},
	}

	r.cmd.AddCommand(
		addCmd,
		listCmd,
		toggleCmd,
		deleteCmd,
		exportCmd,
		importCmd,
	)
}

// getAppTimeout returns the configured application timeout
func (r *RootCommand) getAppTimeout() time.Duration {
	if r.config != nil && r.config.Application.Timeout > 0 {
		return r.config.Application.Timeout
	}
	return 60 * time.Second
}

// getConfigFromFlags updates the configuration with values from command-line flags
func (r *RootCommand) getConfigFromFlags() error {
	if r.config == nil {
		return fmt.Errorf("configuration not initialized")
	}

	flags := r.cmd.PersistentFlags()
	overrides := &config.ConfigOverrides{}

	if flags.Changed("data-dir") {
		v, _ := flags.GetString("data-dir")
		overrides.DataDir = &v
	}
	if flags.Changed("db-filename") {
		v, _ := flags.GetString("db-filename")
		overrides.DBFilename = &v
	}
	if flags.Changed("storage-key") {
		v, _ := flags.GetString("storage-key")
		overrides.StorageKey = &v
	}
	if flags.Changed("db-write-timeout") {
		v, _ := flags.GetDuration("db-write-timeout")
		overrides.WriteTimeout = &v
	}
	if offline, _ := flags.GetBool("offline"); offline {
		enabled := false
		overrides.BriefingEnabled = &enabled
	}
	if flags.Changed("model") {
		v, _ := flags.GetString("model")
		overrides.BriefingModel = &v
	}
	if flags.Changed("briefing-timeout") {
		v, _ := flags.GetDuration("briefing-timeout")
		overrides.BriefingTimeout = &v
	}
	if flags.Changed("time-format") {
		v, _ := flags.GetString("time-format")
		overrides.TimeFormat = &v
	}
	if flags.Changed("app-timeout") {
		v, _ := flags.GetDuration("app-timeout")
		overrides.Timeout = &v
	}
	if verbose, _ := flags.GetBool("verbose"); verbose {
		overrides.Verbose = &verbose
	}

	overrides.Apply(r.config)
	return r.config.Validate()
}
