package cli

import (
	"fmt"
	"os"
	"strings"

	"orgtree/internal/client"
	"orgtree/internal/config"
	"orgtree/internal/format"
	"orgtree/internal/logging"
	"orgtree/internal/model"
	"orgtree/internal/syncctl"
	"orgtree/internal/treecache"
	"orgtree/internal/tui"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type App struct {
	ConfigPath string
	API        string
	Format     string
	PrettyJSON bool
	LogLevel   string

	cfg *config.Config
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "orgtree",
		Short:        "Interactive org chart with drag-and-drop reporting changes",
		SilenceUsage: true,
		// Commands print their own errors through writeErr; main prints the rest.
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Start the hierarchy store API (SQLite, seeded on first run)
  orgtree serve

  # Open the interactive org chart
  orgtree

  # Print the tree
  orgtree tree --format text

  # Make employee 5 report to employee 3
  orgtree move 5 3

  # Direct lookup (shortcut for: orgtree show <employee-id>)
  orgtree 5
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", envOr("ORGTREE_CONFIG", ""), "Path to config.yaml (default: ~/.orgtree/config.yaml)")
	cmd.PersistentFlags().StringVar(&app.API, "api", "", "Hierarchy store API base URL (overrides client.base_url)")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("ORGTREE_FORMAT", "json"), "Output format (json|edn|text)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", "", "Log level (debug|info|warn|error)")

	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newTreeCmd(app))
	cmd.AddCommand(newShowCmd(app))
	cmd.AddCommand(newMoveCmd(app))
	cmd.AddCommand(newCheckCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

// config loads settings once per invocation. Flags win over env, env over
// the file.
func (app *App) config() (*config.Config, error) {
	if app.cfg != nil {
		return app.cfg, nil
	}
	cfg, err := config.Load(app.ConfigPath)
	if err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(app.API); v != "" {
		cfg.Client.BaseURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(app.LogLevel); v != "" {
		if _, err := zapcore.ParseLevel(v); err != nil {
			return nil, fmt.Errorf("--log-level: %w", err)
		}
		cfg.Log.Level = v
	}
	app.cfg = cfg
	return cfg, nil
}

// interactiveLogger logs to the configured file, or nowhere.
func (app *App) interactiveLogger() (*zap.Logger, func() error, error) {
	cfg, err := app.config()
	if err != nil {
		return nil, nil, err
	}
	return logging.NewFile(cfg.Log.Level, cfg.Log.File)
}

func (app *App) client(log *zap.Logger) (*client.Client, error) {
	cfg, err := app.config()
	if err != nil {
		return nil, err
	}
	return client.New(cfg.Client.BaseURL, client.WithTimeout(cfg.Client.Timeout), client.WithLogger(log))
}

// newTreeCache is the one query cache for an invocation, reading through c.
func newTreeCache(c *client.Client, log *zap.Logger) *treecache.Cache[*model.Tree] {
	return treecache.New(map[string]treecache.Fetcher[*model.Tree]{
		treecache.KeyEmployeeTree: c.FetchSnapshot,
	}, treecache.WithLogger(log))
}

func runTUI(cmd *cobra.Command, app *App) error {
	cfg, err := app.config()
	if err != nil {
		return writeErr(cmd, err)
	}
	log, closeLog, err := app.interactiveLogger()
	if err != nil {
		return writeErr(cmd, err)
	}
	defer func() { _ = closeLog() }()

	c, err := app.client(log)
	if err != nil {
		return writeErr(cmd, err)
	}
	cache := newTreeCache(c, log)
	defer func() { _ = cache.Close() }()

	notes := syncctl.NewQueue(16)
	ctl := syncctl.New(c, cache, notes, log)

	return tui.Run(cmd.Context(), tui.Options{
		Trees:          cache,
		Sync:           ctl,
		Notifications:  notes.C(),
		Glyphs:         cfg.TUI.Glyphs,
		Logger:         log,
		RequestTimeout: cfg.Client.Timeout,
	})
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return reportedError{err: err}
}
