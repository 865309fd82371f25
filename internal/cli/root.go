package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cloudconsole/internal/client"
	"cloudconsole/internal/format"
	"cloudconsole/internal/model"
	"cloudconsole/internal/store"
	"cloudconsole/internal/tui"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

type App struct {
	Endpoint   string
	Format     string
	PrettyJSON bool
	LogFile    string
	LogLevel   string

	cfg     *store.Config
	log     *log.Logger
	logSink io.Closer
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "cloudconsole",
		Short:        "Terminal console for the cloud control plane",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive console
  cloudconsole

  # Run a local control plane
  cloudconsole serve

  # Scriptable commands
  cloudconsole instances list --format table
  cloudconsole blocks add-address blk-1a2b3c4d5e6f 10.0.0.0/24

  # Direct lookup (shortcut for: cloudconsole instances show <id>)
  cloudconsole inst-1a2b3c4d5e6f
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.init(cmd)
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if app.logSink != nil {
			return app.logSink.Close()
		}
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.Endpoint, "endpoint", envOr("CLOUDCONSOLE_ENDPOINT", ""), "Control plane URL (default from config, then "+store.DefaultEndpoint+")")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("CLOUDCONSOLE_FORMAT", ""), "Output format (json|edn|table)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON/EDN output")
	cmd.PersistentFlags().StringVar(&app.LogFile, "log-file", envOr("CLOUDCONSOLE_LOG_FILE", ""), "Write logs to this file")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", envOr("CLOUDCONSOLE_LOG_LEVEL", ""), "Log level (debug|info|warn|error)")

	for _, k := range model.Kinds {
		cmd.AddCommand(newKindCmd(app, k))
	}
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newDocsCmd(app))
	cmd.AddCommand(newHealthCmd(app))

	return cmd
}

// init resolves flags > env > config file > defaults and sets up logging.
func (app *App) init(cmd *cobra.Command) error {
	cfg, err := store.LoadConfig()
	if err != nil {
		return writeErr(cmd, err)
	}
	app.cfg = cfg
	if strings.TrimSpace(app.Endpoint) == "" {
		app.Endpoint = cfg.EffectiveEndpoint()
	}
	if strings.TrimSpace(app.Format) == "" {
		app.Format = cfg.Format
	}
	if strings.TrimSpace(app.LogFile) == "" {
		app.LogFile = cfg.LogFile
	}
	if strings.TrimSpace(app.LogLevel) == "" {
		app.LogLevel = cfg.LogLevel
	}
	return app.setupLogger(cmd.ErrOrStderr())
}

func (app *App) setupLogger(stderr io.Writer) error {
	level := log.WarnLevel
	if s := strings.TrimSpace(app.LogLevel); s != "" {
		l, err := log.ParseLevel(s)
		if err != nil {
			return fmt.Errorf("invalid --log-level %q: %w", s, err)
		}
		level = l
	}
	w := stderr
	if path := strings.TrimSpace(app.LogFile); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		app.logSink = f
		w = f
	}
	app.log = log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           level,
		Prefix:          "cloudconsole",
	})
	return nil
}

func (app *App) client() *client.Client {
	return client.New(app.Endpoint)
}

func runTUI(cmd *cobra.Command, app *App) error {
	logger := app.log
	if app.logSink == nil {
		// Without a log file the terminal belongs to the TUI.
		logger = log.New(io.Discard)
	}
	opts := tui.Options{
		Client:   app.client(),
		Logger:   logger,
		PageSize: app.cfg.PageSize(),
	}
	opts.PollInterval = app.cfg.PollInterval
	opts.MessageTimeout = app.cfg.MessageTimeout
	if app.cfg.TUI != nil {
		opts.Glyphs = app.cfg.TUI.Glyphs
	}
	return tui.Run(commandContext(cmd), opts)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

// writeOut writes data in the selected format. JSON and EDN wrap it in the
// {"data": ...} envelope; tables show data directly.
func writeOut(cmd *cobra.Command, app *App, data any) error {
	if strings.EqualFold(strings.TrimSpace(app.Format), "table") {
		return format.Write(cmd.OutOrStdout(), data, "table", false)
	}
	return format.Write(cmd.OutOrStdout(), map[string]any{"data": data}, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), errorText(err))
	return err
}
