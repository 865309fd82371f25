package cli

import (
	"fmt"
	"time"
	"net/url"
	"strings"

	"cloudconsole/internal/console"
	"cloudconsole/internal/store"

	"github.com/spf13/cobra"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change ~/.cloudconsole/config.yaml",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := store.ConfigPath()
			if err != nil {
				return writeErr(cmd, err)
			}
			serveDir, err := app.cfg.ServeDir()
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"path":           path,
				"endpoint":       app.Endpoint,
				"format":         app.Format,
				"logFile":        app.LogFile,
				"logLevel":       app.LogLevel,
				"pageSize":       app.cfg.PageSize(),
				"serveDir":       serveDir,
				"pollInterval":   effectiveDuration(app.cfg.PollInterval, console.PollInterval).String(),
				"messageTimeout": effectiveDuration(app.cfg.MessageTimeout, console.MessageTimeout).String(),
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set-endpoint <url>",
		Short: "Set the default control plane URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := strings.TrimSpace(args[0])
			u, err := url.Parse(raw)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return writeErr(cmd, fmt.Errorf("invalid endpoint %q (want http(s)://host[:port])", raw))
			}
			cfg, err := store.LoadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			cfg.Endpoint = strings.TrimRight(raw, "/")
			if err := store.SaveConfig(cfg); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"endpoint": cfg.Endpoint})
		},
	})

	return cmd
}

func effectiveDuration(v, d time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return d
}
