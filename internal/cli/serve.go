package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloudconsole/internal/server"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

const defaultServeAddr = "127.0.0.1:9700"

func newServeCmd(app *App) *cobra.Command {
	var addr, dir string
	var simulate bool
	var simulateEvery time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local control plane (HTTP API + websocket change feed)",
		Long: strings.TrimSpace(`
Run a local control plane backed by SQLite.

The API serves instances, blocks and organizations under /{kind} and pushes
change events over the /events websocket. With --simulate (the default)
instance VM states move toward their requested state one step per tick, the
way a real hypervisor would report them.
`),
		Example: strings.TrimSpace(`
# Serve on the default address
cloudconsole serve

# Keep data somewhere else and disable the lifecycle simulator
cloudconsole serve --dir /var/lib/cloudconsole --simulate=false
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			listenAddr := strings.TrimSpace(addr)
			if listenAddr == "" && app.cfg.Serve != nil {
				listenAddr = strings.TrimSpace(app.cfg.Serve.Addr)
			}
			if listenAddr == "" {
				listenAddr = defaultServeAddr
			}
			dataDir := strings.TrimSpace(dir)
			if dataDir == "" {
				d, err := app.cfg.ServeDir()
				if err != nil {
					return writeErr(cmd, err)
				}
				dataDir = d
			}

			if strings.TrimSpace(app.LogLevel) == "" {
				app.log.SetLevel(log.InfoLevel)
			}

			ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv, err := server.NewServer(ctx, server.ServerConfig{Dir: dataDir, Logger: app.log})
			if err != nil {
				return writeErr(cmd, err)
			}
			defer srv.Close()

			ln, err := net.Listen("tcp", listenAddr)
			if err != nil {
				return writeErr(cmd, err)
			}
			url := "http://" + ln.Addr().String()

			if simulate {
				go srv.Simulate(ctx, simulateEvery)
			}

			hs := &http.Server{
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errc := make(chan error, 1)
			go func() { errc <- hs.Serve(ln) }()

			app.log.Info("control plane running", "url", url, "dir", dataDir, "simulate", simulate)
			fmt.Fprintf(cmd.ErrOrStderr(), "cloudconsole control plane at %s (dir=%s)\n", url, dataDir)

			select {
			case err := <-errc:
				if !errors.Is(err, http.ErrServerClosed) {
					return writeErr(cmd, err)
				}
				return nil
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			// Hijacked websocket connections are not tracked by Shutdown; srv.Close ends them.
			if err := hs.Shutdown(shutdownCtx); err != nil {
				app.log.Warn("shutdown", "error", err)
			}
			app.log.Info("control plane stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Bind address (default from config, then "+defaultServeAddr+")")
	cmd.Flags().StringVar(&dir, "dir", "", "Data directory (default from config, then <config dir>/control)")
	cmd.Flags().BoolVar(&simulate, "simulate", true, "Simulate instance lifecycle transitions")
	cmd.Flags().DurationVar(&simulateEvery, "simulate-interval", server.DefaultSimulateInterval, "Simulator tick")
	return cmd
}
