package cli

import (
	"github.com/spf13/cobra"
)

func newHealthCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the control plane is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.client().Health(commandContext(cmd)); err != nil {
				app.log.Debug("health check failed", "endpoint", app.Endpoint, "err", err)
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"endpoint": app.Endpoint, "ok": true})
		},
	}
}
