package cli

import (
	"cloudconsole/internal/model"

	"github.com/spf13/cobra"
)

func newOrganizationsCreateCmd(app *App) *cobra.Command {
	var o model.Organization

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an organization",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := model.DocOf(o)
			if err != nil {
				return writeErr(cmd, err)
			}
			created, err := app.client().Create(commandContext(cmd), model.KindOrganization, doc)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, created)
		},
	}
	cmd.Flags().StringVar(&o.Name, "name", "", "Organization name (required)")
	cmd.Flags().StringArrayVar(&o.Roles, "role", nil, "Role (repeatable)")
	return cmd
}
