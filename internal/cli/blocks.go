package cli

import (
	"strings"

	"cloudconsole/internal/console"
	"cloudconsole/internal/model"

	"github.com/spf13/cobra"
)

func newBlocksCreateCmd(app *App) *cobra.Command {
	var b model.Block

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an IP block",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := model.DocOf(b)
			if err != nil {
				return writeErr(cmd, err)
			}
			created, err := app.client().Create(commandContext(cmd), model.KindBlock, doc)
			if err != nil {
				return writeErr(cmd, err)
			}
			app.log.Info("block created", "id", created.ID())
			return writeOut(cmd, app, created)
		},
	}
	cmd.Flags().StringVar(&b.Name, "name", "", "Block name (required)")
	cmd.Flags().StringVar(&b.Netmask, "netmask", "", "Netmask, e.g. 255.255.255.0 or /24")
	cmd.Flags().StringVar(&b.Gateway, "gateway", "", "Gateway address")
	cmd.Flags().StringArrayVar(&b.Addresses, "address", nil, "Address or CIDR range (repeatable)")
	cmd.Flags().StringArrayVar(&b.Excludes, "exclude", nil, "Excluded address or range (repeatable)")
	return cmd
}

func newBlocksSetCmd(app *App) *cobra.Command {
	var name, netmask, gateway string

	cmd := &cobra.Command{
		Use:   "set <id>",
		Short: "Change block name, netmask or gateway",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			doc, err := editEntity(commandContext(cmd), app.client(), model.KindBlock, id, func(ed *console.Editor) error {
				if cmd.Flags().Changed("name") {
					ed.SetField("name", name)
				}
				if cmd.Flags().Changed("netmask") {
					ed.SetField("netmask", netmask)
				}
				if cmd.Flags().Changed("gateway") {
					ed.SetField("gateway", gateway)
				}
				return nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, doc)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Block name")
	cmd.Flags().StringVar(&netmask, "netmask", "", "Netmask")
	cmd.Flags().StringVar(&gateway, "gateway", "", "Gateway address")
	return cmd
}
