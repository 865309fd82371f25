package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"cloudconsole/internal/client"
	"cloudconsole/internal/console"
	"cloudconsole/internal/model"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

func newInstancesCreateCmd(app *App) *cobra.Command {
	var in model.Instance
	var roles []string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := app.client()
			ctx := commandContext(cmd)

			if missingInstanceFields(in) && interactive() {
				if err := promptInstance(ctx, c, &in); err != nil {
					return writeErr(cmd, err)
				}
			}
			in.NetworkRoles = roles
			doc, err := model.DocOf(in)
			if err != nil {
				return writeErr(cmd, err)
			}
			created, err := c.Create(ctx, model.KindInstance, doc)
			if err != nil {
				return writeErr(cmd, err)
			}
			app.log.Info("instance created", "id", created.ID())
			return writeOut(cmd, app, created)
		},
	}

	cmd.Flags().StringVar(&in.Organization, "organization", "", "Owning organization id")
	cmd.Flags().StringVar(&in.Zone, "zone", "", "Zone")
	cmd.Flags().StringVar(&in.Node, "node", "", "Node")
	cmd.Flags().StringVar(&in.Image, "image", "", "Image")
	cmd.Flags().StringVar(&in.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&in.State, "state", "", "Requested state (default running)")
	cmd.Flags().IntVar(&in.Memory, "memory", 0, "Memory in MiB (minimum 256)")
	cmd.Flags().IntVar(&in.Processors, "processors", 0, "Virtual processors (minimum 1)")
	cmd.Flags().StringArrayVar(&roles, "network-role", nil, "Network role (repeatable)")
	return cmd
}

func missingInstanceFields(in model.Instance) bool {
	return in.Organization == "" || in.Zone == "" || in.Node == "" || in.Image == ""
}

// promptInstance fills the required instance fields with a form. The
// organization is picked from the control plane's current list.
func promptInstance(ctx context.Context, c *client.Client, in *model.Instance) error {
	var fields []huh.Field

	if in.Organization == "" {
		orgs, err := c.List(ctx, model.KindOrganization)
		if err != nil {
			return fmt.Errorf("list organizations: %w", err)
		}
		if len(orgs) == 0 {
			return fmt.Errorf("no organizations: create one with `cloudconsole organizations create --name ...`")
		}
		options := make([]huh.Option[string], 0, len(orgs))
		for _, o := range orgs {
			label := o.String("name")
			if label == "" {
				label = o.ID()
			}
			options = append(options, huh.NewOption(label, o.ID()))
		}
		fields = append(fields, huh.NewSelect[string]().
			Title("Organization").
			Options(options...).
			Value(&in.Organization))
	}
	required := func(name string) func(string) error {
		return func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("%s is required", name)
			}
			return nil
		}
	}
	if in.Zone == "" {
		fields = append(fields, huh.NewInput().Title("Zone").Validate(required("zone")).Value(&in.Zone))
	}
	if in.Node == "" {
		fields = append(fields, huh.NewInput().Title("Node").Validate(required("node")).Value(&in.Node))
	}
	if in.Image == "" {
		fields = append(fields, huh.NewInput().Title("Image").Validate(required("image")).Value(&in.Image))
	}
	if in.Name == "" {
		fields = append(fields, huh.NewInput().Title("Name").Value(&in.Name))
	}

	return huh.NewForm(huh.NewGroup(fields...)).RunWithContext(ctx)
}

// newInstanceStateCmd sets the requested state; the control plane moves the
// VM there asynchronously.
func newInstanceStateCmd(app *App, use, state string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: fmt.Sprintf("Request state %q for an instance", state),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			doc, err := editEntity(commandContext(cmd), app.client(), model.KindInstance, id, func(ed *console.Editor) error {
				ed.SetField("state", state)
				return nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, doc)
		},
	}
}

func newInstancesSetCmd(app *App) *cobra.Command {
	var name, memory, processors string

	cmd := &cobra.Command{
		Use:   "set <id>",
		Short: "Change instance name, memory or processors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			doc, err := editEntity(commandContext(cmd), app.client(), model.KindInstance, id, func(ed *console.Editor) error {
				if cmd.Flags().Changed("name") {
					ed.SetField("name", name)
				}
				for _, f := range []struct{ field, flag, v string }{
					{"memory", "memory", memory},
					{"processors", "processors", processors},
				} {
					if !cmd.Flags().Changed(f.flag) {
						continue
					}
					n, err := strconv.Atoi(strings.TrimSpace(f.v))
					if err != nil {
						return fmt.Errorf("--%s: %q is not a number", f.flag, f.v)
					}
					ed.SetField(f.field, n)
				}
				return nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, doc)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&memory, "memory", "", "Memory in MiB")
	cmd.Flags().StringVar(&processors, "processors", "", "Virtual processors")
	return cmd
}
