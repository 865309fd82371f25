package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"cloudconsole/internal/client"
	"cloudconsole/internal/console"
	"cloudconsole/internal/model"

	"github.com/spf13/cobra"
)

func newKindCmd(app *App, k model.Kind) *cobra.Command {
	cmd := &cobra.Command{
		Use:     k.Plural(),
		Aliases: []string{string(k)},
		Short:   k.Title() + " commands",
	}
	cmd.AddCommand(newListCmd(app, k))
	cmd.AddCommand(newShowCmd(app, k))
	cmd.AddCommand(newDeleteCmd(app, k))
	cmd.AddCommand(newSyncCmd(app, k))
	cmd.AddCommand(newWatchCmd(app, k))

	switch k {
	case model.KindInstance:
		cmd.AddCommand(newInstancesCreateCmd(app))
		cmd.AddCommand(newInstanceStateCmd(app, "start", model.InstanceRunning))
		cmd.AddCommand(newInstanceStateCmd(app, "stop", model.InstanceStopped))
		cmd.AddCommand(newInstancesSetCmd(app))
	case model.KindBlock:
		cmd.AddCommand(newBlocksCreateCmd(app))
		cmd.AddCommand(newBlocksSetCmd(app))
		cmd.AddCommand(newListItemCmd(app, k, "add-address", "addresses", true))
		cmd.AddCommand(newListItemCmd(app, k, "remove-address", "addresses", false))
		cmd.AddCommand(newListItemCmd(app, k, "add-exclude", "excludes", true))
		cmd.AddCommand(newListItemCmd(app, k, "remove-exclude", "excludes", false))
	case model.KindOrganization:
		cmd.AddCommand(newOrganizationsCreateCmd(app))
		cmd.AddCommand(newListItemCmd(app, k, "add-role", "roles", true))
		cmd.AddCommand(newListItemCmd(app, k, "remove-role", "roles", false))
	}
	return cmd
}

// checkID rejects ids whose prefix names another kind. Ids without a known
// prefix are passed through to the server.
func checkID(k model.Kind, id string) error {
	if got, ok := model.KindOfID(id); ok && got != k {
		return kindMismatchError{want: string(k), id: id}
	}
	return nil
}

func newListCmd(app *App, k model.Kind) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List " + k.Plural(),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := app.client().List(commandContext(cmd), k)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, docs)
		},
	}
}

func newShowCmd(app *App, k model.Kind) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one " + string(k),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			if err := checkID(k, id); err != nil {
				return writeErr(cmd, err)
			}
			doc, err := app.client().Get(commandContext(cmd), k, id)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, doc)
		},
	}
}

func newDeleteCmd(app *App, k model.Kind) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete " + k.Plural() + " (several ids are removed in one request)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]string, 0, len(args))
			for _, a := range args {
				id := strings.TrimSpace(a)
				if err := checkID(k, id); err != nil {
					return writeErr(cmd, err)
				}
				ids = append(ids, id)
			}
			c := app.client()
			ctx := commandContext(cmd)
			if len(ids) == 1 {
				if err := c.Remove(ctx, k, ids[0]); err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, map[string]any{"ids": ids})
			}
			removed, err := c.RemoveMulti(ctx, k, ids)
			if err != nil {
				return writeErr(cmd, err)
			}
			app.log.Debug("bulk delete", "kind", k, "requested", len(ids), "removed", len(removed))
			return writeOut(cmd, app, map[string]any{"ids": removed})
		},
	}
}

func newSyncCmd(app *App, k model.Kind) *cobra.Command {
	return &cobra.Command{
		Use:   "sync <id>",
		Short: "Resend the stored " + string(k) + " so the control plane reconciles it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			if err := checkID(k, id); err != nil {
				return writeErr(cmd, err)
			}
			c := app.client()
			ctx := commandContext(cmd)
			doc, err := c.Get(ctx, k, id)
			if err != nil {
				return writeErr(cmd, err)
			}
			ed := console.NewEditor(doc)
			p, ok := ed.BeginSync()
			if !ok {
				return writeErr(cmd, busyError{id: id})
			}
			saved, err := c.Commit(ctx, k, p.Payload)
			ed.Complete(p, err)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"message": ed.Message(), "entity": saved})
		},
	}
}

// editEntity loads id, applies edit to an edit buffer and commits the result.
// Nothing is sent when the edit leaves the document unchanged.
func editEntity(ctx context.Context, c *client.Client, k model.Kind, id string, edit func(ed *console.Editor) error) (model.Doc, error) {
	if err := checkID(k, id); err != nil {
		return model.Doc{}, err
	}
	doc, err := c.Get(ctx, k, id)
	if err != nil {
		return model.Doc{}, err
	}
	ed := console.NewEditor(doc)
	if err := edit(ed); err != nil {
		return model.Doc{}, err
	}
	if !ed.Dirty() || ed.Doc().Equal(doc) {
		return doc, nil
	}
	p, ok := ed.BeginCommit()
	if !ok {
		return model.Doc{}, busyError{id: id}
	}
	saved, err := c.Commit(ctx, k, p.Payload)
	ed.Complete(p, err)
	if err != nil {
		return model.Doc{}, err
	}
	return saved, nil
}

func newListItemCmd(app *App, k model.Kind, use, field string, add bool) *cobra.Command {
	short := fmt.Sprintf("Remove a value from %s", field)
	if add {
		short = fmt.Sprintf("Add a value to %s", field)
	}
	return &cobra.Command{
		Use:   use + " <id> <value>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, value := strings.TrimSpace(args[0]), strings.TrimSpace(args[1])
			doc, err := editEntity(commandContext(cmd), app.client(), k, id, func(ed *console.Editor) error {
				if add {
					if value == "" {
						return fmt.Errorf("%s: empty value", use)
					}
					ed.AddListItem(field, value)
					return nil
				}
				if !ed.RemoveListItem(field, value) {
					return fmt.Errorf("%s: %q not in %s", use, value, field)
				}
				return nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, doc)
		},
	}
}

func newWatchCmd(app *App, k model.Kind) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print the " + string(k) + " list whenever it changes (Ctrl-C to stop)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			c := app.client()
			var last []byte
			console.Every(ctx, app.cfg.PollInterval, func(ctx context.Context) {
				docs, err := c.List(ctx, k)
				if err != nil {
					if ctx.Err() == nil {
						app.log.Warn("watch: list failed", "kind", k, "error", err)
					}
					return
				}
				b, err := json.Marshal(docs)
				if err != nil || string(b) == string(last) {
					return
				}
				last = b
				if err := writeOut(cmd, app, docs); err != nil {
					app.log.Warn("watch: write", "error", err)
				}
			})
			return nil
		},
	}
}
