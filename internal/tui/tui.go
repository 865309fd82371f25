package tui

import (
	"context"
	"time"

	"cloudconsole/internal/cache"
	"cloudconsole/internal/client"
	"cloudconsole/internal/model"
	"cloudconsole/internal/store"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

type Options struct {
	Client   *client.Client
	Registry *cache.Registry
	Logger   *log.Logger

	PollInterval   time.Duration
	MessageTimeout time.Duration
	PageSize       int
	Glyphs         string

	// View is the first screen; Pages restores the last page per view.
	View  model.Kind
	Pages map[model.Kind]int
}

// Run starts the console and blocks until the user quits. The last view and
// pages are restored from and saved to the TUI state file.
func Run(ctx context.Context, o Options) error {
	applyThemePreference()
	applyGlyphPreference(o.Glyphs)

	st, err := store.LoadTUIState()
	if err != nil {
		st = &store.TUIState{Version: 1}
	}
	if o.View == "" {
		if k, err := model.ParseKind(st.View); err == nil {
			o.View = k
		}
	}
	if o.Pages == nil {
		o.Pages = map[model.Kind]int{}
		for name, p := range st.Page {
			if k, err := model.ParseKind(name); err == nil {
				o.Pages[k] = p
			}
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := newAppModel(ctx, o)
	out, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if fm, ok := out.(appModel); ok {
		fm.shutdown()
		st.View = fm.kind.Plural()
		st.Page = map[string]int{}
		for k, p := range fm.pages {
			st.Page[k.Plural()] = p
		}
		if serr := store.SaveTUIState(st); serr != nil {
			fm.log.Warn("save tui state", "error", serr)
		}
	}
	return err
}
