package tui

import (
	"context"
	"io"
	"time"

	"cloudconsole/internal/cache"
	"cloudconsole/internal/client"
	"cloudconsole/internal/console"
	"cloudconsole/internal/model"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

type appModel struct {
	ctx    context.Context
	client *client.Client
	reg    *cache.Registry
	log    *log.Logger
	opts   Options

	width  int
	height int

	kind   model.Kind
	active *listView
	pages  map[model.Kind]int

	keys    keyMap
	help    help.Model
	spinner spinner.Model
	input   textinput.Model

	inputMode  inputMode
	inputField fieldDef
	inputRow   *rowEditor

	showHelp bool
	live     bool

	minibufferText string
	minibufferSeq  int
}

func newAppModel(ctx context.Context, o Options) appModel {
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	if o.Registry == nil {
		o.Registry = cache.NewRegistry()
	}
	if o.MessageTimeout <= 0 {
		o.MessageTimeout = console.MessageTimeout
	}
	if o.PollInterval <= 0 {
		o.PollInterval = console.PollInterval
	}
	if o.View == "" {
		o.View = model.KindInstance
	}

	in := textinput.New()
	in.Prompt = "> "
	in.CharLimit = 256

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	m := appModel{
		ctx:     ctx,
		client:  o.Client,
		reg:     o.Registry,
		log:     o.Logger,
		opts:    o,
		kind:    o.View,
		pages:   map[model.Kind]int{},
		keys:    defaultKeyMap(),
		help:    help.New(),
		spinner: sp,
		input:   in,
	}
	for k, p := range o.Pages {
		m.pages[k] = p
	}
	m.mount(o.View)
	return m
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(m.startView(), m.connectEvents())
}

// mount replaces the active view. The previous view is torn down first so its
// in-flight completions become no-ops.
func (m *appModel) mount(k model.Kind) {
	if m.active != nil {
		m.pages[m.active.kind] = m.active.page
		m.active.unmount()
	}
	m.kind = k
	m.active = mountListView(m.ctx, m.reg, k, m.opts)
	m.active.page = m.pages[k]
	m.active.clamp()
	m.closeInput()
}

func (m *appModel) switchView(delta int) tea.Cmd {
	i := 0
	for j, k := range model.Kinds {
		if k == m.kind {
			i = j
		}
	}
	n := len(model.Kinds)
	m.mount(model.Kinds[((i+delta)%n+n)%n])
	return m.startView()
}

// shutdown releases the active view; used when the program exits.
func (m *appModel) shutdown() {
	if m.active != nil {
		m.pages[m.active.kind] = m.active.page
		m.active.unmount()
	}
}

func (m *appModel) showMinibuffer(text string) tea.Cmd {
	m.minibufferText = text
	m.minibufferSeq++
	seq := m.minibufferSeq
	return tea.Tick(m.opts.MessageTimeout, func(time.Time) tea.Msg { return minibufferDoneMsg{seq: seq} })
}

func (m *appModel) closeInput() {
	m.inputMode = inputNone
	m.inputRow = nil
	m.input.Blur()
	m.input.SetValue("")
}
