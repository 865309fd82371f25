package tui

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cloudconsole/internal/cache"
	"cloudconsole/internal/client"
	"cloudconsole/internal/console"
	"cloudconsole/internal/model"
	"cloudconsole/internal/server"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func orgDocs(names ...string) []model.Doc {
	var out []model.Doc
	for i, n := range names {
		out = append(out, model.NewDoc(map[string]any{"id": "org-" + string(rune('a'+i)), "name": n}))
	}
	return out
}

// newTestApp builds an app over a preloaded registry with no transport.
func newTestApp(t *testing.T, k model.Kind, docs []model.Doc) appModel {
	t.Helper()
	reg := cache.NewRegistry()
	reg.Collection(k).Replace(docs)
	m := newAppModel(context.Background(), Options{Registry: reg, View: k, PageSize: 3})
	m.width = 120
	m.height = 40
	t.Cleanup(m.shutdown)
	return m
}

func press(t *testing.T, m appModel, keys ...string) appModel {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "shift+down":
			msg = tea.KeyMsg{Type: tea.KeyShiftDown}
		case "space":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		case "ctrl+s":
			msg = tea.KeyMsg{Type: tea.KeyCtrlS}
		case "ctrl+d":
			msg = tea.KeyMsg{Type: tea.KeyCtrlD}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		mm, _ := m.Update(msg)
		m = mm.(appModel)
	}
	return m
}

func TestSelectAndRangeSelect(t *testing.T) {
	m := newTestApp(t, model.KindOrganization, orgDocs("a", "b", "c"))

	m = press(t, m, "space", "down", "down", "S")
	assert.Equal(t, []string{"org-a", "org-b", "org-c"}, m.active.st.Selected.Sorted())
	assert.Equal(t, "org-c", m.active.st.Anchor)

	// Plain select toggles a single row off.
	m = press(t, m, "up", "space")
	assert.Equal(t, []string{"org-a", "org-c"}, m.active.st.Selected.Sorted())
}

func TestShiftDownExtendsSelection(t *testing.T) {
	m := newTestApp(t, model.KindOrganization, orgDocs("a", "b", "c"))

	m = press(t, m, "space", "shift+down", "shift+down")
	assert.Equal(t, []string{"org-a", "org-b", "org-c"}, m.active.st.Selected.Sorted())
}

func TestPagingClearsAnchor(t *testing.T) {
	m := newTestApp(t, model.KindOrganization, orgDocs("a", "b", "c", "d", "e"))

	m = press(t, m, "space")
	require.Equal(t, "org-a", m.active.st.Anchor)
	m = press(t, m, "]")
	assert.Equal(t, 1, m.active.page)
	assert.Equal(t, "", m.active.st.Anchor)
	assert.Equal(t, "org-d", m.active.cursorID())

	// With no anchor a shift-select is a plain toggle.
	m = press(t, m, "S")
	assert.Equal(t, []string{"org-a", "org-d"}, m.active.st.Selected.Sorted())
}

func TestPollReconcilesSelectionAndClosesEditors(t *testing.T) {
	m := newTestApp(t, model.KindOrganization, orgDocs("a", "b", "c"))

	m = press(t, m, "space", "down", "space", "enter")
	require.Contains(t, m.active.editors, "org-b")
	ed := m.active.editors["org-b"].ed

	// org-b disappears from the next list.
	m.reg.Collection(model.KindOrganization).Replace([]model.Doc{orgDocs("a")[0]})
	assert.Equal(t, []string{"org-a"}, m.active.st.Selected.Sorted())
	assert.Equal(t, 0, m.active.st.Expanded.Len())
	assert.NotContains(t, m.active.editors, "org-b")
	assert.True(t, ed.Closed())
}

func TestOrganizationChangeReconcilesInstanceView(t *testing.T) {
	reg := cache.NewRegistry()
	reg.Collection(model.KindOrganization).Replace(orgDocs("acme"))
	reg.Collection(model.KindInstance).Replace([]model.Doc{
		model.NewDoc(map[string]any{"id": "inst-1", "name": "web", "organization": "org-a"}),
	})
	m := newAppModel(context.Background(), Options{Registry: reg, View: model.KindInstance})
	defer m.shutdown()
	m.width = 120

	m = press(t, m, "space", "enter")
	require.Contains(t, m.active.editors, "inst-1")
	m.active.st.Selected.Add("inst-gone")
	m.active.st.Expanded.Add("inst-gone")

	reg.Collection(model.KindOrganization).Replace(orgDocs("acme-renamed"))

	assert.Equal(t, []string{"inst-1"}, m.active.st.Selected.Sorted())
	assert.False(t, m.active.st.Expanded.Has("inst-gone"))
	assert.Contains(t, m.active.editors, "inst-1")
	assert.Contains(t, m.View(), "acme-renamed")
}

func TestEditAddAndCancel(t *testing.T) {
	m := newTestApp(t, model.KindOrganization, orgDocs("a"))

	m = press(t, m, "enter", "e")
	require.Equal(t, inputEditField, m.inputMode)
	m.input.SetValue("renamed")
	m = press(t, m, "enter")
	re := m.active.editors["org-a"]
	require.NotNil(t, re)
	assert.Equal(t, "renamed", re.ed.Doc().String("name"))
	assert.Equal(t, "a", re.ed.Canonical().String("name"))
	assert.True(t, re.ed.Dirty())

	// Move to roles and add two, remove one.
	m = press(t, m, "l", "a")
	m.input.SetValue("admin")
	m = press(t, m, "enter", "a")
	m.input.SetValue("ops")
	m = press(t, m, "enter", "x")
	assert.Equal(t, "ops", m.input.Value())
	m = press(t, m, "enter")
	assert.Equal(t, []string{"admin"}, re.ed.Doc().Strings("roles"))

	m = press(t, m, "x")
	m.input.SetValue("missing")
	m = press(t, m, "enter")
	assert.Contains(t, m.minibufferText, "not present")

	m = press(t, m, "esc")
	assert.False(t, re.ed.Dirty())
	assert.Equal(t, "a", re.ed.Doc().String("name"))
	assert.Empty(t, re.ed.Doc().Strings("roles"))
}

func TestCollapseAllClosesEditors(t *testing.T) {
	m := newTestApp(t, model.KindOrganization, orgDocs("a", "b"))

	m = press(t, m, "enter", "down", "enter")
	require.Len(t, m.active.editors, 2)
	m = press(t, m, "C")
	assert.Empty(t, m.active.editors)
}

func TestStalePollTickIgnoredAfterViewSwitch(t *testing.T) {
	blocks := []model.Doc{model.NewDoc(map[string]any{"id": "blk-a", "name": "a"})}
	m := newTestApp(t, model.KindBlock, blocks)
	old := m.active
	gen := old.gen

	m = press(t, m, "tab")
	require.NotSame(t, old, m.active)
	assert.Equal(t, model.KindOrganization, m.kind)
	assert.False(t, old.mounted())
	assert.Equal(t, 0, m.reg.Collection(model.KindBlock).Subscribers())

	mm, cmd := m.Update(pollTickMsg{lv: old, gen: gen})
	assert.Nil(t, cmd)
	m = mm.(appModel)

	// Late load for the old view does not touch the registry.
	mm, _ = m.Update(loadedMsg{lv: old, seq: 1, docs: map[model.Kind][]model.Doc{model.KindBlock: nil}})
	m = mm.(appModel)
	assert.Equal(t, 1, m.reg.Collection(model.KindBlock).Len())
}

func TestEditorCompletionAfterUnmountIsNoop(t *testing.T) {
	m := newTestApp(t, model.KindOrganization, orgDocs("a"))
	m = press(t, m, "enter")
	lv := m.active
	re := lv.editors["org-a"]
	p, ok := re.ed.BeginCommit()
	require.True(t, ok)

	m = press(t, m, "tab")
	mm, _ := m.Update(editorDoneMsg{lv: lv, re: re, p: p})
	m = mm.(appModel)
	assert.True(t, re.ed.Closed())
	assert.Equal(t, "", re.ed.Message())
	assert.Equal(t, "", m.minibufferText)
}

func TestOutOfOrderLoadsApplyNewestOnly(t *testing.T) {
	m := newTestApp(t, model.KindOrganization, nil)
	lv := m.active
	lv.fetchSeq = 2

	mm, _ := m.Update(loadedMsg{lv: lv, seq: 2, docs: map[model.Kind][]model.Doc{model.KindOrganization: orgDocs("new")}})
	m = mm.(appModel)
	mm, _ = m.Update(loadedMsg{lv: lv, seq: 1, docs: map[model.Kind][]model.Doc{model.KindOrganization: orgDocs("old")}})
	m = mm.(appModel)

	require.Len(t, lv.items, 1)
	assert.Equal(t, "new", lv.items[0].String("name"))
}

func TestLoadErrorShowsOffline(t *testing.T) {
	m := newTestApp(t, model.KindOrganization, orgDocs("a"))
	lv := m.active
	lv.fetchSeq = 1

	mm, _ := m.Update(loadedMsg{lv: lv, seq: 1, err: errors.New("connection refused")})
	m = mm.(appModel)
	assert.Contains(t, m.View(), "offline: connection refused")
	assert.Equal(t, 1, len(lv.items))
}

func TestBulkDeleteConfirmFlow(t *testing.T) {
	m := newTestApp(t, model.KindOrganization, orgDocs("a", "b"))

	m = press(t, m, "D")
	assert.Equal(t, "Nothing selected", m.minibufferText)

	m = press(t, m, "space", "D")
	require.True(t, m.active.confirmDelete)
	assert.Contains(t, m.View(), "Delete 1 organizations? (y/n)")

	m = press(t, m, "n")
	assert.False(t, m.active.confirmDelete)
	assert.False(t, m.active.st.Disabled)
	assert.Equal(t, 1, m.active.st.Selected.Len())
}

func TestViewRendersRowsAndCard(t *testing.T) {
	setGlyphs(glyphSetASCII)
	defer setGlyphs(glyphSetUnicode)

	reg := cache.NewRegistry()
	reg.Collection(model.KindOrganization).Replace([]model.Doc{
		model.NewDoc(map[string]any{"id": "org-1", "name": "Acme"}),
	})
	reg.Collection(model.KindInstance).Replace([]model.Doc{
		model.NewDoc(map[string]any{"id": "inst-1", "name": "web", "organization": "org-1", "status": "Running", "memory": 2048, "processors": 2}),
	})
	m := newAppModel(context.Background(), Options{Registry: reg, View: model.KindInstance})
	defer m.shutdown()
	m.width = 160

	m = press(t, m, "space", "enter")
	out := m.View()
	for _, want := range []string{"[x] v web", "Running", "Acme", "2.0 GiB", "2 vCPU", "Memory (MB)", "clean"} {
		assert.Contains(t, out, want)
	}
}

// End to end against a real control plane.
func TestCommitRoundTrip(t *testing.T) {
	t.Setenv("CLOUDCONSOLE_CONFIG_DIR", t.TempDir())
	srv, err := server.NewServer(context.Background(), server.ServerConfig{Dir: t.TempDir()})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	defer func() {
		ts.Close()
		_ = srv.Close()
	}()
	c := client.New(ts.URL)
	created, err := c.Create(context.Background(), model.KindOrganization, model.NewDoc(map[string]any{"name": "acme"}))
	require.NoError(t, err)

	m := newAppModel(context.Background(), Options{Client: c, View: model.KindOrganization, MessageTimeout: time.Hour})
	defer m.shutdown()

	m = runCmd(t, m, m.fetch(m.active))
	require.Len(t, m.active.items, 1)

	m = press(t, m, "enter", "e")
	m.input.SetValue("acme-renamed")
	m = press(t, m, "enter")
	re := m.active.editors[created.ID()]
	require.NotNil(t, re)

	mm, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	m = mm.(appModel)
	assert.Equal(t, console.StateSaving, re.ed.State())
	m = runCmd(t, m, cmd)

	assert.Equal(t, console.MessageSaved, re.ed.Message())
	assert.False(t, re.ed.Dirty())
	assert.Equal(t, "acme-renamed", m.reg.Collection(model.KindOrganization).List()[0].String("name"))
}

// runCmd executes cmd and feeds resulting messages back into Update, skipping
// timers and the event feed, until no work is left.
func runCmd(t *testing.T, m appModel, cmd tea.Cmd) appModel {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0 && steps < 50; steps++ {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		msg := runWithTimeout(c)
		switch msg := msg.(type) {
		case nil:
			continue
		case tea.BatchMsg:
			queue = append(queue, msg...)
			continue
		}
		mm, next := m.Update(msg)
		m = mm.(appModel)
		queue = append(queue, next)
	}
	return m
}

// runWithTimeout runs c unless it is a timer that outlives the test step.
func runWithTimeout(c tea.Cmd) tea.Msg {
	done := make(chan tea.Msg, 1)
	go func() { done <- c() }()
	select {
	case msg := <-done:
		if _, ok := msg.(pollTickMsg); ok {
			return nil
		}
		return msg
	case <-time.After(200 * time.Millisecond):
		return nil
	}
}

func TestHelpOverlay(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	m := newTestApp(t, model.KindOrganization, orgDocs("a"))
	m = press(t, m, "?")
	require.True(t, m.showHelp)
	assert.True(t, strings.Contains(m.View(), "Keys"))
	m = press(t, m, "?")
	assert.False(t, m.showHelp)
}
