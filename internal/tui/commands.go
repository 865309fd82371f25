package tui

import (
	"time"

	"cloudconsole/internal/console"
	"cloudconsole/internal/model"

	tea "github.com/charmbracelet/bubbletea"
)

// startView kicks off the first load and the poll loop of the active view.
func (m *appModel) startView() tea.Cmd {
	lv := m.active
	return tea.Batch(m.fetch(lv), pollTick(lv, lv.gen, lv.poller.Interval))
}

func pollTick(lv *listView, gen uint64, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return pollTickMsg{lv: lv, gen: gen} })
}

// fetch lists every collection the view renders. While a load is in flight
// further requests only mark the view stale; the running load is followed by
// one more when it lands.
func (m *appModel) fetch(lv *listView) tea.Cmd {
	if m.client == nil || !lv.mounted() {
		return nil
	}
	if lv.loading {
		lv.stale = true
		return nil
	}
	lv.loading = true
	lv.stale = false
	lv.fetchSeq++
	seq := lv.fetchSeq
	ctx := lv.scope.Context()
	c := m.client
	kinds := lv.kinds()
	return func() tea.Msg {
		docs, err := c.SyncAll(ctx, kinds...)
		return loadedMsg{lv: lv, seq: seq, docs: docs, err: err}
	}
}

func (m *appModel) runEditor(lv *listView, re *rowEditor, p console.Pending) tea.Cmd {
	ctx := lv.scope.Context()
	c := m.client
	k := lv.kind
	return func() tea.Msg {
		if p.Removes() {
			err := c.Remove(ctx, k, p.ID)
			return editorDoneMsg{lv: lv, re: re, p: p, err: err}
		}
		doc, err := c.Commit(ctx, k, p.Payload)
		return editorDoneMsg{lv: lv, re: re, p: p, doc: doc, err: err}
	}
}

func (m *appModel) runBulkRemove(lv *listView, p console.BulkPending) tea.Cmd {
	ctx := lv.scope.Context()
	c := m.client
	k := lv.kind
	return func() tea.Msg {
		removed, err := c.RemoveMulti(ctx, k, p.IDs)
		return bulkDoneMsg{lv: lv, p: p, removed: removed, err: err}
	}
}

func scheduleExpire(re *rowEditor, p console.Pending, d time.Duration) tea.Cmd {
	ed := re.ed
	return tea.Tick(d, func(time.Time) tea.Msg { return expireMsg{ed: ed, p: p} })
}

func (m *appModel) connectEvents() tea.Cmd {
	if m.client == nil {
		return nil
	}
	ctx := m.ctx
	c := m.client
	return func() tea.Msg {
		ch, err := c.Events(ctx)
		if err != nil {
			return eventsClosedMsg{err: err}
		}
		return eventsConnectedMsg{ch: ch}
	}
}

func waitEvent(ch <-chan model.ChangeEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return changeEventMsg{ch: ch, ev: ev}
	}
}
