package tui

import (
	"context"

	"cloudconsole/internal/cache"
	"cloudconsole/internal/console"
	"cloudconsole/internal/model"
)

// rowEditor is the detail card of one expanded row.
type rowEditor struct {
	id    string
	ed    *console.Editor
	field int
}

// listView is one mounted list screen. Everything it owns is released by
// unmount; messages addressed to an unmounted view are dropped.
type listView struct {
	kind     model.Kind
	reg      *cache.Registry
	st       *console.ListState
	bulk     *console.Bulk
	poller   *console.Poller
	scope    *console.Scope
	gen      uint64
	editors  map[string]*rowEditor
	items    []model.Doc
	cursor   int
	page     int
	pageSize int

	fetchSeq   uint64
	appliedSeq uint64
	loading    bool
	stale      bool
	lastErr    string

	confirmDelete bool
}

func mountListView(parent context.Context, reg *cache.Registry, k model.Kind, o Options) *listView {
	st := console.NewListState()
	lv := &listView{
		kind:     k,
		reg:      reg,
		st:       st,
		bulk:     console.NewBulk(st),
		poller:   console.NewPoller(o.PollInterval),
		scope:    console.NewScope(parent),
		editors:  map[string]*rowEditor{},
		pageSize: o.PageSize,
	}
	if lv.pageSize <= 0 {
		lv.pageSize = 20
	}
	lv.scope.Defer(reg.SubscribeAll(lv.onChange, lv.kinds()...))
	lv.scope.Defer(func() {
		lv.poller.Stop()
		lv.bulk.Close()
		for id, re := range lv.editors {
			re.ed.Close()
			delete(lv.editors, id)
		}
	})
	lv.gen = lv.poller.Start()
	lv.onChange(k)
	return lv
}

func (lv *listView) unmount() { lv.scope.Close() }

func (lv *listView) mounted() bool { return lv.scope.Alive() }

// kinds lists the collections this view renders from.
func (lv *listView) kinds() []model.Kind {
	if lv.kind == model.KindInstance {
		return []model.Kind{model.KindInstance, model.KindOrganization}
	}
	return []model.Kind{lv.kind}
}

// onChange runs for every watched collection. Only the view's own kind
// refreshes the rows; every notification reconciles the local state.
func (lv *listView) onChange(k model.Kind) {
	if k == lv.kind {
		lv.items = lv.reg.Collection(lv.kind).List()
	}
	console.ReconcileState(lv.st, lv.items)
	lv.syncEditors()
	lv.clamp()
}

// syncEditors closes editors whose rows collapsed or vanished, opens editors
// for newly expanded rows and refreshes the canonical document of the rest.
func (lv *listView) syncEditors() {
	coll := lv.reg.Collection(lv.kind)
	for id, re := range lv.editors {
		doc, ok := coll.Get(id)
		if !ok || !lv.st.Expanded.Has(id) {
			re.ed.Close()
			delete(lv.editors, id)
			continue
		}
		re.ed.Refresh(doc)
	}
	for _, id := range lv.st.Expanded.Sorted() {
		if _, ok := lv.editors[id]; ok {
			continue
		}
		if doc, ok := coll.Get(id); ok {
			lv.editors[id] = &rowEditor{id: id, ed: console.NewEditor(doc)}
		}
	}
}

func (lv *listView) pageCount() int {
	if len(lv.items) == 0 {
		return 1
	}
	return (len(lv.items) + lv.pageSize - 1) / lv.pageSize
}

func (lv *listView) pageItems() []model.Doc {
	start := lv.page * lv.pageSize
	if start >= len(lv.items) {
		return nil
	}
	end := min(start+lv.pageSize, len(lv.items))
	return lv.items[start:end]
}

func (lv *listView) clamp() {
	if lv.page >= lv.pageCount() {
		lv.page = lv.pageCount() - 1
	}
	if lv.page < 0 {
		lv.page = 0
	}
	n := len(lv.pageItems())
	if lv.cursor >= n {
		lv.cursor = n - 1
	}
	if lv.cursor < 0 {
		lv.cursor = 0
	}
}

func (lv *listView) cursorID() string {
	items := lv.pageItems()
	if lv.cursor < 0 || lv.cursor >= len(items) {
		return ""
	}
	return items[lv.cursor].ID()
}

// cursorEditor is the editor of the cursor row when that row is open.
func (lv *listView) cursorEditor() *rowEditor {
	return lv.editors[lv.cursorID()]
}

func (lv *listView) moveCursor(delta int) {
	lv.cursor += delta
	lv.clamp()
}

func (lv *listView) click(shift bool) {
	id := lv.cursorID()
	if id == "" {
		return
	}
	console.Click(lv.st, lv.pageItems(), id, shift)
}

func (lv *listView) toggleExpanded() {
	id := lv.cursorID()
	if id == "" {
		return
	}
	lv.st.ToggleExpanded(id)
	lv.syncEditors()
}

func (lv *listView) collapseAll() {
	lv.st.CollapseAll()
	lv.syncEditors()
}

func (lv *listView) setPage(p int) {
	if p < 0 || p >= lv.pageCount() || p == lv.page {
		return
	}
	lv.page = p
	lv.cursor = 0
	lv.st.ResetAnchor()
}

func (lv *listView) busy() bool {
	if lv.st.Disabled {
		return true
	}
	for _, re := range lv.editors {
		if re.ed.Disabled() {
			return true
		}
	}
	return false
}
