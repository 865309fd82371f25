package console

// SelectRange returns every id between anchorID and targetID (inclusive) in
// list order. The result is the same whichever of the two was clicked first.
// ok is false when either id is not in list; callers then fall back to a single toggle.
func SelectRange[E Identified](list []E, anchorID, targetID string) (IDSet, bool) {
	start, end := -1, -1
	for i, e := range list {
		id := e.EntityID()
		if id == anchorID && start < 0 {
			start = i
		}
		if id == targetID && end < 0 {
			end = i
		}
	}
	if start < 0 || end < 0 {
		return nil, false
	}
	if start > end {
		start, end = end, start
	}

	out := make(IDSet, end-start+1)
	for i := start; i <= end; i++ {
		out[list[i].EntityID()] = struct{}{}
	}
	return out, true
}

// ListState is the user-local state of one mounted list view. It is owned by
// the view and discarded when the view unmounts.
type ListState struct {
	Selected IDSet
	Expanded IDSet
	// Anchor is the most recently clicked row ("" when unset).
	Anchor string
	// Disabled guards the view while a bulk action is in flight.
	Disabled bool
}

func NewListState() *ListState {
	return &ListState{
		Selected: IDSet{},
		Expanded: IDSet{},
	}
}

// Click handles a selection click on id. With shift held and a resolvable
// anchor the range is merged into the current selection; otherwise id is toggled.
// The anchor always moves to id.
func Click[E Identified](st *ListState, list []E, id string, shift bool) {
	defer func() { st.Anchor = id }()

	if shift && st.Anchor != "" {
		if rng, ok := SelectRange(list, st.Anchor, id); ok {
			sel := st.Selected.Clone()
			sel.Union(rng)
			st.Selected = sel
			return
		}
	}

	sel := st.Selected.Clone()
	sel.Toggle(id)
	st.Selected = sel
}

func (st *ListState) ToggleExpanded(id string) {
	exp := st.Expanded.Clone()
	exp.Toggle(id)
	st.Expanded = exp
}

func (st *ListState) CollapseAll() {
	st.Expanded = IDSet{}
}

// ResetAnchor is called when the displayed page changes.
func (st *ListState) ResetAnchor() {
	st.Anchor = ""
}

// ReconcileState applies Reconcile to st in place.
func ReconcileState[E Identified](st *ListState, list []E) {
	st.Selected, st.Expanded = Reconcile(list, st.Selected, st.Expanded)
}
