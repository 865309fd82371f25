package console

// BulkPending identifies an in-flight bulk removal.
type BulkPending struct {
	seq uint64
	IDs []string
}

// Bulk runs multi-entity actions for a list view. At most one runs at a time;
// the view's Disabled flag is the lock.
type Bulk struct {
	st     *ListState
	seq    uint64
	closed bool
}

func NewBulk(st *ListState) *Bulk {
	return &Bulk{st: st}
}

// BeginRemove disables the view and returns the selected ids to delete in one
// batched call. It refuses when the view is disabled or nothing is selected.
func (b *Bulk) BeginRemove() (BulkPending, bool) {
	if b.closed || b.st.Disabled || b.st.Selected.Len() == 0 {
		return BulkPending{}, false
	}
	b.st.Disabled = true
	b.seq++
	return BulkPending{seq: b.seq, IDs: b.st.Selected.Sorted()}, true
}

// Complete re-enables the view. The selection is cleared only on success so a
// failed removal can be retried.
func (b *Bulk) Complete(p BulkPending, err error) {
	if b.closed || p.seq != b.seq || !b.st.Disabled {
		return
	}
	b.st.Disabled = false
	if err == nil {
		b.st.Selected = IDSet{}
	}
}

func (b *Bulk) Close() { b.closed = true }
