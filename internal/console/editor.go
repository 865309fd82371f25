package console

import (
	"slices"
	"sort"
	"time"

	"cloudconsole/internal/model"
)

const (
	// MessageTimeout is how long a success message stays up after a save.
	MessageTimeout = 3000 * time.Millisecond

	MessageSaved       = "Your changes have been saved"
	MessageSyncStarted = "Sync started"
)

// EditState is the observable state of a detail view.
type EditState int

const (
	StateClean EditState = iota
	StateDirty
	StateSaving
)

func (s EditState) String() string {
	switch s {
	case StateDirty:
		return "dirty"
	case StateSaving:
		return "saving"
	default:
		return "clean"
	}
}

type opKind int

const (
	opCommit opKind = iota
	opSync
	opRemove
)

// Pending identifies one asynchronous operation started by an Editor. The
// caller sends Payload (or removes ID) and hands the token back on completion.
type Pending struct {
	seq   uint64
	op    opKind
	edits uint64

	// Payload is the document to send for commit and sync.
	Payload model.Doc
	// ID is the entity id for remove.
	ID string
}

// Removes reports whether p deletes the entity rather than sending Payload.
func (p Pending) Removes() bool { return p.op == opRemove }

// Editor is the edit buffer of one detail view.
//
// The canonical document is never mutated. The first edit creates a buffer
// from it, and every later edit replaces the buffer with a modified copy, so
// a Doc handed out earlier stays a valid snapshot.
type Editor struct {
	canonical model.Doc
	buffer    model.Doc
	hasBuffer bool

	dirty    bool
	disabled bool
	saving   bool
	message  string

	seq       uint64
	expirySeq uint64
	// edits counts buffer changes; a commit only cleans the edits it carried.
	edits  uint64
	closed bool
}

func NewEditor(canonical model.Doc) *Editor {
	return &Editor{canonical: canonical}
}

// Doc returns what the view renders: the buffer when present, else canonical.
func (e *Editor) Doc() model.Doc { return e.working() }

func (e *Editor) Canonical() model.Doc { return e.canonical }

func (e *Editor) Buffer() (model.Doc, bool) { return e.buffer, e.hasBuffer }

func (e *Editor) Dirty() bool { return e.dirty }
func (e *Editor) Disabled() bool { return e.disabled }
func (e *Editor) Message() string { return e.message }
func (e *Editor) Closed() bool { return e.closed }

func (e *Editor) State() EditState {
	switch {
	case e.saving:
		return StateSaving
	case e.dirty:
		return StateDirty
	default:
		return StateClean
	}
}

func (e *Editor) working() model.Doc {
	if e.hasBuffer {
		return e.buffer
	}
	return e.canonical
}

func (e *Editor) store(d model.Doc) {
	e.buffer = d
	e.hasBuffer = true
	e.dirty = true
	e.message = ""
	e.edits++
}

// SetField sets name on a fresh copy of the working document.
func (e *Editor) SetField(name string, value any) {
	if e.closed {
		return
	}
	e.store(e.working().With(name, value))
}

// AddListItem adds value to the list field unless it is already there and
// keeps the list sorted. Empty values are ignored.
func (e *Editor) AddListItem(field, value string) {
	if e.closed || value == "" {
		return
	}
	cur := e.working()
	items := cur.Strings(field)
	if !slices.Contains(items, value) {
		items = append(items, value)
	}
	sort.Strings(items)
	e.store(cur.With(field, items))
}

// RemoveListItem removes one occurrence of value from the list field. It
// reports false, and creates no buffer, when value is not in the list.
func (e *Editor) RemoveListItem(field, value string) bool {
	if e.closed {
		return false
	}
	cur := e.working()
	items := cur.Strings(field)
	i := slices.Index(items, value)
	if i < 0 {
		return false
	}
	items = slices.Delete(items, i, i+1)
	e.store(cur.With(field, items))
	return true
}

// Cancel drops the buffer and reverts the view to canonical.
func (e *Editor) Cancel() {
	if e.closed {
		return
	}
	e.dirty = false
	e.message = ""
	e.buffer = model.Doc{}
	e.hasBuffer = false
}

func (e *Editor) begin(op opKind) (Pending, bool) {
	if e.closed || e.disabled {
		return Pending{}, false
	}
	e.disabled = true
	e.seq++
	return Pending{seq: e.seq, op: op}, true
}

// BeginCommit captures the working document for saving and disables the view.
// Edits made after this call are not part of the payload.
func (e *Editor) BeginCommit() (Pending, bool) {
	p, ok := e.begin(opCommit)
	if !ok {
		return p, false
	}
	e.saving = true
	p.Payload = e.working()
	p.edits = e.edits
	return p, true
}

// BeginSync resends the canonical document as-is to force a server-side resync.
func (e *Editor) BeginSync() (Pending, bool) {
	p, ok := e.begin(opSync)
	if !ok {
		return p, false
	}
	p.Payload = e.canonical
	return p, true
}

// BeginRemove requests deletion of the canonical entity.
func (e *Editor) BeginRemove() (Pending, bool) {
	p, ok := e.begin(opRemove)
	if !ok {
		return p, false
	}
	p.ID = e.canonical.ID()
	return p, true
}

// Complete applies the outcome of p. It reports whether the caller must call
// Expire(p) after MessageTimeout. Completions for a closed editor, or for an
// operation that is no longer current, change nothing.
func (e *Editor) Complete(p Pending, err error) (scheduleExpiry bool) {
	if e.closed || p.seq != e.seq || !e.disabled {
		return false
	}
	e.disabled = false
	e.saving = false

	switch p.op {
	case opCommit:
		if err != nil {
			e.message = ""
			return false
		}
		e.message = MessageSaved
		// Edits made while saving were not sent and stay dirty.
		e.dirty = e.edits != p.edits
		e.expirySeq = p.seq
		return true
	case opSync:
		if err != nil {
			return false
		}
		e.message = MessageSyncStarted
		e.expirySeq = p.seq
		return true
	default:
		// The row disappears once the entity is gone from the next list.
		return false
	}
}

// Expire clears the message, and the buffer if nothing was edited since the
// save that scheduled it.
func (e *Editor) Expire(p Pending) {
	if e.closed || p.seq != e.expirySeq {
		return
	}
	e.message = ""
	if e.dirty {
		return
	}
	e.buffer = model.Doc{}
	e.hasBuffer = false
}

// Refresh replaces the canonical document after a poll. The buffer, if any,
// is left alone.
func (e *Editor) Refresh(canonical model.Doc) {
	if e.closed {
		return
	}
	e.canonical = canonical
}

// Close tears the editor down. Every later call is a no-op.
func (e *Editor) Close() {
	e.closed = true
}
