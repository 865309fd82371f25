package tui

import (
	"cloudconsole/internal/console"
	"cloudconsole/internal/model"
)

type pollTickMsg struct {
	lv  *listView
	gen uint64
}

type loadedMsg struct {
	lv   *listView
	seq  uint64
	docs map[model.Kind][]model.Doc
	err  error
}

type editorDoneMsg struct {
	lv  *listView
	re  *rowEditor
	p   console.Pending
	doc model.Doc
	err error
}

type expireMsg struct {
	ed *console.Editor
	p  console.Pending
}

type bulkDoneMsg struct {
	lv      *listView
	p       console.BulkPending
	removed []string
	err     error
}

type eventsConnectedMsg struct{ ch <-chan model.ChangeEvent }

type changeEventMsg struct {
	ch <-chan model.ChangeEvent
	ev model.ChangeEvent
}

type eventsClosedMsg struct{ err error }

type minibufferDoneMsg struct{ seq int }

type inputMode int

const (
	inputNone inputMode = iota
	inputEditField
	inputAddItem
	inputRemoveItem
)
