package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"cloudconsole/internal/client"
	"cloudconsole/internal/model"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.input.Width = max(10, msg.Width-20)
		return m, nil

	case pollTickMsg:
		lv := msg.lv
		if lv != m.active || !lv.poller.Accept(msg.gen) {
			return m, nil
		}
		var fetch tea.Cmd
		if lv.loading {
			m.log.Debug("poll skipped; load in flight", "kind", lv.kind)
		} else {
			fetch = m.fetch(lv)
		}
		return m, tea.Batch(fetch, pollTick(lv, msg.gen, lv.poller.Interval))

	case loadedMsg:
		return m, m.applyLoaded(msg)

	case editorDoneMsg:
		return m, m.applyEditorDone(msg)

	case expireMsg:
		msg.ed.Expire(msg.p)
		return m, nil

	case bulkDoneMsg:
		return m, m.applyBulkDone(msg)

	case eventsConnectedMsg:
		m.live = true
		return m, waitEvent(msg.ch)

	case changeEventMsg:
		var fetch tea.Cmd
		for _, k := range m.active.kinds() {
			if k == msg.ev.Kind {
				fetch = m.fetch(m.active)
				break
			}
		}
		return m, tea.Batch(fetch, waitEvent(msg.ch))

	case eventsClosedMsg:
		m.live = false
		if msg.err != nil {
			m.log.Warn("change feed unavailable; polling only", "error", msg.err)
		}
		return m, nil

	case minibufferDoneMsg:
		if msg.seq == m.minibufferSeq {
			m.minibufferText = ""
		}
		return m, nil

	case spinner.TickMsg:
		if !m.active.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.updateKey(msg)
	}

	if m.inputMode != inputNone {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *appModel) applyLoaded(msg loadedMsg) tea.Cmd {
	lv := msg.lv
	if lv != m.active || !lv.mounted() {
		return nil
	}
	lv.loading = false
	var cmds []tea.Cmd
	if lv.stale {
		cmds = append(cmds, m.fetch(lv))
	}
	if msg.seq <= lv.appliedSeq {
		return tea.Batch(cmds...)
	}
	lv.appliedSeq = msg.seq
	if msg.err != nil {
		if lv.lastErr == "" {
			m.log.Warn("load failed", "kind", lv.kind, "error", msg.err)
		}
		lv.lastErr = msg.err.Error()
		return tea.Batch(cmds...)
	}
	lv.lastErr = ""
	// Lookup collections first so the primary list renders with fresh names.
	for _, k := range lv.kinds() {
		if k != lv.kind {
			m.reg.Collection(k).Replace(msg.docs[k])
		}
	}
	m.reg.Collection(lv.kind).Replace(msg.docs[lv.kind])
	return tea.Batch(cmds...)
}

func (m *appModel) applyEditorDone(msg editorDoneMsg) tea.Cmd {
	var cmds []tea.Cmd
	if msg.re.ed.Complete(msg.p, msg.err) {
		cmds = append(cmds, scheduleExpire(msg.re, msg.p, m.opts.MessageTimeout))
	}
	if msg.lv != m.active || !msg.lv.mounted() {
		return tea.Batch(cmds...)
	}
	if msg.err != nil {
		m.log.Warn("request failed", "kind", msg.lv.kind, "id", msg.re.id, "error", msg.err)
		cmds = append(cmds, m.showMinibuffer("Error: "+errorText(msg.err)))
	} else if msg.p.Removes() {
		cmds = append(cmds, m.showMinibuffer("Deleted "+msg.re.id))
	}
	cmds = append(cmds, m.fetch(msg.lv))
	return tea.Batch(cmds...)
}

func (m *appModel) applyBulkDone(msg bulkDoneMsg) tea.Cmd {
	msg.lv.bulk.Complete(msg.p, msg.err)
	if msg.lv != m.active || !msg.lv.mounted() {
		return nil
	}
	var cmds []tea.Cmd
	if msg.err != nil {
		m.log.Warn("bulk delete failed", "kind", msg.lv.kind, "error", msg.err)
		cmds = append(cmds, m.showMinibuffer("Error: "+errorText(msg.err)))
	} else {
		cmds = append(cmds, m.showMinibuffer(fmt.Sprintf("Deleted %d %s", len(msg.removed), msg.lv.kind.Plural())))
	}
	cmds = append(cmds, m.fetch(msg.lv))
	return tea.Batch(cmds...)
}

func errorText(err error) string {
	var ae *client.APIError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return err.Error()
}

func (m appModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.inputMode != inputNone {
		return m.updateInputKey(msg)
	}
	if m.showHelp {
		if key.Matches(msg, m.keys.Help, m.keys.Cancel) {
			m.showHelp = false
		} else if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		return m, nil
	}

	lv := m.active
	if lv.confirmDelete {
		lv.confirmDelete = false
		if msg.String() != "y" && msg.String() != "Y" {
			return m, m.showMinibuffer("Delete canceled")
		}
		p, ok := lv.bulk.BeginRemove()
		if !ok {
			return m, m.showMinibuffer("Nothing to delete")
		}
		return m, tea.Batch(m.runBulkRemove(lv, p), m.spinner.Tick)
	}

	if re := lv.cursorEditor(); re != nil {
		if handled, cmd := m.updateEditorKey(lv, re, msg); handled {
			return m, cmd
		}
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
	case key.Matches(msg, m.keys.Up):
		lv.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		lv.moveCursor(1)
	case key.Matches(msg, m.keys.RangeUp):
		lv.moveCursor(-1)
		lv.click(true)
	case key.Matches(msg, m.keys.RangeDown):
		lv.moveCursor(1)
		lv.click(true)
	case key.Matches(msg, m.keys.Select):
		lv.click(false)
	case key.Matches(msg, m.keys.RangeSelect):
		lv.click(true)
	case key.Matches(msg, m.keys.Expand):
		lv.toggleExpanded()
	case key.Matches(msg, m.keys.CollapseAll):
		lv.collapseAll()
	case key.Matches(msg, m.keys.BulkDelete):
		if lv.st.Disabled {
			return m, m.showMinibuffer("Busy")
		}
		if lv.st.Selected.Len() == 0 {
			return m, m.showMinibuffer("Nothing selected")
		}
		lv.confirmDelete = true
	case key.Matches(msg, m.keys.PrevPage):
		lv.setPage(lv.page - 1)
	case key.Matches(msg, m.keys.NextPage):
		lv.setPage(lv.page + 1)
	case key.Matches(msg, m.keys.NextView):
		return m, m.switchView(1)
	case key.Matches(msg, m.keys.PrevView):
		return m, m.switchView(-1)
	case key.Matches(msg, m.keys.Refresh):
		return m, m.fetch(lv)
	}
	return m, nil
}

// updateEditorKey handles keys aimed at the open cursor row.
func (m *appModel) updateEditorKey(lv *listView, re *rowEditor, msg tea.KeyMsg) (bool, tea.Cmd) {
	fields := editableFields[lv.kind]
	if len(fields) == 0 {
		return false, nil
	}
	re.field = min(max(re.field, 0), len(fields)-1)
	f := fields[re.field]

	switch {
	case key.Matches(msg, m.keys.PrevField):
		re.field = (re.field - 1 + len(fields)) % len(fields)
	case key.Matches(msg, m.keys.NextField):
		re.field = (re.field + 1) % len(fields)
	case key.Matches(msg, m.keys.EditField):
		if f.kind == fieldList {
			m.openInput(inputAddItem, re, f, "")
		} else {
			m.openInput(inputEditField, re, f, fieldValue(re.ed.Doc(), f))
		}
	case key.Matches(msg, m.keys.AddItem):
		if f.kind != fieldList {
			return true, m.showMinibuffer(f.label + " is not a list")
		}
		m.openInput(inputAddItem, re, f, "")
	case key.Matches(msg, m.keys.RemoveItem):
		if f.kind != fieldList {
			return true, m.showMinibuffer(f.label + " is not a list")
		}
		items := re.ed.Doc().Strings(f.name)
		last := ""
		if len(items) > 0 {
			last = items[len(items)-1]
		}
		m.openInput(inputRemoveItem, re, f, last)
	case key.Matches(msg, m.keys.Cancel):
		re.ed.Cancel()
	case key.Matches(msg, m.keys.Save):
		p, ok := re.ed.BeginCommit()
		if !ok {
			return true, m.showMinibuffer("Busy")
		}
		return true, tea.Batch(m.runEditor(lv, re, p), m.spinner.Tick)
	case key.Matches(msg, m.keys.Sync):
		p, ok := re.ed.BeginSync()
		if !ok {
			return true, m.showMinibuffer("Busy")
		}
		return true, tea.Batch(m.runEditor(lv, re, p), m.spinner.Tick)
	case key.Matches(msg, m.keys.Delete):
		p, ok := re.ed.BeginRemove()
		if !ok {
			return true, m.showMinibuffer("Busy")
		}
		return true, tea.Batch(m.runEditor(lv, re, p), m.spinner.Tick)
	default:
		return false, nil
	}
	return true, nil
}

func (m *appModel) openInput(mode inputMode, re *rowEditor, f fieldDef, value string) {
	m.inputMode = mode
	m.inputRow = re
	m.inputField = f
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
}

func (m appModel) updateInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.closeInput()
		return m, nil
	case tea.KeyEnter:
		cmd := m.applyInput(strings.TrimSpace(m.input.Value()))
		m.closeInput()
		return m, cmd
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *appModel) applyInput(v string) tea.Cmd {
	re, f := m.inputRow, m.inputField
	if re == nil || re.ed.Closed() {
		return nil
	}
	switch m.inputMode {
	case inputEditField:
		if f.kind == fieldInt {
			n, err := strconv.Atoi(v)
			if err != nil {
				return m.showMinibuffer(f.label + ": not a number")
			}
			re.ed.SetField(f.name, n)
			return nil
		}
		re.ed.SetField(f.name, v)
	case inputAddItem:
		re.ed.AddListItem(f.name, v)
	case inputRemoveItem:
		if !re.ed.RemoveListItem(f.name, v) {
			return m.showMinibuffer(fmt.Sprintf("%s: %q not present", f.label, v))
		}
	}
	return nil
}

func fieldValue(d model.Doc, f fieldDef) string {
	switch f.kind {
	case fieldInt:
		return strconv.Itoa(d.Int(f.name))
	case fieldList:
		return strings.Join(d.Strings(f.name), ", ")
	default:
		return d.String(f.name)
	}
}
