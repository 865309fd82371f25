package tui

import (
	"fmt"
	"strings"

	"cloudconsole/internal/cache"
	"cloudconsole/internal/docs"
	"cloudconsole/internal/model"
	"cloudconsole/internal/netutil"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
)

func (m appModel) View() string {
	w := m.width
	if w <= 0 {
		w = 100
	}
	if m.showHelp {
		md, _ := docs.Get("tui")
		return m.renderHeader(w) + "\n\n" + RenderMarkdown(md, min(w, 100)) + "\n\n" + styleMuted().Render("?/esc: close help")
	}

	var b strings.Builder
	b.WriteString(m.renderHeader(w))
	b.WriteString("\n\n")
	b.WriteString(m.renderList(w))
	b.WriteString("\n")
	b.WriteString(m.renderFooter(w))
	return b.String()
}

func (m appModel) renderHeader(w int) string {
	var tabs []string
	for _, k := range model.Kinds {
		if k == m.kind {
			tabs = append(tabs, styleTabActive.Render(k.Title()))
		} else {
			tabs = append(tabs, styleTabInactive.Render(k.Title()))
		}
	}
	status := styleMuted().Render("polling")
	if m.live {
		status = styleOK.Render(glyphBullet() + " live")
	}
	if m.active != nil && m.active.lastErr != "" {
		status = styleError.Render("offline: " + m.active.lastErr)
	}
	if m.active != nil && m.active.busy() {
		status = m.spinner.View() + " " + status
	}
	line := styleHeader.Render("cloudconsole") + "  " + strings.Join(tabs, " ") + "  " + status
	return xansi.Truncate(line, w, glyphEllipsis())
}

func (m appModel) renderList(w int) string {
	lv := m.active
	if lv == nil {
		return ""
	}
	items := lv.pageItems()
	if len(items) == 0 {
		if !lv.reg.Collection(lv.kind).Loaded() {
			return styleMuted().Render("Loading " + lv.kind.Plural() + glyphEllipsis())
		}
		return styleMuted().Render("No " + lv.kind.Plural())
	}

	var lines []string
	for i, d := range items {
		row := m.renderRow(lv, d)
		row = xansi.Truncate(row, w, glyphEllipsis())
		if i == lv.cursor {
			row = styleCursorRow.Render(xansi.Strip(row))
		}
		lines = append(lines, row)
		if re, ok := lv.editors[d.ID()]; ok {
			lines = append(lines, m.renderCard(lv, re, i == lv.cursor, w))
		}
	}
	lines = append(lines, styleMuted().Render(fmt.Sprintf("page %d/%d  %d %s  %d selected",
		lv.page+1, lv.pageCount(), len(lv.items), lv.kind.Plural(), lv.st.Selected.Len())))
	return strings.Join(lines, "\n")
}

func (m appModel) renderRow(lv *listView, d model.Doc) string {
	check := glyphUnchecked()
	if lv.st.Selected.Has(d.ID()) {
		check = glyphChecked()
	}
	twisty := glyphTwistyCollapsed()
	if lv.st.Expanded.Has(d.ID()) {
		twisty = glyphTwistyExpanded()
	}
	name := d.String("name")
	if strings.TrimSpace(name) == "" {
		name = "(unnamed)"
	}
	cols := []string{check, twisty, fmt.Sprintf("%-24s", name)}
	cols = append(cols, rowColumns(lv.reg, lv.kind, d)...)
	return strings.Join(cols, " ")
}

// rowColumns are the per-kind summary columns after the name.
func rowColumns(reg *cache.Registry, k model.Kind, d model.Doc) []string {
	switch k {
	case model.KindInstance:
		org := reg.Lookup(model.KindOrganization, d.String("organization"))
		if org == "" {
			org = d.String("organization")
		}
		return []string{
			fmt.Sprintf("%-18s", d.String("status")),
			fmt.Sprintf("%-16s", org),
			fmt.Sprintf("%-15s", d.String("public_ip")),
			humanize.IBytes(uint64(max(d.Int("memory"), 0)) * 1024 * 1024),
			fmt.Sprintf("%d vCPU", d.Int("processors")),
		}
	case model.KindBlock:
		return []string{
			fmt.Sprintf("%-16s", d.String("netmask")),
			fmt.Sprintf("%-15s", d.String("gateway")),
			availableLabel(d),
		}
	case model.KindOrganization:
		return []string{strings.Join(d.Strings("roles"), ", ")}
	}
	return nil
}

func availableLabel(d model.Doc) string {
	n, err := netutil.Available(d.Strings("addresses"), d.Strings("excludes"))
	if err != nil {
		return "invalid addresses"
	}
	return humanize.BigComma(n) + " available"
}

func (m appModel) renderCard(lv *listView, re *rowEditor, focused bool, w int) string {
	doc := re.ed.Doc()
	var lines []string
	for _, f := range readOnlyFields[lv.kind] {
		lines = append(lines, styleFieldLabel.Render(fmt.Sprintf("%-14s", f.label))+" "+fieldValue(doc, f))
	}
	for i, f := range editableFields[lv.kind] {
		label := fmt.Sprintf("%-14s", f.label)
		if focused && i == re.field {
			label = styleFieldActive.Render(label)
		} else {
			label = styleFieldLabel.Render(label)
		}
		val := fieldValue(doc, f)
		if !valueEqual(re.ed.Canonical(), doc, f) {
			val = styleDirty.Render(val + " *")
		}
		lines = append(lines, label+" "+val)
	}

	state := re.ed.State().String()
	if re.ed.Disabled() {
		state = m.spinner.View() + " " + state
	}
	status := styleMuted().Render(state)
	if msg := re.ed.Message(); msg != "" {
		status += "  " + styleOK.Render(msg)
	}
	lines = append(lines, status)

	if focused && m.inputMode != inputNone && m.inputRow == re {
		lines = append(lines, inputPrompt(m.inputMode, m.inputField)+m.input.View())
	}

	cardW := max(20, min(w-4, 90))
	return lipgloss.NewStyle().MarginLeft(4).Render(styleCard.Width(cardW).Render(strings.Join(lines, "\n")))
}

func valueEqual(a, b model.Doc, f fieldDef) bool {
	return fieldValue(a, f) == fieldValue(b, f)
}

func inputPrompt(mode inputMode, f fieldDef) string {
	switch mode {
	case inputAddItem:
		return "Add to " + strings.ToLower(f.label) + " "
	case inputRemoveItem:
		return "Remove from " + strings.ToLower(f.label) + " "
	default:
		return f.label + " "
	}
}

func (m appModel) renderFooter(w int) string {
	var lines []string
	lv := m.active
	if lv != nil && lv.confirmDelete {
		lines = append(lines, styleError.Render(fmt.Sprintf("Delete %d %s? (y/n)", lv.st.Selected.Len(), lv.kind.Plural())))
	}
	if m.minibufferText != "" {
		lines = append(lines, m.minibufferText)
	}
	if lv != nil && lv.cursorEditor() != nil {
		lines = append(lines, m.help.View(editorHelp{k: m.keys}))
	} else {
		lines = append(lines, m.help.View(m.keys))
	}
	rule := styleMuted().Render(strings.Repeat(glyphHRule(), max(0, min(w, 120))))
	return rule + "\n" + strings.Join(lines, "\n")
}
