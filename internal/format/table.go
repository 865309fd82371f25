package format

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// leadingColumns are shown first, in this order, when present.
var leadingColumns = []string{"id", "name", "status"}

// WriteTable renders a list of objects (or one object) as a bordered table.
// Columns are the union of keys; nested lists are joined with commas.
func WriteTable(w io.Writer, v any) error {
	x, err := generic(v)
	if err != nil {
		return err
	}

	var rows []map[string]any
	switch t := x.(type) {
	case []any:
		for _, it := range t {
			m, ok := it.(map[string]any)
			if !ok {
				return fmt.Errorf("table: unsupported row type %T", it)
			}
			rows = append(rows, m)
		}
	case map[string]any:
		rows = []map[string]any{t}
	default:
		_, err := fmt.Fprintln(w, cell(x))
		return err
	}

	cols := columns(rows)
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(cols...)
	for _, r := range rows {
		line := make([]string, len(cols))
		for i, c := range cols {
			line[i] = cell(r[c])
		}
		tbl.Row(line...)
	}
	_, err = fmt.Fprintln(w, tbl.Render())
	return err
}

func columns(rows []map[string]any) []string {
	seen := map[string]bool{}
	var rest []string
	for _, r := range rows {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				rest = append(rest, k)
			}
		}
	}
	var out []string
	for _, c := range leadingColumns {
		if seen[c] {
			out = append(out, c)
			delete(seen, c)
		}
	}
	sort.Strings(rest)
	for _, c := range rest {
		if seen[c] {
			out = append(out, c)
		}
	}
	return out
}

func cell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case []any:
		parts := make([]string, len(t))
		for i, it := range t {
			parts[i] = cell(it)
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		b, _ := json.Marshal(t)
		return string(b)
	default:
		return fmt.Sprintf("%v", t)
	}
}
