package report

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

// NewColor returns a color whose output is forced on or off regardless of
// whether the process writes to a terminal.
func NewColor(enabled bool, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if enabled {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

// Table renders aligned columns. Widths are measured on the plain cell text
// and styling is applied after padding.
type Table struct {
	w       io.Writer
	headers []string
	rows    []tableRow
	right   map[int]bool
	header  *color.Color
	rule    *color.Color
}

type tableRow struct {
	cells []string
	style *color.Color
}

// NewTable creates a table writing to w.
func NewTable(w io.Writer, colorEnabled bool, headers ...string) *Table {
	return &Table{
		w:       w,
		headers: headers,
		right:   make(map[int]bool),
		header:  NewColor(colorEnabled, color.Bold),
		rule:    NewColor(colorEnabled, color.Faint),
	}
}

// AlignRight right-aligns the given columns.
func (t *Table) AlignRight(cols ...int) *Table {
	for _, c := range cols {
		t.right[c] = true
	}
	return t
}

// AddRow adds an unstyled row.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, tableRow{cells: cells})
}

// AddStyledRow adds a row printed in style.
func (t *Table) AddStyledRow(style *color.Color, cells ...string) {
	t.rows = append(t.rows, tableRow{cells: cells, style: style})
}

// Render writes the header, a rule and every row.
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range t.rows {
		for i, cell := range row.cells {
			if i < len(widths) {
				if n := utf8.RuneCountInString(cell); n > widths[i] {
					widths[i] = n
				}
			}
		}
	}

	t.printRow(t.headers, widths, t.header)

	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat("─", w)
	}
	fmt.Fprintln(t.w, t.rule.Sprint(strings.Join(parts, "──")))

	for _, row := range t.rows {
		t.printRow(row.cells, widths, row.style)
	}
}

func (t *Table) printRow(cells []string, widths []int, style *color.Color) {
	parts := make([]string, 0, len(widths))
	for i := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		if t.right[i] {
			parts = append(parts, PadLeft(cell, widths[i]))
		} else {
			parts = append(parts, PadRight(cell, widths[i]))
		}
	}
	line := strings.TrimRight(strings.Join(parts, "  "), " ")
	if style != nil {
		line = style.Sprint(line)
	}
	fmt.Fprintln(t.w, line)
}
