// Package report lays out one transactional document and its line items for
// reading on screen and for printing.
package report

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Field is a labelled header or totals value.
type Field struct {
	Label string
	Value string
}

// Document is one printable record.
type Document struct {
	Title    string
	Number   string
	Header   []Field
	Columns  []string
	Numeric  []bool
	Lines    [][]string
	Totals   []Field
	Footer   string
	Filename string
}

// RenderText lays the document out as plain text no wider than width.
func (d *Document) RenderText(width int) string {
	if width < 40 {
		width = 40
	}
	var b strings.Builder

	title := d.Title
	if d.Number != "" {
		title += "  " + d.Number
	}
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("=", min(width, utf8.RuneCountInString(title))) + "\n\n")

	labelWidth := 0
	for _, f := range d.Header {
		labelWidth = max(labelWidth, utf8.RuneCountInString(f.Label))
	}
	for _, f := range d.Header {
		fmt.Fprintf(&b, "%s  %s\n", pad(f.Label, labelWidth), f.Value)
	}
	if len(d.Header) > 0 {
		b.WriteString("\n")
	}

	if len(d.Columns) > 0 {
		widths := d.columnWidths(width)
		b.WriteString(d.renderRow(d.Columns, widths) + "\n")
		total := 0
		for _, w := range widths {
			total += w
		}
		total += 2 * (len(widths) - 1)
		b.WriteString(strings.Repeat("-", total) + "\n")
		if len(d.Lines) == 0 {
			b.WriteString("No line items\n")
		}
		for _, line := range d.Lines {
			b.WriteString(d.renderRow(line, widths) + "\n")
		}
		b.WriteString("\n")
	}

	totalsWidth := 0
	for _, f := range d.Totals {
		totalsWidth = max(totalsWidth, utf8.RuneCountInString(f.Label))
	}
	for _, f := range d.Totals {
		fmt.Fprintf(&b, "%s  %s\n", padLeft(f.Label, totalsWidth), f.Value)
	}

	if d.Footer != "" {
		b.WriteString("\n" + d.Footer + "\n")
	}
	return b.String()
}

func (d *Document) columnWidths(width int) []int {
	widths := make([]int, len(d.Columns))
	for i, c := range d.Columns {
		widths[i] = utf8.RuneCountInString(c)
	}
	for _, line := range d.Lines {
		for i := range widths {
			if i < len(line) {
				widths[i] = max(widths[i], utf8.RuneCountInString(line[i]))
			}
		}
	}

	// Shrink the widest column until the table fits.
	sum := func() int {
		s := 2 * (len(widths) - 1)
		for _, w := range widths {
			s += w
		}
		return s
	}
	for sum() > width {
		widest := 0
		for i := range widths {
			if widths[i] > widths[widest] {
				widest = i
			}
		}
		if widths[widest] <= 4 {
			break
		}
		widths[widest]--
	}
	return widths
}

func (d *Document) renderRow(cells []string, widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		v := ""
		if i < len(cells) {
			v = truncate(cells[i], w)
		}
		if i < len(d.Numeric) && d.Numeric[i] {
			parts[i] = padLeft(v, w)
		} else {
			parts[i] = pad(v, w)
		}
	}
	return strings.TrimRight(strings.Join(parts, "  "), " ")
}

func pad(s string, w int) string {
	n := utf8.RuneCountInString(s)
	if n >= w {
		return s
	}
	return s + strings.Repeat(" ", w-n)
}

func padLeft(s string, w int) string {
	n := utf8.RuneCountInString(s)
	if n >= w {
		return s
	}
	return strings.Repeat(" ", w-n) + s
}

func truncate(s string, w int) string {
	if utf8.RuneCountInString(s) <= w {
		return s
	}
	r := []rune(s)
	if w <= 1 {
		return string(r[:w])
	}
	return string(r[:w-1]) + "…"
}
