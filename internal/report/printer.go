package report

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"unicode/utf8"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/mikelcalvo/erp-console/internal/logger"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// Printer sends a document to paper.
type Printer interface {
	Print(ctx context.Context, doc *Document) error
}

// PDFPrinter renders the document to a temporary PDF, hands it to the OS
// print command and removes the file afterwards.
type PDFPrinter struct {
	Command string
	TempDir string

	log *logger.Logger
	run func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewPDFPrinter prints through command, e.g. "lp" or "lp -d office".
func NewPDFPrinter(command string, log *logger.Logger) *PDFPrinter {
	if log == nil {
		log = logger.Nop()
	}
	if strings.TrimSpace(command) == "" {
		command = "lp"
	}
	return &PDFPrinter{
		Command: command,
		log:     log.Named("print"),
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).CombinedOutput()
		},
	}
}

// Print renders doc and runs the print command on it.
func (p *PDFPrinter) Print(ctx context.Context, doc *Document) error {
	data, err := RenderPDF(doc)
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(p.TempDir, "erp-print-*.pdf")
	if err != nil {
		return fmt.Errorf("print: create temp file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("print: write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("print: close temp file: %w", err)
	}

	fields := strings.Fields(p.Command)
	if len(fields) == 0 {
		fields = []string{"lp"}
	}
	args := append(fields[1:len(fields):len(fields)], path)
	out, err := p.run(ctx, fields[0], args...)
	if err != nil {
		p.log.Warn().Err(err).Str("command", p.Command).Str("output", strings.TrimSpace(string(out))).Msg("print failed")
		return fmt.Errorf("print: %s: %w", fields[0], err)
	}
	p.log.Info().Str("document", doc.Title).Str("number", doc.Number).Msg("sent to printer")
	return nil
}

// RenderPDF lays doc out on A4 pages.
func RenderPDF(doc *Document) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(strings.TrimSpace(doc.Title+" "+doc.Number), true).
		Build()

	m := maroto.New(cfg)
	m.AddRows(titleRow(doc))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	for _, f := range doc.Header {
		m.AddRows(fieldRow(f, align.Left))
	}

	if len(doc.Columns) > 0 {
		sizes := gridSizes(doc)
		m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
		m.AddRows(tableRow(doc.Columns, sizes, doc.Numeric, true))
		for _, l := range doc.Lines {
			m.AddRows(tableRow(l, sizes, doc.Numeric, false))
		}
		m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	}

	for _, f := range doc.Totals {
		m.AddRows(fieldRow(f, align.Right))
	}
	if doc.Footer != "" {
		m.AddRows(row.New(10).Add(col.New(12).Add(
			text.New(doc.Footer, props.Text{Size: 8, Color: colorGray, Top: 3}),
		)))
	}

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generate document: %w", err)
	}
	return out.GetBytes(), nil
}

func titleRow(doc *Document) core.Row {
	return row.New(14).Add(
		col.New(7).Add(text.New(doc.Title, props.Text{
			Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 2,
		})),
		col.New(5).Add(text.New(doc.Number, props.Text{
			Style: fontstyle.Bold, Size: 11, Align: align.Right, Top: 3,
		})),
	)
}

func fieldRow(f Field, a align.Type) core.Row {
	if a == align.Right {
		return row.New(6).Add(
			col.New(6),
			col.New(3).Add(text.New(f.Label, props.Text{Style: fontstyle.Bold, Align: align.Right, Right: 2, Top: 1})),
			col.New(3).Add(text.New(f.Value, props.Text{Align: align.Right, Right: 1, Top: 1})),
		)
	}
	return row.New(6).Add(
		col.New(3).Add(text.New(f.Label, props.Text{Style: fontstyle.Bold, Top: 1})),
		col.New(9).Add(text.New(f.Value, props.Text{Top: 1})),
	)
}

func tableRow(cells []string, sizes []int, numeric []bool, head bool) core.Row {
	cols := make([]core.Col, len(sizes))
	for i, size := range sizes {
		v := ""
		if i < len(cells) {
			v = cells[i]
		}
		p := props.Text{Size: 8, Top: 1, Left: 1, Right: 1}
		if i < len(numeric) && numeric[i] {
			p.Align = align.Right
		}
		if head {
			p.Style = fontstyle.Bold
			p.Color = colorPrimary
		}
		cols[i] = col.New(size).Add(text.New(v, p))
	}
	return row.New(7).Add(cols...)
}

// gridSizes splits the 12-column grid in proportion to content width.
func gridSizes(doc *Document) []int {
	n := len(doc.Columns)
	widths := make([]int, n)
	total := 0
	for i, c := range doc.Columns {
		w := utf8.RuneCountInString(c)
		for _, l := range doc.Lines {
			if i < len(l) {
				w = max(w, utf8.RuneCountInString(l[i]))
			}
		}
		widths[i] = max(w, 1)
		total += widths[i]
	}

	sizes := make([]int, n)
	used := 0
	widest := 0
	for i, w := range widths {
		sizes[i] = max(1, w*12/total)
		used += sizes[i]
		if w > widths[widest] {
			widest = i
		}
	}
	// Hand the rounding remainder to, or take the excess from, the widest column.
	for used < 12 {
		sizes[widest]++
		used++
	}
	for used > 12 && sizes[widest] > 1 {
		sizes[widest]--
		used--
	}
	return sizes
}
