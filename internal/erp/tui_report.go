package erp

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mikelcalvo/erp-console/internal/api"
	"github.com/mikelcalvo/erp-console/internal/report"
	"github.com/mikelcalvo/erp-console/internal/screen"
)

type reportLoadedMsg struct {
	doc *report.Document
	err error
}

type printedMsg struct {
	err error
}

// openReport loads the printable document of row into the preview.
func (m *Model) openReport(def *screen.Definition, row screen.Row) tea.Cmd {
	m.loading = true
	ctx := m.ctx
	return func() tea.Msg {
		doc, err := def.Report(ctx, row)
		return reportLoadedMsg{doc: doc, err: err}
	}
}

func (m Model) reportWidth() int {
	if m.viewport.Width > 0 {
		return m.viewport.Width
	}
	return 80
}

func (m Model) handleReportLoaded(msg reportLoadedMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	if m.view != ViewScreen {
		return m, nil
	}
	if msg.err != nil {
		m.message, m.messageType = api.UserMessage(msg.err), "error"
		return m, nil
	}
	m.doc = msg.doc
	m.viewport.SetContent(m.doc.RenderText(m.reportWidth()))
	m.viewport.GotoTop()
	m.view = ViewReport
	m.breadcrumbs = append(m.breadcrumbs, msg.doc.Title)
	return m, nil
}

func (m Model) updateReport(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.doc = nil
		m.view = ViewScreen
		if len(m.breadcrumbs) > 0 {
			m.breadcrumbs = m.breadcrumbs[:len(m.breadcrumbs)-1]
		}
		return m, nil
	case "p":
		if m.loading || m.doc == nil {
			return m, nil
		}
		m.loading = true
		printer, doc, ctx := m.app.Printer, m.doc, m.ctx
		return m, func() tea.Msg {
			return printedMsg{err: printer.Print(ctx, doc)}
		}
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handlePrinted(msg printedMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	if msg.err != nil {
		m.app.Log.Warn().Err(msg.err).Msg("print failed")
		cmd := m.notify("Print failed: "+msg.err.Error(), "error")
		return m, cmd
	}
	cmd := m.notify("Sent to printer", "success")
	return m, cmd
}

func (m Model) renderReport() string {
	if m.doc == nil || !m.viewportReady {
		return m.spinner.View() + " Loading document..."
	}
	var b strings.Builder
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	status := fmt.Sprintf("%3.f%%", m.viewport.ScrollPercent()*100)
	if m.loading {
		status = m.spinner.View() + " Printing... " + status
	}
	b.WriteString(helpStyle.Render(status))
	return b.String()
}
