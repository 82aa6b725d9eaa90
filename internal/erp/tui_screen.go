package erp

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mikelcalvo/erp-console/internal/api"
	"github.com/mikelcalvo/erp-console/internal/export"
	"github.com/mikelcalvo/erp-console/internal/screen"
)

// pageSizes are the page sizes offered by + and -.
var pageSizes = []int{10, 25, 50, 100}

// tableKeys leaves the letter keys free for row actions.
var tableKeys = table.KeyMap{
	LineUp:       key.NewBinding(key.WithKeys("up", "k")),
	LineDown:     key.NewBinding(key.WithKeys("down", "j")),
	PageUp:       key.NewBinding(key.WithKeys("pgup")),
	PageDown:     key.NewBinding(key.WithKeys("pgdown")),
	HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
	HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
	GotoTop:      key.NewBinding(key.WithKeys("home", "g")),
	GotoBottom:   key.NewBinding(key.WithKeys("end", "G")),
}

var (
	disabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))
	filterStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))
)

// screenView is one open list screen.
type screenView struct {
	inst   *screen.Instance
	table  table.Model
	params screen.Params
}

type pageLoadedMsg struct {
	sv  *screenView
	gen uint64
	res screen.Result
	err error
}

type filterSettleMsg struct {
	sv  *screenView
	tag int
	at  time.Time
}

type exportedMsg struct {
	path string
	err  error
}

func newTable(def *screen.Definition, height int) table.Model {
	cols := make([]table.Column, len(def.Columns))
	for i, c := range def.Columns {
		cols[i] = table.Column{Title: c.Title, Width: c.Width}
	}
	t := table.New(
		table.WithColumns(cols),
		table.WithFocused(true),
		table.WithHeight(height),
	)
	t.KeyMap = tableKeys

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#7D56F4")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color("#7D56F4")).
		Bold(false)
	t.SetStyles(s)
	return t
}

func (m Model) tableHeight() int {
	h := m.height - 14
	if h < 3 {
		return 3
	}
	return h
}

func (m Model) top() *screenView {
	if len(m.stack) == 0 {
		return nil
	}
	return m.stack[len(m.stack)-1]
}

func (m Model) onStack(sv *screenView) bool {
	for _, s := range m.stack {
		if s == sv {
			return true
		}
	}
	return false
}

// openScreen pushes def, a line-item screen when parent is set, and loads its first page.
func (m *Model) openScreen(def *screen.Definition, parent *screen.Row) tea.Cmd {
	cfg := m.app.Config.UI
	sv := &screenView{
		inst:  screen.NewInstance(def, parent, cfg.PageSize, cfg.Debounce),
		table: newTable(def, m.tableHeight()),
	}
	m.stack = append(m.stack, sv)
	m.view = ViewScreen
	m.filtering = false
	m.breadcrumbs = append(m.breadcrumbs, sv.inst.Title())
	m.app.Log.Debug().Str("screen", def.Entity).Int64("parent", sv.inst.ParentID()).Msg("open screen")
	return m.loadPage(sv)
}

// loadPage fetches the current page of sv through the cache.
func (m *Model) loadPage(sv *screenView) tea.Cmd {
	gen, params := sv.inst.Begin()
	sv.params = params
	def, cache, ctx := sv.inst.Def, m.app.Cache, m.ctx
	return func() tea.Msg {
		res, err := def.Load(ctx, cache, params)
		return pageLoadedMsg{sv: sv, gen: gen, res: res, err: err}
	}
}

// reloadTop refetches the shown screen when a mutation made its page stale.
func (m *Model) reloadTop() tea.Cmd {
	sv := m.top()
	if sv == nil || m.app.Cache.Fresh(sv.inst.Def.Key, sv.params) {
		return nil
	}
	return m.loadPage(sv)
}

func (m Model) handlePageLoaded(msg pageLoadedMsg) (tea.Model, tea.Cmd) {
	if !msg.sv.inst.Apply(msg.gen, msg.res, msg.err) {
		return m, nil
	}
	syncRows(msg.sv)
	if msg.err != nil && msg.sv == m.top() {
		m.app.Log.Warn().Err(msg.err).Str("screen", msg.sv.inst.Def.Entity).Msg("load failed")
		m.message, m.messageType = api.UserMessage(msg.err), "error"
	}
	return m, nil
}

// syncRows copies the instance rows into the table, keeping the cursor in range.
func syncRows(sv *screenView) {
	rows := make([]table.Row, len(sv.inst.Rows))
	for i, r := range sv.inst.Rows {
		rows[i] = table.Row(padCells(r.Cells, len(sv.inst.Def.Columns)))
	}
	sv.table.SetRows(rows)
	if c := sv.table.Cursor(); c >= len(rows) {
		sv.table.SetCursor(len(rows) - 1)
	} else if c < 0 {
		sv.table.SetCursor(0)
	}
}

func padCells(cells []string, n int) []string {
	if len(cells) >= n {
		return cells[:n]
	}
	out := make([]string, n)
	copy(out, cells)
	return out
}

func (m Model) selectedRow() (screen.Row, bool) {
	sv := m.top()
	if sv == nil {
		return screen.Row{}, false
	}
	return sv.inst.Row(sv.table.Cursor())
}

func (m *Model) popScreen() tea.Cmd {
	if len(m.stack) == 0 {
		m.view = ViewMenu
		return nil
	}
	m.stack = m.stack[:len(m.stack)-1]
	if len(m.breadcrumbs) > 0 {
		m.breadcrumbs = m.breadcrumbs[:len(m.breadcrumbs)-1]
	}
	if len(m.stack) == 0 {
		m.view = ViewMenu
		return nil
	}
	// A filter typed just before opening the child screen settled while covered.
	if sv := m.top(); sv.inst.Flush() {
		sv.table.SetCursor(0)
		return m.loadPage(sv)
	}
	return m.reloadTop()
}

func (m Model) updateScreen(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sv := m.top()
	if sv == nil {
		m.view = ViewMenu
		return m, nil
	}
	if m.filtering {
		return m.updateFilter(msg, sv)
	}

	def := sv.inst.Def
	gate := m.app.Session.Gate()

	switch msg.String() {
	case "esc", "q":
		cmd := m.popScreen()
		return m, cmd
	case "r":
		m.app.Cache.Invalidate(def.Key)
		cmd := m.loadPage(sv)
		return m, cmd
	case "right", "l":
		if sv.inst.NextPage() {
			cmd := m.loadPage(sv)
			return m, cmd
		}
		return m, nil
	case "left", "h":
		if sv.inst.PrevPage() {
			cmd := m.loadPage(sv)
			return m, cmd
		}
		return m, nil
	case "+", "-":
		if sv.inst.SetPageSize(stepPageSize(sv.inst.Pagination.PageSize, msg.String() == "+")) {
			cmd := m.loadPage(sv)
			return m, cmd
		}
		return m, nil
	case "o":
		col, _ := sv.inst.Sort()
		sv.inst.ToggleSort((col + 1) % len(def.Columns))
		syncRows(sv)
		return m, nil
	case "O":
		if col, _ := sv.inst.Sort(); col >= 0 {
			sv.inst.ToggleSort(col)
			syncRows(sv)
		}
		return m, nil
	case "f", "/":
		if len(def.Filters) == 0 {
			return m, nil
		}
		m.filtering = true
		m.filterIndex = 0
		m.focusFilter(sv)
		return m, nil
	case "n":
		if def.CanCreate(gate) {
			cmd := m.openModal(sv, screen.ModeCreate, screen.Row{})
			return m, cmd
		}
		return m, nil
	case "e":
		if row, ok := m.selectedRow(); ok && def.Allows(gate, screen.ActionEdit) {
			cmd := m.openModal(sv, screen.ModeEdit, row)
			return m, cmd
		}
		return m, nil
	case "d":
		if row, ok := m.selectedRow(); ok && def.Allows(gate, screen.ActionDelete) {
			cmd := m.openModal(sv, screen.ModeDelete, row)
			return m, cmd
		}
		return m, nil
	case "enter":
		if row, ok := m.selectedRow(); ok && def.Allows(gate, screen.ActionLines) {
			cmd := m.openScreen(def.Lines, &row)
			return m, cmd
		}
		return m, nil
	case "p":
		if row, ok := m.selectedRow(); ok && def.Allows(gate, screen.ActionPrint) {
			cmd := m.openReport(def, row)
			return m, cmd
		}
		return m, nil
	case "c":
		if row, ok := m.selectedRow(); ok && def.Allows(gate, screen.ActionConfirm) {
			cmd := m.openSelection(def.Selection, row)
			return m, cmd
		}
		return m, nil
	case "x":
		if def.CanExport(gate) {
			m.loading = true
			cmd := m.exportScreen(sv)
			return m, cmd
		}
		return m, nil
	}
	if cmd, ok := m.accountKey(msg.String()); ok {
		return m, cmd
	}

	var cmd tea.Cmd
	sv.table, cmd = sv.table.Update(msg)
	return m, cmd
}

func stepPageSize(current int, up bool) int {
	for i, n := range pageSizes {
		if n < current {
			continue
		}
		if up {
			if n == current && i+1 < len(pageSizes) {
				return pageSizes[i+1]
			}
			return n
		}
		if i > 0 {
			return pageSizes[i-1]
		}
		return pageSizes[0]
	}
	if up {
		return current
	}
	return pageSizes[len(pageSizes)-1]
}

func (m *Model) focusFilter(sv *screenView) {
	f := sv.inst.Def.Filters[m.filterIndex]
	m.filterInput.Placeholder = f.Label
	m.filterInput.SetValue(sv.inst.Filter(f.Name))
	m.filterInput.CursorEnd()
	m.filterInput.Focus()
}

// updateFilter feeds keystrokes to the focused filter. Each change restarts
// the debounce; only the last one settles into a fetch.
func (m Model) updateFilter(msg tea.KeyMsg, sv *screenView) (tea.Model, tea.Cmd) {
	filters := sv.inst.Def.Filters
	switch msg.String() {
	case "esc", "enter":
		m.filtering = false
		m.filterInput.Blur()
		return m, nil
	case "tab":
		m.filterIndex = (m.filterIndex + 1) % len(filters)
		m.focusFilter(sv)
		return m, nil
	case "shift+tab":
		m.filterIndex = (m.filterIndex - 1 + len(filters)) % len(filters)
		m.focusFilter(sv)
		return m, nil
	}

	before := m.filterInput.Value()
	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	if m.filterInput.Value() == before {
		return m, cmd
	}

	tag := sv.inst.SetFilter(filters[m.filterIndex].Name, m.filterInput.Value(), m.app.now())
	settle := tea.Tick(sv.inst.Debounce, func(time.Time) tea.Msg {
		return filterSettleMsg{sv: sv, tag: tag, at: m.app.now()}
	})
	return m, tea.Batch(cmd, settle)
}

func (m Model) handleFilterSettle(msg filterSettleMsg) (tea.Model, tea.Cmd) {
	if msg.sv != m.top() || !msg.sv.inst.Settle(msg.tag, msg.at) {
		return m, nil
	}
	msg.sv.table.SetCursor(0)
	cmd := m.loadPage(msg.sv)
	return m, cmd
}

// exportScreen downloads the backend export, or writes the loaded rows when the
// resource has no export endpoint.
func (m Model) exportScreen(sv *screenView) tea.Cmd {
	def := sv.inst.Def
	filters := sv.inst.Filters()
	rows := make([][]string, len(sv.inst.Rows))
	for i, r := range sv.inst.Rows {
		rows[i] = r.Cells
	}
	dir := m.app.Config.Paths.ExportDir
	name := export.Filename(string(def.Key), m.app.now())
	ctx := m.ctx

	return func() tea.Msg {
		var data []byte
		if def.HasExport() {
			b, err := def.Export(ctx, filters)
			if err != nil {
				return exportedMsg{err: err}
			}
			data = b
		} else {
			columns := make([]string, len(def.Columns))
			for i, c := range def.Columns {
				columns[i] = c.Title
			}
			var buf bytes.Buffer
			if err := export.WriteRows(&buf, columns, rows); err != nil {
				return exportedMsg{err: err}
			}
			data = buf.Bytes()
		}
		path, err := export.Save(dir, name, data)
		return exportedMsg{path: path, err: err}
	}
}

func (m Model) handleExported(msg exportedMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	if msg.err != nil {
		m.app.Log.Warn().Err(msg.err).Msg("export failed")
		cmd := m.notify("Export failed: "+api.UserMessage(msg.err), "error")
		return m, cmd
	}
	m.app.Log.Info().Str("path", msg.path).Msg("exported")
	cmd := m.notify("Exported to "+msg.path, "success")
	return m, cmd
}

func (m Model) renderScreen() string {
	sv := m.top()
	if sv == nil {
		return ""
	}
	inst := sv.inst
	var b strings.Builder

	b.WriteString(titleStyle.Render(inst.Title()))
	b.WriteString("\n\n")

	if line := m.renderFilters(sv); line != "" {
		b.WriteString(line)
		b.WriteString("\n\n")
	}

	switch {
	case inst.Status == screen.Loading && len(inst.Rows) == 0:
		b.WriteString(m.spinner.View() + " Loading " + strings.ToLower(inst.Def.Title) + "...")
	case inst.Err != nil:
		b.WriteString(errorStyle.Render(api.UserMessage(inst.Err)))
		b.WriteString("\n" + helpStyle.Render("Press r to retry"))
	case inst.Status == screen.Empty:
		b.WriteString(helpStyle.Render("No " + strings.ToLower(inst.Def.Title) + " found"))
	default:
		b.WriteString(sv.table.View())
		if inst.Status == screen.Loading {
			b.WriteString("\n" + m.spinner.View() + " Refreshing...")
		}
	}

	b.WriteString("\n\n")
	b.WriteString(m.renderPagination(sv))
	return b.String()
}

func (m Model) renderFilters(sv *screenView) string {
	filters := sv.inst.Def.Filters
	if len(filters) == 0 {
		return ""
	}
	parts := make([]string, 0, len(filters))
	for i, f := range filters {
		if m.filtering && i == m.filterIndex {
			parts = append(parts, filterStyle.Render(f.Label+": ")+m.filterInput.View())
			continue
		}
		val := sv.inst.Filter(f.Name)
		if val == "" {
			val = "-"
		}
		parts = append(parts, helpStyle.Render(f.Label+": "+val))
	}
	return strings.Join(parts, "   ")
}

func (m Model) renderPagination(sv *screenView) string {
	inst := sv.inst
	var parts []string
	if inst.Def.Paginated {
		p := inst.Pagination
		prev, next := "← prev", "next →"
		if p.PrevDisabled() {
			prev = disabledStyle.Render(prev)
		}
		if p.NextDisabled() {
			next = disabledStyle.Render(next)
		}
		parts = append(parts,
			prev,
			fmt.Sprintf("Page %d of %d", p.PageNumber, p.Pages()),
			next,
			fmt.Sprintf("%d per page", p.PageSize),
			fmt.Sprintf("%d total", p.TotalSize),
		)
	} else {
		parts = append(parts, fmt.Sprintf("%d rows", len(inst.Rows)))
	}
	if col, desc := inst.Sort(); col >= 0 {
		dir := "▲"
		if desc {
			dir = "▼"
		}
		parts = append(parts, fmt.Sprintf("sorted by %s %s", inst.Def.Columns[col].Title, dir))
	}
	return helpStyle.Render(strings.Join(parts, " • "))
}

// screenHelp lists only the keys the user may use on the shown screen.
func (m Model) screenHelp() string {
	sv := m.top()
	if sv == nil {
		return ""
	}
	if m.filtering {
		return "type to filter • tab: next filter • enter/esc: done"
	}
	def := sv.inst.Def
	gate := m.app.Session.Gate()

	keys := []string{"↑/↓: navigate"}
	if def.Paginated {
		keys = append(keys, "←/→: page", "+/-: page size")
	}
	keys = append(keys, "o: sort")
	if len(def.Filters) > 0 {
		keys = append(keys, "f: filter")
	}
	if def.CanCreate(gate) {
		keys = append(keys, "n: new")
	}
	for _, a := range def.Actions(gate) {
		keys = append(keys, a.Key+": "+strings.ToLower(a.Label))
	}
	if def.CanExport(gate) {
		keys = append(keys, "x: export")
	}
	keys = append(keys, "r: refresh", "esc: back")
	return strings.Join(keys, " • ")
}
