package erp

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mikelcalvo/erp-console/internal/api"
	"github.com/mikelcalvo/erp-console/internal/form"
	"github.com/mikelcalvo/erp-console/internal/screen"
)

var (
	fieldLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)

	fieldErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF4444"))

	checkedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575"))
)

type optionsLoadedMsg struct {
	modal  *screen.Modal
	field  string
	parent string
	opts   []form.Option
	err    error
}

type mutationDoneMsg struct {
	modal *screen.Modal
	sub   *screen.Submission
	err   error
}

type selectionLoadedMsg struct {
	sel   *screen.Selection
	row   screen.Row
	items []screen.SelectionItem
	err   error
}

type selectionDoneMsg struct {
	modal *screen.SelectionModal
	err   error
}

// openModal opens the create, edit or delete dialog of sv.
func (m *Model) openModal(sv *screenView, mode screen.Mode, row screen.Row) tea.Cmd {
	modal := screen.NewModal(sv.inst.Def, sv.inst.ParentID())
	m.modal = modal
	m.returnView = ViewScreen

	if mode == screen.ModeDelete {
		modal.OpenDelete(row)
		m.view = ViewConfirmDelete
		return nil
	}

	if mode == screen.ModeEdit {
		modal.OpenEdit(row)
	} else {
		modal.OpenCreate()
	}

	fields := modal.Def.Fields
	m.inputs = make([]textinput.Model, len(fields))
	for i, f := range fields {
		in := textinput.New()
		in.Placeholder = f.Placeholder
		if in.Placeholder == "" && f.Kind == form.Date {
			in.Placeholder = form.DateLayout
		}
		if f.MaxLen > 0 {
			in.CharLimit = f.MaxLen
		}
		in.Width = 40
		if f.Kind == form.Secret {
			in.EchoMode = textinput.EchoPassword
		}
		in.SetValue(modal.Form.Value(f.Name))
		m.inputs[i] = in
	}
	m.focusInputs()
	m.view = ViewModal

	var cmds []tea.Cmd
	for _, f := range fields {
		if _, ok := modal.Def.Options[f.Name]; !ok {
			continue
		}
		// Dependent choices wait for their parent value.
		if f.DependsOn != "" && modal.Form.Value(f.DependsOn) == "" {
			continue
		}
		cmds = append(cmds, m.loadOptions(modal, f))
	}
	return tea.Batch(cmds...)
}

func (m *Model) focusInputs() {
	for i := range m.inputs {
		if m.modal != nil && i == m.modal.Form.Focus {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

func (m Model) loadOptions(modal *screen.Modal, f form.Field) tea.Cmd {
	load := modal.Def.Options[f.Name]
	values := modal.Form.Values()
	parent := values[f.DependsOn]
	ctx := m.ctx
	return func() tea.Msg {
		opts, err := load(ctx, values)
		return optionsLoadedMsg{modal: modal, field: f.Name, parent: parent, opts: opts, err: err}
	}
}

func (m Model) handleOptionsLoaded(msg optionsLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.modal != m.modal {
		return m, nil
	}
	f, ok := msg.modal.Form.Schema.Field(msg.field)
	if !ok {
		return m, nil
	}
	// The parent changed while these choices were loading.
	if f.DependsOn != "" && msg.modal.Form.Value(f.DependsOn) != msg.parent {
		return m, nil
	}
	if msg.err != nil {
		msg.modal.Notice = fmt.Sprintf("Could not load %s: %s", strings.ToLower(f.Label), api.UserMessage(msg.err))
		return m, nil
	}
	msg.modal.Form.SetOptions(msg.field, msg.opts)
	return m, nil
}

// setFieldValue stores a changed input, clears the fields that depend on it
// and reloads their choices.
func (m *Model) setFieldValue(name, val string) tea.Cmd {
	modal := m.modal
	if modal.Form.Value(name) == val {
		return nil
	}
	for _, cleared := range modal.Form.SetValue(name, val) {
		for i, f := range modal.Form.Schema {
			if f.Name == cleared {
				m.inputs[i].SetValue("")
			}
		}
	}

	var cmds []tea.Cmd
	for _, f := range modal.Form.Schema {
		if f.DependsOn != name {
			continue
		}
		modal.Form.SetOptions(f.Name, nil)
		if _, ok := modal.Def.Options[f.Name]; ok && val != "" {
			cmds = append(cmds, m.loadOptions(modal, f))
		}
	}
	return tea.Batch(cmds...)
}

// cycleOption steps the focused select through its loaded choices. Optional
// selects include a blank choice.
func (m *Model) cycleOption(f form.Field, step int) tea.Cmd {
	choices := []string{}
	if !f.Required {
		choices = append(choices, "")
	}
	for _, o := range m.modal.Form.Options(f.Name) {
		choices = append(choices, o.Value)
	}
	if len(choices) == 0 {
		return nil
	}
	cur := -1
	for i, c := range choices {
		if c == m.modal.Form.Value(f.Name) {
			cur = i
		}
	}
	next := (cur + step + len(choices)) % len(choices)
	if cur == -1 && step < 0 {
		next = len(choices) - 1
	}
	m.inputs[m.modal.Form.Focus].SetValue(choices[next])
	return m.setFieldValue(f.Name, choices[next])
}

func (m Model) updateModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	modal := m.modal
	if modal == nil {
		m.view = ViewScreen
		return m, nil
	}
	if modal.Busy {
		return m, nil
	}

	field, hasField := modal.Form.Focused()
	switch msg.String() {
	case "esc":
		modal.Close()
		m.modal = nil
		m.view = m.returnView
		return m, nil
	case "tab", "down":
		modal.Form.Next()
		m.focusInputs()
		return m, nil
	case "shift+tab", "up":
		modal.Form.Prev()
		m.focusInputs()
		return m, nil
	case "enter":
		cmd := m.submitModal()
		return m, cmd
	case "left", "right":
		if hasField && field.Kind == form.Select {
			step := 1
			if msg.String() == "left" {
				step = -1
			}
			cmd := m.cycleOption(field, step)
			return m, cmd
		}
	}

	if !hasField || field.Kind == form.Select {
		return m, nil
	}
	i := modal.Form.Focus
	var cmd tea.Cmd
	m.inputs[i], cmd = m.inputs[i].Update(msg)
	cmd = tea.Batch(cmd, m.setFieldValue(field.Name, m.inputs[i].Value()))
	return m, cmd
}

// submitModal validates on the UI loop and runs the mutation off it.
func (m *Model) submitModal() tea.Cmd {
	modal := m.modal
	sub, err := modal.Prepare()
	if err != nil {
		var verr form.Errors
		if errors.As(err, &verr) {
			modal.Notice = "Please fix the highlighted fields"
		}
		return nil
	}
	modal.Notice = ""
	ctx, cache := m.ctx, m.app.Cache
	m.app.Log.Debug().Str("screen", modal.Def.Entity).Int("mode", int(sub.Mode)).Int64("id", sub.ID).Msg("submit")
	return func() tea.Msg {
		return mutationDoneMsg{modal: modal, sub: sub, err: sub.Run(ctx, cache)}
	}
}

func (m Model) handleMutationDone(msg mutationDoneMsg) (tea.Model, tea.Cmd) {
	notice, ok := msg.modal.Resolve(msg.sub, msg.err)
	if msg.modal != m.modal {
		return m, nil
	}
	if !ok {
		m.app.Log.Warn().Err(msg.err).Str("screen", msg.modal.Def.Entity).Msg("mutation failed")
		return m, nil
	}
	m.modal = nil
	m.view = m.returnView
	cmd := tea.Batch(m.notify(notice, "success"), m.reloadTop())
	return m, cmd
}

func (m Model) renderModal() string {
	modal := m.modal
	if modal == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(modal.Title()))
	b.WriteString("\n\n")

	for i, f := range modal.Form.Schema {
		label := f.Label
		if f.Required {
			label += " *"
		}
		b.WriteString(fieldLabelStyle.Render(label))
		b.WriteString("\n")

		if f.Kind == form.Select {
			b.WriteString(m.renderSelect(f, i == modal.Form.Focus))
		} else {
			b.WriteString(m.inputs[i].View())
		}
		b.WriteString("\n")
		if msg, ok := modal.Form.Errors[f.Name]; ok {
			b.WriteString(fieldErrorStyle.Render("  " + msg))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if modal.Busy {
		b.WriteString(m.spinner.View() + " Saving...\n")
	}
	if modal.Notice != "" {
		b.WriteString(errorStyle.Render(modal.Notice))
		b.WriteString("\n")
	}
	return boxStyle.Render(b.String())
}

func (m Model) renderSelect(f form.Field, focused bool) string {
	opts := m.modal.Form.Options(f.Name)
	val := m.modal.Form.OptionLabel(f.Name)
	switch {
	case opts == nil && f.DependsOn != "" && m.modal.Form.Value(f.DependsOn) == "":
		val = helpStyle.Render("choose " + strings.ToLower(dependencyLabel(m.modal.Form.Schema, f.DependsOn)) + " first")
	case opts == nil:
		val = m.spinner.View() + " loading"
	case val == "":
		val = helpStyle.Render("none")
	}
	if focused {
		return selectedStyle.Render("‹ ") + val + selectedStyle.Render(" ›")
	}
	return "  " + val
}

func dependencyLabel(s form.Schema, name string) string {
	if f, ok := s.Field(name); ok {
		return f.Label
	}
	return name
}

func (m Model) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	modal := m.modal
	if modal == nil {
		m.view = ViewScreen
		return m, nil
	}
	if modal.Busy {
		return m, nil
	}
	switch msg.String() {
	case "y", "Y":
		cmd := m.submitModal()
		return m, cmd
	case "n", "N", "esc":
		modal.Close()
		m.modal = nil
		m.view = m.returnView
	}
	return m, nil
}

func (m Model) renderConfirmDelete() string {
	modal := m.modal
	if modal == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(modal.Title()))
	b.WriteString("\n\n  ")
	b.WriteString(modal.Message())
	b.WriteString("\n\n  This action cannot be undone.\n\n")
	if modal.Busy {
		b.WriteString("  " + m.spinner.View() + " Deleting...\n\n")
	}
	if modal.Notice != "" {
		b.WriteString("  " + errorStyle.Render(modal.Notice) + "\n\n")
	}
	b.WriteString("  [y] Yes, delete    [n] No, cancel\n")
	return boxStyle.Render(b.String())
}

// openSelection loads the line items sel lets the user pick from.
func (m *Model) openSelection(sel *screen.Selection, row screen.Row) tea.Cmd {
	m.loading = true
	ctx := m.ctx
	return func() tea.Msg {
		items, err := sel.Load(ctx, row)
		return selectionLoadedMsg{sel: sel, row: row, items: items, err: err}
	}
}

func (m Model) handleSelectionLoaded(msg selectionLoadedMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	if m.view != ViewScreen {
		return m, nil
	}
	if msg.err != nil {
		m.message, m.messageType = api.UserMessage(msg.err), "error"
		return m, nil
	}

	m.selection = screen.NewSelectionModal(msg.sel, msg.row, msg.items)
	charges := textinput.New()
	charges.Placeholder = "0"
	charges.CharLimit = 14
	charges.Width = 20
	desc := textinput.New()
	desc.Placeholder = api.DefaultExtraChargesDescription
	desc.CharLimit = 100
	desc.Width = 40
	m.selInputs = []textinput.Model{charges, desc}
	m.selFocus = 0
	m.focusSelection()
	m.view = ViewSelection
	return m, nil
}

// focusSelection focuses the item list at 0 and the inputs after it.
func (m *Model) focusSelection() {
	for i := range m.selInputs {
		if i+1 == m.selFocus {
			m.selInputs[i].Focus()
		} else {
			m.selInputs[i].Blur()
		}
	}
}

func (m Model) updateSelection(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sel := m.selection
	if sel == nil {
		m.view = ViewScreen
		return m, nil
	}
	if sel.Busy {
		return m, nil
	}

	switch msg.String() {
	case "esc":
		m.selection = nil
		m.view = ViewScreen
		return m, nil
	case "tab":
		m.selFocus = (m.selFocus + 1) % (len(m.selInputs) + 1)
		m.focusSelection()
		return m, nil
	case "shift+tab":
		m.selFocus = (m.selFocus + len(m.selInputs)) % (len(m.selInputs) + 1)
		m.focusSelection()
		return m, nil
	case "enter":
		cmd := m.submitSelection()
		return m, cmd
	}

	if m.selFocus == 0 {
		switch msg.String() {
		case "up", "k":
			if sel.Cursor > 0 {
				sel.Cursor--
			}
		case "down", "j":
			if sel.Cursor < len(sel.Items)-1 {
				sel.Cursor++
			}
		case " ", "x":
			sel.Toggle(sel.Cursor)
		case "a":
			sel.ToggleAll()
		}
		return m, nil
	}

	i := m.selFocus - 1
	var cmd tea.Cmd
	m.selInputs[i], cmd = m.selInputs[i].Update(msg)
	return m, cmd
}

func (m *Model) submitSelection() tea.Cmd {
	sel := m.selection
	sel.ExtraCharges = m.selInputs[0].Value()
	sel.Description = m.selInputs[1].Value()
	req, err := sel.Prepare()
	if err != nil {
		return nil
	}
	ctx, cache := m.ctx, m.app.Cache
	return func() tea.Msg {
		return selectionDoneMsg{modal: sel, err: sel.Run(ctx, cache, req)}
	}
}

func (m Model) handleSelectionDone(msg selectionDoneMsg) (tea.Model, tea.Cmd) {
	notice, ok := msg.modal.Resolve(msg.err)
	if msg.modal != m.selection || !ok {
		return m, nil
	}
	m.selection = nil
	m.view = ViewScreen
	cmd := tea.Batch(m.notify(notice, "success"), m.reloadTop())
	return m, cmd
}

func (m Model) renderSelection() string {
	sel := m.selection
	if sel == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(sel.Sel.Title + " · " + sel.Row.Label))
	b.WriteString("\n\n")

	if len(sel.Items) == 0 {
		b.WriteString(helpStyle.Render("This document has no line items"))
		b.WriteString("\n")
	}
	all := "[ ]"
	if sel.AllChecked() {
		all = checkedStyle.Render("[x]")
	}
	b.WriteString(fmt.Sprintf("  %s Select all (%d of %d)\n", all, len(sel.Selected()), len(sel.Items)))
	for i, it := range sel.Items {
		box := "[ ]"
		if it.Checked {
			box = checkedStyle.Render("[x]")
		}
		line := fmt.Sprintf("%s %s", box, it.Label)
		if m.selFocus == 0 && i == sel.Cursor {
			b.WriteString(selectedStyle.Render("> ") + line)
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(fieldLabelStyle.Render("Extra charges"))
	b.WriteString("\n" + m.selInputs[0].View() + "\n\n")
	b.WriteString(fieldLabelStyle.Render("Charges label"))
	b.WriteString("\n" + m.selInputs[1].View() + "\n\n")

	if sel.Busy {
		b.WriteString(m.spinner.View() + " Submitting...\n")
	}
	if sel.Notice != "" {
		b.WriteString(errorStyle.Render(sel.Notice) + "\n")
	}
	return boxStyle.Render(b.String())
}
