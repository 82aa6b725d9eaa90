package erp

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mikelcalvo/erp-console/internal/api"
)

// companyItem is one permitted company in the switcher.
type companyItem struct {
	company api.Company
	current bool
}

func (i companyItem) Title() string {
	if i.current {
		return i.company.Name + " (current)"
	}
	return i.company.Name
}

func (i companyItem) Description() string {
	d := i.company.Email
	if i.company.Gstin != "" {
		d = "GSTIN " + i.company.Gstin + "  " + d
	}
	return d
}

func (i companyItem) FilterValue() string { return i.company.Name }

type companiesLoadedMsg struct {
	companies []api.Company
	picker    bool
	err       error
}

// openCompanies shows the company switcher.
func (m *Model) openCompanies() tea.Cmd {
	if m.view != ViewCompany {
		m.returnView = m.view
	}
	m.loading = true
	return m.loadCompanies(true)
}

// loadCompanies fetches the companies the session may work in. Without picker
// it only refreshes the name shown in the status bar.
func (m Model) loadCompanies(picker bool) tea.Cmd {
	svc, companies, ctx := m.app.API, m.app.Session.Companies(), m.ctx
	return func() tea.Msg {
		all, err := svc.Companies.All(ctx, nil)
		if err != nil {
			return companiesLoadedMsg{picker: picker, err: err}
		}
		permitted := map[int64]bool{}
		for _, id := range companies.Permitted() {
			permitted[id] = true
		}
		var out []api.Company
		for _, c := range all {
			if permitted[c.ID] {
				out = append(out, c)
			}
		}
		return companiesLoadedMsg{companies: out, picker: picker}
	}
}

func (m Model) handleCompaniesLoaded(msg companiesLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.picker {
		m.loading = false
	}
	if msg.err != nil {
		if msg.picker {
			m.message, m.messageType = api.UserMessage(msg.err), "error"
		}
		return m, nil
	}

	current, _ := m.app.Session.Companies().Current()
	items := make([]list.Item, 0, len(msg.companies))
	selected := 0
	for i, c := range msg.companies {
		if c.ID == current {
			m.companyName = c.Name
			selected = i
		}
		items = append(items, companyItem{company: c, current: c.ID == current})
	}
	if !msg.picker {
		return m, nil
	}
	if len(items) == 0 {
		m.message, m.messageType = "No company is permitted for this user", "error"
		return m, nil
	}

	m.companies = list.New(items, newDelegate(), m.width-4, m.height-8)
	m.companies.Title = "Switch company"
	m.companies.SetShowStatusBar(false)
	m.companies.SetFilteringEnabled(false)
	m.companies.Styles.Title = titleStyle
	m.companies.Select(selected)
	m.view = ViewCompany
	m.breadcrumbs = append(m.breadcrumbs, "Company")
	return m, nil
}

func (m Model) updateCompany(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.leaveCompanies()
		return m, nil
	case "enter":
		item, ok := m.companies.SelectedItem().(companyItem)
		if !ok {
			return m, nil
		}
		if err := m.app.Session.Companies().Select(item.company.ID); err != nil {
			m.message, m.messageType = err.Error(), "error"
			return m, nil
		}
		m.app.Log.Info().Int64("company", item.company.ID).Msg("company switched")
		m.companyName = item.company.Name
		m.leaveCompanies()
		cmds := []tea.Cmd{m.notify(fmt.Sprintf("Switched to %s", item.company.Name), "success")}
		if m.view == ViewScreen {
			cmds = append(cmds, m.reloadTop())
		}
		return m, tea.Batch(cmds...)
	}
	var cmd tea.Cmd
	m.companies, cmd = m.companies.Update(msg)
	return m, cmd
}

func (m *Model) leaveCompanies() {
	m.view = m.returnView
	if len(m.breadcrumbs) > 0 {
		m.breadcrumbs = m.breadcrumbs[:len(m.breadcrumbs)-1]
	}
	// Only the screen stack survives a switch; modals and previews close.
	switch m.view {
	case ViewModal, ViewConfirmDelete, ViewSelection, ViewReport:
		m.view = ViewScreen
	}
	if m.view == ViewScreen && len(m.stack) == 0 {
		m.view = ViewMain
	}
}

func (m Model) renderCompanies() string {
	if m.companies.Items() == nil {
		return m.spinner.View() + " Loading companies..."
	}
	return m.companies.View()
}
