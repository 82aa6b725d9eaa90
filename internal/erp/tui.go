package erp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mikelcalvo/erp-console/internal/permission"
	"github.com/mikelcalvo/erp-console/internal/report"
	"github.com/mikelcalvo/erp-console/internal/screen"
)

// Version info
const (
	Version = "2.0.0"
	Author  = "Mikel Calvo"
	Year    = "2026"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#333333")).
			Padding(0, 1)

	companyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	creditStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(1, 2)

	notificationSuccess = lipgloss.NewStyle().
				Background(lipgloss.Color("#04B575")).
				Foreground(lipgloss.Color("#FFF")).
				Padding(0, 1).
				Bold(true)

	notificationError = lipgloss.NewStyle().
				Background(lipgloss.Color("#FF4444")).
				Foreground(lipgloss.Color("#FFF")).
				Padding(0, 1).
				Bold(true)

	breadcrumbStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
)

// View represents different screens
type View int

const (
	ViewLogin View = iota
	ViewMain
	// Category submenu
	ViewMenu
	// Resource and line-item lists
	ViewScreen
	ViewModal
	ViewConfirmDelete
	ViewSelection
	ViewReport
	ViewCompany
)

// expiryInterval is how often an idle console re-checks the token.
const expiryInterval = 30 * time.Second

// MenuItem for the main menu and the category submenus
type MenuItem struct {
	title       string
	description string
	view        View
	category    int
	def         *screen.Definition
}

func (i MenuItem) Title() string       { return i.title }
func (i MenuItem) Description() string { return i.description }
func (i MenuItem) FilterValue() string { return i.title }

// Model is the main TUI model
type Model struct {
	app    *App
	ctx    context.Context
	view   View
	width  int
	height int

	mainMenu    list.Model
	subMenu     list.Model // For category submenus
	category    int
	breadcrumbs []string
	spinner     spinner.Model
	loading     bool

	// Login form
	loginInputs []textinput.Model
	loginFocus  int

	// Open screens; the last one is shown
	stack       []*screenView
	filtering   bool
	filterIndex int
	filterInput textinput.Model

	// Create, edit and delete dialog
	modal  *screen.Modal
	inputs []textinput.Model

	// Composite confirm dialog
	selection *screen.SelectionModal
	selInputs []textinput.Model
	selFocus  int

	// Print preview
	doc           *report.Document
	viewport      viewport.Model
	viewportReady bool

	// Company switch
	companies   list.Model
	companyName string
	returnView  View

	message          string
	messageType      string
	notification     string
	notificationType string // "success" or "error"
	showNotification bool
}

// Messages
type errorMsg struct {
	err error
}

type expiryTickMsg time.Time

type clearNotificationMsg struct{}

// NewTUI creates a new TUI model
func NewTUI(app *App) Model {
	menuItems := make([]list.Item, 0, len(app.Catalog)+1)
	for i, cat := range app.Catalog {
		menuItems = append(menuItems, MenuItem{title: cat.Title, description: cat.Description, view: ViewMenu, category: i})
	}
	menuItems = append(menuItems, MenuItem{
		title:       "Account",
		description: "Switch company, log out",
		view:        ViewMenu,
		category:    len(app.Catalog),
	})

	mainMenu := list.New(menuItems, newDelegate(), 0, 0)
	mainMenu.Title = app.Config.App.Brand
	mainMenu.SetShowStatusBar(false)
	mainMenu.SetFilteringEnabled(false)
	mainMenu.Styles.Title = titleStyle

	// Initialize spinner
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

	filter := textinput.New()
	filter.CharLimit = 60
	filter.Width = 30

	m := Model{
		app:         app,
		ctx:         context.Background(),
		view:        ViewMain,
		mainMenu:    mainMenu,
		spinner:     s,
		breadcrumbs: []string{"Main"},
		loginInputs: newLoginInputs(),
		filterInput: filter,
	}
	if err := app.Session.CheckExpiry(); err != nil || !app.Session.Authenticated() {
		m.toLogin("", "")
	}
	return m
}

func newDelegate() list.DefaultDelegate {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = selectedStyle
	delegate.Styles.SelectedDesc = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))
	return delegate
}

// createSubMenu creates a submenu for a category
func (m *Model) createSubMenu(title string, items []list.Item) {
	m.subMenu = list.New(items, newDelegate(), m.width-4, m.height-8)
	m.subMenu.Title = title
	m.subMenu.SetShowStatusBar(false)
	m.subMenu.SetFilteringEnabled(false)
	m.subMenu.Styles.Title = titleStyle
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, expiryTick(), textinput.Blink}
	if m.view != ViewLogin {
		cmds = append(cmds, m.loadCompanies(false))
	}
	return tea.Batch(cmds...)
}

func expiryTick() tea.Cmd {
	return tea.Tick(expiryInterval, func(t time.Time) tea.Msg {
		return expiryTickMsg(t)
	})
}

// sessionEnded forces the login view once the token expired or a 401 dropped it.
func (m *Model) sessionEnded() bool {
	err := m.app.Session.CheckExpiry()
	if err == nil && m.app.Session.Authenticated() {
		return false
	}
	m.app.Cache.InvalidateAll()
	m.toLogin("Session expired, please log in again", "error")
	return true
}

// toLogin drops every open screen and shows the login form.
func (m *Model) toLogin(message, kind string) {
	m.view = ViewLogin
	m.stack = nil
	m.modal = nil
	m.selection = nil
	m.doc = nil
	m.filtering = false
	m.loading = false
	m.companyName = ""
	m.breadcrumbs = []string{"Login"}
	m.message, m.messageType = message, kind
	m.loginInputs[1].SetValue("")
	m.loginFocus = 0
	m.focusLogin()
}

// notify shows a notice that dismisses itself after 3 seconds.
func (m *Model) notify(text, kind string) tea.Cmd {
	m.notification = text
	m.notificationType = kind
	m.showNotification = true
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg {
		return clearNotificationMsg{}
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if ws, ok := msg.(tea.WindowSizeMsg); ok {
		m.resize(ws)
		return m, nil
	}
	if m.view != ViewLogin && m.sessionEnded() {
		if _, ok := msg.(expiryTickMsg); ok {
			return m, expiryTick()
		}
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.view != ViewLogin {
			m.message = ""
			m.messageType = ""
		}
		return m.handleKey(msg)

	case expiryTickMsg:
		return m, expiryTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case clearNotificationMsg:
		m.showNotification = false
		m.notification = ""
		return m, nil

	case errorMsg:
		m.loading = false
		m.message = msg.err.Error()
		m.messageType = "error"
		return m, nil

	case loginMsg:
		return m.handleLogin(msg)
	case pageLoadedMsg:
		return m.handlePageLoaded(msg)
	case filterSettleMsg:
		return m.handleFilterSettle(msg)
	case exportedMsg:
		return m.handleExported(msg)
	case optionsLoadedMsg:
		return m.handleOptionsLoaded(msg)
	case mutationDoneMsg:
		return m.handleMutationDone(msg)
	case selectionLoadedMsg:
		return m.handleSelectionLoaded(msg)
	case selectionDoneMsg:
		return m.handleSelectionDone(msg)
	case reportLoadedMsg:
		return m.handleReportLoaded(msg)
	case printedMsg:
		return m.handlePrinted(msg)
	case companiesLoadedMsg:
		return m.handleCompaniesLoaded(msg)
	}

	// Cursor blinks and other input ticks
	var cmd tea.Cmd
	switch m.view {
	case ViewLogin:
		m.loginInputs[m.loginFocus], cmd = m.loginInputs[m.loginFocus].Update(msg)
	case ViewReport:
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

func (m *Model) resize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height

	h := msg.Height - 8
	w := msg.Width - 4

	m.mainMenu.SetSize(w, h)
	if m.subMenu.Items() != nil {
		m.subMenu.SetSize(w, h)
	}
	if m.companies.Items() != nil {
		m.companies.SetSize(w, h)
	}
	for _, sv := range m.stack {
		sv.table.SetHeight(m.tableHeight())
	}

	// Viewport for the print preview
	headerHeight := 4 // status bar + breadcrumbs + notification + padding
	footerHeight := 4 // help + credits
	m.viewport = viewport.New(w, msg.Height-headerHeight-footerHeight)
	m.viewport.YPosition = headerHeight
	m.viewportReady = true
	if m.doc != nil {
		m.viewport.SetContent(m.doc.RenderText(m.reportWidth()))
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.view {
	case ViewLogin:
		return m.updateLogin(msg)
	case ViewMain:
		return m.updateMainMenu(msg)
	case ViewMenu:
		return m.updateSubMenu(msg)
	case ViewScreen:
		return m.updateScreen(msg)
	case ViewModal:
		return m.updateModal(msg)
	case ViewConfirmDelete:
		return m.updateConfirmDelete(msg)
	case ViewSelection:
		return m.updateSelection(msg)
	case ViewReport:
		return m.updateReport(msg)
	case ViewCompany:
		return m.updateCompany(msg)
	}
	return m, nil
}

// accountKey handles the keys available wherever no text is being typed.
func (m *Model) accountKey(key string) (tea.Cmd, bool) {
	switch key {
	case "C":
		return m.openCompanies(), true
	case "L":
		if err := m.app.Logout(); err != nil {
			m.message, m.messageType = err.Error(), "error"
			return nil, true
		}
		m.toLogin("Logged out", "success")
		return nil, true
	}
	return nil, false
}

func (m Model) updateMainMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "enter":
		if item, ok := m.mainMenu.SelectedItem().(MenuItem); ok {
			m.openMenu(item.category)
		}
		return m, nil
	}
	if cmd, ok := m.accountKey(msg.String()); ok {
		return m, cmd
	}
	var cmd tea.Cmd
	m.mainMenu, cmd = m.mainMenu.Update(msg)
	return m, cmd
}

// openMenu shows the screens of category the user may view.
func (m *Model) openMenu(category int) {
	m.category = category
	gate := m.app.Session.Gate()

	var title string
	var items []list.Item
	if category < len(m.app.Catalog) {
		cat := m.app.Catalog[category]
		title = cat.Title
		for _, def := range cat.Screens {
			if def.CanView(gate) {
				items = append(items, MenuItem{title: def.Title, description: accessSummary(def, gate), view: ViewScreen, def: def})
			}
		}
	} else {
		title = "Account"
		items = []list.Item{
			MenuItem{title: "Switch company", description: "Work in another permitted company", view: ViewCompany},
			MenuItem{title: "Log out", description: "End the session on this machine", view: ViewLogin},
		}
	}

	m.createSubMenu(title, items)
	m.view = ViewMenu
	m.breadcrumbs = []string{"Main", title}
}

// accessSummary lists what the user may do on def.
func accessSummary(def *screen.Definition, gate permission.Gate) string {
	var parts []string
	if def.CanCreate(gate) {
		parts = append(parts, "create")
	}
	for _, a := range def.Actions(gate) {
		parts = append(parts, strings.ToLower(a.Label))
	}
	if def.CanExport(gate) {
		parts = append(parts, "export")
	}
	if len(parts) == 0 {
		return "Read only"
	}
	return "View, " + strings.Join(parts, ", ")
}

func (m Model) updateSubMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.view = ViewMain
		m.breadcrumbs = []string{"Main"}
		return m, nil
	case "enter":
		item, ok := m.subMenu.SelectedItem().(MenuItem)
		if !ok {
			return m, nil
		}
		switch item.view {
		case ViewScreen:
			cmd := m.openScreen(item.def, nil)
			return m, cmd
		case ViewCompany:
			cmd := m.openCompanies()
			return m, cmd
		case ViewLogin:
			cmd, _ := m.accountKey("L")
			return m, cmd
		}
		return m, nil
	}
	if cmd, ok := m.accountKey(msg.String()); ok {
		return m, cmd
	}
	var cmd tea.Cmd
	m.subMenu, cmd = m.subMenu.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	if m.view == ViewLogin {
		return m.renderLogin()
	}

	var content string

	switch m.view {
	case ViewMain:
		content = m.mainMenu.View()
	case ViewMenu:
		content = m.subMenu.View()
	case ViewScreen:
		content = m.renderScreen()
	case ViewModal:
		content = m.renderModal()
	case ViewConfirmDelete:
		content = m.renderConfirmDelete()
	case ViewSelection:
		content = m.renderSelection()
	case ViewReport:
		content = m.renderReport()
	case ViewCompany:
		content = m.renderCompanies()
	}

	var b strings.Builder

	// Status bar
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")

	// Breadcrumbs
	b.WriteString(m.renderBreadcrumbs())
	b.WriteString("\n")

	// Notification (success feedback that auto-dismisses)
	if m.showNotification {
		if m.notificationType == "success" {
			b.WriteString(notificationSuccess.Render("✓ " + m.notification))
		} else {
			b.WriteString(notificationError.Render("✗ " + m.notification))
		}
		b.WriteString("\n")
	}

	// Content
	b.WriteString(content)

	// Error message (persists until user takes action)
	if m.message != "" {
		b.WriteString("\n\n")
		if m.messageType == "error" {
			b.WriteString(errorStyle.Render("Error: " + m.message))
		} else if m.messageType == "success" {
			b.WriteString(successStyle.Render("✓ " + m.message))
		}
	}

	// Help
	b.WriteString("\n\n")
	b.WriteString(m.renderHelp())

	// Credits
	b.WriteString("\n")
	b.WriteString(m.renderCredits())

	return b.String()
}

func (m Model) renderStatusBar() string {
	user := ""
	if claims, ok := m.app.Session.Claims(); ok {
		user = claims.DisplayName()
	}
	company := m.companyName
	if company == "" {
		if id, ok := m.app.Session.Companies().Current(); ok {
			company = fmt.Sprintf("company #%d", id)
		} else {
			company = "no company"
		}
	}

	status := fmt.Sprintf(" %s | %s | %s | %s ", m.app.Config.App.Brand, user, companyStyle.Render(company), m.app.Config.API.BaseURL)
	return statusBarStyle.Render(status)
}

func (m Model) renderBreadcrumbs() string {
	if len(m.breadcrumbs) == 0 {
		return ""
	}
	return breadcrumbStyle.Render("  " + strings.Join(m.breadcrumbs, " > "))
}

func (m Model) renderHelp() string {
	var help string
	switch m.view {
	case ViewLogin:
		help = "tab: next field • enter: sign in • ctrl+c: quit"
	case ViewMain:
		help = "↑/↓: navigate • enter: select • C: company • L: logout • q: quit"
	case ViewMenu:
		help = "↑/↓: navigate • enter: open • C: company • L: logout • esc: back"
	case ViewScreen:
		help = m.screenHelp()
	case ViewModal:
		help = "tab: next field • ←/→: choose option • enter: save • esc: cancel"
	case ViewConfirmDelete:
		help = "y: confirm • n: cancel"
	case ViewSelection:
		help = "space: toggle line • a: toggle all • tab: next field • enter: confirm • esc: cancel"
	case ViewReport:
		help = "↑/↓/pgup/pgdn: scroll • p: print • esc: back"
	case ViewCompany:
		help = "↑/↓: navigate • enter: switch • esc: back"
	}
	return helpStyle.Render(help)
}

func (m Model) renderCredits() string {
	return creditStyle.Render(fmt.Sprintf("Created by %s in %s • v%s", Author, Year, Version))
}

// RunTUI starts the TUI
func RunTUI(app *App) error {
	p := tea.NewProgram(NewTUI(app), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
