package erp

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mikelcalvo/erp-console/internal/api"
	"github.com/mikelcalvo/erp-console/internal/session"
)

// Login form styles
var (
	loginTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1).
			MarginBottom(1)

	loginBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(1, 2).
			Width(60)

	loginLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)

	loginHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)
)

type loginMsg struct {
	claims *session.Claims
	err    error
}

func newLoginInputs() []textinput.Model {
	inputs := make([]textinput.Model, 2)

	inputs[0] = textinput.New()
	inputs[0].Placeholder = "username"
	inputs[0].CharLimit = 64
	inputs[0].Width = 50
	inputs[0].Focus()

	inputs[1] = textinput.New()
	inputs[1].Placeholder = "password"
	inputs[1].CharLimit = 128
	inputs[1].Width = 50
	inputs[1].EchoMode = textinput.EchoPassword

	return inputs
}

func (m *Model) focusLogin() {
	for i := range m.loginInputs {
		if i == m.loginFocus {
			m.loginInputs[i].Focus()
		} else {
			m.loginInputs[i].Blur()
		}
	}
}

func (m Model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.loading {
		return m, nil
	}
	switch msg.String() {
	case "tab", "down":
		m.loginFocus = (m.loginFocus + 1) % len(m.loginInputs)
		m.focusLogin()
		return m, nil
	case "shift+tab", "up":
		m.loginFocus = (m.loginFocus - 1 + len(m.loginInputs)) % len(m.loginInputs)
		m.focusLogin()
		return m, nil
	case "enter":
		username := strings.TrimSpace(m.loginInputs[0].Value())
		password := m.loginInputs[1].Value()
		if username == "" || password == "" {
			m.message, m.messageType = "Username and password are required", "error"
			return m, nil
		}
		m.loading = true
		m.message = ""
		cmd := m.submitLogin(username, password)
		return m, cmd
	}

	var cmd tea.Cmd
	m.loginInputs[m.loginFocus], cmd = m.loginInputs[m.loginFocus].Update(msg)
	return m, cmd
}

func (m Model) submitLogin(username, password string) tea.Cmd {
	app, ctx := m.app, m.ctx
	return func() tea.Msg {
		claims, err := app.Login(ctx, username, password)
		return loginMsg{claims: claims, err: err}
	}
}

func (m Model) handleLogin(msg loginMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	if msg.err != nil {
		m.messageType = "error"
		switch {
		case errors.Is(msg.err, api.ErrUnauthorized):
			m.message = "Invalid username or password"
		case errors.Is(msg.err, session.ErrInvalidToken):
			m.message = "The server returned an unreadable token"
		default:
			m.message = api.UserMessage(msg.err)
		}
		return m, nil
	}

	m.loginInputs[1].SetValue("")
	m.message, m.messageType = "", ""
	m.view = ViewMain
	m.breadcrumbs = []string{"Main"}
	cmd := tea.Batch(
		m.notify("Welcome, "+msg.claims.DisplayName(), "success"),
		m.loadCompanies(false),
	)
	return m, cmd
}

func (m Model) renderLogin() string {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(loginTitleStyle.Render("  " + m.app.Config.App.Brand + "  "))
	sb.WriteString("\n\n")

	sb.WriteString(loginLabelStyle.Render("Username"))
	sb.WriteString("\n")
	sb.WriteString(m.loginInputs[0].View())
	sb.WriteString("\n\n")

	sb.WriteString(loginLabelStyle.Render("Password"))
	sb.WriteString("\n")
	sb.WriteString(m.loginInputs[1].View())
	sb.WriteString("\n\n")

	sb.WriteString(loginHintStyle.Render(fmt.Sprintf("Server: %s", m.app.Config.API.BaseURL)))
	sb.WriteString("\n\n")

	if m.loading {
		sb.WriteString(m.spinner.View())
		sb.WriteString(" Signing in...\n\n")
	}
	if m.message != "" {
		if m.messageType == "error" {
			sb.WriteString(errorStyle.Render(m.message))
		} else {
			sb.WriteString(successStyle.Render(m.message))
		}
		sb.WriteString("\n\n")
	}

	sb.WriteString(m.renderHelp())

	return loginBoxStyle.Render(sb.String())
}
