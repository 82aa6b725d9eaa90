package erp

import (
	"bytes"
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/mikelcalvo/erp-console/internal/api"
	"github.com/mikelcalvo/erp-console/internal/api/apitest"
	"github.com/mikelcalvo/erp-console/internal/config"
	"github.com/mikelcalvo/erp-console/internal/logger"
	"github.com/mikelcalvo/erp-console/internal/report"
	"github.com/mikelcalvo/erp-console/internal/session"
)

var fixedNow = time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

func mintToken(t *testing.T, exp time.Time, perms []string, companies ...int64) string {
	t.Helper()
	claims := session.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Name:        "Asha Rao",
		Username:    "asha",
		Roles:       []string{"sales"},
		Permissions: perms,
		Companies:   companies,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

type fakePrinter struct {
	docs []*report.Document
	err  error
}

func (p *fakePrinter) Print(_ context.Context, doc *report.Document) error {
	p.docs = append(p.docs, doc)
	return p.err
}

// newTestApp binds an App to a fake backend whose login hands out a token
// granting perms over companies 1 and 2.
func newTestApp(t *testing.T, perms ...string) (*App, *apitest.Server) {
	t.Helper()
	srv := apitest.New(t)
	srv.Token = mintToken(t, time.Now().Add(time.Hour), perms, 1, 2)
	srv.Seed(api.PathCompanies,
		apitest.Record{"id": 1, "name": "Acme Traders", "gstin": "29ABCDE1234F1Z5"},
		apitest.Record{"id": 2, "name": "Beta Exports"},
		apitest.Record{"id": 3, "name": "Hidden Corp"},
	)

	cfg := &config.Config{
		App: config.AppConfig{Env: "test", Brand: "ERP Console"},
		API: config.APIConfig{BaseURL: srv.URL, Timeout: 5 * time.Second},
		UI: config.UIConfig{
			Locale:    "en-IN",
			PageSize:  10,
			Debounce:  20 * time.Millisecond,
			StaleTime: time.Minute,
		},
		Log:     config.LogConfig{Level: "debug"},
		Paths:   config.PathConfig{ExportDir: t.TempDir()},
		Printer: config.PrinterConfig{Command: "lp"},
	}
	app, err := NewApp(cfg, logger.Nop(), &session.MemoryStore{})
	require.NoError(t, err)
	app.Out = &bytes.Buffer{}
	app.Printer = &fakePrinter{}
	return app, srv
}

func login(t *testing.T, app *App, srv *apitest.Server) {
	t.Helper()
	_, err := app.LoginToken(srv.Token)
	require.NoError(t, err)
}

func output(app *App) string {
	return app.Out.(*bytes.Buffer).String()
}

func newTestModel(app *App) Model {
	m := NewTUI(app)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	return next.(Model)
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func press(m Model, keys ...string) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		m, cmd = update(m, keyMsg(k))
	}
	return m, cmd
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// typeText sends each rune of s as its own key press.
func typeText(m Model, s string) (Model, []tea.Cmd) {
	var cmds []tea.Cmd
	for _, r := range s {
		var cmd tea.Cmd
		m, cmd = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		cmds = append(cmds, cmd)
	}
	return m, cmds
}

func run(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	require.NotNil(t, cmd)
	return cmd()
}

// drain runs cmd and every command it batches, keeping the messages that
// arrive within timeout. Timers such as cursor blinks are skipped.
func drain(cmd tea.Cmd, timeout time.Duration) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		if batch, ok := msg.(tea.BatchMsg); ok {
			var out []tea.Msg
			for _, c := range batch {
				out = append(out, drain(c, timeout)...)
			}
			return out
		}
		return []tea.Msg{msg}
	case <-time.After(timeout):
		return nil
	}
}

func findMsg[T tea.Msg](t *testing.T, cmd tea.Cmd) T {
	t.Helper()
	for _, msg := range drain(cmd, 300*time.Millisecond) {
		if v, ok := msg.(T); ok {
			return v
		}
	}
	var zero T
	t.Fatalf("no %T produced", zero)
	return zero
}

// openLoaded opens the catalog screen name and applies its first page.
func openLoaded(t *testing.T, m Model, name string) Model {
	t.Helper()
	def, ok := m.app.Screen(name)
	require.True(t, ok, name)
	cmd := m.openScreen(def, nil)
	m, _ = update(m, run(t, cmd))
	return m
}
