package erp

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mikelcalvo/erp-console/internal/api"
	"github.com/mikelcalvo/erp-console/internal/config"
	"github.com/mikelcalvo/erp-console/internal/format"
	"github.com/mikelcalvo/erp-console/internal/logger"
	"github.com/mikelcalvo/erp-console/internal/query"
	"github.com/mikelcalvo/erp-console/internal/report"
	"github.com/mikelcalvo/erp-console/internal/screen"
	"github.com/mikelcalvo/erp-console/internal/session"
)

// Colors for terminal output
const (
	Red    = "\033[0;31m"
	Green  = "\033[0;32m"
	Yellow = "\033[1;33m"
	Blue   = "\033[0;34m"
	Cyan   = "\033[0;36m"
	Reset  = "\033[0m"
)

// App wires the session, transport, cache and screen catalog together.
type App struct {
	Config    *config.Config
	Log       *logger.Logger
	Session   *session.Holder
	Client    *api.Client
	API       *api.Services
	Cache     *query.Cache
	Printer   report.Printer
	Catalog   []Category
	Documents map[string]DocumentFunc
	// Out receives command output.
	Out io.Writer

	now func() time.Time
}

// NewApp restores the persisted session from store and binds the backend.
func NewApp(cfg *config.Config, log *logger.Logger, store session.Store) (*App, error) {
	if log == nil {
		log = logger.Nop()
	}
	format.SetLocale(cfg.UI.Locale)

	holder, err := session.NewHolder(store, log)
	if err != nil {
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}

	a := &App{
		Config:  cfg,
		Log:     log,
		Session: holder,
		Cache:   query.NewCache(cfg.UI.StaleTime, log),
		Out:     os.Stdout,
		now:     time.Now,
	}
	a.Client = api.NewClient(cfg.API.BaseURL, cfg.API.Timeout, holder, log)
	a.Client.OnUnauthorized = a.unauthorized
	a.API = api.NewServices(a.Client, holder.Companies())
	a.Printer = report.NewPDFPrinter(cfg.Printer.Command, log)
	a.Catalog = NewCatalog(a.API)
	a.Documents = NewDocuments(a.API)

	// Cached pages belong to the company they were fetched for.
	holder.Companies().OnChange(func(int64, bool) { a.Cache.InvalidateAll() })
	return a, nil
}

// unauthorized runs on any 401: the token is no longer accepted, so drop it.
func (a *App) unauthorized() {
	if !a.Session.Authenticated() {
		return
	}
	a.Log.Info().Str("reason", "unauthorized").Msg("forcing logout")
	if err := a.Session.Logout(); err != nil {
		a.Log.Warn().Err(err).Msg("logout failed")
	}
	a.Cache.InvalidateAll()
}

// Login exchanges credentials for an access token and starts the session.
func (a *App) Login(ctx context.Context, username, password string) (*session.Claims, error) {
	token, err := a.Client.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return a.LoginToken(token)
}

// LoginToken starts the session from an existing access token.
func (a *App) LoginToken(token string) (*session.Claims, error) {
	claims, err := a.Session.Login(token)
	if err != nil {
		return nil, err
	}
	a.Cache.InvalidateAll()
	return claims, nil
}

// Logout ends the session and drops every cached page.
func (a *App) Logout() error {
	err := a.Session.Logout()
	a.Cache.InvalidateAll()
	return err
}

// Screen finds a catalog screen by its collection name, e.g. "customers".
func (a *App) Screen(name string) (*screen.Definition, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, cat := range a.Catalog {
		for _, def := range cat.Screens {
			if string(def.Key) == name {
				return def, true
			}
		}
	}
	return nil, false
}

// Screens lists every catalog screen in menu order.
func (a *App) Screens() []*screen.Definition {
	var out []*screen.Definition
	for _, cat := range a.Catalog {
		out = append(out, cat.Screens...)
	}
	return out
}
