package erp

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikelcalvo/erp-console/internal/api"
	"github.com/mikelcalvo/erp-console/internal/api/apitest"
	"github.com/mikelcalvo/erp-console/internal/session"
)

func TestCmdLogin_Credentials(t *testing.T) {
	app, srv := newTestApp(t, "customer.view")

	require.NoError(t, app.CmdLogin(context.Background(), []string{"asha", "secret"}))
	assert.True(t, app.Session.Authenticated())
	assert.Contains(t, output(app), "Logged in as Asha Rao")
	assert.Contains(t, output(app), "Company: #1")

	calls := srv.Calls(http.MethodPost, "auth/login")
	require.Len(t, calls, 1)
	assert.Equal(t, "asha", calls[0].Body["username"])
}

func TestCmdLogin_Token(t *testing.T) {
	app, srv := newTestApp(t)

	require.NoError(t, app.CmdLogin(context.Background(), []string{"--token=" + srv.Token}))
	assert.True(t, app.Session.Authenticated())
	assert.Empty(t, srv.Calls(http.MethodPost, "auth/login"))
}

func TestCmdLogin_Errors(t *testing.T) {
	app, srv := newTestApp(t)

	err := app.CmdLogin(context.Background(), []string{"asha"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "usage:")

	err = app.CmdLogin(context.Background(), []string{"--token=not-a-jwt"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "login failed")

	srv.Fail(http.MethodPost, "auth/login", http.StatusUnauthorized, "invalid credentials")
	err = app.CmdLogin(context.Background(), []string{"asha", "wrong"})
	require.Error(t, err)
	assert.Equal(t, "login failed: invalid credentials", err.Error())
	assert.False(t, app.Session.Authenticated())
}

func TestCmdLogout(t *testing.T) {
	app, srv := newTestApp(t)
	login(t, app, srv)

	require.NoError(t, app.CmdLogout())
	assert.False(t, app.Session.Authenticated())
	assert.Contains(t, output(app), "Logged out")
}

func TestCmdWhoami_NotLoggedIn(t *testing.T) {
	app, _ := newTestApp(t)

	err := app.CmdWhoami()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")
}

func TestCmdWhoami_Expired(t *testing.T) {
	app, srv := newTestApp(t)
	login(t, app, srv)
	app.Session.SetClock(func() time.Time { return time.Now().Add(2 * time.Hour) })

	err := app.CmdWhoami()
	assert.ErrorIs(t, err, session.ErrExpired)
	assert.False(t, app.Session.Authenticated())
}

func TestCmdConfig_MasksToken(t *testing.T) {
	app, srv := newTestApp(t)
	login(t, app, srv)

	require.NoError(t, app.CmdConfig())
	out := output(app)
	assert.Contains(t, out, "Backend URL: "+srv.URL)
	assert.Contains(t, out, "Token: "+srv.Token[:8]+"...****")
	assert.NotContains(t, out, srv.Token)
}

func TestMask(t *testing.T) {
	assert.Equal(t, "****", mask("short"))
	assert.Equal(t, "abcdefgh...****", mask("abcdefghijkl"))
}

func TestCmdPing(t *testing.T) {
	app, srv := newTestApp(t)

	require.NoError(t, app.CmdPing(context.Background()))
	assert.Contains(t, output(app), "Backend reachable")
	assert.Contains(t, output(app), "not logged in")

	login(t, app, srv)
	require.NoError(t, app.CmdPing(context.Background()))
	assert.Contains(t, output(app), "Authenticated as: Asha Rao")
}

func TestCmdPing_Unreachable(t *testing.T) {
	app, srv := newTestApp(t)
	srv.Close()

	err := app.CmdPing(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection failed")
}

func TestCmdCompany(t *testing.T) {
	app, srv := newTestApp(t)
	login(t, app, srv)
	ctx := context.Background()

	require.NoError(t, app.CmdCompany(ctx, nil))
	out := output(app)
	assert.Contains(t, out, "Acme Traders")
	assert.Contains(t, out, "Beta Exports")
	assert.NotContains(t, out, "Hidden Corp")

	require.NoError(t, app.CmdCompany(ctx, []string{"2"}))
	current, _ := app.Session.Companies().Current()
	assert.Equal(t, int64(2), current)
	assert.Contains(t, output(app), "Company #2 selected")

	err := app.CmdCompany(ctx, []string{"3"})
	assert.ErrorIs(t, err, session.ErrCompanyNotPermitted)
	current, _ = app.Session.Companies().Current()
	assert.Equal(t, int64(2), current)

	err = app.CmdCompany(ctx, []string{"acme"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid company id")
}

func TestCmdExport_BackendFile(t *testing.T) {
	app, srv := newTestApp(t, "customer.view", "customer.export")
	login(t, app, srv)
	app.now = func() time.Time { return fixedNow }
	srv.Seed(api.PathCustomers, apitest.Record{"name": "Acme"})
	dir := t.TempDir()

	require.NoError(t, app.CmdExport(context.Background(), []string{"customers", "-o", dir}))

	data, err := os.ReadFile(filepath.Join(dir, "customers_05-03-2024.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "id,name")
	assert.Contains(t, string(data), "Acme")
	assert.Contains(t, output(app), "Exported Customers to")

	calls := srv.Calls(http.MethodGet, "customers/export")
	require.Len(t, calls, 1)
	assert.Equal(t, "1", calls[0].Query.Get("companyId"))
}

func TestCmdExport_LocalRows(t *testing.T) {
	app, srv := newTestApp(t, "currency.view", "currency.export")
	login(t, app, srv)
	app.now = func() time.Time { return fixedNow }
	srv.Seed(api.PathCurrencies, apitest.Record{"code": "INR", "name": "Indian Rupee", "symbol": "₹"})

	require.NoError(t, app.CmdExport(context.Background(), []string{"currencies"}))

	data, err := os.ReadFile(filepath.Join(app.Config.Paths.ExportDir, "currencies_05-03-2024.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Code,Name,Symbol")
	assert.Contains(t, string(data), "INR,Indian Rupee")
	assert.Empty(t, srv.Calls(http.MethodGet, "currencies/export"))
}

func TestCmdExport_Errors(t *testing.T) {
	app, srv := newTestApp(t, "customer.view")
	ctx := context.Background()

	require.NoError(t, app.CmdExport(ctx, nil))
	assert.Contains(t, output(app), "Usage: erp-console export")

	err := app.CmdExport(ctx, []string{"customers"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")

	login(t, app, srv)
	err = app.CmdExport(ctx, []string{"widgets"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown export resource")

	err = app.CmdExport(ctx, []string{"customers"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission")
	assert.Empty(t, srv.Calls(http.MethodGet, "customers/export"))
}

func seedQuotation(srv *apitest.Server) {
	srv.Seed(api.PathQuotations, apitest.Record{
		"id":            1,
		"quotationNo":   "Q-001",
		"quotationDate": "2024-03-05",
		"customer":      apitest.Record{"id": 9, "name": "Acme"},
	})
	srv.SeedLines(api.PathQuotations, 1,
		apitest.Record{"id": 11, "product": apitest.Record{"id": 1, "name": "Bolt"}, "quantity": 2, "unitPrice": 10, "total": 20},
	)
}

func TestCmdPrint_Preview(t *testing.T) {
	app, srv := newTestApp(t, "quotation.view", "quotation.print")
	login(t, app, srv)
	seedQuotation(srv)

	require.NoError(t, app.CmdPrint(context.Background(), []string{"quotation", "1", "--preview"}))
	out := output(app)
	assert.Contains(t, out, "Q-001")
	assert.Contains(t, out, "Bolt")
	assert.Empty(t, app.Printer.(*fakePrinter).docs)
}

func TestCmdPrint_SendsToPrinter(t *testing.T) {
	app, srv := newTestApp(t, "quotation.view", "quotation.print")
	login(t, app, srv)
	seedQuotation(srv)

	require.NoError(t, app.CmdPrint(context.Background(), []string{"quotation", "1"}))
	docs := app.Printer.(*fakePrinter).docs
	require.Len(t, docs, 1)
	assert.Equal(t, "Quotation", docs[0].Title)
	assert.Contains(t, output(app), "Quotation sent to printer")
}

func TestCmdPrint_Errors(t *testing.T) {
	app, srv := newTestApp(t, "quotation.view")
	login(t, app, srv)
	seedQuotation(srv)
	ctx := context.Background()

	err := app.CmdPrint(ctx, []string{"quotation"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sales-invoice-summary")

	err = app.CmdPrint(ctx, []string{"receipt", "1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown document")

	err = app.CmdPrint(ctx, []string{"quotation", "1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission")
	assert.Empty(t, app.Printer.(*fakePrinter).docs)
}
