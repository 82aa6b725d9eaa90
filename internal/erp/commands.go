package erp

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mikelcalvo/erp-console/internal/api"
	"github.com/mikelcalvo/erp-console/internal/export"
	"github.com/mikelcalvo/erp-console/internal/permission"
	"github.com/mikelcalvo/erp-console/internal/screen"
)

// exportPageSize bounds the rows fetched for a local export.
const exportPageSize = 1000

func (a *App) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.Out, format, args...)
}

// requireSession fails unless a non-expired token is held.
func (a *App) requireSession() error {
	if err := a.Session.CheckExpiry(); err != nil {
		return err
	}
	if !a.Session.Authenticated() {
		return fmt.Errorf("not logged in. Run: erp-console login <username> <password>")
	}
	return nil
}

// CmdPing tests the backend connection and reports who is logged in.
func (a *App) CmdPing(ctx context.Context) error {
	a.printf("%sTesting connection to %s...%s\n", Blue, a.Config.API.BaseURL, Reset)

	latency, err := a.Client.Ping(ctx)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	a.printf("%s✓ Backend reachable%s (%s)\n", Green, Reset, latency.Round(time.Millisecond))

	if err := a.Session.CheckExpiry(); err != nil {
		a.printf("  Session: %s%s%s\n", Yellow, err, Reset)
		return nil
	}
	if claims, ok := a.Session.Claims(); ok {
		a.printf("  Authenticated as: %s%s%s\n", Yellow, claims.DisplayName(), Reset)
	} else {
		a.printf("  Session: %snot logged in%s\n", Yellow, Reset)
	}
	return nil
}

// CmdConfig shows the effective configuration.
func (a *App) CmdConfig() error {
	cfg := a.Config
	a.printf("%sCurrent configuration:%s\n", Blue, Reset)
	if cfg.File != "" {
		a.printf("  Config file: %s\n", cfg.File)
	} else {
		a.printf("  Config file: %snone%s (environment only)\n", Yellow, Reset)
	}
	a.printf("  Backend URL: %s\n", cfg.API.BaseURL)
	a.printf("  Environment: %s\n", cfg.App.Env)
	a.printf("  Brand: %s\n", cfg.App.Brand)
	a.printf("  Locale: %s\n", cfg.UI.Locale)
	a.printf("  Page size: %d\n", cfg.UI.PageSize)
	a.printf("  Filter debounce: %s\n", cfg.UI.Debounce)
	a.printf("  Cache stale time: %s\n", cfg.UI.StaleTime)
	a.printf("  HTTP timeout: %s\n", cfg.API.Timeout)
	a.printf("  State file: %s\n", cfg.Paths.StateFile)
	a.printf("  Export dir: %s\n", cfg.Paths.ExportDir)
	a.printf("  Log file: %s (%s)\n", cfg.Log.File, cfg.Log.Level)
	a.printf("  Print command: %s\n", cfg.Printer.Command)

	if token, ok := a.Session.Token(); ok {
		a.printf("  Token: %s\n", mask(token))
	} else {
		a.printf("  Token: %snot logged in%s\n", Yellow, Reset)
	}
	return nil
}

// mask keeps the first 8 characters of a secret.
func mask(secret string) string {
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:8] + "...****"
}

// CmdLogin starts a session from credentials or an existing token.
func (a *App) CmdLogin(ctx context.Context, args []string) error {
	var token string
	var positional []string
	for _, arg := range args {
		if strings.HasPrefix(arg, "--token=") {
			token = strings.TrimPrefix(arg, "--token=")
			continue
		}
		positional = append(positional, arg)
	}

	var err error
	switch {
	case token != "":
		_, err = a.LoginToken(token)
	case len(positional) == 2:
		_, err = a.Login(ctx, positional[0], positional[1])
	default:
		return fmt.Errorf("usage: erp-console login <username> <password> | --token=<token>")
	}
	if err != nil {
		return fmt.Errorf("login failed: %s", api.UserMessage(err))
	}
	return a.CmdWhoami()
}

// CmdLogout ends the session.
func (a *App) CmdLogout() error {
	if err := a.Logout(); err != nil {
		return err
	}
	a.printf("%s✓ Logged out%s\n", Green, Reset)
	return nil
}

// CmdWhoami prints the identity carried by the session token.
func (a *App) CmdWhoami() error {
	if err := a.requireSession(); err != nil {
		return err
	}
	claims, _ := a.Session.Claims()
	a.printf("%s✓ Logged in as %s%s\n", Green, claims.DisplayName(), Reset)
	if claims.Username != "" {
		a.printf("  Username: %s\n", claims.Username)
	}
	if len(claims.Roles) > 0 {
		a.printf("  Roles: %s\n", strings.Join(claims.Roles, ", "))
	}
	a.printf("  Permissions: %d\n", len(claims.Permissions))
	if exp := claims.ExpiresAtTime(); !exp.IsZero() {
		a.printf("  Expires: %s\n", exp.Local().Format("02-01-2006 15:04"))
	}
	if id, ok := a.Session.Companies().Current(); ok {
		a.printf("  Company: #%d\n", id)
	} else {
		a.printf("  Company: %snone selected%s\n", Yellow, Reset)
	}
	return nil
}

// CmdCompany lists the permitted companies or selects one by id.
func (a *App) CmdCompany(ctx context.Context, args []string) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	companies := a.Session.Companies()

	if len(args) > 0 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid company id: %s", args[0])
		}
		if err := companies.Select(id); err != nil {
			return err
		}
		a.printf("%s✓ Company #%d selected%s\n", Green, id, Reset)
		return nil
	}

	all, err := a.API.Companies.All(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to list companies: %s", api.UserMessage(err))
	}
	permitted := map[int64]bool{}
	for _, id := range companies.Permitted() {
		permitted[id] = true
	}
	current, _ := companies.Current()

	a.printf("%sPermitted companies:%s\n", Blue, Reset)
	for _, c := range all {
		if !permitted[c.ID] {
			continue
		}
		marker := " "
		if c.ID == current {
			marker = "*"
		}
		a.printf("  %s %s%-6d%s %s\n", marker, Cyan, c.ID, Reset, c.Name)
	}
	return nil
}

// CmdExport saves a resource export under the export dir or -o <dir>.
func (a *App) CmdExport(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.printf("Usage: erp-console export <resource> [-o <dir>]\n")
		a.printf("Resources: %s\n", strings.Join(a.screenNames(), ", "))
		a.printf("\nExamples:\n")
		a.printf("  erp-console export customers\n")
		a.printf("  erp-console export quotations -o ./exports\n")
		return nil
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	dir := a.Config.Paths.ExportDir
	for i, arg := range args {
		if arg == "-o" && i+1 < len(args) {
			dir = args[i+1]
		}
	}

	def, ok := a.Screen(args[0])
	if !ok {
		return fmt.Errorf("unknown export resource: %s", args[0])
	}
	if !def.CanExport(a.Session.Gate()) {
		return fmt.Errorf("you do not have permission to export %s", def.Title)
	}

	data, err := a.exportData(ctx, def)
	if err != nil {
		return fmt.Errorf("export failed: %s", api.UserMessage(err))
	}
	path, err := export.Save(dir, export.Filename(string(def.Key), a.now()), data)
	if err != nil {
		return err
	}
	a.Log.Info().Str("resource", def.Entity).Str("path", path).Msg("exported")
	a.printf("%s✓ Exported %s to %s%s\n", Green, def.Title, path, Reset)
	return nil
}

// exportData uses the backend export when offered, otherwise the listed rows.
func (a *App) exportData(ctx context.Context, def *screen.Definition) ([]byte, error) {
	if def.HasExport() {
		return def.Export(ctx, nil)
	}
	params := screen.Params{}
	if def.Paginated {
		params.PageNumber, params.PageSize = 1, exportPageSize
	}
	res, err := def.Load(ctx, a.Cache, params)
	if err != nil {
		return nil, err
	}
	columns := make([]string, len(def.Columns))
	for i, c := range def.Columns {
		columns[i] = c.Title
	}
	rows := make([][]string, len(res.Rows))
	for i, r := range res.Rows {
		rows[i] = r.Cells
	}
	var buf bytes.Buffer
	if err := export.WriteRows(&buf, columns, rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (a *App) screenNames() []string {
	var names []string
	for _, def := range a.Screens() {
		names = append(names, string(def.Key))
	}
	return names
}

// CmdPrint sends a document to the printer, or to stdout with --preview.
func (a *App) CmdPrint(ctx context.Context, args []string) error {
	preview := false
	var positional []string
	for _, arg := range args {
		if arg == "--preview" {
			preview = true
			continue
		}
		positional = append(positional, arg)
	}
	if len(positional) != 2 {
		names := make([]string, 0, len(a.Documents))
		for name := range a.Documents {
			names = append(names, name)
		}
		sort.Strings(names)
		return fmt.Errorf("usage: erp-console print <document> <id> [--preview]\ndocuments: %s", strings.Join(names, ", "))
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	name := positional[0]
	build, ok := a.Documents[name]
	if !ok {
		return fmt.Errorf("unknown document: %s", name)
	}
	entity := strings.TrimSuffix(name, "-summary")
	if !a.Session.Gate().Has(permission.For(entity, permission.Print)) {
		return fmt.Errorf("you do not have permission to print %s", name)
	}
	id, err := strconv.ParseInt(positional[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id: %s", positional[1])
	}

	doc, err := build(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load %s %d: %s", name, id, api.UserMessage(err))
	}
	if preview {
		a.printf("%s\n", doc.RenderText(100))
		return nil
	}
	if err := a.Printer.Print(ctx, doc); err != nil {
		return err
	}
	a.printf("%s✓ %s sent to printer%s\n", Green, doc.Title, Reset)
	return nil
}
