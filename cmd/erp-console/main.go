package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/mikelcalvo/erp-console/internal/config"
	"github.com/mikelcalvo/erp-console/internal/erp"
	"github.com/mikelcalvo/erp-console/internal/logger"
	"github.com/mikelcalvo/erp-console/internal/session"
)

func main() {
	cmd := "tui"
	if len(os.Args) >= 2 {
		cmd = os.Args[1]
	}

	// Help doesn't need config
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		printUsage()
		os.Exit(0)
	}

	// Version
	if cmd == "version" || cmd == "-v" || cmd == "--version" {
		fmt.Printf("ERP Console v%s\n", erp.Version)
		fmt.Printf("Created by %s in %s\n", erp.Author, erp.Year)
		os.Exit(0)
	}

	app, closer, err := newApp()
	if err != nil {
		fail(err)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var args []string
	if len(os.Args) > 2 {
		args = os.Args[2:]
	}

	// Route commands
	var cmdErr error
	switch cmd {
	case "tui":
		cmdErr = erp.RunTUI(app)
	case "ping":
		cmdErr = app.CmdPing(ctx)
	case "config":
		cmdErr = app.CmdConfig()
	case "login":
		cmdErr = app.CmdLogin(ctx, args)
	case "logout":
		cmdErr = app.CmdLogout()
	case "whoami":
		cmdErr = app.CmdWhoami()
	case "company":
		cmdErr = app.CmdCompany(ctx, args)
	case "export":
		cmdErr = app.CmdExport(ctx, args)
	case "print":
		cmdErr = app.CmdPrint(ctx, args)
	default:
		fmt.Printf("%sUnknown command: %s%s\n", erp.Red, cmd, erp.Reset)
		printUsage()
		closer.Close()
		os.Exit(1)
	}

	if cmdErr != nil {
		closer.Close()
		fail(cmdErr)
	}
}

func newApp() (*erp.App, io.Closer, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log, closer, err := logger.Open(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open log file %s: %w", cfg.Log.File, err)
	}
	app, err := erp.NewApp(cfg, log, session.NewFileStore(cfg.Paths.StateFile))
	if err != nil {
		closer.Close()
		return nil, nil, err
	}
	log.Info().Str("url", cfg.API.BaseURL).Str("env", cfg.App.Env).Msg("console started")
	return app, closer, nil
}

func fail(err error) {
	fmt.Printf("%sError: %s%s\n", erp.Red, err, erp.Reset)
	os.Exit(1)
}

func printUsage() {
	fmt.Printf(`%sERP Console%s - Created by %s in %s

Usage: erp-console <command> [args...]

%sCommands:%s

  %stui%s                               Start the terminal UI (default)
  %sping%s                              Test the backend connection
  %sconfig%s                            Show current configuration
  %sversion%s                           Show version information

%sSession:%s
  %slogin <username> <password>%s       Log in and store the session
  %slogin --token=<token>%s             Start a session from an access token
  %slogout%s                            End the session
  %swhoami%s                            Show the logged-in user
  %scompany [id]%s                      List permitted companies or select one

%sDocuments:%s
  %sexport <resource> [-o <dir>]%s      Export a resource list to CSV
  %sprint <document> <id> [--preview]%s Print a document (or show it)

%sExamples:%s
  erp-console login admin secret
  erp-console company 2
  erp-console export customers -o ./exports
  erp-console print sales-invoice 42 --preview

`,
		erp.Blue, erp.Reset, erp.Author, erp.Year,
		erp.Yellow, erp.Reset,
		erp.Green, erp.Reset, erp.Green, erp.Reset, erp.Green, erp.Reset, erp.Green, erp.Reset,
		erp.Yellow, erp.Reset,
		erp.Green, erp.Reset, erp.Green, erp.Reset, erp.Green, erp.Reset, erp.Green, erp.Reset, erp.Green, erp.Reset,
		erp.Yellow, erp.Reset,
		erp.Green, erp.Reset, erp.Green, erp.Reset,
		erp.Yellow, erp.Reset,
	)
}
