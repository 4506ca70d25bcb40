package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"time"

	"github.com/google/subcommands"

	"ledger/internal/cli"
	apphttp "ledger/internal/http"
	applog "ledger/internal/log"
)

type serveCmd struct{}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the ledger JSON API" }
func (*serveCmd) Usage() string {
	return `ledger serve

  Starts the HTTP API on $PORT. Clients authenticate with
  POST /api/auth/login and send the returned token as a bearer token.
`
}

func (*serveCmd) SetFlags(*flag.FlagSet) {}

func (*serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	app, err := cli.Bootstrap(ctx)
	if err != nil {
		return fail(err)
	}
	defer app.Close()

	srv := apphttp.NewServer(":"+app.Config.Port, app.Ledger, app.Gate, apphttp.Options{
		SessionTTL: app.Config.SessionTTL,
		Logger:     app.Logger,
	})

	shutdownCtx, done := cli.GracefulShutdown(app.Logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			app.Logger.Error("Server shutdown error", applog.FieldError, err.Error())
		}
	})

	app.Logger.Info("Starting ledger server",
		applog.FieldOperation, applog.OpStartup,
		"port", app.Config.Port,
		"backend", app.Config.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.Logger.Error("Server error", applog.FieldError, err.Error(), "port", app.Config.Port)
		return subcommands.ExitFailure
	}

	cli.WaitForShutdown(shutdownCtx, done)
	app.Logger.Info("Server stopped gracefully")
	return subcommands.ExitSuccess
}
