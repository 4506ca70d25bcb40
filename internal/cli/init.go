// Package cli provides common CLI initialization utilities shared by the
// ledger subcommands.
package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ledger/internal/auth"
	"ledger/internal/backend"
	"ledger/internal/config"
	applog "ledger/internal/log"
	"ledger/internal/services"
	"ledger/internal/storage"
)

// SecretEnv names the environment variable read when no -secret flag is
// given.
const SecretEnv = "LEDGER_SECRET"

// ErrNoSecret is returned when a command needs the secret and none was
// supplied.
var ErrNoSecret = errors.New("no secret given: use -secret or " + SecretEnv)

// ErrNotInitialized is returned by Unlock before any secret was set.
var ErrNotInitialized = errors.New("no secret set yet: run the init command first")

// SetupLogger initializes structured logging from the configuration.
// Returns the configured logger and sets it as the default logger.
func SetupLogger(cfg *config.Config) *applog.Logger {
	lc := applog.DefaultConfig()
	lc.Output = os.Stderr
	lc.Format = cfg.LogFormat
	lc.Component = applog.ComponentCLI
	if level, err := applog.ParseLevel(cfg.LogLevel); err == nil {
		lc.Level = level
	}
	logger := applog.New(lc)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// App bundles everything a command needs once the environment is set up.
type App struct {
	Config *config.Config
	Logger *applog.Logger
	Store  storage.Store
	Ledger *services.Ledger
	Gate   *auth.Gate

	opened *backend.Opened
}

// Bootstrap loads .env and the configuration, sets up logging and opens the
// configured record store. The ledger is not loaded until Unlock.
func Bootstrap(ctx context.Context) (*App, error) {
	LoadEnvFile()
	cfg, err := LoadAndValidateConfig()
	if err != nil {
		return nil, err
	}
	logger := SetupLogger(cfg)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	opened, err := backend.Open(ctx, bcfg, logger)
	if err != nil {
		logger.Error("Failed to open record store",
			applog.FieldError, err.Error(),
			applog.FieldErrorType, applog.ErrorTypeDatabase)
		return nil, err
	}

	return &App{
		Config: cfg,
		Logger: logger,
		Store:  opened.Store,
		Ledger: services.NewLedger(opened.Store, services.Options{
			Currency:      cfg.Currency,
			ImportWorkers: cfg.ImportWorkers,
			Logger:        logger,
		}),
		Gate:   auth.NewGate(opened.Store, 0, logger),
		opened: opened,
	}, nil
}

// Close releases the record store.
func (a *App) Close() error {
	return a.opened.Close()
}

// Secret returns flagValue, or the value of LEDGER_SECRET when the flag is
// empty.
func Secret(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if v := os.Getenv(SecretEnv); v != "" {
		return v, nil
	}
	return "", ErrNoSecret
}

// Unlock passes the access gate with secret and loads the working set.
func (a *App) Unlock(ctx context.Context, secret string) error {
	state, err := a.Gate.State(ctx)
	if err != nil {
		return err
	}
	if state == auth.NoSecretSet {
		return ErrNotInitialized
	}
	if err := a.Gate.Login(ctx, secret); err != nil {
		return err
	}
	return a.Ledger.Open(ctx)
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals, and a
// channel that is closed once shutdown has run.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, shutdown func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if shutdown != nil {
			shutdown(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete", applog.FieldOperation, applog.OpShutdown)
		}

		cancel()
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
