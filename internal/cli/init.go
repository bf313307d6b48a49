// Package cli provides the fintrack command tree and the initialization
// shared by cmd/fintrack and cmd/fintrack-worker.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/cache"
	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/currency"
	"fintrack/internal/log"
	"fintrack/internal/services"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/storage"
	"fintrack/internal/trace"
	"fintrack/internal/worker"
)

// SetupLogger initializes structured logging at level and installs it as
// the default logger.
func SetupLogger(level string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(level)
	cfg.Component = log.ComponentCLI
	// stdout carries command results
	cfg.Output = os.Stderr
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration from the environment and
// validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// App is a fully wired fintrack instance.
type App struct {
	Config   *config.Config
	Store    storage.Store
	Services *services.Services
	Caches   *cache.Manager
	// AMQP is nil when events are handled inline.
	AMQP   *amqp.Client
	Logger *log.Logger
	// Tracer tags each command run with an operation ID.
	Tracer *trace.Tracer

	closers []func() error
}

// Bootstrap opens the configured store and external clients and assembles
// the services over them.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	app := &App{Config: cfg, Logger: logger, Tracer: trace.New(logger.WithComponent(log.ComponentCLI))}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}
	app.Store = res.Store
	app.closers = append(app.closers, res.Cleanup)

	var seed *core.Settings
	if cfg.SettingsSeedFile != "" {
		if seed, err = config.LoadSettingsSeed(cfg.SettingsSeedFile); err != nil {
			app.Close()
			return nil, err
		}
		logger.Info("Loaded settings seed", "path", cfg.SettingsSeedFile)
	}

	app.Caches = cache.NewManager(logger.Logger)
	var rates currency.Converter = currency.Static{}
	if cfg.ExchangeRateAPIKey != "" {
		client := currency.NewClient(cfg.ExchangeRateAPIURL, cfg.ExchangeRateAPIKey,
			cfg.ExchangeRateTimeout, cfg.ExchangeRateCacheTTL,
			currency.WithLogger(logger.WithComponent(log.ComponentCurrency).Logger))
		app.Caches.Register(client.Cache())
		rates = client
	} else {
		logger.Info("Exchange rate API key not set, converting at rate 1")
	}

	deps := services.Deps{
		Store:            app.Store,
		Rates:            rates,
		Policy:           cfg.Policy(),
		ReminderWindow:   cfg.ReminderWindowDays,
		SweepConcurrency: cfg.SweepConcurrency,
		SettingsSeed:     seed,
		Logger:           logger,
	}

	if cfg.SheetsEnabled() {
		exporter, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			SheetName:          cfg.GoogleSheetName,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		})
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("initialize Google Sheets exporter: %w", err)
		}
		deps.Exporter = exporter
		logger.Info("Google Sheets mirror enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	}

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, handling events inline", log.FieldError, err)
		} else {
			app.AMQP = client
			app.closers = append(app.closers, client.Close)
			deps.Dispatcher = client
			logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	app.Services = services.New(deps)
	return app, nil
}

// Worker builds the background worker over the app's services.
func (a *App) Worker() *worker.Worker {
	jobs := worker.Jobs{
		Sweeper:  a.Services.Notifications,
		Expander: a.Services.Ledger,
		Handler:  a.Services.Events.Handle,
		Caches:   a.Caches,
	}
	if a.AMQP != nil {
		jobs.Consumer = a.AMQP
	}
	return worker.New(worker.Config{
		SweepSchedule:        a.Config.SweepSchedule,
		ExpansionSchedule:    a.Config.ExpansionSchedule,
		CacheCleanupInterval: a.Config.CacheCleanupInterval,
	}, jobs, nil, a.Logger)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Logger.Warn("Failed to release resource", log.FieldError, err)
		}
	}
	a.closers = nil
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. A second
// signal, or timeout after the first, exits the process.
func GracefulShutdown(logger *log.Logger, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		sigChan := make(chan os.Signal, 2)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
		case <-ctx.Done():
			return
		}
		cancel()

		select {
		case sig := <-sigChan:
			logger.Warn("Second signal received, exiting", "signal", sig.String())
		case <-time.After(timeout):
			logger.Warn("Shutdown timeout reached")
		}
		os.Exit(1)
	}()

	return ctx, cancel
}
