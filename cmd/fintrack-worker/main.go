package main

import (
	"context"
	"os"
	"time"

	"fintrack/internal/cli"
	"fintrack/internal/log"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		log.Default().Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	logger := cli.SetupLogger(cfg.LogLevel).WithComponent(log.ComponentWorker)
	logger.Info("Starting fintrack-worker", "backend", cfg.DataBackend, "amqp_enabled", cfg.AMQPURL != "")

	ctx, cancel := cli.GracefulShutdown(logger, 30*time.Second)
	defer cancel()

	app, err := cli.Bootstrap(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize", log.FieldError, err)
		os.Exit(1)
	}
	defer app.Close()

	if err := app.Worker().Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("Worker failed", log.FieldError, err)
		app.Close()
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
