package main

import (
	"os"

	"fintrack/internal/app"
	"fintrack/internal/cli"
	"fintrack/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to build server", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer a.Close()

	logger.Info("Starting fintrack", "port", cfg.Port, "backend", cfg.DataBackend, "amqp", cfg.AMQPEnabled())
	if err := a.Run(ctx); err != nil {
		logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
