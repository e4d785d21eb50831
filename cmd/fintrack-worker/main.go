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
	logger.Info("Starting fintrack-worker")
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	w, err := app.BuildWorker(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to build worker", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer w.Close()

	if err := w.Run(ctx); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
