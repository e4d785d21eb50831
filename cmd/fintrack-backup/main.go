package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"fintrack/internal/app"
	"fintrack/internal/backup"
	"fintrack/internal/cli"
	"fintrack/internal/log"
)

func main() {
	var (
		importPath = flag.String("import", "", "restore every ledger from this file")
		exportPath = flag.String("export", "", "write a backup to this file (- for stdout)")
		format     = flag.String("format", "", "json or yaml; defaults to the file extension, then json")
	)
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	if (*importPath == "") == (*exportPath == "") {
		fmt.Fprintln(os.Stderr, "exactly one of -import or -export is required")
		flag.Usage()
		os.Exit(2)
	}

	ctx := context.Background()
	ledgers, closeAll, err := app.BuildBackup(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open ledgers", log.FieldError, err.Error())
		os.Exit(1)
	}

	if *exportPath != "" {
		err = runExport(ctx, ledgers, *exportPath, *format)
	} else {
		err = runImport(ctx, ledgers, *importPath, *format, logger)
	}
	if cerr := closeAll(); cerr != nil {
		logger.Warn("Failed to close ledgers", log.FieldError, cerr.Error())
	}
	if err != nil {
		logger.Error("Backup failed", log.FieldError, err.Error())
		os.Exit(1)
	}
}

func formatFor(path, flagValue string) (backup.Format, error) {
	if flagValue != "" {
		return backup.ParseFormat(flagValue)
	}
	if f, err := backup.ParseFormat(strings.TrimPrefix(filepath.Ext(path), ".")); err == nil {
		return f, nil
	}
	return backup.FormatJSON, nil
}

func runExport(ctx context.Context, l backup.Ledgers, path, f string) error {
	format, err := formatFor(path, f)
	if err != nil {
		return err
	}
	data, err := backup.Export(ctx, l, format)
	if err != nil {
		return err
	}
	if path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func runImport(ctx context.Context, l backup.Ledgers, path, f string, logger *log.Logger) error {
	format, err := formatFor(path, f)
	if err != nil {
		return err
	}
	var data []byte
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}
	sum, err := backup.Import(ctx, l, format, data)
	if err != nil {
		return err
	}
	logger.Info("Backup restored",
		"expenses", sum.Expenses, "income", sum.Income, "budgets", sum.Budgets, "history", sum.History)
	return nil
}
