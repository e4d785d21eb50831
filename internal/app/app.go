// Package app wires the fintrack processes together with a dig container.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/dig"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/backup"
	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/currency"
	"fintrack/internal/dashboard"
	apphttp "fintrack/internal/http"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/sheets/google"
	"fintrack/internal/storage"
	"fintrack/internal/worker"
)

const shutdownTimeout = 30 * time.Second

// Repositories are the three ledgers over one store.
type Repositories struct {
	Expenses *ledger.Repository[core.Expense]
	Income   *ledger.Repository[core.Income]
	Budgets  *ledger.Repository[core.Budget]
}

// App is the API server process.
type App struct {
	Server     *apphttp.Server
	Aggregator *dashboard.Aggregator

	logger  *log.Logger
	bus     *amqp.Client
	closers []func() error
}

// provideCore registers what every process needs: configuration, logging,
// the store and the ledgers over it.
func provideCore(ctx context.Context, c *dig.Container, cfg *config.Config, logger *log.Logger) error {
	if err := c.Provide(func() context.Context { return ctx }); err != nil {
		return err
	}
	if err := c.Provide(func() *config.Config { return cfg }); err != nil {
		return err
	}
	if err := c.Provide(func() *log.Logger { return logger }); err != nil {
		return err
	}
	if err := c.Provide(openStore); err != nil {
		return err
	}
	if err := c.Provide(ledger.NewExpenseRepository); err != nil {
		return err
	}
	if err := c.Provide(ledger.NewIncomeRepository); err != nil {
		return err
	}
	if err := c.Provide(ledger.NewBudgetRepository); err != nil {
		return err
	}
	return c.Provide(func(
		e *ledger.Repository[core.Expense],
		i *ledger.Repository[core.Income],
		b *ledger.Repository[core.Budget],
	) Repositories {
		return Repositories{Expenses: e, Income: i, Budgets: b}
	})
}

func openStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (storage.Store, storage.CleanupFunc, error) {
	return storage.Open(ctx, storage.Config{
		Type:         storage.BackendType(cfg.DataBackend),
		SQLiteDBPath: cfg.SQLiteDBPath,
	}, logger.Logger)
}

// Build assembles the API server. When AMQP is configured the server
// publishes its own ledger writes and invalidates its dashboard on writes
// made by other processes.
func Build(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	c := dig.New()
	if err := provideCore(ctx, c, cfg, logger); err != nil {
		return nil, err
	}
	if err := c.Provide(currency.NewHistory); err != nil {
		return nil, err
	}
	if err := c.Provide(func(cfg *config.Config) currency.RateProvider {
		return currency.NewHTTPRateProvider(cfg.RateAPIURL, cfg.RateAPITimeout)
	}); err != nil {
		return nil, err
	}
	if err := c.Provide(currency.NewConverter); err != nil {
		return nil, err
	}
	if err := c.Provide(services.NewExpenseService); err != nil {
		return nil, err
	}
	if err := c.Provide(services.NewIncomeService); err != nil {
		return nil, err
	}
	if err := c.Provide(services.NewBudgetService); err != nil {
		return nil, err
	}
	if err := c.Provide(func(r Repositories, store storage.Store, cfg *config.Config, logger *log.Logger) *dashboard.Aggregator {
		return dashboard.NewAggregator(r.Expenses, r.Income, r.Budgets, store, cfg.SnapshotCacheTTL, logger)
	}); err != nil {
		return nil, err
	}
	if err := c.Provide(backupLedgers); err != nil {
		return nil, err
	}

	var app *App
	err := c.Invoke(func(
		cfg *config.Config,
		logger *log.Logger,
		r Repositories,
		cleanup storage.CleanupFunc,
		exp *services.ExpenseService,
		inc *services.IncomeService,
		bud *services.BudgetService,
		conv *currency.Converter,
		agg *dashboard.Aggregator,
		ledgers backup.Ledgers,
	) error {
		app = &App{
			Aggregator: agg,
			logger:     logger.WithComponent(log.ComponentApp),
			closers:    []func() error{cleanup},
		}
		unwatch := agg.Watch()
		app.closers = append(app.closers, func() error { unwatch(); return nil })

		if cfg.AMQPEnabled() {
			// an empty queue name gives this server its own exclusive queue
			bus, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, "", logger)
			if err != nil {
				_ = app.Close()
				return fmt.Errorf("connect amqp: %w", err)
			}
			app.bus = bus
			app.closers = append(app.closers, bus.Close)
			unsubscribe := publishChanges(r, amqp.NewPublisher(bus, logger))
			app.closers = append(app.closers, func() error { unsubscribe(); return nil })
		}

		app.Server = apphttp.NewServer(":"+cfg.Port, apphttp.Services{
			Expenses:  exp,
			Income:    inc,
			Budgets:   bud,
			Converter: conv,
			Dashboard: agg,
			Backup:    ledgers,
		}, apphttp.Options{
			RateLimitPerMinute: cfg.RateLimitPerMinute,
			Logger:             logger,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

func backupLedgers(r Repositories, h *currency.History) backup.Ledgers {
	return backup.Ledgers{
		Expenses: r.Expenses,
		Income:   r.Income,
		Budgets:  r.Budgets,
		History:  h,
	}
}

func publishChanges(r Repositories, o ledger.Observer) func() {
	cancels := []func(){
		r.Expenses.Subscribe(o),
		r.Income.Subscribe(o),
		r.Budgets.Subscribe(o),
	}
	return func() {
		for _, c := range cancels {
			c()
		}
	}
}

// Run serves until ctx ends, then shuts the server down gracefully.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.InfoContext(ctx, "Starting fintrack server", "addr", a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	if a.bus != nil {
		g.Go(func() error {
			err := a.bus.Consume(gctx, amqp.InvalidateHandler(a.Aggregator))
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		a.logger.InfoContext(ctx, "Shutting down server", log.FieldOperation, log.OpShutdown)
		return a.Server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Serve is Run on an existing listener; tests use it with port 0.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		_ = a.Server.Shutdown(shutdownCtx)
	}()
	if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close releases everything Build acquired, in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Worker is the spreadsheet mirror process.
type Worker struct {
	Mirror *worker.MirrorWorker

	interval time.Duration
	logger   *log.Logger
	bus      *amqp.Client
	closers  []func() error
}

// BuildWorker assembles the mirror worker. It needs AMQP and a spreadsheet.
func BuildWorker(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Worker, error) {
	if err := cfg.ValidateWorker(); err != nil {
		return nil, err
	}
	c := dig.New()
	if err := provideCore(ctx, c, cfg, logger); err != nil {
		return nil, err
	}
	if err := c.Provide(func(ctx context.Context, cfg *config.Config, logger *log.Logger) (*google.Client, error) {
		return google.New(ctx, google.Config{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		}, logger)
	}); err != nil {
		return nil, err
	}
	if err := c.Provide(func(r Repositories, mirror *google.Client, logger *log.Logger) *worker.MirrorWorker {
		return worker.NewMirrorWorker(r.Expenses, r.Income, r.Budgets, mirror, logger)
	}); err != nil {
		return nil, err
	}

	var w *Worker
	err := c.Invoke(func(cfg *config.Config, logger *log.Logger, mw *worker.MirrorWorker, cleanup storage.CleanupFunc) error {
		bus, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			_ = cleanup()
			return fmt.Errorf("connect amqp: %w", err)
		}
		w = &Worker{
			Mirror:   mw,
			interval: cfg.MirrorInterval,
			logger:   logger.WithComponent(log.ComponentWorker),
			bus:      bus,
			closers:  []func() error{cleanup, bus.Close},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

// Run mirrors everything once, then follows change messages with a
// periodic full mirror as a safety net, until ctx ends.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Performing startup mirror", log.FieldOperation, log.OpStartup)
	if err := w.Mirror.MirrorAll(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Startup mirror failed", log.FieldError, err.Error())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		w.Mirror.Run(gctx, w.interval)
		return nil
	})
	g.Go(func() error {
		err := w.bus.Consume(gctx, w.Mirror.HandleLedgerChange)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	return g.Wait()
}

// Close releases everything BuildWorker acquired, in reverse order.
func (w *Worker) Close() error {
	var errs []error
	for i := len(w.closers) - 1; i >= 0; i-- {
		if err := w.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// BuildBackup opens the ledgers for the backup tool. Imports are published
// over AMQP when it is configured, so running servers refresh.
func BuildBackup(ctx context.Context, cfg *config.Config, logger *log.Logger) (backup.Ledgers, func() error, error) {
	c := dig.New()
	if err := provideCore(ctx, c, cfg, logger); err != nil {
		return backup.Ledgers{}, nil, err
	}
	if err := c.Provide(currency.NewHistory); err != nil {
		return backup.Ledgers{}, nil, err
	}
	if err := c.Provide(backupLedgers); err != nil {
		return backup.Ledgers{}, nil, err
	}

	var (
		ledgers backup.Ledgers
		closers []func() error
	)
	err := c.Invoke(func(cfg *config.Config, logger *log.Logger, r Repositories, l backup.Ledgers, cleanup storage.CleanupFunc) error {
		ledgers = l
		closers = append(closers, cleanup)
		if !cfg.AMQPEnabled() {
			return nil
		}
		bus, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, "", logger)
		if err != nil {
			logger.Warn("AMQP unavailable, running servers will not refresh", log.FieldError, err.Error())
			return nil
		}
		closers = append(closers, bus.Close)
		publishChanges(r, amqp.NewPublisher(bus, logger))
		return nil
	})
	if err != nil {
		return backup.Ledgers{}, nil, err
	}
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
	return ledgers, closeAll, nil
}
