// Package worker keeps the spreadsheet mirror in step with the ledgers.
package worker

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
)

// Lister reads one ledger.
type Lister[T any] interface {
	List(ctx context.Context) ([]T, error)
}

// MirrorWorker re-reads a ledger from the store and rewrites its tab.
type MirrorWorker struct {
	expenses Lister[core.Expense]
	income   Lister[core.Income]
	budgets  Lister[core.Budget]
	mirror   sheets.LedgerMirror
	logger   *log.Logger
}

func NewMirrorWorker(
	expenses Lister[core.Expense],
	income Lister[core.Income],
	budgets Lister[core.Budget],
	mirror sheets.LedgerMirror,
	logger *log.Logger,
) *MirrorWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &MirrorWorker{
		expenses: expenses,
		income:   income,
		budgets:  budgets,
		mirror:   mirror,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleLedgerChange mirrors the ledger named in msg. An expense change also
// refreshes the budget tab, whose spent column depends on it.
func (w *MirrorWorker) HandleLedgerChange(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	w.logger.InfoContext(ctx, "Processing ledger change",
		log.FieldLedger, msg.Ledger,
		log.FieldOperation, string(msg.Op),
		log.FieldRecordKey, msg.Key,
		"message_id", msg.ID)

	if err := w.MirrorLedger(ctx, msg.Ledger); err != nil {
		return err
	}
	if msg.Ledger == ledger.Expenses {
		return w.MirrorLedger(ctx, ledger.Budgets)
	}
	return nil
}

// MirrorLedger rewrites one tab from the current ledger contents.
func (w *MirrorWorker) MirrorLedger(ctx context.Context, name string) error {
	var err error
	switch name {
	case ledger.Expenses:
		err = w.mirrorExpenses(ctx)
	case ledger.Income:
		err = w.mirrorIncome(ctx)
	case ledger.Budgets:
		err = w.mirrorBudgets(ctx)
	default:
		w.logger.WarnContext(ctx, "Ignoring change for unknown ledger", log.FieldLedger, name)
		return nil
	}
	if err != nil {
		return fmt.Errorf("mirror %s: %w", name, err)
	}
	return nil
}

// MirrorAll rewrites every tab concurrently.
func (w *MirrorWorker) MirrorAll(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, name := range []string{ledger.Expenses, ledger.Income, ledger.Budgets} {
		name := name
		g.Go(func() error { return w.MirrorLedger(gctx, name) })
	}
	return g.Wait()
}

// Run calls MirrorAll every interval until ctx ends, catching changes whose
// messages were lost.
func (w *MirrorWorker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.MirrorAll(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Periodic mirror failed", log.FieldError, err.Error())
			}
		}
	}
}

func (w *MirrorWorker) mirrorExpenses(ctx context.Context) error {
	list, err := w.expenses.List(ctx)
	if err != nil {
		return err
	}
	return w.mirror.MirrorExpenses(ctx, list)
}

func (w *MirrorWorker) mirrorIncome(ctx context.Context) error {
	list, err := w.income.List(ctx)
	if err != nil {
		return err
	}
	return w.mirror.MirrorIncome(ctx, list)
}

func (w *MirrorWorker) mirrorBudgets(ctx context.Context) error {
	budgets, err := w.budgets.List(ctx)
	if err != nil {
		return err
	}
	expenses, err := w.expenses.List(ctx)
	if err != nil {
		return err
	}
	return w.mirror.MirrorBudgets(ctx, ledger.ReconcileBudgets(budgets, expenses))
}
