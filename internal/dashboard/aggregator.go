// Package dashboard builds the read-only summary over all ledgers.
package dashboard

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// Source is a ledger the aggregator reads and watches.
type Source[T any] interface {
	List(ctx context.Context) ([]T, error)
	Subscribe(o ledger.Observer) func()
}

// Snapshot is everything the dashboard shows, built in one pass.
type Snapshot struct {
	Greeting    string               `json:"greeting"`
	GeneratedAt time.Time            `json:"generatedAt"`
	LastSynced  time.Time            `json:"lastSynced"`
	Totals      Totals               `json:"totals"`
	Recent      []ActivityItem       `json:"recent"`
	Weekly      [7]WeekdayBucket     `json:"weekly"`
	Trend       Trend                `json:"trend"`
	Categories  []core.LabeledAmount `json:"categories"`
}

// Aggregator builds snapshots and rebuilds them from scratch after any
// ledger change. It never writes a ledger.
type Aggregator struct {
	expenses Source[core.Expense]
	income   Source[core.Income]
	budgets  Source[core.Budget]
	store    storage.Store
	cache    cache.Cache[Snapshot]
	logger   *log.Logger
	now      func() time.Time

	// generation is bumped on every invalidation; a build that started
	// before the bump is returned but not cached. cacheMu makes the
	// check-and-set in Snapshot atomic with the bump-and-purge.
	cacheMu    sync.Mutex
	generation atomic.Uint64

	subMu sync.Mutex
	subs  map[chan ledger.Change]struct{}
}

func NewAggregator(
	expenses Source[core.Expense],
	income Source[core.Income],
	budgets Source[core.Budget],
	store storage.Store,
	ttl time.Duration,
	logger *log.Logger,
) *Aggregator {
	if logger == nil {
		logger = log.Discard()
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Aggregator{
		expenses: expenses,
		income:   income,
		budgets:  budgets,
		store:    store,
		cache:    cache.NewLRUCache[Snapshot](4, ttl),
		logger:   logger.WithComponent(log.ComponentDashboard),
		now:      time.Now,
		subs:     make(map[chan ledger.Change]struct{}),
	}
}

// Snapshot returns the cached snapshot for the current month or builds one.
func (a *Aggregator) Snapshot(ctx context.Context) (Snapshot, error) {
	now := a.now()
	key := core.MonthOf(now).String()
	if snap, ok := a.cache.Get(key); ok {
		return snap, nil
	}

	gen := a.generation.Load()
	snap, err := a.build(ctx, now)
	if err != nil {
		return Snapshot{}, err
	}
	a.cacheMu.Lock()
	if a.generation.Load() == gen {
		a.cache.Set(key, snap)
	}
	a.cacheMu.Unlock()
	return snap, nil
}

func (a *Aggregator) build(ctx context.Context, now time.Time) (Snapshot, error) {
	var (
		expenses []core.Expense
		income   []core.Income
		budgets  []core.Budget
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		expenses, err = a.expenses.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		income, err = a.income.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		budgets, err = a.budgets.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, fmt.Errorf("load ledgers: %w", err)
	}

	snap := Snapshot{
		Greeting:    Greeting(now.Hour()),
		GeneratedAt: now,
		LastSynced:  now,
		Totals:      ComputeTotals(expenses, income, budgets, now),
		Recent:      RecentActivity(expenses, income, DefaultRecent),
		Weekly:      WeeklyBuckets(expenses),
		Trend:       MonthlyTrend(expenses, income),
		Categories:  ledger.GroupExpensesByCategory(expenses),
	}

	if a.store != nil {
		if err := storage.SaveNumber(ctx, a.store, storage.KeyLastSynced, now.UnixMilli()); err != nil {
			a.logger.WarnContext(ctx, "Failed to record sync time", log.FieldError, err.Error())
		}
	}
	a.logger.DebugContext(ctx, "Dashboard snapshot rebuilt",
		"expenses", len(expenses), "income", len(income), "budgets", len(budgets))
	return snap, nil
}

// LastSynced reads the time of the last snapshot build; zero if never built.
func (a *Aggregator) LastSynced(ctx context.Context) (time.Time, error) {
	if a.store == nil {
		return time.Time{}, nil
	}
	ms, err := storage.LoadNumber(ctx, a.store, storage.KeyLastSynced)
	if err != nil || ms == 0 {
		return time.Time{}, err
	}
	return time.UnixMilli(ms), nil
}

// Watch subscribes the aggregator to every ledger. The returned func undoes it.
func (a *Aggregator) Watch() func() {
	cancels := []func(){
		a.expenses.Subscribe(a),
		a.income.Subscribe(a),
		a.budgets.Subscribe(a),
	}
	return func() {
		for _, c := range cancels {
			c()
		}
	}
}

// LedgerChanged implements ledger.Observer.
func (a *Aggregator) LedgerChanged(ctx context.Context, c ledger.Change) {
	a.Invalidate(ctx, c)
}

// Invalidate drops every cached snapshot and tells subscribers to refresh.
func (a *Aggregator) Invalidate(ctx context.Context, c ledger.Change) {
	a.cacheMu.Lock()
	a.generation.Add(1)
	a.cache.Purge()
	a.cacheMu.Unlock()
	a.logger.DebugContext(ctx, "Dashboard invalidated", log.FieldLedger, c.Ledger, log.FieldOperation, string(c.Op))

	a.subMu.Lock()
	defer a.subMu.Unlock()
	for ch := range a.subs {
		select {
		case ch <- c:
		default:
			// a refresh is already pending for this subscriber
		}
	}
}

// Updates returns a channel that receives a value after each invalidation,
// and a func to stop receiving. Bursts collapse into one pending value.
func (a *Aggregator) Updates() (<-chan ledger.Change, func()) {
	ch := make(chan ledger.Change, 1)
	a.subMu.Lock()
	a.subs[ch] = struct{}{}
	a.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			a.subMu.Lock()
			delete(a.subs, ch)
			a.subMu.Unlock()
		})
	}
}
