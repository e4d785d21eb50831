package http

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/backup"
	"fintrack/internal/currency"
	"fintrack/internal/dashboard"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

// Services are the operations the API exposes.
type Services struct {
	Expenses  *services.ExpenseService
	Income    *services.IncomeService
	Budgets   *services.BudgetService
	Converter *currency.Converter
	Dashboard *dashboard.Aggregator
	Backup    backup.Ledgers
}

// Options tune the server; zero values pick defaults.
type Options struct {
	RateLimitPerMinute int
	// KeepAlive is the interval of comment lines on event streams.
	KeepAlive time.Duration
	Logger    *log.Logger
}

type Server struct {
	http.Server
	svc    Services
	logger *log.Logger
	now    func() time.Time

	limiter   *ratelimit.Limiter
	detector  *security.Detector
	tracer    *trace.Middleware
	keepAlive time.Duration

	// baseCancel ends long-lived streams so Shutdown does not wait on them.
	baseCancel   context.CancelFunc
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc Services, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	if opts.KeepAlive <= 0 {
		opts.KeepAlive = 25 * time.Second
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	detector := security.NewDetector(logger)
	s := &Server{
		svc:        svc,
		logger:     logger.WithComponent(log.ComponentHTTP),
		now:        time.Now,
		limiter:    ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector:   detector,
		tracer:     trace.NewMiddleware(detector.ExtractClientIP, logger),
		keepAlive:  opts.KeepAlive,
		baseCancel: cancel,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	mux.HandleFunc("/api/expenses", s.handleExpenses)
	mux.HandleFunc("/api/expenses/delete", s.handleDeleteExpense)
	mux.HandleFunc("/api/income", s.handleIncome)
	mux.HandleFunc("/api/income/delete", s.handleDeleteIncome)
	mux.HandleFunc("/api/budgets", s.handleBudgets)
	mux.HandleFunc("/api/budgets/delete", s.handleDeleteBudget)

	mux.HandleFunc("/api/currency/convert", s.handleConvert)
	mux.HandleFunc("/api/currency/quick", s.handleQuickConvert)
	mux.HandleFunc("/api/currency/swap", s.handleSwap)
	mux.HandleFunc("/api/currency/pairs", s.handlePairs)
	mux.HandleFunc("/api/currency/latest", s.handleLatest)
	mux.HandleFunc("/api/currency/history", s.handleHistory)
	mux.HandleFunc("/api/currency/history/delete", s.handleDeleteHistory)
	mux.HandleFunc("/api/currency/history/clear", s.handleClearHistory)

	mux.HandleFunc("/api/dashboard", s.handleDashboard)
	mux.HandleFunc("/api/dashboard/events", s.handleDashboardEvents)

	mux.HandleFunc("/api/backup", s.handleBackup)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(detector.ExtractClientIP, s.onRateLimit)(handler)
	handler = s.tracer.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = detector.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.baseCancel()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, please try again later").Write(w)
}

// fail writes the mapped error response, logging anything that is not the
// client's fault.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, component, op string) {
	resp := ErrorFor(err)
	if resp.statusCode >= http.StatusInternalServerError {
		log.NewStructuredLogger(log.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, component, op, nil)
	}
	resp.Write(w)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady checks that the store answers and reports traffic counters.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	lastSynced, err := s.svc.Dashboard.LastSynced(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Readiness check failed", log.FieldError, err.Error())
		ErrorResponse(http.StatusServiceUnavailable, "storage unavailable").Write(w)
		return
	}

	body := map[string]interface{}{
		"status":    "ready",
		"requests":  s.tracer.GetMetrics(),
		"rateLimit": s.limiter.GetMetrics(),
		"security":  s.detector.GetMetrics(),
	}
	if !lastSynced.IsZero() {
		body["lastSynced"] = lastSynced
	}
	NewResponse().JSON(body).Write(w)
}
