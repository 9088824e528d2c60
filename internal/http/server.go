// Package http exposes the JSON API: ledger CRUD, monthly budgets, spend
// reports and the assistant endpoint.
package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/agent"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// Deps are the collaborators the server needs. Assistant is nil when no LLM
// is configured; the endpoint then answers 503.
type Deps struct {
	Expenses  *services.ExpenseService
	Budgets   *services.BudgetService
	Repo      *storage.Repository
	Assistant *agent.Graph
	Limiter   *ratelimit.Limiter
	Logger    *log.Logger
}

// Server wraps http.Server with the application routes and middleware.
type Server struct {
	http.Server
	deps         Deps
	metrics      *metrics
	reports      *cache.Cache[string, []core.MonthlySpend]
	logger       *log.Logger
	shutdownOnce sync.Once
}

// Options tunes server timeouts and the report cache.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
}

// NewServer builds the server with all routes registered.
func NewServer(opts Options, deps Deps) *Server {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 30 * time.Second
	}
	s := &Server{
		deps: deps,
		// Rollups change out of process, so the report cache relies on
		// TTL expiry alone.
		reports: cache.New[string, []core.MonthlySpend](12, opts.CacheTTL),
		metrics: &metrics{},
		logger:  deps.Logger.WithComponent(log.ComponentHTTP),
	}

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = s.requestLog(handler)
	if deps.Limiter != nil {
		handler = deps.Limiter.Middleware(handler)
	}
	handler = s.metrics.middleware(handler)
	handler = security.Headers(handler)
	handler = trace.Middleware(handler)

	s.Server = http.Server{
		Addr:         opts.Addr,
		Handler:      handler,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.metrics.handler)

	mux.HandleFunc("POST /expenses", s.handleCreateExpense)
	mux.HandleFunc("GET /expenses", s.handleListExpenses)
	mux.HandleFunc("GET /expenses/{id}", s.handleGetExpense)
	mux.HandleFunc("PUT /expenses/{id}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /expenses/{id}", s.handleDeleteExpense)

	mux.HandleFunc("GET /budgets/{year_month}", s.handleGetBudgets)
	mux.HandleFunc("POST /budgets/{year_month}/{account}", s.handleSetBudget)

	mux.HandleFunc("GET /reports/monthly", s.handleMonthlyReport)

	mux.HandleFunc("POST /assistant/invoke", s.handleAssistant)
}

// ListenAndServe runs the server until Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.logger.Info("server listening", "addr", s.Addr)
	err := s.Server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains connections gracefully. Safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.logger.Info("server shutting down")
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.InfoContext(r.Context(), "request",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rec.status,
			log.FieldDuration, time.Since(start).String(),
			log.FieldTraceID, trace.FromContext(r.Context()),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.deps.Repo.Ping(ctx); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database not ready")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
