// Package http exposes the engine over a JSON API.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"tally/internal/aggregate"
	"tally/internal/budget"
	"tally/internal/cache"
	"tally/internal/goals"
	applog "tally/internal/log"
	"tally/internal/ledger"
	"tally/internal/schedule"
	"tally/internal/store"
	"tally/internal/trend"
)

// Config tunes the server independent of the service wiring.
type Config struct {
	Addr                string
	CacheSize           int
	CacheTTL            time.Duration
	UpcomingHorizonDays int
}

type Server struct {
	http.Server

	stores    store.Stores
	ledger    *ledger.Service
	budgets   *budget.Tracker
	scheduler *schedule.Scheduler
	goals     *goals.Tracker
	logger    *applog.Logger
	horizon   int

	// Derived read models are cached per user. Any ledger change, local
	// or announced over the queue, invalidates the user's entries.
	summaryCache *cache.LRUCache[aggregate.Totals]
	trendCache   *cache.LRUCache[trend.Report]

	rateLimiter *rateLimiter

	stopCleanup chan struct{}
}

func NewServer(cfg Config, stores store.Stores, ledgerService *ledger.Service, logger *applog.Logger) *Server {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 256
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 30 * time.Second
	}
	if cfg.UpcomingHorizonDays <= 0 {
		cfg.UpcomingHorizonDays = 7
	}

	s := &Server{
		stores:       stores,
		ledger:       ledgerService,
		budgets:      budget.NewTracker(stores.Budgets),
		scheduler:    schedule.NewScheduler(stores.Recurrences, ledgerService),
		goals:        goals.NewTracker(stores.Goals),
		logger:       logger.WithComponent(applog.ComponentHTTP),
		horizon:      cfg.UpcomingHorizonDays,
		summaryCache: cache.NewLRUCache[aggregate.Totals](cfg.CacheSize, cfg.CacheTTL),
		trendCache:   cache.NewLRUCache[trend.Report](cfg.CacheSize, cfg.CacheTTL),
		rateLimiter:  newRateLimiter(120),
		stopCleanup:  make(chan struct{}),
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(applog.RequestLogger(s.logger))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(requireUser)
		r.Use(s.limitWrites)

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", s.handleListTransactions)
			r.Post("/", s.handleCreateTransaction)
			r.Put("/{id}", s.handleUpdateTransaction)
			r.Delete("/{id}", s.handleDeleteTransaction)
		})
		r.Get("/summary", s.handleSummary)

		r.Route("/budgets", func(r chi.Router) {
			r.Get("/", s.handleListBudgets)
			r.Post("/", s.handleCreateBudget)
			r.Get("/progress", s.handleBudgetProgress)
			r.Put("/{id}", s.handleUpdateBudget)
			r.Delete("/{id}", s.handleDeleteBudget)
		})

		r.Route("/recurrences", func(r chi.Router) {
			r.Get("/", s.handleListRecurrences)
			r.Post("/", s.handleCreateRecurrence)
			r.Get("/due", s.handleDueRecurrences)
			r.Get("/upcoming", s.handleUpcomingRecurrences)
			r.Put("/{id}", s.handleUpdateRecurrence)
			r.Post("/{id}/execute", s.handleExecuteRecurrence)
			r.Post("/{id}/activate", s.handleActivateRecurrence)
			r.Delete("/{id}", s.handleDeleteRecurrence)
		})

		r.Route("/goals", func(r chi.Router) {
			r.Get("/", s.handleListGoals)
			r.Post("/", s.handleCreateGoal)
			r.Get("/stats", s.handleGoalStats)
			r.Put("/{id}", s.handleUpdateGoal)
			r.Post("/{id}/deposit", s.handleGoalDeposit)
			r.Delete("/{id}", s.handleDeleteGoal)
		})

		r.Get("/trends", s.handleTrends)
	})

	s.Server = http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go s.runCacheCleanup()

	return s
}

// InvalidateUser drops the user's cached read models. Called on local
// mutations and on ledger events announced by other processes.
func (s *Server) InvalidateUser(userID string) {
	s.summaryCache.DeleteByPrefix(userID + ":")
	s.trendCache.DeleteByPrefix(userID + ":")
}

func (s *Server) runCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed := s.summaryCache.CleanExpired() + s.trendCache.CleanExpired()
			if removed > 0 {
				s.logger.Debug("cache cleanup", "entries_removed", removed)
			}
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	close(s.stopCleanup)
	s.rateLimiter.stop()
	return s.Server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
