// Package service ties the draft engine, lineup store, scoring pipeline and
// standings together behind the operations the HTTP API exposes.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/dawgbowl/internal/adapters/mq/queue"
	"github.com/okian/dawgbowl/internal/adapters/mq/worker"
	"github.com/okian/dawgbowl/internal/adapters/standings"
	"github.com/okian/dawgbowl/internal/adapters/store"
	"github.com/okian/dawgbowl/internal/config"
	"github.com/okian/dawgbowl/internal/domain/catalog"
	"github.com/okian/dawgbowl/internal/domain/dedupe"
	"github.com/okian/dawgbowl/internal/domain/model"
	"github.com/okian/dawgbowl/internal/domain/scoring"
	"github.com/okian/dawgbowl/pkg/logger"
	"github.com/okian/dawgbowl/pkg/metrics"
)

// Service implements the API dependencies for the draft contest.
type Service struct {
	mu sync.RWMutex

	// Core components
	catalog  *catalog.Catalog
	lineups  store.Store
	engine   *scoring.Engine
	board    standings.Store
	deduper  dedupe.Deduper
	queue    *queue.InMemoryQueue
	pool     *worker.Pool
	sessions *sessions

	// Configuration
	salaryCap    int
	workerCount  int
	queueSize    int
	dedupeSize   int
	maxStandings int
	outcomeSeed  int64
	sessionTTL   time.Duration
	now          func() time.Time

	// Results round in progress
	startMu sync.Mutex
	roundMu sync.Mutex
	round   *Round

	started     bool
	stopJanitor context.CancelFunc
	logger      logger.Logger
}

// Session expiry defaults. The janitor sweeps four times per TTL, but never
// more often than minSweepInterval.
const (
	defaultSessionTTL = 2 * time.Hour
	minSweepInterval  = time.Second
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithCatalog replaces the built-in contestant pool.
func WithCatalog(c *catalog.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithLineupStore sets where submitted lineups are persisted.
func WithLineupStore(st store.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.lineups = st
		}
	}
}

// WithSalaryCap sets the cap applied at submission.
func WithSalaryCap(c int) Option {
	return func(s *Service) {
		if c > 0 {
			s.salaryCap = c
		}
	}
}

// WithWorkerCount sets the number of scoring workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the scoring queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxStandingsLimit caps how many standings rows one query may ask for.
func WithMaxStandingsLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxStandings = n
		}
	}
}

// WithOutcomeSeed sets the default seed for simulated results.
func WithOutcomeSeed(seed int64) Option {
	return func(s *Service) {
		s.outcomeSeed = seed
	}
}

// WithSessionTTL sets how long an untouched draft session is kept.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// FromConfig maps the tunables of cfg onto options. The store and catalog
// are opened separately.
func FromConfig(cfg *config.Config) []Option {
	return []Option{
		WithSalaryCap(cfg.SalaryCap),
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.QueueSize),
		WithDedupeSize(cfg.DedupeSize),
		WithMaxStandingsLimit(cfg.MaxStandingsLimit),
		WithOutcomeSeed(cfg.OutcomeSeed),
		WithSessionTTL(cfg.SessionTTL),
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		catalog:      catalog.Default(),
		engine:       scoring.NewEngine(),
		salaryCap:    config.DefaultSalaryCap,
		workerCount:  runtime.NumCPU(),
		queueSize:    10_000,
		dedupeSize:   100_000,
		maxStandings: 100,
		sessionTTL:   defaultSessionTTL,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sessions = newSessions(func() time.Time { return s.now() })
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s
}

// Start builds the scoring pipeline and starts its workers. Workers live
// until ctx ends or Stop is called.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.lineups == nil {
		return ErrNoStore
	}

	s.board = standings.NewTreapStore()
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s.engine, s.board,
		worker.WithDeduper(s.deduper),
		worker.WithReporter(s),
	)
	s.pool.Start(ctx)

	janitorCtx, cancel := context.WithCancel(ctx)
	s.stopJanitor = cancel
	go s.expireSessionsEvery(janitorCtx, max(s.sessionTTL/4, minSweepInterval))

	s.started = true
	s.logger.Info(ctx, "draft service started",
		logger.Int("contestants", s.catalog.Len()),
		logger.Int("salary_cap", s.salaryCap),
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
	)
	return nil
}

// Stop drains the scoring queue and stops the workers.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping draft service")
	s.stopJanitor()
	err := s.pool.Shutdown(ctx)
	s.started = false
	if err != nil {
		return fmt.Errorf("stop workers: %w", err)
	}
	return nil
}

// ExpireSessions drops draft sessions idle for longer than the session TTL
// and returns how many went.
func (s *Service) ExpireSessions(ctx context.Context) int {
	n := s.sessions.expire(s.sessionTTL)
	metrics.UpdateDraftsActive(s.sessions.len())
	if n > 0 {
		s.logger.Debug(ctx, "expired draft sessions",
			logger.Int("expired", n),
			logger.Duration("ttl", s.sessionTTL),
		)
	}
	return n
}

func (s *Service) expireSessionsEvery(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.ExpireSessions(ctx)
		}
	}
}

func (s *Service) running() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// SalaryCap returns the cap applied at submission.
func (s *Service) SalaryCap() int { return s.salaryCap }

// Contestants lists the pool filtered by a case-insensitive name query and
// ordered by sortBy ("", salary_desc, salary_asc, name).
func (s *Service) Contestants(query, sortBy string) ([]model.Contestant, error) {
	order, err := catalog.ParseSortOrder(sortBy)
	if err != nil {
		return nil, err
	}
	return s.catalog.Search(query, order), nil
}

// Contestant looks one contestant up by id.
func (s *Service) Contestant(id model.ContestantID) (model.Contestant, error) {
	return s.catalog.Get(id)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"contestants": s.catalog.Len(),
		"salaryCap":   s.salaryCap,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"drafts":      s.sessions.len(),
	}
	if b, ok := s.lineups.(interface{ State() string }); ok {
		stats["storeBreaker"] = b.State()
	}

	if s.started {
		stats["queueLength"] = s.queue.Len(ctx)
		stats["pendingJobs"] = s.queue.Pending()
		stats["resultsId"] = s.board.ResultsID(ctx)
		stats["standings"] = s.board.Count(ctx)
		stats["dedupeSize"] = s.deduper.Size()
	}

	metrics.UpdateDraftsActive(s.sessions.len())
	return stats
}
