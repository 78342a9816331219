// Package worker scores queued lineups and feeds the standings.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/dawgbowl/internal/adapters/mq/queue"
	"github.com/okian/dawgbowl/internal/adapters/standings"
	"github.com/okian/dawgbowl/internal/domain/dedupe"
	"github.com/okian/dawgbowl/internal/domain/model"
	"github.com/okian/dawgbowl/internal/domain/scoring"
	"github.com/okian/dawgbowl/pkg/logger"
	"github.com/okian/dawgbowl/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Queue is the consumer side of queue.Queue.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
	Done()
}

// Scorer turns a lineup and outcomes into a summary.
type Scorer interface {
	ScoreRoster(l model.SubmittedLineup, outcomes model.Outcomes) (model.ScoreSummary, error)
}

// Ranker accepts scored lineups.
type Ranker interface {
	Upsert(ctx context.Context, e standings.Entry) bool
}

// Reporter is told how each job ended. err is nil on success; skipped is
// set for duplicates and stale results sets.
type Reporter interface {
	Report(ctx context.Context, j queue.Job, summary model.ScoreSummary, skipped bool, err error)
}

// Worker processes jobs until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker after its current job.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	scorer   Scorer
	ranker   Ranker
	dedupe   dedupe.Deduper
	reporter Reporter
	name     string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, scorer Scorer, ranker Ranker, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		scorer:   scorer,
		ranker:   ranker,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Name returns the worker's name.
func (w *InMemoryWorker) Name() string { return w.name }

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			w.process(ctx, j)
			w.queue.Done()
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out", logger.String("worker", w.name))
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) report(ctx context.Context, j queue.Job, s model.ScoreSummary, skipped bool, err error) { //nolint:gocritic // hugeParam
	if w.reporter != nil {
		w.reporter.Report(ctx, j, s, skipped, err)
	}
}

// process scores one job. Failures are logged and reported, never retried.
func (w *InMemoryWorker) process(ctx context.Context, j queue.Job) { //nolint:gocritic // hugeParam: Job arrives by value from the channel
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	key := dedupe.JobKey(j.ResultsID, j.Lineup.Key)
	if w.dedupe != nil && w.dedupe.SeenAndRecord(ctx, key) {
		metrics.RecordScoringDuplicate()
		w.logger.Debug(ctx, "duplicate scoring job skipped", logger.String("job", key))
		w.report(ctx, j, model.ScoreSummary{}, true, nil)
		return
	}

	scoreStart := time.Now()
	summary, err := w.scorer.ScoreRoster(j.Lineup, j.Outcomes)
	metrics.RecordScoringLatency(float64(time.Since(scoreStart).Microseconds()) / 1000)
	if err != nil {
		if w.dedupe != nil {
			w.dedupe.Unrecord(ctx, key)
		}
		metrics.RecordScoringError(scoring.Reason(err))
		metrics.RecordWorkerError()
		w.logger.Warn(ctx, "lineup could not be scored",
			logger.String("results_id", j.ResultsID),
			logger.String("key", j.Lineup.Key),
			logger.Error(err),
		)
		w.report(ctx, j, model.ScoreSummary{}, false, err)
		return
	}

	entry := standings.Entry{
		Key:       j.Lineup.Key,
		Username:  j.Lineup.Username,
		Total:     summary.Total,
		CaptainID: j.Lineup.CaptainID,
		ResultsID: j.ResultsID,
		ScoredAt:  time.Now().UTC(),
		Breakdown: summary.Breakdown,
	}
	if !w.ranker.Upsert(ctx, entry) {
		w.logger.Debug(ctx, "stale results set, score dropped",
			logger.String("results_id", j.ResultsID),
			logger.String("key", j.Lineup.Key),
		)
		w.report(ctx, j, summary, true, nil)
		return
	}

	metrics.RecordLineupScored()
	w.report(ctx, j, summary, false, nil)
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates workerCount workers sharing opts. A count below one
// defaults to runtime.NumCPU().
func NewPool(workerCount int, q Queue, scorer Scorer, ranker Ranker, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		name := "worker-" + strconv.Itoa(i)
		wopts := append([]Option{WithName(name), WithLogger(logger.Get().Named(name))}, opts...)
		pool.workers[i] = NewInMemoryWorker(q, scorer, ranker, wopts...)
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue (when it can be closed) and waits for workers to
// drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut int
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut++
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerCount(0)
	if timedOut > 0 {
		return fmt.Errorf("%d workers did not stop: %w", timedOut, shutdownCtx.Err())
	}
	return nil
}
