package store

import (
	"context"
	"errors"
	"time"

	"github.com/okian/dawgbowl/internal/domain/model"
	"github.com/okian/dawgbowl/pkg/logger"
	"github.com/okian/dawgbowl/pkg/metrics"
)

// Observed records latency and result metrics for every call and logs
// skipped corrupt records.
type Observed struct {
	next    Store
	backend string
	log     logger.Logger
}

// NewObserved wraps next. backend labels the metrics.
func NewObserved(backend string, next Store, log logger.Logger) *Observed {
	return &Observed{next: next, backend: backend, log: log}
}

func (o *Observed) record(op string, start time.Time, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		result = "not_found"
	case errors.Is(err, ErrCorruptRecord):
		result = "corrupt"
	case errors.Is(err, ErrInvalidKey):
		result = "invalid_key"
	default:
		result = "error"
	}
	metrics.RecordStoreOperation(o.backend, op, result, float64(time.Since(start).Microseconds())/1000)
}

func (o *Observed) Write(ctx context.Context, lineup model.SubmittedLineup) error {
	start := time.Now()
	err := o.next.Write(ctx, lineup)
	o.record("write", start, err)
	if err != nil {
		o.log.Error(ctx, "lineup write failed", logger.String("key", lineup.Key), logger.String("backend", o.backend), logger.Error(err))
	}
	return err
}

func (o *Observed) Get(ctx context.Context, key string) (model.SubmittedLineup, error) {
	start := time.Now()
	l, err := o.next.Get(ctx, key)
	o.record("get", start, err)
	return l, err
}

func (o *Observed) ListAll(ctx context.Context) (Listing, error) {
	start := time.Now()
	l, err := o.next.ListAll(ctx)
	o.record("list", start, err)
	if err != nil {
		o.log.Error(ctx, "lineup listing failed", logger.String("backend", o.backend), logger.Error(err))
		return l, err
	}
	metrics.UpdateStoredLineups(len(l.Lineups))
	if n := len(l.Corrupt); n > 0 {
		metrics.RecordStoreCorrupt(n)
		for _, c := range l.Corrupt {
			o.log.Warn(ctx, "skipped corrupt lineup", logger.String("key", c.Key), logger.String("reason", c.Err))
		}
	}
	return l, nil
}

func (o *Observed) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := o.next.Delete(ctx, key)
	o.record("delete", start, err)
	return err
}

// State reports the wrapped breaker's state, or "none" when next has no
// breaker.
func (o *Observed) State() string {
	if b, ok := o.next.(interface{ State() string }); ok {
		return b.State()
	}
	return "none"
}
