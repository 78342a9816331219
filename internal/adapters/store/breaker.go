package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/okian/dawgbowl/internal/domain/model"
	"github.com/okian/dawgbowl/pkg/metrics"
)

// BreakerOption configures a Breaker.
type BreakerOption func(*gobreaker.Settings)

// WithTripAfter opens the breaker after n consecutive failures.
func WithTripAfter(n uint32) BreakerOption {
	return func(s *gobreaker.Settings) {
		if n > 0 {
			s.ReadyToTrip = func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= n }
		}
	}
}

// WithOpenTimeout sets how long the breaker stays open before probing.
func WithOpenTimeout(d time.Duration) BreakerOption {
	return func(s *gobreaker.Settings) {
		if d > 0 {
			s.Timeout = d
		}
	}
}

// Breaker fails fast with ErrStorageUnavailable while a remote backend keeps
// failing. Not-found and corrupt-record results count as successes.
type Breaker struct {
	next Store
	cb   *gobreaker.CircuitBreaker
}

// NewBreaker wraps next. name labels the breaker state metric.
func NewBreaker(name string, next Store, opts ...BreakerOption) *Breaker {
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 5 },
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrNotFound) ||
				errors.Is(err, ErrCorruptRecord) ||
				errors.Is(err, ErrInvalidKey)
		},
		OnStateChange: func(name string, _, to gobreaker.State) {
			metrics.UpdateBreakerState(name, int(to))
		},
	}
	for _, opt := range opts {
		opt(&st)
	}
	return &Breaker{next: next, cb: gobreaker.NewCircuitBreaker(st)}
}

// State exposes the breaker state for stats endpoints.
func (b *Breaker) State() string { return b.cb.State().String() }

func (b *Breaker) run(fn func() (interface{}, error)) (interface{}, error) {
	v, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %s breaker: %w", ErrStorageUnavailable, b.cb.Name(), err)
	}
	return v, err
}

func (b *Breaker) Write(ctx context.Context, lineup model.SubmittedLineup) error {
	_, err := b.run(func() (interface{}, error) { return nil, b.next.Write(ctx, lineup) })
	return err
}

func (b *Breaker) Get(ctx context.Context, key string) (model.SubmittedLineup, error) {
	v, err := b.run(func() (interface{}, error) { return b.next.Get(ctx, key) })
	if err != nil {
		return model.SubmittedLineup{}, err
	}
	return v.(model.SubmittedLineup), nil
}

func (b *Breaker) ListAll(ctx context.Context) (Listing, error) {
	v, err := b.run(func() (interface{}, error) { return b.next.ListAll(ctx) })
	if err != nil {
		return Listing{}, err
	}
	return v.(Listing), nil
}

func (b *Breaker) Delete(ctx context.Context, key string) error {
	_, err := b.run(func() (interface{}, error) { return nil, b.next.Delete(ctx, key) })
	return err
}
