// Package loadgen drafts and submits many random lineups against a running
// API, scores them with a simulated round and checks the standings.
package loadgen

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"golang.org/x/sync/errgroup"

	service "github.com/okian/dawgbowl/internal/app"
	"github.com/okian/dawgbowl/internal/client"
	"github.com/okian/dawgbowl/internal/domain/model"
	"github.com/okian/dawgbowl/pkg/logger"
)

// maxPickAttempts bounds how often a roster is redrawn to fit the cap.
const maxPickAttempts = 200

// Errors reported by Run.
var (
	ErrPoolTooSmall   = errors.New("contestant pool smaller than a roster")
	ErrNoLegalRoster  = errors.New("could not draw a roster under the cap")
	ErrStandingsOrder = errors.New("standings out of order")
)

// Config holds configuration for a load run.
type Config struct {
	BaseURL      string
	AdminSecret  string
	Lineups      int
	Workers      int
	TopN         int
	Seed         int64
	Kind         model.OutcomeKind
	Timeout      time.Duration
	PollInterval time.Duration
}

func (c *Config) defaults() {
	if c.Lineups <= 0 {
		c.Lineups = 100
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU() * 2
	}
	if c.TopN <= 0 {
		c.TopN = 10
	}
	if c.Seed == 0 {
		c.Seed = time.Now().UnixNano()
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 250 * time.Millisecond
	}
}

// Stats summarizes a load run.
type Stats struct {
	Generated int
	Submitted int
	Failed    int
	Round     service.Round
	Top       int
	Duration  time.Duration
}

// Entry is one generated lineup.
type Entry struct {
	Username string
	Captain  model.ContestantID
	Flex     []model.ContestantID
}

// Run executes the complete load test.
func Run(ctx context.Context, cfg Config) (Stats, error) {
	cfg.defaults()
	start := time.Now()
	log := logger.Get().Named("loadgen")
	c := client.New(cfg.BaseURL, client.WithAdminSecret(cfg.AdminSecret), client.WithTimeout(cfg.Timeout))

	log.Info(ctx, "starting load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("lineups", cfg.Lineups),
		logger.Int("workers", cfg.Workers),
		logger.Any("seed", cfg.Seed),
	)

	if err := c.Health(ctx); err != nil {
		return Stats{}, fmt.Errorf("service health check failed: %w", err)
	}
	salaryCap, pool, err := c.Contestants(ctx, "", "")
	if err != nil {
		return Stats{}, fmt.Errorf("list contestants: %w", err)
	}

	entries, err := Generate(cfg.Seed, cfg.Lineups, salaryCap, pool)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{Generated: len(entries)}

	var submitted, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for _, e := range entries {
		g.Go(func() error {
			if err := submit(gctx, c, e); err != nil {
				failed.Add(1)
				log.Debug(gctx, "submission failed", logger.String("username", e.Username), logger.Error(err))
				return nil
			}
			submitted.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	stats.Submitted = int(submitted.Load())
	stats.Failed = int(failed.Load())
	if err := ctx.Err(); err != nil {
		return stats, err
	}
	log.Info(ctx, "lineups submitted", logger.Int("submitted", stats.Submitted), logger.Int("failed", stats.Failed))

	if _, err := c.Simulate(ctx, service.SimulateRequest{Seed: cfg.Seed, Kind: cfg.Kind}); err != nil {
		return stats, fmt.Errorf("simulate results: %w", err)
	}
	stats.Round, err = c.WaitForRound(ctx, cfg.PollInterval)
	if err != nil {
		return stats, fmt.Errorf("wait for scoring: %w", err)
	}

	top, err := c.Standings(ctx, cfg.TopN)
	if err != nil {
		return stats, fmt.Errorf("standings: %w", err)
	}
	stats.Top = len(top)
	for i := 1; i < len(top); i++ {
		if top[i].Total > top[i-1].Total || top[i].Rank < top[i-1].Rank {
			return stats, fmt.Errorf("%w: #%d %s (%.1f) after %s (%.1f)",
				ErrStandingsOrder, i+1, top[i].Key, top[i].Total, top[i-1].Key, top[i-1].Total)
		}
	}

	stats.Duration = time.Since(start)
	log.Info(ctx, "load run completed",
		logger.Int("scored", stats.Round.Scored),
		logger.Int("failed", stats.Round.Failed),
		logger.Duration("duration", stats.Duration),
	)
	return stats, nil
}

func submit(ctx context.Context, c *client.Client, e Entry) error {
	d, err := c.CreateDraft(ctx)
	if err != nil {
		return err
	}
	if _, err := c.AddCaptain(ctx, d.SessionID, e.Captain); err != nil {
		return err
	}
	for _, id := range e.Flex {
		if _, err := c.AddFlex(ctx, d.SessionID, id); err != nil {
			return err
		}
	}
	_, err = c.Submit(ctx, d.SessionID, e.Username)
	return err
}

// Generate draws n legal rosters with unique usernames from pool. The same
// seed always yields the same entries.
func Generate(seed int64, n, salaryCap int, pool []model.Contestant) ([]Entry, error) {
	if len(pool) < model.RosterSize {
		return nil, fmt.Errorf("%w: %d contestants", ErrPoolTooSmall, len(pool))
	}
	faker := gofakeit.New(uint64(seed)) //nolint:gosec // seed sign is irrelevant
	picks := slices.Clone(pool)
	slices.SortFunc(picks, func(a, b model.Contestant) int { return int(a.ID) - int(b.ID) })

	entries := make([]Entry, 0, n)
	for i := range n {
		e, err := draw(faker, picks, salaryCap)
		if err != nil {
			return nil, err
		}
		e.Username = fmt.Sprintf("%s_%d", faker.Username(), i)
		entries = append(entries, e)
	}
	return entries, nil
}

func draw(faker *gofakeit.Faker, pool []model.Contestant, salaryCap int) (Entry, error) {
	for range maxPickAttempts {
		faker.ShuffleAnySlice(pool)
		roster := pool[:model.RosterSize]
		captain := faker.Number(0, model.RosterSize-1)

		cost := 0
		for i, c := range roster {
			slot := model.SlotFlex
			if i == captain {
				slot = model.SlotCaptain
			}
			cost += model.Member{Contestant: c, Slot: slot}.Cost()
		}
		if cost > salaryCap {
			continue
		}

		e := Entry{Captain: roster[captain].ID}
		for i, c := range roster {
			if i != captain {
				e.Flex = append(e.Flex, c.ID)
			}
		}
		return e, nil
	}
	return Entry{}, ErrNoLegalRoster
}
