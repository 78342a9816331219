package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/okian/dawgbowl/internal/adapters/chart"
	"github.com/okian/dawgbowl/internal/adapters/mq/queue"
	"github.com/okian/dawgbowl/internal/adapters/standings"
	"github.com/okian/dawgbowl/internal/adapters/store"
	"github.com/okian/dawgbowl/internal/domain/model"
	"github.com/okian/dawgbowl/internal/domain/outcome"
	"github.com/okian/dawgbowl/internal/domain/scoring"
	"github.com/okian/dawgbowl/pkg/logger"
	"github.com/okian/dawgbowl/pkg/metrics"
)

// Round sources.
const (
	SourcePosted    = "posted"
	SourceSimulated = "simulated"
)

// Failure is a lineup that could not be scored in a round.
type Failure struct {
	Key    string `json:"key"`
	Reason string `json:"reason"`
	Error  string `json:"error"`
}

// Round tracks one results set being applied to every stored lineup.
type Round struct {
	ResultsID string                `json:"results_id"`
	Source    string                `json:"source"`
	Kind      model.OutcomeKind     `json:"kind,omitempty"`
	Seed      int64                 `json:"seed,omitempty"`
	StartedAt time.Time             `json:"started_at"`
	Queued    int                   `json:"queued"`
	Scored    int                   `json:"scored"`
	Skipped   int                   `json:"skipped"`
	Failed    int                   `json:"failed"`
	Failures  []Failure             `json:"failures,omitempty"`
	Corrupt   []store.CorruptRecord `json:"corrupt,omitempty"`
}

// Done reports whether every queued job has been accounted for.
func (r Round) Done() bool { return r.Scored+r.Skipped+r.Failed >= r.Queued }

func (r *Round) clone() Round {
	c := *r
	c.Failures = slices.Clone(r.Failures)
	c.Corrupt = slices.Clone(r.Corrupt)
	return c
}

// SimulateRequest tunes a simulated round. Zero values fall back to the
// configured seed and finish positions.
type SimulateRequest struct {
	Seed int64             `json:"seed"`
	Kind model.OutcomeKind `json:"kind"`
}

// PostResults scores every stored lineup against official outcomes. Every
// outcome must name a catalog contestant and be scoreable.
func (s *Service) PostResults(ctx context.Context, outcomes model.Outcomes) (Round, error) {
	if err := s.running(); err != nil {
		return Round{}, err
	}
	if len(outcomes) == 0 {
		return Round{}, ErrNoOutcomes
	}
	for id, o := range outcomes {
		c, err := s.catalog.Get(id)
		if err != nil {
			return Round{}, err
		}
		if _, err := s.engine.Base(c, o); err != nil {
			return Round{}, fmt.Errorf("contestant %d: %w", id, err)
		}
	}
	return s.startRound(ctx, Round{Source: SourcePosted}, outcomes)
}

// Simulate generates seeded outcomes for the whole catalog and scores every
// stored lineup against them.
func (s *Service) Simulate(ctx context.Context, req SimulateRequest) (Round, error) {
	if err := s.running(); err != nil {
		return Round{}, err
	}
	seed := req.Seed
	if seed == 0 {
		seed = s.outcomeSeed
	}
	src, err := outcome.NewRandom(
		outcome.WithSeed(seed),
		outcome.WithKind(req.Kind),
		outcome.WithFieldSize(max(50, s.catalog.Len())),
	)
	if err != nil {
		return Round{}, err
	}
	outcomes, err := src.Outcomes(ctx, s.catalog.IDs())
	if err != nil {
		return Round{}, fmt.Errorf("simulate outcomes: %w", err)
	}
	return s.startRound(ctx, Round{Source: SourceSimulated, Kind: src.Kind(), Seed: src.Seed()}, outcomes)
}

// startRound resets the standings to a new results id and queues one job per
// stored lineup. Rounds are started one at a time; a newer round makes
// in-flight jobs of the older one stale.
func (s *Service) startRound(ctx context.Context, r Round, outcomes model.Outcomes) (Round, error) {
	s.startMu.Lock()
	defer s.startMu.Unlock()

	listing, err := s.lineups.ListAll(ctx)
	if err != nil {
		return Round{}, fmt.Errorf("list lineups: %w", err)
	}

	r.ResultsID = uuid.NewString()
	r.StartedAt = s.now().UTC()
	r.Corrupt = listing.Corrupt

	// Queued is final before the first job goes out so Done never reads
	// true while jobs are still being enqueued.
	r.Queued = len(listing.Lineups)

	s.roundMu.Lock()
	s.round = &r
	s.board.Reset(ctx, r.ResultsID)
	s.roundMu.Unlock()

	for _, l := range listing.Lineups {
		err := s.queue.Enqueue(ctx, queue.Job{
			ResultsID: r.ResultsID,
			Lineup:    l,
			Outcomes:  outcomes,
		})
		if err != nil {
			s.roundMu.Lock()
			s.round.Failed++
			s.round.Failures = append(s.round.Failures, Failure{Key: l.Key, Reason: "enqueue", Error: err.Error()})
			s.roundMu.Unlock()
		}
	}

	s.logger.Info(ctx, "results round started",
		logger.String("results_id", r.ResultsID),
		logger.String("round_source", r.Source),
		logger.Int("lineups", len(listing.Lineups)),
		logger.Int("corrupt", len(listing.Corrupt)),
	)
	return s.Round(ctx)
}

// Report implements worker.Reporter. It tallies the current round and marks
// the originating draft scored.
func (s *Service) Report(ctx context.Context, j queue.Job, summary model.ScoreSummary, skipped bool, err error) { //nolint:gocritic // hugeParam
	s.roundMu.Lock()
	current := s.round != nil && s.round.ResultsID == j.ResultsID
	if current {
		switch {
		case err != nil:
			s.round.Failed++
			s.round.Failures = append(s.round.Failures, Failure{
				Key:    j.Lineup.Key,
				Reason: scoring.Reason(err),
				Error:  err.Error(),
			})
		case skipped:
			s.round.Skipped++
		default:
			s.round.Scored++
		}
	}
	s.roundMu.Unlock()

	if err != nil || skipped || !current {
		return
	}
	sess, ok := s.sessions.forLineup(j.Lineup.ID)
	if !ok {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if l, ok := sess.draft.Lineup(); !ok || l.ID != j.Lineup.ID {
		return
	}
	if err := sess.draft.MarkScored(summary); err != nil {
		s.logger.Warn(ctx, "could not record score on draft",
			logger.String("session", sess.id),
			logger.String("results_id", j.ResultsID),
			logger.Error(err),
		)
	}
}

// Round returns a snapshot of the latest results round.
func (s *Service) Round(_ context.Context) (Round, error) {
	s.roundMu.Lock()
	defer s.roundMu.Unlock()
	if s.round == nil {
		return Round{}, ErrNoRound
	}
	return s.round.clone(), nil
}

// WaitForScoring blocks until every queued job has been processed.
func (s *Service) WaitForScoring(ctx context.Context) error {
	if err := s.running(); err != nil {
		return err
	}
	return s.queue.Wait(ctx)
}

// Standings returns the best limit entries of the current round.
func (s *Service) Standings(ctx context.Context, limit int) ([]standings.Entry, error) {
	if err := s.running(); err != nil {
		return nil, err
	}
	if limit < 1 || limit > s.maxStandings {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", standings.ErrInvalidLimit, s.maxStandings)
	}
	entries, err := s.board.TopN(ctx, limit)
	if err != nil {
		return nil, err
	}
	metrics.UpdateStandingsSize(s.board.Count(ctx))
	return entries, nil
}

// StandingFor returns one user's rank and breakdown.
func (s *Service) StandingFor(ctx context.Context, username string) (standings.Entry, error) {
	if err := s.running(); err != nil {
		return standings.Entry{}, err
	}
	key, err := model.NormalizeUsername(username)
	if err != nil {
		return standings.Entry{}, err
	}
	return s.board.Rank(ctx, key)
}

// Chart renders a user's breakdown as a PNG bar chart.
func (s *Service) Chart(ctx context.Context, username string) ([]byte, error) {
	e, err := s.StandingFor(ctx, username)
	if err != nil {
		return nil, err
	}
	return chart.RenderBreakdown(fmt.Sprintf("%s: %.1f points (rank %d)", e.Username, e.Total, e.Rank), e.Breakdown)
}
