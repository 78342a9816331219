// Package scoring computes lineup scores from contest outcomes.
package scoring

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/okian/dawgbowl/internal/domain/model"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithFormula registers or replaces the formula used for an outcome kind.
func WithFormula(kind model.OutcomeKind, f Formula) Option {
	return func(e *Engine) {
		if kind != "" && f != nil {
			e.formulas[kind] = f
		}
	}
}

// Engine selects a formula by outcome kind and applies the captain
// multiplier. It holds no mutable state and is safe for concurrent use once
// constructed.
type Engine struct {
	formulas map[model.OutcomeKind]Formula
}

// NewEngine returns an engine with the finish, box-score and points formulas.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		formulas: map[model.OutcomeKind]Formula{
			model.OutcomeFinish:   FinishPositionFormula{},
			model.OutcomeBoxScore: BoxScoreFormula{},
			model.OutcomePoints:   PointsFormula{},
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Base scores a single contestant without any multiplier.
func (e *Engine) Base(c model.Contestant, o model.Outcome) (float64, error) {
	f, ok := e.formulas[o.Kind]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedOutcome, o.Kind)
	}
	return f.Score(c, o)
}

// ScoreRoster scores every member of a lineup. Each member must have an
// outcome.
func (e *Engine) ScoreRoster(l model.SubmittedLineup, outcomes model.Outcomes) (model.ScoreSummary, error) {
	var missing []string
	for _, m := range l.Members {
		if _, ok := outcomes[m.Contestant.ID]; !ok {
			missing = append(missing, fmt.Sprintf("%s (%d)", m.Contestant.Name, m.Contestant.ID))
		}
	}
	if len(missing) > 0 {
		return model.ScoreSummary{}, fmt.Errorf("%w: %s", ErrMissingOutcome, strings.Join(missing, ", "))
	}

	breakdown := make([]model.ScoredResult, 0, len(l.Members))
	for _, m := range l.Members {
		base, err := e.Base(m.Contestant, outcomes[m.Contestant.ID])
		if err != nil {
			return model.ScoreSummary{}, fmt.Errorf("score %s: %w", m.Contestant.Name, err)
		}
		mult := m.Slot.Multiplier()
		breakdown = append(breakdown, model.ScoredResult{
			ContestantID: m.Contestant.ID,
			Name:         m.Contestant.Name,
			Slot:         m.Slot,
			Base:         base,
			Multiplier:   mult,
			Final:        base * mult,
		})
	}

	slices.SortFunc(breakdown, func(a, b model.ScoredResult) int {
		switch {
		case a.Final > b.Final:
			return -1
		case a.Final < b.Final:
			return 1
		default:
			return int(a.ContestantID) - int(b.ContestantID)
		}
	})

	var total float64
	for _, r := range breakdown {
		total += r.Final
	}
	return model.ScoreSummary{Total: total, Breakdown: breakdown}, nil
}

// BatchResult is the outcome of scoring one lineup in a batch.
type BatchResult struct {
	Lineup  model.SubmittedLineup
	Summary model.ScoreSummary
	Err     error
}

// ScoreBatch scores each lineup independently. A failing lineup carries its
// error and does not affect the others.
func (e *Engine) ScoreBatch(lineups []model.SubmittedLineup, outcomes model.Outcomes) []BatchResult {
	out := make([]BatchResult, len(lineups))
	for i, l := range lineups {
		s, err := e.ScoreRoster(l, outcomes)
		out[i] = BatchResult{Lineup: l, Summary: s, Err: err}
	}
	return out
}

// Failed counts batch results with errors.
func Failed(results []BatchResult) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// Reason maps a scoring error to a short label for metrics.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingOutcome):
		return "missing_outcome"
	case errors.Is(err, ErrInvalidOutcome):
		return "invalid_outcome"
	case errors.Is(err, ErrUnsupportedOutcome):
		return "unsupported_outcome"
	default:
		return "other"
	}
}
