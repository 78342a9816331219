// Package standings ranks scored lineups for the current results set.
package standings

import (
	"context"
	"time"

	"github.com/okian/dawgbowl/internal/domain/model"
)

// Entry is one row of the standings.
type Entry struct {
	Rank      int                  `json:"rank"`
	Key       string               `json:"key"`
	Username  string               `json:"username"`
	Total     float64              `json:"total"`
	CaptainID model.ContestantID   `json:"captain_id"`
	ResultsID string               `json:"results_id"`
	ScoredAt  time.Time            `json:"scored_at"`
	Breakdown []model.ScoredResult `json:"breakdown,omitempty"`
}

// Store holds the standings for one results set at a time.
type Store interface {
	// Reset clears the standings and starts collecting for resultsID.
	Reset(ctx context.Context, resultsID string)
	// ResultsID reports the results set currently being ranked.
	ResultsID(ctx context.Context) string
	// Upsert inserts or replaces a lineup's score. Entries for a results set
	// other than the current one are ignored and false is returned.
	Upsert(ctx context.Context, e Entry) bool
	// Remove drops a lineup, e.g. after an admin deletes it.
	Remove(ctx context.Context, key string) bool
	// Rank returns one entry with its rank. Unknown keys return ErrNotFound.
	Rank(ctx context.Context, key string) (Entry, error)
	// TopN returns the best n entries, total desc then key asc.
	TopN(ctx context.Context, n int) ([]Entry, error)
	Count(ctx context.Context) int
}
