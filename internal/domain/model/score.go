package model

// ScoredResult is one member's contribution to a lineup score.
type ScoredResult struct {
	ContestantID ContestantID `json:"contestant_id"`
	Name         string       `json:"name"`
	Slot         Slot         `json:"slot"`
	Base         float64      `json:"base"`
	Multiplier   float64      `json:"multiplier"`
	Final        float64      `json:"final"`
}

// ScoreSummary is a lineup total plus its per-member breakdown, ordered by
// final score descending then contestant id ascending.
type ScoreSummary struct {
	Total     float64        `json:"total"`
	Breakdown []ScoredResult `json:"breakdown"`
}
