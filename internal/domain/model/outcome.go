package model

// OutcomeKind selects the scoring formula.
type OutcomeKind string

const (
	// OutcomeFinish carries a 1-indexed finish position.
	OutcomeFinish OutcomeKind = "finish"
	// OutcomeBoxScore carries a box-score stat line.
	OutcomeBoxScore OutcomeKind = "boxscore"
	// OutcomePoints carries fantasy points entered directly by an admin.
	OutcomePoints OutcomeKind = "points"
)

// BoxScore is a contestant's stat line.
type BoxScore struct {
	Points   int `json:"points"`
	Rebounds int `json:"rebounds"`
	Assists  int `json:"assists"`
	Blocks   int `json:"blocks"`
	Steals   int `json:"steals"`
}

// Outcome is the external result for one contestant. Only the field matching
// Kind is read.
type Outcome struct {
	Kind           OutcomeKind `json:"kind"`
	FinishPosition int         `json:"finish_position,omitempty"`
	BoxScore       *BoxScore   `json:"box_score,omitempty"`
	Points         float64     `json:"points,omitempty"`
}

// Finish builds a finish-position outcome.
func Finish(position int) Outcome {
	return Outcome{Kind: OutcomeFinish, FinishPosition: position}
}

// Box builds a box-score outcome.
func Box(b BoxScore) Outcome {
	return Outcome{Kind: OutcomeBoxScore, BoxScore: &b}
}

// Points builds a direct fantasy-points outcome.
func Points(p float64) Outcome {
	return Outcome{Kind: OutcomePoints, Points: p}
}

// Outcomes maps contestants to their result for one contest.
type Outcomes map[ContestantID]Outcome
