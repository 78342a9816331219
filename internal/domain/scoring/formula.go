package scoring

import (
	"fmt"
	"math"

	"github.com/okian/dawgbowl/internal/domain/model"
)

// Formula turns one contestant's outcome into a base score.
type Formula interface {
	Score(c model.Contestant, o model.Outcome) (float64, error)
}

// FinishPositionFormula scores a 1-indexed finish position on a
// non-increasing piecewise curve from 100 down to a floor of 10.
type FinishPositionFormula struct{}

func (FinishPositionFormula) Score(_ model.Contestant, o model.Outcome) (float64, error) {
	p := o.FinishPosition
	if p < 1 {
		return 0, fmt.Errorf("%w: finish position %d", ErrInvalidOutcome, p)
	}
	return finishScore(p), nil
}

func finishScore(p int) float64 {
	x := float64(p)
	switch {
	case p == 1:
		return 100
	case p == 2:
		return 90
	case p == 3:
		return 85
	case p <= 5:
		return 80 - (x-3)*5
	case p <= 10:
		return 70 - (x-5)*3
	case p <= 20:
		return 55 - (x-10)*2
	case p <= 50:
		return 35 - (x-20)*0.5
	default:
		return math.Max(10, 20-(x-50)*0.2)
	}
}

// Box-score weights.
const (
	reboundWeight = 1.2
	assistWeight  = 1.5
	blockWeight   = 3
	stealWeight   = 3

	// The consistency factor is 0.9 + rating/100 for ratings in [0, 10].
	consistencyBase    = 0.9
	consistencyDivisor = 100
	maxRating          = 10
)

// BoxScoreFormula weights a stat line and scales it by the contestant's
// rating.
type BoxScoreFormula struct{}

func (BoxScoreFormula) Score(c model.Contestant, o model.Outcome) (float64, error) {
	b := o.BoxScore
	if b == nil {
		return 0, fmt.Errorf("%w: box score missing", ErrInvalidOutcome)
	}
	if b.Points < 0 || b.Rebounds < 0 || b.Assists < 0 || b.Blocks < 0 || b.Steals < 0 {
		return 0, fmt.Errorf("%w: negative stat in box score", ErrInvalidOutcome)
	}
	if c.Rating < 0 || c.Rating > maxRating {
		return 0, fmt.Errorf("%w: rating %.2f for %s outside [0, %d]", ErrInvalidOutcome, c.Rating, c.Name, maxRating)
	}
	base := float64(b.Points) +
		float64(b.Rebounds)*reboundWeight +
		float64(b.Assists)*assistWeight +
		float64(b.Blocks)*blockWeight +
		float64(b.Steals)*stealWeight
	return base * (consistencyBase + c.Rating/consistencyDivisor), nil
}

// PointsFormula passes through fantasy points entered by an admin.
type PointsFormula struct{}

func (PointsFormula) Score(_ model.Contestant, o model.Outcome) (float64, error) {
	if math.IsNaN(o.Points) || math.IsInf(o.Points, 0) {
		return 0, fmt.Errorf("%w: points must be finite", ErrInvalidOutcome)
	}
	return o.Points, nil
}
