package features

import (
	"math"

	"github.com/okian/t20score/internal/domain/model"
)

const (
	minMargin       = 8
	marginRatio     = 0.07
	marginFloorBase = 100
)

// PointEstimate converts the model's raw output to whole runs, truncating
// toward zero.
func PointEstimate(raw float64) int {
	return int(raw)
}

// Band returns the display range around a point estimate. The lower bound
// never drops below runs already scored, and the upper bound never drops
// below the lower bound.
func Band(point, currentScore int) (lower, upper int) {
	margin := max(minMargin, int(math.Round(marginRatio*float64(max(marginFloorBase, point)))))
	lower = max(currentScore, point-margin)
	upper = max(lower, point+margin)
	return lower, upper
}

// ProjectedRunRate is the display-only run rate implied by a final score.
func ProjectedRunRate(point int) float64 {
	return Round2(float64(point) / model.InningsOvers)
}
