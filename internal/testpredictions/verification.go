package testpredictions

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/okian/t20score/internal/domain/model"
	"github.com/okian/t20score/internal/domain/types"
)

// ErrInconsistent marks a prediction that breaks a banding rule.
var ErrInconsistent = errors.New("inconsistent prediction")

const rateTolerance = 0.006

// verifyPrediction checks one answer against the state that produced it.
func verifyPrediction(state model.MatchState, res types.PredictionResult) error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInconsistent, fmt.Sprintf(format, args...))
	}

	if res.LowerBound < state.CurrentScore {
		return fail("lower bound %d below current score %d", res.LowerBound, state.CurrentScore)
	}
	if res.UpperBound < res.LowerBound {
		return fail("upper bound %d below lower bound %d", res.UpperBound, res.LowerBound)
	}
	if want := model.MaxWickets - state.WicketsLost; res.WicketsLeft != want {
		return fail("wickets left %d, want %d", res.WicketsLeft, want)
	}
	if want := float64(res.PointEstimate) / model.InningsOvers; math.Abs(res.ProjectedRunRate-want) > rateTolerance {
		return fail("projected run rate %.2f, want %.2f", res.ProjectedRunRate, want)
	}
	if res.Features.WicketsLeft != float64(model.MaxWickets-state.WicketsLost) {
		return fail("feature wickets_left %.0f disagrees with state", res.Features.WicketsLeft)
	}
	if res.Features.CurrentScore != float64(state.CurrentScore) {
		return fail("feature current_score %.0f disagrees with state", res.Features.CurrentScore)
	}
	if res.PredictionID == "" {
		return fail("missing prediction id")
	}
	return nil
}

// verifyResults checks every successful outcome and reports violations.
func verifyResults(_ context.Context, config *Config, outcomes []Outcome, stats *Stats) error {
	log.Println("🔍 Verifying predictions...")

	var checked, reported int
	for i, out := range outcomes {
		if out.Result == nil {
			if config.Verbose && reported < maxReportedFailures {
				reported++
				log.Printf("⚠️  request %d failed (status %d): %s", i, out.StatusCode, out.Error)
			}
			continue
		}
		checked++
		if err := verifyPrediction(out.State, *out.Result); err != nil {
			stats.Violations++
			if reported < maxReportedFailures {
				reported++
				log.Printf("❌ request %d: %v", i, err)
			}
		}
	}

	if checked == 0 {
		return errors.New("no successful predictions to verify")
	}
	if stats.Violations > 0 {
		return fmt.Errorf("%w: %d of %d predictions", ErrInconsistent, stats.Violations, checked)
	}
	log.Printf("✅ %d predictions verified", checked)
	return nil
}
