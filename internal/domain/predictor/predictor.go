// Package predictor defines the contract for turning a feature vector into a
// raw final-score estimate, with a local linear model, a remote model server
// client and a TTL cache in front of either.
package predictor

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/t20score/internal/domain/model"
)

// Predictor returns the model's raw estimate of the final score.
type Predictor interface {
	// Predict honors ctx for cancellation and deadlines.
	Predict(ctx context.Context, fv model.FeatureVector) (float64, error)
}

// Func adapts a plain function to Predictor.
type Func func(ctx context.Context, fv model.FeatureVector) (float64, error)

// Predict calls f.
func (f Func) Predict(ctx context.Context, fv model.FeatureVector) (float64, error) {
	return f(ctx, fv)
}

func checkOutput(v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: model returned %v", ErrInvalidPrediction, v)
	}
	return v, nil
}
