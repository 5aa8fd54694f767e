package predictor

import (
	"context"
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/okian/t20score/internal/domain/model"
)

// LinearModel is an intercept plus one weight per schema column. It is
// immutable and safe for concurrent use.
type LinearModel struct {
	intercept float64
	weights   [model.FeatureCount]float64
}

// NewLinearModel requires a coefficient for every schema column and rejects
// names outside the schema.
func NewLinearModel(intercept float64, coefficients map[string]float64) (*LinearModel, error) {
	m := &LinearModel{intercept: intercept}
	seen := 0
	for i, col := range model.Columns {
		w, ok := coefficients[col]
		if !ok {
			return nil, fmt.Errorf("%w: missing coefficient for %s", ErrLoadModel, col)
		}
		m.weights[i] = w
		seen++
	}
	if seen != len(coefficients) {
		return nil, fmt.Errorf("%w: %d coefficients for %d columns", ErrLoadModel, len(coefficients), seen)
	}
	return m, nil
}

// LoadLinearModel reads a YAML artifact:
//
//	intercept: 42.0
//	coefficients:
//	  current_score: 1.01
//	  balls_left: 1.2
//	  ...
func LoadLinearModel(path string) (*LinearModel, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadModel, path, err)
	}
	if !k.Exists("intercept") {
		return nil, fmt.Errorf("%w: %s: missing intercept", ErrLoadModel, path)
	}
	m, err := NewLinearModel(k.Float64("intercept"), k.Float64Map("coefficients"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Predict evaluates the linear form. It does not block.
func (m *LinearModel) Predict(ctx context.Context, fv model.FeatureVector) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}
	sum := m.intercept
	for i, x := range fv.Values() {
		sum += m.weights[i] * x
	}
	return checkOutput(sum)
}
