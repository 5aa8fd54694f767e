// Package types contains the result shapes shared by the service and its adapters.
package types

import "github.com/okian/t20score/internal/domain/model"

// PredictionResult is what a single prediction request returns.
type PredictionResult struct {
	PredictionID string `json:"prediction_id"`
	model.Prediction
	Features model.FeatureVector `json:"features"`
	Cached   bool                `json:"cached"`
}
