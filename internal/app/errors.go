package service

import "errors"

// Sentinel errors returned by Service.Predict and friends.
var (
	ErrInvalidInput = errors.New("invalid match state")
	ErrUnknownTeam  = errors.New("unknown team")
	ErrNotStarted   = errors.New("service not started")
	ErrNoPredictor  = errors.New("no predictor configured")
	ErrNoSource     = errors.New("no reference data source configured")
)
