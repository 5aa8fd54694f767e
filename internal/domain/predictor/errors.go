package predictor

import "errors"

// Sentinel errors. Callers map them to transport status with errors.Is.
var (
	ErrModelUnavailable  = errors.New("model unavailable")
	ErrModelTimeout      = errors.New("model timed out")
	ErrCircuitOpen       = errors.New("model circuit open")
	ErrInvalidPrediction = errors.New("invalid prediction")
	ErrLoadModel         = errors.New("load model failed")
)
