package metrics

import (
	"errors"
)

// Sentinel kinds for metrics errors.
var (
	ErrUnknownBreakerState = errors.New("unknown breaker state")
)
