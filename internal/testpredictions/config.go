package testpredictions

import (
	"time"

	"github.com/okian/t20score/internal/domain/model"
	"github.com/okian/t20score/internal/domain/types"
)

// Config holds configuration for the prediction test
type Config struct {
	BaseURL     string        // Base URL of the service
	NumRequests int           // Number of match states to generate
	Workers     int           // Number of concurrent workers
	Timeout     time.Duration // HTTP request timeout
	OutputFile  string        // Output file for results
	LogFile     string        // Log file for test output
	Verbose     bool          // Enable verbose logging
}

// Catalog is the selectable teams and players fetched from the service.
type Catalog struct {
	Teams     []string
	Opponents map[string][]string
	Batters   map[string][]string
	Bowlers   map[string][]string
}

// Outcome is one submitted state and what came back.
type Outcome struct {
	State      model.MatchState        `json:"state"`
	StatusCode int                     `json:"status_code"`
	Result     *types.PredictionResult `json:"result,omitempty"`
	Error      string                  `json:"error,omitempty"`
}

// Stats holds test statistics
type Stats struct {
	StatesGenerated   int
	RequestsSubmitted int
	RequestsOK        int
	RequestsCached    int
	RequestsFailed    int
	Violations        int
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}
