// Package config defines service configuration and its loading from
// defaults, an optional YAML file and environment variables.
package config

import (
	"context"
	"time"
)

// Reference data sources.
const (
	StatsSourceCSV      = "csv"
	StatsSourcePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn warning error"`
	// LogFormat selects text or json log lines.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr" validate:"required"`

	// StatsSource selects where reference tables come from: csv or postgres.
	StatsSource string `koanf:"stats_source" validate:"oneof=csv postgres"`
	// PlayerStatsPath and MatchHistoryPath are the CSV reference tables.
	// An empty history path makes every player eligible for every team.
	PlayerStatsPath  string `koanf:"player_stats_path" validate:"required_if=StatsSource csv"`
	MatchHistoryPath string `koanf:"match_history_path"`
	// PostgresDSN is used when StatsSource is postgres.
	PostgresDSN string `koanf:"postgres_dsn" validate:"required_if=StatsSource postgres"`

	// EncodersPath is the team vocabulary artifact.
	EncodersPath string `koanf:"encoders_path" validate:"required"`

	// ModelPath is a local linear model artifact; ModelURL a model server.
	// When both are set the server is used.
	ModelPath string `koanf:"model_path" validate:"required_without=ModelURL"`
	ModelURL  string `koanf:"model_url" validate:"omitempty,url"`

	// ModelTimeoutMS bounds one model invocation.
	ModelTimeoutMS int `koanf:"model_timeout_ms" validate:"gt=0"`
	// BreakerFailureThreshold consecutive failures open the model circuit
	// for BreakerOpenTimeoutMS.
	BreakerFailureThreshold int `koanf:"breaker_failure_threshold" validate:"gte=1"`
	BreakerOpenTimeoutMS    int `koanf:"breaker_open_timeout_ms" validate:"gt=0"`

	// PredictionCacheTTLMS keeps model output per feature vector; 0 disables.
	PredictionCacheTTLMS int `koanf:"prediction_cache_ttl_ms" validate:"gte=0"`

	// PredictRateLimit is the sustained predictions per second; 0 disables.
	PredictRateLimit float64 `koanf:"predict_rate_limit" validate:"gte=0"`
	PredictRateBurst int     `koanf:"predict_rate_burst" validate:"gte=0"`
}

// New returns a Config holding the defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:                "info",
		LogFormat:               "text",
		Addr:                    ":9080",
		StatsSource:             StatsSourceCSV,
		PlayerStatsPath:         "data/player_stats.csv",
		MatchHistoryPath:        "data/df_cleaned.csv",
		EncodersPath:            "data/label_encoders.yaml",
		ModelPath:               "data/model.yaml",
		ModelTimeoutMS:          2000,
		BreakerFailureThreshold: 5,
		BreakerOpenTimeoutMS:    30_000,
		PredictionCacheTTLMS:    60_000,
		PredictRateLimit:        50,
		PredictRateBurst:        100,
	}
}

// ModelTimeout returns ModelTimeoutMS as a duration.
func (c *Config) ModelTimeout() time.Duration {
	return time.Duration(c.ModelTimeoutMS) * time.Millisecond
}

// BreakerOpenTimeout returns BreakerOpenTimeoutMS as a duration.
func (c *Config) BreakerOpenTimeout() time.Duration {
	return time.Duration(c.BreakerOpenTimeoutMS) * time.Millisecond
}

// PredictionCacheTTL returns PredictionCacheTTLMS as a duration.
func (c *Config) PredictionCacheTTL() time.Duration {
	return time.Duration(c.PredictionCacheTTLMS) * time.Millisecond
}
