package service

import (
	"context"
	"fmt"

	"github.com/okian/t20score/internal/adapters/repository"
	"github.com/okian/t20score/internal/config"
	"github.com/okian/t20score/internal/domain/predictor"
	"github.com/okian/t20score/pkg/logger"
)

// NewSource opens the reference data source cfg selects.
func NewSource(ctx context.Context, cfg *config.Config) (repository.Source, error) {
	switch cfg.StatsSource {
	case config.StatsSourcePostgres:
		return repository.NewPostgresSource(ctx, cfg.PostgresDSN)
	default:
		var opts []repository.CSVOption
		if cfg.MatchHistoryPath != "" {
			opts = append(opts, repository.WithHistoryPath(cfg.MatchHistoryPath))
		}
		return repository.NewCSVSource(cfg.PlayerStatsPath, opts...), nil
	}
}

// NewPredictor returns the model server client when a URL is configured and
// the local linear model otherwise.
func NewPredictor(cfg *config.Config, l logger.Logger) (predictor.Predictor, error) {
	if cfg.ModelURL != "" {
		opts := []predictor.RemoteOption{
			predictor.WithTimeout(cfg.ModelTimeout()),
			predictor.WithBreaker(cfg.BreakerFailureThreshold, cfg.BreakerOpenTimeout()),
		}
		if l != nil {
			opts = append(opts, predictor.WithRemoteLogger(l.Named("model")))
		}
		return predictor.NewRemoteModel(cfg.ModelURL, opts...), nil
	}
	return predictor.LoadLinearModel(cfg.ModelPath)
}

// FromConfig builds an unstarted Service from cfg. The caller owns Start
// and Stop; Stop closes the source.
func FromConfig(ctx context.Context, cfg *config.Config, l logger.Logger) (*Service, error) {
	src, err := NewSource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open reference source: %w", err)
	}
	p, err := NewPredictor(cfg, l)
	if err != nil {
		_ = src.Close()
		return nil, fmt.Errorf("load model: %w", err)
	}
	return New(
		WithLogger(l),
		WithSource(src),
		WithEncodersPath(cfg.EncodersPath),
		WithPredictor(p),
		WithModelTimeout(cfg.ModelTimeout()),
		WithPredictionCacheTTL(cfg.PredictionCacheTTL()),
	), nil
}
