package service

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/t20score/internal/adapters/repository"
	"github.com/okian/t20score/internal/domain/encoding"
	"github.com/okian/t20score/internal/domain/features"
	"github.com/okian/t20score/internal/domain/roster"
)

// Assets is everything a prediction reads besides the model. A value is
// never mutated once published; reloads swap in a new one.
type Assets struct {
	Encoder  *encoding.Encoder
	Resolver *features.Resolver
	Roster   *roster.Roster

	PlayerRows  int
	HistoryRows int
	LoadedAt    time.Time
}

// LoadAssets reads the reference tables from src and pairs them with enc.
func LoadAssets(ctx context.Context, src repository.Source, enc *encoding.Encoder) (*Assets, error) {
	stats, err := src.PlayerStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("player stats: %w", err)
	}
	history, err := src.MatchHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("match history: %w", err)
	}

	names := make([]string, 0, len(stats))
	for _, row := range stats {
		names = append(names, row.Name)
	}
	resolver := features.NewResolver(stats)

	return &Assets{
		Encoder:     enc,
		Resolver:    resolver,
		Roster:      roster.New(enc.Classes(encoding.CategoryBattingTeam), names, history),
		PlayerRows:  resolver.Len(),
		HistoryRows: len(history),
		LoadedAt:    time.Now(),
	}, nil
}
