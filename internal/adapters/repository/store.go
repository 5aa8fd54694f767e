// Package repository loads the read-only reference tables the predictor
// needs: historical player statistics and the ball-by-ball match history
// used to decide which players belong to which team.
package repository

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/okian/t20score/internal/domain/model"
)

// Column names shared by every source.
const (
	ColPlayerName     = "player_name"
	ColBattingAverage = "batting_avg"
	ColStrikeRate     = "strike_rate"
	ColBowlingAverage = "bowling_avg"
	ColEconomy        = "economy"

	ColBattingTeam = "batting_team"
	ColBowlingTeam = "bowling_team"
	ColBatter      = "batter"
	ColBowler      = "bowler"
)

// Source provides the reference tables. Both calls are made once at startup.
type Source interface {
	// PlayerStats returns the statistics table in source order.
	PlayerStats(ctx context.Context) ([]model.PlayerStats, error)
	// MatchHistory returns (batting team, bowling team, batter, bowler)
	// rows. A source without history returns no rows and no error.
	MatchHistory(ctx context.Context) ([]model.HistoryRow, error)
	// Close releases any held resources.
	Close() error
}

// parseStat reads a numeric cell. Empty and NaN-like cells mean "no value".
func parseStat(cell string) (float64, error) {
	cell = strings.TrimSpace(cell)
	switch strings.ToLower(cell) {
	case "", "nan", "na", "null", "none":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(cell, 64)
}
