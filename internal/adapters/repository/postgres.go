package repository

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/okian/t20score/internal/domain/model"
)

// Postgres defaults.
const (
	defaultStatsTable   = "player_stats"
	defaultHistoryTable = "deliveries"
	defaultMaxConns     = 4
)

// PostgresSource reads the reference tables from PostgreSQL. Column names
// match the CSV headers; statistics columns are nullable.
type PostgresSource struct {
	pool         *pgxpool.Pool
	statsTable   string
	historyTable string
	maxConns     int32
}

// NewPostgresSource connects to dsn and verifies connectivity.
func NewPostgresSource(ctx context.Context, dsn string, opts ...PostgresOption) (*PostgresSource, error) {
	s := &PostgresSource{
		statsTable:   defaultStatsTable,
		historyTable: defaultHistoryTable,
		maxConns:     defaultMaxConns,
	}
	for _, opt := range opts {
		opt(s)
	}

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: parse dsn: %w", ErrLoadReference, err)
	}
	poolConfig.MaxConns = s.maxConns
	poolConfig.MinConns = 0
	poolConfig.MaxConnIdleTime = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: create pool: %w", ErrLoadReference, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping: %w", ErrLoadReference, err)
	}
	s.pool = pool
	return s, nil
}

// PlayerStats implements Source. Rows come back in physical table order so the
// first-row-wins rule for duplicate names is stable between loads.
func (s *PostgresSource) PlayerStats(ctx context.Context) ([]model.PlayerStats, error) {
	rows, err := s.pool.Query(ctx, statsQuery(s.statsTable))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadReference, s.statsTable, err)
	}
	defer rows.Close()

	var out []model.PlayerStats
	for rows.Next() {
		var (
			name                   string
			batAvg, sr, bowlAvg, e *float64
		)
		if err := rows.Scan(&name, &batAvg, &sr, &bowlAvg, &e); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrMalformedRow, s.statsTable, err)
		}
		out = append(out, model.PlayerStats{
			Name:           name,
			BattingAverage: orNaN(batAvg),
			StrikeRate:     orNaN(sr),
			BowlingAverage: orNaN(bowlAvg),
			Economy:        orNaN(e),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadReference, s.statsTable, err)
	}
	return out, nil
}

// MatchHistory implements Source.
func (s *PostgresSource) MatchHistory(ctx context.Context) ([]model.HistoryRow, error) {
	rows, err := s.pool.Query(ctx, historyQuery(s.historyTable))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadReference, s.historyTable, err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.HistoryRow, error) {
		var h model.HistoryRow
		err := row.Scan(&h.BattingTeam, &h.BowlingTeam, &h.Batter, &h.Bowler)
		return h, err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadReference, s.historyTable, err)
	}
	return out, nil
}

// Close implements Source.
func (s *PostgresSource) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func statsQuery(table string) string {
	return fmt.Sprintf("SELECT %s, %s, %s, %s, %s FROM %s WHERE %s IS NOT NULL ORDER BY ctid",
		ColPlayerName, ColBattingAverage, ColStrikeRate, ColBowlingAverage, ColEconomy,
		pgx.Identifier{table}.Sanitize(), ColPlayerName)
}

func historyQuery(table string) string {
	return fmt.Sprintf("SELECT DISTINCT COALESCE(%s, ''), COALESCE(%s, ''), COALESCE(%s, ''), COALESCE(%s, '') FROM %s",
		ColBattingTeam, ColBowlingTeam, ColBatter, ColBowler,
		pgx.Identifier{table}.Sanitize())
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
