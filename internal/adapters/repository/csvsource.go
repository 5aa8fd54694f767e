package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/okian/t20score/internal/domain/model"
)

// CSVSource reads the reference tables from CSV files with a header row.
// Columns are located by name, extra columns are ignored.
type CSVSource struct {
	statsPath   string
	historyPath string
}

// NewCSVSource creates a source reading player statistics from statsPath.
func NewCSVSource(statsPath string, opts ...CSVOption) *CSVSource {
	s := &CSVSource{statsPath: statsPath}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlayerStats implements Source.
func (s *CSVSource) PlayerStats(ctx context.Context) ([]model.PlayerStats, error) {
	cols := []string{ColPlayerName, ColBattingAverage, ColStrikeRate, ColBowlingAverage, ColEconomy}
	var rows []model.PlayerStats
	err := readCSV(ctx, s.statsPath, cols,
		func(line int, cells []string) error {
			row := model.PlayerStats{Name: strings.TrimSpace(cells[0])}
			if row.Name == "" {
				return nil
			}
			targets := []*float64{&row.BattingAverage, &row.StrikeRate, &row.BowlingAverage, &row.Economy}
			for i, dst := range targets {
				v, err := parseStat(cells[i+1])
				if err != nil {
					return fmt.Errorf("%w: line %d: %s: %w", ErrMalformedRow, line, cols[i+1], err)
				}
				*dst = v
			}
			rows = append(rows, row)
			return nil
		})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// MatchHistory implements Source.
func (s *CSVSource) MatchHistory(ctx context.Context) ([]model.HistoryRow, error) {
	if s.historyPath == "" {
		return nil, nil
	}
	seen := make(map[model.HistoryRow]struct{})
	var rows []model.HistoryRow
	err := readCSV(ctx, s.historyPath,
		[]string{ColBattingTeam, ColBowlingTeam, ColBatter, ColBowler},
		func(_ int, cells []string) error {
			row := model.HistoryRow{
				BattingTeam: strings.TrimSpace(cells[0]),
				BowlingTeam: strings.TrimSpace(cells[1]),
				Batter:      strings.TrimSpace(cells[2]),
				Bowler:      strings.TrimSpace(cells[3]),
			}
			// Ball-by-ball data repeats the same pairing many times.
			if _, dup := seen[row]; dup {
				return nil
			}
			seen[row] = struct{}{}
			rows = append(rows, row)
			return nil
		})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Close implements Source.
func (s *CSVSource) Close() error { return nil }

// readCSV streams path and calls fn with the wanted columns of each record,
// in the order given. line is the 1-based line number of the record.
func readCSV(ctx context.Context, path string, want []string, fn func(line int, cells []string) error) error {
	f, err := os.Open(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoadReference, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("%w: %s: header: %w", ErrLoadReference, path, err)
	}
	idx, err := columnIndex(header, want)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrLoadReference, path, err)
	}

	cells := make([]string, len(want))
	for line := 2; ; line++ {
		if line%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrLoadReference, path, err)
		}
		for i, c := range idx {
			if c < len(rec) {
				cells[i] = rec[c]
			} else {
				cells[i] = ""
			}
		}
		if err := fn(line, cells); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
}

func columnIndex(header, want []string) ([]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		// Spreadsheet exports sometimes carry a BOM on the first cell.
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := pos[h]; !dup {
			pos[h] = i
		}
	}
	idx := make([]int, len(want))
	for i, w := range want {
		p, ok := pos[w]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, w)
		}
		idx[i] = p
	}
	return idx, nil
}
