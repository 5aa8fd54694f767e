// Package features turns a live match state into the numeric feature vector
// the trained model expects, and turns the model's point estimate into a
// display range.
package features

import (
	"math"

	"github.com/okian/t20score/internal/domain/model"
)

// Stat is an (average, rate) pair: batting average and strike rate for a
// batter, bowling average and economy for a bowler.
type Stat struct {
	Average float64
	Rate    float64
}

// Placeholder stats for players with no usable history.
var (
	DefaultBatterStat = Stat{Average: 25.0, Rate: 120.0}
	DefaultBowlerStat = Stat{Average: 30.0, Rate: 8.0}
)

// DefaultStat returns the placeholder pair for role.
func DefaultStat(role model.Role) Stat {
	if role == model.RoleBowler {
		return DefaultBowlerStat
	}
	return DefaultBatterStat
}

// Resolver looks up historical player statistics by exact name. It is
// immutable after construction and safe for concurrent use.
type Resolver struct {
	byName map[string]model.PlayerStats
}

// NewResolver indexes rows by player name. When a name repeats, the first
// row wins.
func NewResolver(rows []model.PlayerStats) *Resolver {
	byName := make(map[string]model.PlayerStats, len(rows))
	for _, row := range rows {
		if _, dup := byName[row.Name]; dup {
			continue
		}
		byName[row.Name] = row
	}
	return &Resolver{byName: byName}
}

// Resolve returns the stat pair for name in role, or the role default when the
// player is unknown or has no value for that role.
func (r *Resolver) Resolve(name string, role model.Role) Stat {
	row, ok := r.byName[name]
	if !ok {
		return DefaultStat(role)
	}
	s := Stat{Average: row.BattingAverage, Rate: row.StrikeRate}
	if role == model.RoleBowler {
		s = Stat{Average: row.BowlingAverage, Rate: row.Economy}
	}
	if !finite(s.Average) || !finite(s.Rate) {
		return DefaultStat(role)
	}
	return s
}

// Known reports whether Resolve would return recorded stats for name in role.
func (r *Resolver) Known(name string, role model.Role) bool {
	row, ok := r.byName[name]
	if !ok {
		return false
	}
	if role == model.RoleBowler {
		return finite(row.BowlingAverage) && finite(row.Economy)
	}
	return finite(row.BattingAverage) && finite(row.StrikeRate)
}

// Contains reports whether name has a row in the table.
func (r *Resolver) Contains(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Len returns the number of distinct players.
func (r *Resolver) Len() int {
	return len(r.byName)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
