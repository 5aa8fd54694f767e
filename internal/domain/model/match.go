// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"math"
)

// Innings and input bounds for a T20 match state.
const (
	BallsPerOver    = 6
	InningsOvers    = 20
	InningsBalls    = InningsOvers * BallsPerOver
	MaxWickets      = 10
	MinOverNumber   = 5
	MaxOverNumber   = 19
	MinBallNumber   = 1
	MaxBallNumber   = 6
	MaxWicketsLost  = 9
	FeatureCount    = 16
	unknownRoleName = "unknown"
)

// ErrInvalidFeature reports a feature vector the model cannot consume.
var ErrInvalidFeature = errors.New("invalid feature vector")

// Role selects which pair of statistics a player lookup returns.
type Role int

const (
	RoleBatter Role = iota
	RoleBowler
)

func (r Role) String() string {
	switch r {
	case RoleBatter:
		return "batter"
	case RoleBowler:
		return "bowler"
	default:
		return unknownRoleName
	}
}

// ParseRole maps "batter"/"bowler" to a Role.
func ParseRole(s string) (Role, error) {
	switch s {
	case "batter":
		return RoleBatter, nil
	case "bowler":
		return RoleBowler, nil
	default:
		return 0, fmt.Errorf("unknown role %q", s)
	}
}

// PlayerStats is one row of the historical player statistics table.
// A stat is NaN when the source row had no value for it.
type PlayerStats struct {
	Name           string
	BattingAverage float64
	StrikeRate     float64
	BowlingAverage float64
	Economy        float64
}

// MatchState is the live match input for a single prediction.
type MatchState struct {
	BattingTeam         string `json:"batting_team" validate:"required"`
	BowlingTeam         string `json:"bowling_team" validate:"required,nefield=BattingTeam"`
	Striker             string `json:"striker" validate:"required"`
	NonStriker          string `json:"non_striker" validate:"required,nefield=Striker"`
	Bowler              string `json:"bowler" validate:"required"`
	OverNumber          int    `json:"over_number" validate:"min=5,max=19"`
	BallNumber          int    `json:"ball_number" validate:"min=1,max=6"`
	CurrentScore        int    `json:"current_score" validate:"min=0"`
	RunsLastThirtyBalls int    `json:"runs_last_30_balls" validate:"min=0"`
	WicketsLost         int    `json:"wickets_lost" validate:"min=0,max=9"`
}

// FeatureVector is the numeric record the trained model consumes. JSON names
// are the model's training columns.
type FeatureVector struct {
	BattingTeam  float64 `json:"batting_team"`
	BowlingTeam  float64 `json:"bowling_team"`
	OverNumber   float64 `json:"over_number"`
	BallNumber   float64 `json:"ball_number"`
	CurrentScore float64 `json:"current_score"`
	Wickets      float64 `json:"wickets"`
	BallsLeft    float64 `json:"balls_left"`
	CRR          float64 `json:"crr"`
	// LastFive holds runs scored in the last 30 balls. The column name is
	// what the model was trained on and must not change without retraining.
	LastFive      float64 `json:"last_five"`
	WicketsLeft   float64 `json:"wickets_left"`
	BatterAvg     float64 `json:"batter_avg"`
	BatterSR      float64 `json:"batter_sr"`
	NonStrikerAvg float64 `json:"non_striker_avg"`
	NonStrikerSR  float64 `json:"non_striker_sr"`
	BowlerAvg     float64 `json:"bowler_avg"`
	BowlerEco     float64 `json:"bowler_eco"`
}

// Columns is the training schema column order.
var Columns = [FeatureCount]string{
	"batting_team",
	"bowling_team",
	"over_number",
	"ball_number",
	"current_score",
	"wickets",
	"balls_left",
	"crr",
	"last_five",
	"wickets_left",
	"batter_avg",
	"batter_sr",
	"non_striker_avg",
	"non_striker_sr",
	"bowler_avg",
	"bowler_eco",
}

// Values returns the features in Columns order.
func (f FeatureVector) Values() [FeatureCount]float64 {
	return [FeatureCount]float64{
		f.BattingTeam,
		f.BowlingTeam,
		f.OverNumber,
		f.BallNumber,
		f.CurrentScore,
		f.Wickets,
		f.BallsLeft,
		f.CRR,
		f.LastFive,
		f.WicketsLeft,
		f.BatterAvg,
		f.BatterSR,
		f.NonStrikerAvg,
		f.NonStrikerSR,
		f.BowlerAvg,
		f.BowlerEco,
	}
}

// Validate checks that every feature is a finite number.
func (f FeatureVector) Validate() error {
	for i, v := range f.Values() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is %v", ErrInvalidFeature, Columns[i], v)
		}
	}
	return nil
}

// Prediction is the banded result shown to the user.
type Prediction struct {
	PointEstimate    int     `json:"point_estimate"`
	LowerBound       int     `json:"lower_bound"`
	UpperBound       int     `json:"upper_bound"`
	ProjectedRunRate float64 `json:"projected_run_rate"`
	WicketsLeft      int     `json:"wickets_left"`
}

// HistoryRow is the slice of a historical delivery used to decide which
// players are offered for a team.
type HistoryRow struct {
	BattingTeam string
	BowlingTeam string
	Batter      string
	Bowler      string
}
