package features

import "github.com/okian/t20score/internal/domain/model"

// Progress is the innings position derived from a match state.
type Progress struct {
	BallsBowled    int
	BallsLeft      int
	CurrentRunRate float64
	WicketsLeft    int
}

// DeriveProgress computes balls bowled/left, the current run rate (two
// decimals) and wickets left. A zero-length innings yields a run rate of 0.
func DeriveProgress(s model.MatchState) Progress {
	ballsBowled := s.OverNumber*model.BallsPerOver + s.BallNumber

	overs := float64(s.OverNumber) + float64(s.BallNumber-1)/model.BallsPerOver
	crr := 0.0
	if overs > 0 {
		crr = Round2(float64(s.CurrentScore) / overs)
	}

	return Progress{
		BallsBowled:    ballsBowled,
		BallsLeft:      max(0, model.InningsBalls-ballsBowled),
		CurrentRunRate: crr,
		WicketsLeft:    model.MaxWickets - s.WicketsLost,
	}
}

// Build assembles the model's feature vector. It trusts its inputs; range
// checks belong to the caller.
func Build(s model.MatchState, striker, nonStriker, bowler Stat, battingCode, bowlingCode int) model.FeatureVector {
	p := DeriveProgress(s)
	return model.FeatureVector{
		BattingTeam:   float64(battingCode),
		BowlingTeam:   float64(bowlingCode),
		OverNumber:    float64(s.OverNumber),
		BallNumber:    float64(s.BallNumber),
		CurrentScore:  float64(s.CurrentScore),
		Wickets:       float64(s.WicketsLost),
		BallsLeft:     float64(p.BallsLeft),
		CRR:           p.CurrentRunRate,
		LastFive:      float64(s.RunsLastThirtyBalls),
		WicketsLeft:   float64(p.WicketsLeft),
		BatterAvg:     striker.Average,
		BatterSR:      striker.Rate,
		NonStrikerAvg: nonStriker.Average,
		NonStrikerSR:  nonStriker.Rate,
		BowlerAvg:     bowler.Average,
		BowlerEco:     bowler.Rate,
	}
}
