package testpredictions

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/okian/t20score/internal/domain/model"
	"github.com/okian/t20score/pkg/logger"
)

// Scoring ranges for generated states, in runs per ball.
const (
	minRunsPerBall = 0.6
	maxRunsPerBall = 2.4
	lastThirtyMax  = 60
	lastThirtyBall = 30
)

// ErrNoPlayableTeams means the catalog cannot produce a valid state.
var ErrNoPlayableTeams = errors.New("no team has two batters and a bowling opponent")

// randomInt returns a uniform integer in [0, n).
func randomInt(n int) int {
	if n <= 1 {
		return 0
	}
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// randomBetween returns a uniform integer in [lo, hi].
func randomBetween(lo, hi int) int {
	return lo + randomInt(hi-lo+1)
}

func pick(items []string) string {
	return items[randomInt(len(items))]
}

// generateStates creates the requested number of valid match states.
func generateStates(ctx context.Context, config *Config, catalog *Catalog, stats *Stats) ([]model.MatchState, error) {
	batting := catalog.battingTeams()
	if len(batting) == 0 {
		return nil, ErrNoPlayableTeams
	}
	logger.Get().Info(ctx, "generating match states", logger.Int("numRequests", config.NumRequests))

	states := make([]model.MatchState, config.NumRequests)
	for i := range states {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during generation: %w", err)
		}
		states[i] = generateState(catalog, pick(batting))
	}

	stats.StatesGenerated = len(states)
	return states, nil
}

// generateState builds one state for batting drawn from catalog.
func generateState(catalog *Catalog, batting string) model.MatchState {
	bowling := pick(catalog.opponents(batting))

	batters := catalog.Batters[batting]
	si := randomInt(len(batters))
	ni := randomInt(len(batters) - 1)
	if ni >= si {
		ni++
	}

	over := randomBetween(model.MinOverNumber, model.MaxOverNumber)
	ball := randomBetween(model.MinBallNumber, model.MaxBallNumber)
	bowled := over*model.BallsPerOver + ball
	lo := int(float64(bowled) * minRunsPerBall)
	hi := int(float64(bowled) * maxRunsPerBall)
	score := randomBetween(lo, hi)

	recentBalls := min(bowled, lastThirtyBall)
	recent := min(score, randomBetween(0, min(lastThirtyMax, int(float64(recentBalls)*maxRunsPerBall))))

	return model.MatchState{
		BattingTeam:         batting,
		BowlingTeam:         bowling,
		Striker:             batters[si],
		NonStriker:          batters[ni],
		Bowler:              pick(catalog.Bowlers[bowling]),
		OverNumber:          over,
		BallNumber:          ball,
		CurrentScore:        score,
		RunsLastThirtyBalls: recent,
		WicketsLost:         randomBetween(0, model.MaxWicketsLost),
	}
}
