package testpredictions

import (
	"context"
	"fmt"
	"net/url"

	"github.com/okian/t20score/pkg/logger"
)

type teamsBody struct {
	Teams []string `json:"teams"`
}

type playersBody struct {
	Players []string `json:"players"`
}

// fetchCatalog walks the enumeration endpoints to learn which teams and
// players can be combined into a valid match state.
func fetchCatalog(ctx context.Context, client *HTTPClient, baseURL string) (*Catalog, error) {
	var teams teamsBody
	if err := client.GetJSON(ctx, baseURL+"/api/teams", &teams); err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}

	c := &Catalog{
		Teams:     teams.Teams,
		Opponents: make(map[string][]string, len(teams.Teams)),
		Batters:   make(map[string][]string, len(teams.Teams)),
		Bowlers:   make(map[string][]string, len(teams.Teams)),
	}
	for _, team := range teams.Teams {
		q := url.QueryEscape(team)

		var opp teamsBody
		if err := client.GetJSON(ctx, baseURL+"/api/teams/bowling?batting="+q, &opp); err != nil {
			return nil, fmt.Errorf("list opponents of %s: %w", team, err)
		}
		var bat, bowl playersBody
		if err := client.GetJSON(ctx, baseURL+"/api/players?role=batter&team="+q, &bat); err != nil {
			return nil, fmt.Errorf("list batters of %s: %w", team, err)
		}
		if err := client.GetJSON(ctx, baseURL+"/api/players?role=bowler&team="+q, &bowl); err != nil {
			return nil, fmt.Errorf("list bowlers of %s: %w", team, err)
		}
		c.Opponents[team] = opp.Teams
		c.Batters[team] = bat.Players
		c.Bowlers[team] = bowl.Players
	}

	logger.Get().Info(ctx, "fetched catalog",
		logger.Int("teams", len(c.Teams)),
		logger.Int("playableBattingTeams", len(c.battingTeams())))
	return c, nil
}

// battingTeams returns the teams that can field two batters against at
// least one opponent with a bowler.
func (c *Catalog) battingTeams() []string {
	var out []string
	for _, team := range c.Teams {
		if len(c.Batters[team]) < 2 {
			continue
		}
		if len(c.opponents(team)) > 0 {
			out = append(out, team)
		}
	}
	return out
}

// opponents returns the bowling teams for batting that have a bowler.
func (c *Catalog) opponents(batting string) []string {
	var out []string
	for _, team := range c.Opponents[batting] {
		if len(c.Bowlers[team]) > 0 {
			out = append(out, team)
		}
	}
	return out
}
