// Package roster enumerates the teams and players a user may pick, keeping
// the batting and bowling sides distinct and the two batters distinct.
package roster

import (
	"slices"
	"sort"

	"github.com/okian/t20score/internal/domain/model"
)

// Roster is immutable after construction and safe for concurrent reads.
type Roster struct {
	teams      []string
	players    []string
	batters    map[string][]string
	bowlers    map[string][]string
	hasHistory bool
}

// New builds a roster from the team vocabulary, the names in the player
// statistics table and the match history. A player is eligible for a team
// when the history shows them batting (or bowling) for it and they have a
// statistics row. Without history every known player is eligible.
func New(teams, players []string, history []model.HistoryRow) *Roster {
	known := make(map[string]struct{}, len(players))
	for _, p := range players {
		known[p] = struct{}{}
	}

	batters := make(map[string]map[string]struct{})
	bowlers := make(map[string]map[string]struct{})
	for _, row := range history {
		if _, ok := known[row.Batter]; ok && row.BattingTeam != "" {
			addTo(batters, row.BattingTeam, row.Batter)
		}
		if _, ok := known[row.Bowler]; ok && row.BowlingTeam != "" {
			addTo(bowlers, row.BowlingTeam, row.Bowler)
		}
	}

	return &Roster{
		teams:      sortedUnique(teams),
		players:    sortedUnique(players),
		batters:    flatten(batters),
		bowlers:    flatten(bowlers),
		hasHistory: len(history) > 0,
	}
}

// Teams returns every selectable team, sorted.
func (r *Roster) Teams() []string {
	return append([]string{}, r.teams...)
}

// HasTeam reports whether team is in the vocabulary.
func (r *Roster) HasTeam(team string) bool {
	_, found := slices.BinarySearch(r.teams, team)
	return found
}

// BowlingTeams returns the teams that may bowl against batting.
func (r *Roster) BowlingTeams(batting string) []string {
	return AvailableBowlingTeams(r.teams, batting)
}

// Batters returns the players eligible to bat for team, sorted.
func (r *Roster) Batters(team string) []string {
	if !r.hasHistory {
		return append([]string{}, r.players...)
	}
	return append([]string{}, r.batters[team]...)
}

// Bowlers returns the players eligible to bowl for team, sorted.
func (r *Roster) Bowlers(team string) []string {
	if !r.hasHistory {
		return append([]string{}, r.players...)
	}
	return append([]string{}, r.bowlers[team]...)
}

// NonStrikers returns the batters for team other than striker.
func (r *Roster) NonStrikers(team, striker string) []string {
	return AvailableNonStrikers(r.Batters(team), striker)
}

// AvailableBowlingTeams returns teams without the batting team.
func AvailableBowlingTeams(teams []string, batting string) []string {
	return without(teams, batting)
}

// AvailableNonStrikers returns batters without the striker.
func AvailableNonStrikers(batters []string, striker string) []string {
	return without(batters, striker)
}

func without(items []string, drop string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it != drop {
			out = append(out, it)
		}
	}
	return out
}

func addTo(idx map[string]map[string]struct{}, team, player string) {
	set, ok := idx[team]
	if !ok {
		set = make(map[string]struct{})
		idx[team] = set
	}
	set[player] = struct{}{}
}

func flatten(idx map[string]map[string]struct{}) map[string][]string {
	out := make(map[string][]string, len(idx))
	for team, set := range idx {
		names := make([]string, 0, len(set))
		for n := range set {
			names = append(names, n)
		}
		sort.Strings(names)
		out[team] = names
	}
	return out
}

func sortedUnique(in []string) []string {
	out := slices.Clone(in)
	sort.Strings(out)
	return slices.Compact(out)
}
