package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/t20score/internal/domain/model"
)

var errExcludeForBowlers = errors.New("exclude applies to batters only")

func errMissing(param string) error {
	return fmt.Errorf("missing query parameter %q", param)
}

// PlayersHandler handles player enumeration requests.
type PlayersHandler struct {
	deps CatalogDependencies
}

// NewPlayersHandler creates a new players handler.
func NewPlayersHandler(deps CatalogDependencies) *PlayersHandler {
	return &PlayersHandler{deps: deps}
}

// HandlePlayers handles GET /api/players?team=X&role=batter|bowler[&exclude=Y].
// exclude removes the chosen striker from the batter list.
func (h *PlayersHandler) HandlePlayers(w http.ResponseWriter, r *http.Request) {
	const op = "api.players"
	if r.Method != http.MethodGet {
		methodNotAllowed(w, op, http.MethodGet)
		return
	}

	q := r.URL.Query()
	team := strings.TrimSpace(q.Get("team"))
	if team == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errMissing("team")))
		return
	}
	roleName := q.Get("role")
	if roleName == "" {
		roleName = model.RoleBatter.String()
	}
	role, err := model.ParseRole(roleName)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	exclude := strings.TrimSpace(q.Get("exclude"))

	var players []string
	switch {
	case role == model.RoleBowler && exclude != "":
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errExcludeForBowlers))
		return
	case role == model.RoleBowler:
		players, err = h.deps.Bowlers(r.Context(), team)
	case exclude != "":
		players, err = h.deps.NonStrikers(r.Context(), team, exclude)
	default:
		players, err = h.deps.Batters(r.Context(), team)
	}
	if err != nil {
		status, code, kind := classify(err)
		writeError(w, status, code, WrapKind(op, kind, err))
		return
	}
	writeJSON(w, http.StatusOK, playersResponse{Team: team, Role: role.String(), Players: nonNil(players)})
}
