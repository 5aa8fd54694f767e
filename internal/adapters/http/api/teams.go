package api

import (
	"net/http"
	"strings"
)

// TeamsHandler handles team enumeration requests.
type TeamsHandler struct {
	deps CatalogDependencies
}

// NewTeamsHandler creates a new teams handler.
func NewTeamsHandler(deps CatalogDependencies) *TeamsHandler {
	return &TeamsHandler{deps: deps}
}

// HandleTeams handles GET /api/teams requests.
func (h *TeamsHandler) HandleTeams(w http.ResponseWriter, r *http.Request) {
	const op = "api.teams"
	if r.Method != http.MethodGet {
		methodNotAllowed(w, op, http.MethodGet)
		return
	}
	teams, err := h.deps.Teams(r.Context())
	if err != nil {
		status, code, kind := classify(err)
		writeError(w, status, code, WrapKind(op, kind, err))
		return
	}
	writeJSON(w, http.StatusOK, teamsResponse{Teams: nonNil(teams)})
}

// HandleBowlingTeams handles GET /api/teams/bowling?batting=X requests.
func (h *TeamsHandler) HandleBowlingTeams(w http.ResponseWriter, r *http.Request) {
	const op = "api.bowling_teams"
	if r.Method != http.MethodGet {
		methodNotAllowed(w, op, http.MethodGet)
		return
	}
	batting := strings.TrimSpace(r.URL.Query().Get("batting"))
	if batting == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errMissing("batting")))
		return
	}
	teams, err := h.deps.BowlingTeams(r.Context(), batting)
	if err != nil {
		status, code, kind := classify(err)
		writeError(w, status, code, WrapKind(op, kind, err))
		return
	}
	writeJSON(w, http.StatusOK, teamsResponse{Teams: nonNil(teams)})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
