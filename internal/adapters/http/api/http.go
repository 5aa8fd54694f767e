// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/t20score/internal/domain/model"
	"github.com/okian/t20score/internal/domain/types"
	"github.com/okian/t20score/pkg/logger"
	"golang.org/x/time/rate"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	PredictDependencies
	CatalogDependencies
}

// PredictDependencies runs a prediction.
type PredictDependencies interface {
	Predict(ctx context.Context, state model.MatchState) (types.PredictionResult, error)
}

// CatalogDependencies enumerates selectable teams and players.
type CatalogDependencies interface {
	Teams(ctx context.Context) ([]string, error)
	BowlingTeams(ctx context.Context, batting string) ([]string, error)
	Batters(ctx context.Context, team string) ([]string, error)
	NonStrikers(ctx context.Context, team, striker string) ([]string, error)
	Bowlers(ctx context.Context, team string) ([]string, error)
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithRateLimit caps POST /api/predict at limit requests per second with
// the given burst. A non-positive limit disables the cap.
func WithRateLimit(limit float64, burst int) Option {
	return func(s *Server) {
		if limit > 0 && burst > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(limit), burst)
		}
	}
}

// WithLogger sets the logger used for server-side failures.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	predictHandler *PredictHandler
	teamsHandler   *TeamsHandler
	playersHandler *PlayersHandler

	limiter *rate.Limiter
	logger  logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.predictHandler = NewPredictHandler(deps, s.logger)
	s.teamsHandler = NewTeamsHandler(deps)
	s.playersHandler = NewPlayersHandler(deps)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	predict := s.predictHandler.HandlePredict
	if s.limiter != nil {
		predict = RateLimitMiddleware(predict, s.limiter)
	}

	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/predict", MetricsMiddleware(predict, "predict"))
	mux.HandleFunc("/api/teams/bowling", MetricsMiddleware(s.teamsHandler.HandleBowlingTeams, "bowling_teams"))
	mux.HandleFunc("/api/teams", MetricsMiddleware(s.teamsHandler.HandleTeams, "teams"))
	mux.HandleFunc("/api/players", MetricsMiddleware(s.playersHandler.HandlePlayers, "players"))
}

type teamsResponse struct {
	Teams []string `json:"teams"`
}

type playersResponse struct {
	Team    string   `json:"team"`
	Role    string   `json:"role"`
	Players []string `json:"players"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func methodNotAllowed(w http.ResponseWriter, op string, allowed string) {
	w.Header().Set("Allow", allowed)
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", NewKind(op, ErrMethodDenied))
}
