package api

import (
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/t20score/internal/app"
	"github.com/okian/t20score/internal/domain/model"
	"github.com/okian/t20score/internal/domain/predictor"
	"github.com/okian/t20score/pkg/logger"
)

const maxPredictBody = 64 << 10

// PredictHandler handles prediction requests.
type PredictHandler struct {
	deps   PredictDependencies
	logger logger.Logger
}

// NewPredictHandler creates a new predict handler. l may be nil.
func NewPredictHandler(deps PredictDependencies, l logger.Logger) *PredictHandler {
	return &PredictHandler{deps: deps, logger: l}
}

// HandlePredict handles POST /api/predict requests.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	if r.Method != http.MethodPost {
		methodNotAllowed(w, op, http.MethodPost)
		return
	}

	var state model.MatchState
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPredictBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&state); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	res, err := h.deps.Predict(r.Context(), state)
	if err != nil {
		status, code, kind := classify(err)
		if status >= http.StatusInternalServerError && h.logger != nil {
			h.logger.Error(r.Context(), "prediction failed",
				logger.String("battingTeam", state.BattingTeam),
				logger.String("bowlingTeam", state.BowlingTeam),
				logger.Error(err))
		}
		writeError(w, status, code, WrapKind(op, kind, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// classify maps service and model errors to a status, a code and a kind.
func classify(err error) (int, string, error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input", ErrBadRequest
	case errors.Is(err, service.ErrUnknownTeam):
		return http.StatusBadRequest, "unknown_team", ErrBadRequest
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "not_ready", ErrUnavailable
	case errors.Is(err, predictor.ErrModelTimeout):
		return http.StatusGatewayTimeout, "model_timeout", ErrTimeout
	case errors.Is(err, predictor.ErrCircuitOpen):
		return http.StatusBadGateway, "model_circuit_open", ErrUpstream
	case errors.Is(err, predictor.ErrModelUnavailable), errors.Is(err, predictor.ErrInvalidPrediction):
		return http.StatusBadGateway, "model_error", ErrUpstream
	default:
		return http.StatusInternalServerError, "internal_error", ErrInternal
	}
}
