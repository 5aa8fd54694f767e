// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/okian/t20score/internal/adapters/repository"
	"github.com/okian/t20score/internal/domain/encoding"
	"github.com/okian/t20score/internal/domain/features"
	"github.com/okian/t20score/internal/domain/model"
	"github.com/okian/t20score/internal/domain/predictor"
	"github.com/okian/t20score/internal/domain/types"
	"github.com/okian/t20score/pkg/logger"
	"github.com/okian/t20score/pkg/metrics"
)

const defaultModelTimeout = 2 * time.Second

// cacheReporter is implemented by predictors that can say whether a value
// was served from cache.
type cacheReporter interface {
	Fetch(ctx context.Context, fv model.FeatureVector) (float64, bool, error)
}

// Service implements the API dependencies for the predictor.
type Service struct {
	mu sync.RWMutex

	// Core components
	source       repository.Source
	encoder      *encoding.Encoder
	encodersPath string
	predictor    predictor.Predictor
	validate     *validator.Validate

	// Configuration
	modelTimeout time.Duration
	cacheTTL     time.Duration

	// State
	assets  atomic.Pointer[Assets]
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSource sets where player statistics and match history come from.
func WithSource(src repository.Source) Option {
	return func(s *Service) {
		s.source = src
	}
}

// WithEncoder sets a prebuilt team encoder. It takes precedence over
// WithEncodersPath.
func WithEncoder(enc *encoding.Encoder) Option {
	return func(s *Service) {
		s.encoder = enc
	}
}

// WithEncodersPath sets the encoder artifact read on Start and Reload.
func WithEncodersPath(path string) Option {
	return func(s *Service) {
		s.encodersPath = path
	}
}

// WithPredictor sets the model.
func WithPredictor(p predictor.Predictor) Option {
	return func(s *Service) {
		s.predictor = p
	}
}

// WithModelTimeout bounds each model call.
func WithModelTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.modelTimeout = d
		}
	}
}

// WithPredictionCacheTTL caches model output per feature vector. Zero
// disables the cache.
func WithPredictionCacheTTL(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.cacheTTL = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	s := &Service{
		validate:     v,
		modelTimeout: defaultModelTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads the reference data and encoders and wraps the model in the
// prediction cache. It is a no-op on a started service.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.predictor == nil {
		return ErrNoPredictor
	}
	if s.source == nil {
		return ErrNoSource
	}

	s.logger.Info(ctx, "starting predictor service...")

	a, err := s.loadAssets(ctx)
	if err != nil {
		return err
	}
	s.assets.Store(a)

	if s.cacheTTL > 0 {
		if _, ok := s.predictor.(cacheReporter); !ok {
			s.predictor = predictor.NewCachedPredictor(s.predictor, s.cacheTTL)
		}
	}

	s.started = true
	s.logger.Info(ctx, "predictor service started",
		logger.Int("players", a.PlayerRows),
		logger.Int("historyRows", a.HistoryRows),
		logger.Int("teams", len(a.Roster.Teams())),
		logger.Duration("modelTimeout", s.modelTimeout),
		logger.Duration("cacheTTL", s.cacheTTL),
	)
	return nil
}

// Reload re-reads the reference data and encoders and swaps them in.
// Predictions in flight keep the assets they started with.
func (s *Service) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return ErrNotStarted
	}
	a, err := s.loadAssets(ctx)
	if err != nil {
		s.logger.Error(ctx, "reload failed, keeping current reference data", logger.Error(err))
		return err
	}
	s.assets.Store(a)
	s.logger.Info(ctx, "reference data reloaded",
		logger.Int("players", a.PlayerRows),
		logger.Int("historyRows", a.HistoryRows),
	)
	return nil
}

func (s *Service) loadAssets(ctx context.Context) (*Assets, error) {
	enc := s.encoder
	if enc == nil {
		if s.encodersPath == "" {
			return nil, fmt.Errorf("%w: no encoders configured", encoding.ErrLoadEncoders)
		}
		var err error
		if enc, err = encoding.Load(s.encodersPath); err != nil {
			return nil, err
		}
	}

	a, err := LoadAssets(ctx, s.source, enc)
	if err != nil {
		return nil, err
	}
	metrics.UpdateReferenceData(a.PlayerRows, a.HistoryRows, len(a.Roster.Teams()))
	return a, nil
}

// Stop releases the reference data source.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(context.Background(), "stopping predictor service...")

	if s.source != nil {
		if err := s.source.Close(); err != nil {
			s.logger.Warn(context.Background(), "closing reference source", logger.Error(err))
		}
	}
	s.assets.Store(nil)
	s.started = false
	s.logger.Info(context.Background(), "predictor service stopped")
}

func (s *Service) current() (*Assets, error) {
	a := s.assets.Load()
	if a == nil {
		return nil, ErrNotStarted
	}
	return a, nil
}

// Predict turns a live match state into a banded final-score prediction.
// Any failure yields no result.
func (s *Service) Predict(ctx context.Context, state model.MatchState) (types.PredictionResult, error) {
	a, err := s.current()
	if err != nil {
		return types.PredictionResult{}, err
	}

	if err := s.validateState(state); err != nil {
		metrics.RecordPredictionError("invalid_input")
		return types.PredictionResult{}, err
	}

	battingCode, err := a.Encoder.Encode(encoding.CategoryBattingTeam, state.BattingTeam)
	if err != nil {
		metrics.RecordPredictionError("unknown_team")
		return types.PredictionResult{}, fmt.Errorf("%w: %w", ErrUnknownTeam, err)
	}
	bowlingCode, err := a.Encoder.Encode(encoding.CategoryBowlingTeam, state.BowlingTeam)
	if err != nil {
		metrics.RecordPredictionError("unknown_team")
		return types.PredictionResult{}, fmt.Errorf("%w: %w", ErrUnknownTeam, err)
	}

	striker := s.resolve(ctx, a, state.Striker, model.RoleBatter)
	nonStriker := s.resolve(ctx, a, state.NonStriker, model.RoleBatter)
	bowler := s.resolve(ctx, a, state.Bowler, model.RoleBowler)

	fv := features.Build(state, striker, nonStriker, bowler, battingCode, bowlingCode)
	if err := fv.Validate(); err != nil {
		metrics.RecordPredictionError("invalid_features")
		return types.PredictionResult{}, err
	}

	raw, cached, err := s.invoke(ctx, fv)
	if err != nil {
		metrics.RecordPredictionError(errorReason(err))
		s.logger.Warn(ctx, "model call failed",
			logger.String("battingTeam", state.BattingTeam),
			logger.Error(err))
		return types.PredictionResult{}, err
	}

	point := features.PointEstimate(raw)
	lower, upper := features.Band(point, state.CurrentScore)
	result := types.PredictionResult{
		PredictionID: uuid.NewString(),
		Prediction: model.Prediction{
			PointEstimate:    point,
			LowerBound:       lower,
			UpperBound:       upper,
			ProjectedRunRate: features.ProjectedRunRate(point),
			WicketsLeft:      features.DeriveProgress(state).WicketsLeft,
		},
		Features: fv,
		Cached:   cached,
	}

	metrics.RecordPrediction(point)
	s.logger.Debug(ctx, "prediction served",
		logger.String("predictionID", result.PredictionID),
		logger.Float64("raw", raw),
		logger.Int("point", point),
		logger.Int("lower", lower),
		logger.Int("upper", upper),
		logger.Bool("cached", cached),
	)
	return result, nil
}

func (s *Service) validateState(state model.MatchState) error {
	err := s.validate.Struct(state)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "nefield":
		return fmt.Sprintf("%s must differ from %s", fe.Field(), matchStateField(fe.Param()))
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}

// jsonFieldName reports fields by their wire names.
func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}

func matchStateField(goName string) string {
	if f, ok := reflect.TypeOf(model.MatchState{}).FieldByName(goName); ok {
		return jsonFieldName(f)
	}
	return goName
}

func (s *Service) resolve(ctx context.Context, a *Assets, name string, role model.Role) features.Stat {
	if !a.Resolver.Known(name, role) {
		metrics.RecordUnknownPlayer(role.String())
		s.logger.Debug(ctx, "using default stats",
			logger.String("player", name),
			logger.String("role", role.String()))
	}
	return a.Resolver.Resolve(name, role)
}

// invoke calls the model under the model timeout.
func (s *Service) invoke(ctx context.Context, fv model.FeatureVector) (float64, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.modelTimeout)
	defer cancel()

	s.mu.RLock()
	p := s.predictor
	s.mu.RUnlock()

	start := time.Now()
	var (
		raw    float64
		cached bool
		err    error
	)
	if c, ok := p.(cacheReporter); ok {
		raw, cached, err = c.Fetch(ctx, fv)
	} else {
		raw, err = p.Predict(ctx, fv)
	}
	elapsed := float64(time.Since(start).Microseconds()) / 1000
	if !cached {
		metrics.RecordModelLatency(elapsed)
	}

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, predictor.ErrModelTimeout) {
			return 0, false, fmt.Errorf("%w after %s: %w", predictor.ErrModelTimeout, s.modelTimeout, err)
		}
		return 0, false, err
	}
	return raw, cached, nil
}

func errorReason(err error) string {
	switch {
	case errors.Is(err, predictor.ErrModelTimeout):
		return "model_timeout"
	case errors.Is(err, predictor.ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, predictor.ErrInvalidPrediction):
		return "invalid_prediction"
	default:
		return "model_unavailable"
	}
}

// Teams returns every selectable team.
func (s *Service) Teams(_ context.Context) ([]string, error) {
	a, err := s.current()
	if err != nil {
		return nil, err
	}
	return a.Roster.Teams(), nil
}

// BowlingTeams returns the teams that may bowl against batting.
func (s *Service) BowlingTeams(_ context.Context, batting string) ([]string, error) {
	a, err := s.current()
	if err != nil {
		return nil, err
	}
	if !a.Roster.HasTeam(batting) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTeam, batting)
	}
	return a.Roster.BowlingTeams(batting), nil
}

// Batters returns the players eligible to bat for team.
func (s *Service) Batters(_ context.Context, team string) ([]string, error) {
	a, err := s.current()
	if err != nil {
		return nil, err
	}
	if !a.Roster.HasTeam(team) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTeam, team)
	}
	return a.Roster.Batters(team), nil
}

// NonStrikers returns the batters for team other than striker.
func (s *Service) NonStrikers(_ context.Context, team, striker string) ([]string, error) {
	a, err := s.current()
	if err != nil {
		return nil, err
	}
	if !a.Roster.HasTeam(team) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTeam, team)
	}
	return a.Roster.NonStrikers(team, striker), nil
}

// Bowlers returns the players eligible to bowl for team.
func (s *Service) Bowlers(_ context.Context, team string) ([]string, error) {
	a, err := s.current()
	if err != nil {
		return nil, err
	}
	if !a.Roster.HasTeam(team) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTeam, team)
	}
	return a.Roster.Bowlers(team), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":        s.started,
		"modelTimeoutMs": s.modelTimeout.Milliseconds(),
		"cacheTtlMs":     s.cacheTTL.Milliseconds(),
	}
	if a := s.assets.Load(); a != nil {
		stats["players"] = a.PlayerRows
		stats["historyRows"] = a.HistoryRows
		stats["teams"] = len(a.Roster.Teams())
		stats["loadedAt"] = a.LoadedAt.UTC().Format(time.RFC3339)
	}
	p := s.predictor
	if c, ok := p.(*predictor.CachedPredictor); ok {
		stats["cachedPredictions"] = c.Len()
		p = c.Unwrap()
	}
	if r, ok := p.(interface{ State() string }); ok {
		stats["breakerState"] = r.State()
	}
	return stats
}
