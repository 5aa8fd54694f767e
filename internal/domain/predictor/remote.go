package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/t20score/internal/domain/model"
	"github.com/okian/t20score/pkg/logger"
	"github.com/okian/t20score/pkg/metrics"
	"github.com/sony/gobreaker"
)

// Remote model defaults.
const (
	defaultRemoteTimeout    = 2 * time.Second
	defaultFailureThreshold = 5
	defaultOpenTimeout      = 30 * time.Second
	maxResponseBytes        = 1 << 20
	invocationsPath         = "/invocations"
)

// RemoteOption configures a RemoteModel.
type RemoteOption func(*RemoteModel)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(r *RemoteModel) {
		if c != nil {
			r.client = c
		}
	}
}

// WithTimeout bounds a single model invocation.
func WithTimeout(d time.Duration) RemoteOption {
	return func(r *RemoteModel) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithBreaker sets how many consecutive failures open the circuit and how
// long it stays open before a trial request.
func WithBreaker(failureThreshold int, openTimeout time.Duration) RemoteOption {
	return func(r *RemoteModel) {
		if failureThreshold > 0 {
			r.failureThreshold = uint32(failureThreshold) //nolint:gosec // positive, from config
		}
		if openTimeout > 0 {
			r.openTimeout = openTimeout
		}
	}
}

// WithRemoteLogger sets the logger for breaker transitions.
func WithRemoteLogger(l logger.Logger) RemoteOption {
	return func(r *RemoteModel) {
		r.log = l
	}
}

// RemoteModel calls a model server that accepts the split-dataframe JSON
// layout on POST {base}/invocations. Calls are never retried.
type RemoteModel struct {
	endpoint         string
	client           *http.Client
	timeout          time.Duration
	failureThreshold uint32
	openTimeout      time.Duration
	breaker          *gobreaker.CircuitBreaker
	log              logger.Logger
}

type invocationRequest struct {
	DataframeSplit dataframeSplit `json:"dataframe_split"`
}

type dataframeSplit struct {
	Columns []string    `json:"columns"`
	Data    [][]float64 `json:"data"`
}

type invocationResponse struct {
	Predictions []float64 `json:"predictions"`
}

// NewRemoteModel creates a client for the model server at baseURL.
func NewRemoteModel(baseURL string, opts ...RemoteOption) *RemoteModel {
	r := &RemoteModel{
		endpoint:         strings.TrimRight(baseURL, "/") + invocationsPath,
		client:           &http.Client{},
		timeout:          defaultRemoteTimeout,
		failureThreshold: defaultFailureThreshold,
		openTimeout:      defaultOpenTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "model",
		MaxRequests: 1,
		Timeout:     r.openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= r.failureThreshold
		},
		IsSuccessful: func(err error) bool {
			// A caller giving up says nothing about the server.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			_ = metrics.UpdateBreakerState(to.String())
			if r.log != nil {
				r.log.Warn(context.Background(), "circuit breaker state changed",
					logger.String("breaker", name),
					logger.String("from", from.String()),
					logger.String("to", to.String()))
			}
		},
	})
	return r
}

// State returns the breaker state: closed, half-open or open.
func (r *RemoteModel) State() string {
	return r.breaker.State().String()
}

// Predict posts one row and returns the first prediction.
func (r *RemoteModel) Predict(ctx context.Context, fv model.FeatureVector) (float64, error) {
	out, err := r.breaker.Execute(func() (interface{}, error) {
		return r.invoke(ctx, fv)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return 0, fmt.Errorf("%w: %w", ErrCircuitOpen, err)
		}
		return 0, err
	}
	v, _ := out.(float64)
	return checkOutput(v)
}

func (r *RemoteModel) invoke(ctx context.Context, fv model.FeatureVector) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	values := fv.Values()
	body, err := json.Marshal(invocationRequest{DataframeSplit: dataframeSplit{
		Columns: model.Columns[:],
		Data:    [][]float64{values[:]},
	}})
	if err != nil {
		return 0, fmt.Errorf("%w: encode request: %w", ErrModelUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return 0, fmt.Errorf("%w after %s", ErrModelTimeout, r.timeout)
		}
		return 0, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return 0, fmt.Errorf("%w after %s", ErrModelTimeout, r.timeout)
		}
		return 0, fmt.Errorf("%w: read response: %w", ErrModelUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: status %d: %s", ErrModelUnavailable, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return decodePrediction(raw)
}

// decodePrediction accepts {"predictions": [x]} or a bare [x].
func decodePrediction(raw []byte) (float64, error) {
	var preds []float64
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &preds); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrInvalidPrediction, err)
		}
	} else {
		var resp invocationResponse
		if err := json.Unmarshal(trimmed, &resp); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrInvalidPrediction, err)
		}
		preds = resp.Predictions
	}
	if len(preds) == 0 {
		return 0, fmt.Errorf("%w: empty predictions", ErrInvalidPrediction)
	}
	return preds[0], nil
}
