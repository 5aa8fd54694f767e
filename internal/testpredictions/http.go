package testpredictions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/t20score/internal/domain/model"
	"github.com/okian/t20score/internal/domain/types"
)

const maxBodyBytes = 1 << 20

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client *http.Client
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// GetJSON performs a GET request and decodes a 200 response into v.
func (c *HTTPClient) GetJSON(ctx context.Context, url string, v any) error {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d: %s", url, resp.StatusCode, bytes.TrimSpace(body))
	}
	return json.Unmarshal(body, v)
}

// Post performs a POST request with JSON body.
func (c *HTTPClient) Post(ctx context.Context, url string, body any) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}

// submitStates posts every state to /api/predict using a worker pool.
// Outcomes keep the order of states.
func submitStates(ctx context.Context, config *Config, client *HTTPClient, states []model.MatchState, stats *Stats) []Outcome {
	log.Printf("📤 Submitting %d match states with %d workers...", len(states), config.Workers)

	url := config.BaseURL + "/api/predict"
	outcomes := make([]Outcome, len(states))

	var (
		submitted  int64
		successful int64
		cached     int64
		failed     int64
		lastReport atomic.Int64
	)

	indexChan := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for index := range indexChan {
				if ctx.Err() != nil {
					return
				}
				out := submitSingleState(ctx, client, url, states[index])
				outcomes[index] = out

				atomic.AddInt64(&submitted, 1)
				switch {
				case out.Result == nil:
					atomic.AddInt64(&failed, 1)
				case out.Result.Cached:
					atomic.AddInt64(&cached, 1)
					atomic.AddInt64(&successful, 1)
				default:
					atomic.AddInt64(&successful, 1)
				}

				now := time.Now().UnixNano()
				last := lastReport.Load()
				if now-last >= int64(progressInterval) && lastReport.CompareAndSwap(last, now) {
					log.Printf("📊 Progress: %d/%d submitted (ok: %d, cached: %d, failed: %d)",
						atomic.LoadInt64(&submitted), len(states),
						atomic.LoadInt64(&successful), atomic.LoadInt64(&cached), atomic.LoadInt64(&failed))
				}
			}
		}()
	}

	go func() {
		defer close(indexChan)
		for i := range states {
			select {
			case <-ctx.Done():
				return
			case indexChan <- i:
			}
		}
	}()

	wg.Wait()

	stats.RequestsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.RequestsOK = int(atomic.LoadInt64(&successful))
	stats.RequestsCached = int(atomic.LoadInt64(&cached))
	stats.RequestsFailed = int(atomic.LoadInt64(&failed))

	log.Printf(`✅ Submission completed:
   OK: %d (cached: %d)
   Failed: %d
`, stats.RequestsOK, stats.RequestsCached, stats.RequestsFailed)
	return outcomes
}

// submitSingleState posts one state and records what came back.
func submitSingleState(ctx context.Context, client *HTTPClient, url string, state model.MatchState) Outcome {
	out := Outcome{State: state}

	resp, err := client.Post(ctx, url, state)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	out.StatusCode = resp.StatusCode

	body, err := readResponseBody(resp)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	if resp.StatusCode != http.StatusOK {
		out.Error = string(bytes.TrimSpace(body))
		return out
	}

	var res types.PredictionResult
	if err := json.Unmarshal(body, &res); err != nil {
		out.Error = fmt.Sprintf("decode response: %v", err)
		return out
	}
	out.Result = &res
	return out
}
