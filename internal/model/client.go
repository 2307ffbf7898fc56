package model

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// Predefined errors for remote inference calls.
var (
	// ErrCircuitOpen is returned when the inference circuit breaker is open.
	ErrCircuitOpen = errors.New("inference circuit breaker is open")

	// ErrInference is returned when the inference service rejects a request.
	ErrInference = errors.New("inference request failed")
)

// ClientConfig holds configuration for the resilient inference client.
type ClientConfig struct {
	// BaseURL is the root URL of the model-inference service.
	BaseURL string

	// Timeout is the request timeout for individual HTTP calls.
	// Default: 10 seconds
	Timeout time.Duration

	// MaxRetries is the maximum number of retry attempts.
	// Default: 3
	MaxRetries uint64

	// InitialInterval is the initial retry backoff interval.
	// Default: 100ms
	InitialInterval time.Duration

	// MaxInterval is the maximum retry backoff interval.
	// Default: 5 seconds
	MaxInterval time.Duration

	// BreakerTimeout is the open-state period before half-open.
	// Default: 60 seconds
	BreakerTimeout time.Duration

	Logger zerolog.Logger
}

// Client talks to the model-inference sidecar with retry and circuit
// breaker protection. It implements both HealthModel and SequenceModel.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]

	featuresOnce sync.Once
	featuresErr  error
	features     []string
}

// NewClient creates a resilient inference client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 100 * time.Millisecond
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = 5 * time.Second
	}
	if cfg.BreakerTimeout == 0 {
		cfg.BreakerTimeout = 60 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "model-inference",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			cfg.Logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("inference circuit breaker state change")
		},
	})

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    breaker,
	}
}

type healthPredictRequest struct {
	Rows [][]float64 `json:"rows"`
}

type predictResponse struct {
	Predictions []float64 `json:"predictions"`
}

type featuresResponse struct {
	Features []string `json:"features"`
}

type sequencePredictRequest struct {
	Window    [][]float64 `json:"window"`
	Exogenous []float64   `json:"exogenous"`
}

// RequiredFeatures returns the health model's declared feature
// ordering. The list is fetched once and cached for the client's
// lifetime; the model is immutable while the service runs.
func (c *Client) RequiredFeatures(ctx context.Context) ([]string, error) {
	c.featuresOnce.Do(func() {
		var out featuresResponse
		if err := c.call(ctx, http.MethodGet, "/models/health/features", nil, &out); err != nil {
			c.featuresErr = err
			return
		}
		if len(out.Features) == 0 {
			c.featuresErr = fmt.Errorf("%w: model declares no features", ErrInference)
			return
		}
		c.features = out.Features
	})
	return c.features, c.featuresErr
}

// Predict scores a batch of feature rows with the health-index model.
func (c *Client) Predict(ctx context.Context, rows [][]float64) ([]float64, error) {
	var out predictResponse
	if err := c.call(ctx, http.MethodPost, "/models/health/predict", healthPredictRequest{Rows: rows}, &out); err != nil {
		return nil, err
	}
	if len(out.Predictions) != len(rows) {
		return nil, fmt.Errorf("%w: %d rows in, %d predictions out", ErrInference, len(rows), len(out.Predictions))
	}
	return out.Predictions, nil
}

// SequenceClient adapts the same inference service to the
// SequenceModel contract; it shares the Client's breaker and retries.
type SequenceClient struct {
	*Client
}

// AsSequenceModel exposes the client's sequence endpoint.
func (c *Client) AsSequenceModel() SequenceClient {
	return SequenceClient{c}
}

// Predict asks the sequence model for the next scaled pollutant vector.
func (s SequenceClient) Predict(ctx context.Context, window [][]float64, exogenous []float64) ([]float64, error) {
	var out predictResponse
	req := sequencePredictRequest{Window: window, Exogenous: exogenous}
	if err := s.call(ctx, http.MethodPost, "/models/sequence/predict", req, &out); err != nil {
		return nil, err
	}
	return out.Predictions, nil
}

// call executes one JSON round-trip with circuit breaker protection and
// exponential-backoff retries on transient failures.
func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding inference request: %w", err)
		}
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.InitialInterval
	bo.MaxInterval = c.cfg.MaxInterval
	bo.MaxElapsedTime = 0 // retries bounded by WithMaxRetries

	operation := func() error {
		raw, err := c.breaker.Execute(func() ([]byte, error) {
			return c.roundTrip(ctx, method, path, body)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrCircuitOpen)
			}
			var se *serverError
			if errors.As(err, &se) {
				return err // 5xx, retryable
			}
			var ce *clientError
			if errors.As(err, &ce) {
				return backoff.Permanent(err)
			}
			return err // network error, retryable
		}

		if out != nil {
			if err := json.Unmarshal(raw, out); err != nil {
				return backoff.Permanent(fmt.Errorf("decoding inference response: %w", err))
			}
		}
		return nil
	}

	return backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, c.cfg.MaxRetries), ctx))
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, &serverError{StatusCode: resp.StatusCode}
	case resp.StatusCode >= 400:
		return nil, &clientError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	return raw, nil
}

// CircuitBreakerState returns the current breaker state.
func (c *Client) CircuitBreakerState() gobreaker.State {
	return c.breaker.State()
}

type serverError struct {
	StatusCode int
}

func (e *serverError) Error() string {
	return "inference server error: " + http.StatusText(e.StatusCode)
}

type clientError struct {
	StatusCode int
	Body       string
}

func (e *clientError) Error() string {
	return fmt.Sprintf("%v: status %d: %s", ErrInference, e.StatusCode, e.Body)
}

func (e *clientError) Unwrap() error { return ErrInference }
