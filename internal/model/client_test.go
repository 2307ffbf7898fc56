package model_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariamap/ariamap/internal/model"
)

func newTestClient(baseURL string) *model.Client {
	return model.NewClient(model.ClientConfig{
		BaseURL:         baseURL,
		Timeout:         2 * time.Second,
		MaxRetries:      3,
		InitialInterval: 5 * time.Millisecond,
		MaxInterval:     20 * time.Millisecond,
	})
}

func TestClientPredictHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/health/predict", r.URL.Path)

		var req struct {
			Rows [][]float64 `json:"rows"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Rows, 2)

		_ = json.NewEncoder(w).Encode(map[string][]float64{"predictions": {1.5, 2.5}})
	}))
	defer server.Close()

	preds, err := newTestClient(server.URL).Predict(context.Background(), [][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 2.5}, preds)
}

func TestClientPredictionCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string][]float64{"predictions": {1.5}})
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Predict(context.Background(), [][]float64{{1}, {2}})
	assert.ErrorIs(t, err, model.ErrInference)
}

func TestClientRetriesOn5xx(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string][]float64{"predictions": {7}})
	}))
	defer server.Close()

	preds, err := newTestClient(server.URL).Predict(context.Background(), [][]float64{{1}})
	require.NoError(t, err)
	assert.Equal(t, []float64{7}, preds)
	assert.Equal(t, int32(3), attempts.Load(), "should have retried until success")
}

func TestClientDoesNotRetryOn4xx(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Predict(context.Background(), [][]float64{{1}})
	require.ErrorIs(t, err, model.ErrInference)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestClientCircuitBreakerOpens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := model.NewClient(model.ClientConfig{
		BaseURL:         server.URL,
		Timeout:         time.Second,
		MaxRetries:      5,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		BreakerTimeout:  time.Minute,
	})

	// Enough failures to trip the breaker across attempts.
	for range 3 {
		_, _ = client.Predict(context.Background(), [][]float64{{1}})
	}

	_, err := client.Predict(context.Background(), [][]float64{{1}})
	assert.ErrorIs(t, err, model.ErrCircuitOpen)
}

func TestClientRequiredFeaturesCached(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/health/features", r.URL.Path)
		calls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string][]string{"features": {"AQI", "PM10", "Temperature"}})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	first, err := client.RequiredFeatures(context.Background())
	require.NoError(t, err)
	second, err := client.RequiredFeatures(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"AQI", "PM10", "Temperature"}, first)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSequenceClientPredict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/sequence/predict", r.URL.Path)

		var req struct {
			Window    [][]float64 `json:"window"`
			Exogenous []float64   `json:"exogenous"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Window, 2)
		require.Len(t, req.Exogenous, 4)

		_ = json.NewEncoder(w).Encode(map[string][]float64{"predictions": {0.1, 0.2, 0.3, 0.4, 0.5}})
	}))
	defer server.Close()

	seq := newTestClient(server.URL).AsSequenceModel()

	preds, err := seq.Predict(context.Background(), [][]float64{{1}, {2}}, []float64{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Len(t, preds, 5)
}
