package datasource

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/ol-results/internal/config"
	"github.com/yourusername/ol-results/internal/metrics"
)

const (
	testDocument = `<?xml version="1.0" encoding="UTF-8"?><ResultList xmlns="http://www.orienteering.org/datastandard/3.0"/>`
)

func testClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		Timeout:           2 * time.Second,
		MaxRetries:        2,
		RetryWaitMin:      time.Millisecond,
		RetryWaitMax:      5 * time.Millisecond,
		RateLimit:         1000,
		CircuitBreakerMax: 3,
		CircuitResetAfter: time.Hour,
	}
}

func TestFetcherReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = io.WriteString(w, testDocument)
	}))
	defer srv.Close()

	before := testutil.ToFloat64(metrics.FetchesTotal.WithLabelValues(fetchStatusSuccess))

	f := NewFetcher(NewRateLimitedHTTPClient(testClientConfig(), nil))
	body, err := f.Fetch(context.Background(), srv.URL+"/results.xml")
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, testDocument, string(data))
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.FetchesTotal.WithLabelValues(fetchStatusSuccess)))
}

func TestFetcherRejectsNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewFetcher(NewRateLimitedHTTPClient(testClientConfig(), nil))
	body, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Nil(t, body)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
}

func TestFetcherRejectsUnsupportedScheme(t *testing.T) {
	f := NewFetcher(NewRateLimitedHTTPClient(testClientConfig(), nil))

	tests := []struct {
		name string
		url  string
	}{
		{name: "file", url: "file:///etc/passwd"},
		{name: "ftp", url: "ftp://example.org/results.xml"},
		{name: "no scheme", url: "results.xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Fetch(context.Background(), tt.url)
			assert.ErrorIs(t, err, ErrUnsupportedScheme)
		})
	}
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, testDocument)
	}))
	defer srv.Close()

	f := NewFetcher(NewRateLimitedHTTPClient(testClientConfig(), nil))
	body, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	defer body.Close()

	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewRateLimitedHTTPClient(testClientConfig(), nil)
	resp, err := client.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.False(t, client.IsOpen())
}

func TestCircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testClientConfig()
	cfg.MaxRetries = 0
	client := NewRateLimitedHTTPClient(cfg, nil)

	trips := testutil.ToFloat64(metrics.CircuitBreakerTripsTotal)
	for i := 0; i < cfg.CircuitBreakerMax; i++ {
		_, _ = client.Get(context.Background(), srv.URL)
	}

	assert.True(t, client.IsOpen())
	assert.Equal(t, trips+1, testutil.ToFloat64(metrics.CircuitBreakerTripsTotal))

	_, err := client.Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")
}

func TestCircuitBreakerHalfOpensAfterReset(t *testing.T) {
	var healthy atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, testDocument)
	}))
	defer srv.Close()

	cfg := testClientConfig()
	cfg.MaxRetries = 0
	cfg.CircuitResetAfter = 200 * time.Millisecond
	client := NewRateLimitedHTTPClient(cfg, nil)

	for i := 0; i < cfg.CircuitBreakerMax; i++ {
		_, _ = client.Get(context.Background(), srv.URL)
	}
	require.True(t, client.IsOpen())

	time.Sleep(cfg.CircuitResetAfter + 100*time.Millisecond)
	healthy.Store(true)

	resp, err := client.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.False(t, client.IsOpen())
}

func TestFetcherHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, testDocument)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewFetcher(NewRateLimitedHTTPClient(testClientConfig(), nil))
	_, err := f.Fetch(ctx, srv.URL)
	assert.Error(t, err)
}

func TestFetcherLimitsDocumentSize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100000000")
		_, _ = io.WriteString(w, strings.Repeat("x", 16))
	}))
	defer srv.Close()

	f := NewFetcher(NewRateLimitedHTTPClient(testClientConfig(), nil))
	_, err := f.Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrDocumentTooLarge)
}

func TestHTTPClientConfigFromConfig(t *testing.T) {
	cfg := &config.Config{
		Import: config.ImportConfig{
			HTTPTimeoutSeconds: 5,
			RateLimit:          0.5,
			RetryAttempts:      7,
		},
	}

	httpCfg := HTTPClientConfigFromConfig(cfg)
	assert.Equal(t, 5*time.Second, httpCfg.Timeout)
	assert.Equal(t, 0.5, httpCfg.RateLimit)
	assert.Equal(t, 7, httpCfg.MaxRetries)
	assert.Equal(t, DefaultHTTPClientConfig().CircuitBreakerMax, httpCfg.CircuitBreakerMax)

	assert.Equal(t, DefaultHTTPClientConfig(), HTTPClientConfigFromConfig(nil))
}
