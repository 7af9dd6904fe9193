package vedur

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/skybrief/areafc-etl/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBody = "FAIL41 BIRK 231630\nOUTLOOK FROM 1630 TO 0030 UTC\n"

func testMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func testClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		metrics:    testMetrics(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestClient_Fetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/FAIL41_BIRK_231630.85", r.URL.Path)
		_, _ = w.Write([]byte(sampleBody))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	text, err := c.Fetch(context.Background(), "FAIL41_BIRK_231630.85")
	require.NoError(t, err)
	assert.Equal(t, sampleBody, text)
}

func TestClient_Fetch_TrailingSlashInBaseURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/FAIL41_BIRK_231630.85", r.URL.Path)
		_, _ = w.Write([]byte(sampleBody))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", 5*time.Second, testMetrics(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := c.Fetch(context.Background(), "FAIL41_BIRK_231630.85")
	require.NoError(t, err)
}

func TestClient_Fetch_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Fetch(context.Background(), "FAIL41_BIRK_999999.00")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestClient_Fetch_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream broke"))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Fetch(context.Background(), "FAIL41_BIRK_231630.85")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestClient_Fetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := &Client{
		baseURL:    srv.URL,
		httpClient: &http.Client{Timeout: 50 * time.Millisecond},
		metrics:    testMetrics(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	_, err := c.Fetch(context.Background(), "FAIL41_BIRK_231630.85")
	require.Error(t, err)
}

func TestClient_Fetch_TruncatesOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		big := make([]byte, maxBulletinBytes+1024)
		for i := range big {
			big[i] = 'A'
		}
		_, _ = w.Write(big)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	text, err := c.Fetch(context.Background(), "FAIL41_BIRK_231630.85")
	require.NoError(t, err)
	assert.Len(t, text, maxBulletinBytes)
}
