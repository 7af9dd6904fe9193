//go:build vedur

package vedur

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/skybrief/areafc-etl/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the real vedur.is endpoint. Bulletin filenames rotate, so a
// current one must be supplied via VEDUR_SMOKE_FILENAME.
// Run with: go test -tags=vedur ./internal/adapter/vedur/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	return NewClient(
		"https://www.vedur.is/gogn/flugkort/flugskilyrdi",
		10*time.Second,
		observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func TestSmoke_Fetch(t *testing.T) {
	filename := os.Getenv("VEDUR_SMOKE_FILENAME")
	if filename == "" {
		t.Skip("VEDUR_SMOKE_FILENAME must be set to run smoke tests")
	}

	c := smokeClient(t)
	text, err := c.Fetch(context.Background(), filename)
	require.NoError(t, err)
	assert.NotEmpty(t, text)
}

func TestSmoke_Fetch_NotFound(t *testing.T) {
	c := smokeClient(t)

	_, err := c.Fetch(context.Background(), "FAIL41_XXXX_000000.00")
	assert.Error(t, err)
}

func TestSmoke_CachedFetcher(t *testing.T) {
	filename := os.Getenv("VEDUR_SMOKE_FILENAME")
	if filename == "" {
		t.Skip("VEDUR_SMOKE_FILENAME must be set to run smoke tests")
	}

	c := smokeClient(t)
	cached := NewCachedFetcher(c, 10, observability.NewMetricsForTesting())

	// First call: cache miss, real request.
	t1, err := cached.Fetch(context.Background(), filename)
	require.NoError(t, err)

	// Second call: cache hit, no request.
	t2, err := cached.Fetch(context.Background(), filename)
	require.NoError(t, err)
	assert.Equal(t, t1, t2)
}
