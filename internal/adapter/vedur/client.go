package vedur

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/skybrief/areafc-etl/internal/observability"
)

// maxBulletinBytes bounds how much of an upstream response is read. Area
// forecast bulletins are a few hundred bytes; anything near this limit is
// not a bulletin.
const maxBulletinBytes = 64 * 1024

// Client fetches bulletin text from the vedur.is flight-conditions
// directory. It implements pipeline.Fetcher.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a bulletin fetch client.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// Fetch retrieves the bulletin body for a collector filename.
func (c *Client) Fetch(ctx context.Context, filename string) (string, error) {
	u := fmt.Sprintf("%s/%s", c.baseURL, url.PathEscape(filename))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues("error").Inc()
		return "", fmt.Errorf("fetch bulletin %s: %w", filename, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		c.metrics.FetchRequests.WithLabelValues("not_found").Inc()
		return "", fmt.Errorf("bulletin %s not found upstream", filename)
	case resp.StatusCode != http.StatusOK:
		c.metrics.FetchRequests.WithLabelValues("error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return "", fmt.Errorf("upstream error: status %d: %s", resp.StatusCode, body)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBulletinBytes))
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues("error").Inc()
		return "", fmt.Errorf("read bulletin %s: %w", filename, err)
	}

	c.metrics.FetchRequests.WithLabelValues("success").Inc()
	return string(body), nil
}
