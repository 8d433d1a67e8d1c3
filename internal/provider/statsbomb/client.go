// Package statsbomb provides the HTTP client for the StatsBomb open-data
// repository.
//
// Open data is served as static JSON files: one file per competition season
// for matches, one per match for events and for 360 frames. There is no auth
// and no pagination. Rate limiting is handled via a token bucket limiter.
package statsbomb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/albapepper/scoracle-events/internal/provider"
)

// DefaultBaseURL is the raw GitHub root of the open-data repository.
const DefaultBaseURL = "https://raw.githubusercontent.com/statsbomb/open-data/master/data"

// Client is the HTTP client for StatsBomb open-data files.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewClient creates a StatsBomb HTTP client with rate limiting.
func NewClient(baseURL string, requestsPerMinute int, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	rps := float64(requestsPerMinute) / 60.0
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
	}
}

// get performs a rate-limited GET of a data file. The status code is returned
// alongside the error so callers can tell a missing file from a failure.
func (c *Client) get(ctx context.Context, path string) ([]byte, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, eris.Wrapf(provider.ErrProviderFailure, "rate limit wait: %v", err)
	}

	u := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, eris.Wrapf(provider.ErrProviderFailure, "create request: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, eris.Wrapf(provider.ErrProviderFailure, "http request %s: %v", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, eris.Wrapf(provider.ErrProviderFailure, "read response body: %v", err)
	}

	c.logger.Debug("statsbomb: fetched",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, eris.Wrap(provider.ErrProviderFailure,
			fmt.Sprintf("StatsBomb %s returned %d: %s", path, resp.StatusCode, truncate(body, 200)))
	}

	return body, resp.StatusCode, nil
}

// truncate returns a truncated string for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
