// Package audioaz resolves AudioAZ audiobook pages into playable tracks.
//
// Pages are Next.js renders. The track list is read from the embedded
// __NEXT_DATA__ payload when present; otherwise raw mp3 links are scraped from
// the markup.
package audioaz

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/listenupapp/listenup-addon/internal/domain"
	"github.com/listenupapp/listenup-addon/internal/httpclient"
	"github.com/listenupapp/listenup-addon/internal/metrics"
	"github.com/listenupapp/listenup-addon/internal/ratelimit"
)

const (
	// SourceName labels logs and metrics.
	SourceName = "audioaz"

	defaultTimeout = 8 * time.Second

	acceptHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
)

// Config configures a Client. Zero values fall back to defaults.
type Config struct {
	UserAgent string
	Timeout   time.Duration
	Limiter   *ratelimit.KeyedRateLimiter
	Metrics   *metrics.Metrics
}

// Client fetches and extracts AudioAZ pages.
type Client struct {
	req     *httpclient.Requester
	timeout time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates a new AudioAZ client.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		req: &httpclient.Requester{
			Client:    httpclient.WithTimeout(cfg.Timeout),
			Limiter:   cfg.Limiter,
			UserAgent: cfg.UserAgent,
		},
		timeout: cfg.Timeout,
		metrics: cfg.Metrics,
		logger:  logger,
	}
}

// ValidPageURL reports whether pageURL is an http(s) AudioAZ audiobook page.
func ValidPageURL(pageURL string) bool {
	u, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil || !httpclient.IsHTTPOrHTTPS(u.String()) {
		return false
	}
	return pagePattern.MatchString(u.String())
}

// Resolve fetches pageURL and extracts its title, author and tracks.
// URLs outside the audiobook path pattern are rejected with ErrInvalidURL
// before any request is made.
func (c *Client) Resolve(ctx context.Context, pageURL string) (*domain.ScrapeResult, error) {
	pageURL = strings.TrimSpace(pageURL)
	if !ValidPageURL(pageURL) {
		return nil, wrapError("resolve", pageURL, ErrInvalidURL)
	}

	start := time.Now()
	page, err := c.fetch(ctx, pageURL)
	if err != nil {
		c.metrics.ObserveSource(SourceName, metrics.OutcomeError, time.Since(start))
		return nil, wrapError("resolve", pageURL, err)
	}

	result := Extract(page, c.logger)

	outcome := metrics.OutcomeOK
	if len(result.Tracks) == 0 {
		outcome = metrics.OutcomeEmpty
	}
	c.metrics.ObserveSource(SourceName, outcome, time.Since(start))
	return result, nil
}

func (c *Client) fetch(ctx context.Context, pageURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.logger.Debug("audioaz request", "url", pageURL)

	resp, err := c.req.Get(ctx, pageURL, acceptHTML)
	if err != nil {
		return nil, err
	}
	body, err := httpclient.ReadBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}
	return body, nil
}
