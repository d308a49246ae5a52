// Package httpclient holds the shared outbound HTTP plumbing used by the source
// clients and the relay: one tuned transport, per-call timeouts, URL scheme
// checks and rate-limited GETs.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/listenupapp/listenup-addon/internal/ratelimit"
)

const (
	DefaultIdleConnTimeout = 90 * time.Second
	MaxIdleConnsPerHost    = 16

	// DefaultUserAgent is sent when a caller does not configure one.
	DefaultUserAgent = "Mozilla/5.0 (ListenUp Audiobook Add-on)"

	// MaxBodyBytes caps metadata payloads read into memory.
	MaxBodyBytes = 8 << 20
)

// ErrScheme is returned for targets that are not http or https.
var ErrScheme = errors.New("httpclient: only http and https URLs are allowed")

var sharedTransport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   MaxIdleConnsPerHost,
	IdleConnTimeout:       DefaultIdleConnTimeout,
	TLSHandshakeTimeout:   5 * time.Second,
	ExpectContinueTimeout: time.Second,
}

// WithTimeout returns a client bounded by timeout that shares the process-wide transport.
func WithTimeout(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout, Transport: sharedTransport}
}

// Streaming returns a client for long-lived body copies. Only connection setup
// and response headers are bounded; the body may stream indefinitely.
func Streaming(headerTimeout time.Duration) *http.Client {
	t := sharedTransport.Clone()
	t.ResponseHeaderTimeout = headerTimeout
	return &http.Client{Transport: t}
}

// IsHTTPOrHTTPS returns true if u is a valid URL with scheme http or https.
func IsHTTPOrHTTPS(u string) bool {
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	s := strings.ToLower(parsed.Scheme)
	return (s == "http" || s == "https") && parsed.Host != ""
}

// ToHTTPS upgrades a plain http:// URL to https://. Other values are returned unchanged.
func ToHTTPS(u string) string {
	if len(u) >= 7 && strings.EqualFold(u[:7], "http://") {
		return "https://" + u[7:]
	}
	return u
}

// Requester performs rate-limited GETs with a fixed User-Agent.
type Requester struct {
	Client    *http.Client
	Limiter   *ratelimit.KeyedRateLimiter
	UserAgent string
}

// Get issues a GET for rawURL after waiting on the target host's bucket.
// The caller must close the response body.
func (r *Requester) Get(ctx context.Context, rawURL, accept string) (*http.Response, error) {
	if !IsHTTPOrHTTPS(rawURL) {
		return nil, fmt.Errorf("%w: %q", ErrScheme, rawURL)
	}

	if r.Limiter != nil {
		if err := r.Limiter.WaitURL(ctx, rawURL); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	ua := r.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	return resp, nil
}

// ReadBody reads at most MaxBodyBytes from resp and closes it.
func ReadBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}
