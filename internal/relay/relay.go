package relay

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainerrors "github.com/listenupapp/listenup-addon/internal/errors"
	"github.com/listenupapp/listenup-addon/internal/http/response"
	"github.com/listenupapp/listenup-addon/internal/httpclient"
	"github.com/listenupapp/listenup-addon/internal/metrics"
)

// Endpoint labels used for metrics and logs.
const (
	EndpointProxy = "proxy"
	EndpointImage = "img"
)

const (
	// DefaultTimeout bounds connection setup and response headers. Bodies are unbounded.
	DefaultTimeout = 15 * time.Second

	maxRedirects = 10
)

// errRedirectBlocked stops a redirect chain that leaves the allowlist.
var errRedirectBlocked = errors.New("relay: redirect to host outside allowlist")

// passthroughHeaders are copied from upstream responses.
var passthroughHeaders = []string{
	"Content-Type",
	"Content-Length",
	"Accept-Ranges",
	"Content-Disposition",
	"Content-Range",
}

// Config configures a Relay.
type Config struct {
	Timeout   time.Duration
	UserAgent string
	Metrics   *metrics.Metrics

	// Client overrides the outbound client. Its CheckRedirect is replaced.
	Client *http.Client
}

// Relay forwards GET and HEAD requests to allowlisted hosts. It holds no
// per-request state.
type Relay struct {
	allow     *Allowlist
	client    *http.Client
	userAgent string
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New creates a relay. Upstream redirects are followed only while every hop
// stays on the allowlist.
func New(cfg Config, allow *Allowlist, logger *slog.Logger) *Relay {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	var client http.Client
	if cfg.Client != nil {
		client = *cfg.Client
	} else {
		client = *httpclient.Streaming(timeout)
	}
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("relay: stopped after %d redirects", maxRedirects)
		}
		if !allow.Allowed(req.URL.String()) {
			return fmt.Errorf("%w: %s", errRedirectBlocked, req.URL.Hostname())
		}
		return nil
	}

	ua := cfg.UserAgent
	if ua == "" {
		ua = httpclient.DefaultUserAgent
	}

	return &Relay{
		allow:     allow,
		client:    &client,
		userAgent: ua,
		metrics:   cfg.Metrics,
		logger:    logger,
	}
}

// Allowlist returns the relay's allowlist.
func (rl *Relay) Allowlist() *Allowlist {
	return rl.allow
}

// Proxy relays audio bytes for GET and headers only for HEAD.
// GET|HEAD /proxy?u=<url>
func (rl *Relay) Proxy(w http.ResponseWriter, r *http.Request) {
	target, ok := rl.target(w, r, EndpointProxy)
	if !ok {
		return
	}

	resp, err := rl.fetch(r, target, r.Header.Get("Range"))
	if err != nil {
		rl.upstreamFailed(w, r, EndpointProxy, target, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		rl.mirrorStatus(w, EndpointProxy, target, resp.StatusCode)
		return
	}

	rl.stream(w, r, EndpointProxy, target, resp)
}

// Image relays cover images. Upstream responses that are not images are
// rejected with 415.
// GET /img?u=<url>
func (rl *Relay) Image(w http.ResponseWriter, r *http.Request) {
	target, ok := rl.target(w, r, EndpointImage)
	if !ok {
		return
	}

	resp, err := rl.fetch(r, target, "")
	if err != nil {
		rl.upstreamFailed(w, r, EndpointImage, target, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		rl.mirrorStatus(w, EndpointImage, target, resp.StatusCode)
		return
	}

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(strings.ToLower(ct), "image/") {
		rl.logger.Warn("relay rejected non-image content", "url", target, "content_type", ct)
		rl.reject(w, EndpointImage, domainerrors.UnsupportedMedia("upstream content is not an image"))
		return
	}

	rl.stream(w, r, EndpointImage, target, resp)
}

// Preflight answers CORS pre-flight requests for the proxy.
// OPTIONS /proxy
func (rl *Relay) Preflight(w http.ResponseWriter, _ *http.Request) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET,HEAD,OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Range, Content-Type")
	response.NoContent(w)
}

// target validates the u parameter, writing 400 or 403 when it is unusable.
func (rl *Relay) target(w http.ResponseWriter, r *http.Request, endpoint string) (string, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("u"))
	if raw == "" {
		rl.reject(w, endpoint, domainerrors.Validation("missing u"))
		return "", false
	}

	target := httpclient.ToHTTPS(raw)
	if !rl.allow.Allowed(target) {
		rl.logger.Warn("relay target not allowed", "endpoint", endpoint, "url", target)
		rl.reject(w, endpoint, domainerrors.Forbidden("host not allowed"))
		return "", false
	}
	return target, true
}

func (rl *Relay) fetch(r *http.Request, target, rangeHeader string) (*http.Response, error) {
	method := http.MethodGet
	if r.Method == http.MethodHead {
		method = http.MethodHead
	}

	req, err := http.NewRequestWithContext(r.Context(), method, target, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", rl.userAgent)
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}
	return rl.client.Do(req)
}

func (rl *Relay) stream(w http.ResponseWriter, r *http.Request, endpoint, target string, resp *http.Response) {
	h := w.Header()
	for _, name := range passthroughHeaders {
		if v := resp.Header.Get(name); v != "" {
			h.Set(name, v)
		}
	}
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Timing-Allow-Origin", "*")
	w.WriteHeader(resp.StatusCode)

	if r.Method == http.MethodHead {
		rl.metrics.ObserveRelay(endpoint, resp.StatusCode, 0)
		return
	}

	written, err := io.Copy(w, resp.Body)
	rl.metrics.ObserveRelay(endpoint, resp.StatusCode, written)
	if err != nil && r.Context().Err() == nil {
		// Headers are gone; the client sees a truncated body.
		rl.logger.Warn("relay copy interrupted", "endpoint", endpoint, "url", target, "written", written, "error", err)
	}
}

// mirrorStatus passes a non-success upstream status through with an empty body.
func (rl *Relay) mirrorStatus(w http.ResponseWriter, endpoint, target string, status int) {
	rl.logger.Debug("relay mirrored upstream status", "endpoint", endpoint, "url", target, "status", status)
	rl.metrics.ObserveRelay(endpoint, status, 0)
	w.WriteHeader(status)
}

func (rl *Relay) upstreamFailed(w http.ResponseWriter, r *http.Request, endpoint, target string, err error) {
	if r.Context().Err() != nil {
		// Client went away; nothing useful to write.
		return
	}
	rl.logger.Warn("relay upstream failed", "endpoint", endpoint, "url", target, "error", err)
	rl.reject(w, endpoint, domainerrors.Wrap(err, domainerrors.CodeBadGateway, "proxy failed"))
}

// reject records and writes a relay failure. The cause is never sent.
func (rl *Relay) reject(w http.ResponseWriter, endpoint string, err *domainerrors.Error) {
	rl.metrics.ObserveRelay(endpoint, err.HTTPStatus(), 0)
	response.DomainError(w, err, rl.logger)
}

// ProxyURL qualifies target as a relayed audio URL under base.
func ProxyURL(base, target string) string {
	return qualify(base, "/proxy", target)
}

// ImageURL qualifies target as a relayed image URL under base.
// An empty target stays empty.
func ImageURL(base, target string) string {
	return qualify(base, "/img", target)
}

func qualify(base, path, target string) string {
	target = strings.TrimSpace(target)
	if target == "" {
		return ""
	}
	return strings.TrimSuffix(base, "/") + path + "?u=" + url.QueryEscape(httpclient.ToHTTPS(target))
}
