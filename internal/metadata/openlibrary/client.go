// Package openlibrary is the enrichment client. It looks up the best single
// match for a title/author pair and derives a cover and a description.
package openlibrary

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/listenupapp/listenup-addon/internal/domain"
	domainerrors "github.com/listenupapp/listenup-addon/internal/errors"
	"github.com/listenupapp/listenup-addon/internal/httpclient"
	"github.com/listenupapp/listenup-addon/internal/metadata"
	"github.com/listenupapp/listenup-addon/internal/metrics"
	"github.com/listenupapp/listenup-addon/internal/ratelimit"
)

const (
	DefaultBaseURL   = "https://openlibrary.org"
	DefaultCoversURL = "https://covers.openlibrary.org"

	// SourceName labels logs and metrics.
	SourceName = "openlibrary"

	defaultTimeout = 8 * time.Second

	// Descriptions shorter than this trigger a work-detail fetch.
	minDescriptionLen = 10

	workPrefix = "/works/"
)

// Config configures a Client. Zero values fall back to defaults.
type Config struct {
	BaseURL   string
	CoversURL string
	UserAgent string
	Timeout   time.Duration
	Limiter   *ratelimit.KeyedRateLimiter
	Metrics   *metrics.Metrics
}

// Client is a rate-limited Open Library client.
type Client struct {
	baseURL   string
	coversURL string
	req       *httpclient.Requester
	timeout   time.Duration
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New creates a new Open Library client.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.CoversURL == "" {
		cfg.CoversURL = DefaultCoversURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		coversURL: strings.TrimRight(cfg.CoversURL, "/"),
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

// Search returns the top match for title and author. A failed description
// fetch keeps the search result; it only costs the longer description.
func (c *Client) Search(ctx context.Context, title, author string) (*domain.Enrichment, error) {
	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)
	queryLabel := strings.Trim(title+" / "+author, " /")
	if title == "" && author == "" {
		return nil, wrapError("search", queryLabel, ErrEmptyQuery)
	}

	start := time.Now()
	query := url.Values{}
	if title != "" {
		query.Set("title", title)
	}
	if author != "" {
		query.Set("author", author)
	}
	query.Set("limit", "1")

	var result rawSearch
	err := c.getJSON(ctx, c.baseURL+"/search.json?"+query.Encode(), &result)
	if err == nil && len(result.Docs) == 0 {
		err = ErrNotFound
	}
	if err != nil {
		c.metrics.ObserveSource(SourceName, metrics.OutcomeError, time.Since(start))
		return nil, wrapError("search", queryLabel, err)
	}

	doc := &result.Docs[0]
	enrichment := &domain.Enrichment{
		Title:       strings.TrimSpace(doc.Title),
		Author:      author,
		CoverURL:    c.coverURL(doc),
		Description: doc.FirstSentence.String(),
	}
	if len(doc.AuthorName) > 0 && strings.TrimSpace(doc.AuthorName[0]) != "" {
		enrichment.Author = strings.TrimSpace(doc.AuthorName[0])
	}
	if y := doc.FirstPublishYear.IntPtr(); y != nil {
		enrichment.Year = *y
	}

	if len(enrichment.Description) < minDescriptionLen && strings.HasPrefix(doc.Key, workPrefix) {
		if desc, err := c.workDescription(ctx, doc.Key); err != nil {
			c.logger.Warn("openlibrary work fetch failed", "key", doc.Key, "error", err)
		} else if desc != "" {
			enrichment.Description = desc
		}
	}

	c.metrics.ObserveSource(SourceName, metrics.OutcomeOK, time.Since(start))
	return enrichment, nil
}

// coverURL applies exactly one derivation rule: numeric cover id, else the
// first ISBN, else the work key.
func (c *Client) coverURL(doc *rawDoc) string {
	if id := doc.CoverI.IntPtr(); id != nil && *id > 0 {
		return c.coversURL + "/b/id/" + strconv.Itoa(*id) + "-L.jpg"
	}
	for _, isbn := range doc.ISBN {
		if isbn = strings.TrimSpace(isbn); isbn != "" {
			return c.coversURL + "/b/ISBN/" + url.PathEscape(isbn) + "-L.jpg"
		}
	}
	if doc.Key != "" {
		olid := strings.TrimPrefix(doc.Key, workPrefix)
		return c.coversURL + "/b/olid/" + url.PathEscape(olid) + "-L.jpg"
	}
	return ""
}

func (c *Client) workDescription(ctx context.Context, key string) (string, error) {
	var work rawWork
	if err := c.getJSON(ctx, c.baseURL+key+".json", &work); err != nil {
		return "", wrapError("work", key, err)
	}
	return work.Description.String(), nil
}

func (c *Client) getJSON(ctx context.Context, fullURL string, v any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.logger.Debug("openlibrary request", "url", fullURL)

	resp, err := c.req.Get(ctx, fullURL, "application/json")
	if err != nil {
		return err
	}
	body, err := httpclient.ReadBody(resp)
	if err != nil {
		return err
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case resp.StatusCode >= 500:
		return ErrServer
	default:
		return fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return domainerrors.ParseFailure(err, "parse response")
	}
	return nil
}

// Raw API response types (internal)

type rawSearch struct {
	Docs []rawDoc `json:"docs"`
}

type rawDoc struct {
	Key              string          `json:"key"`
	Title            string          `json:"title"`
	AuthorName       []string        `json:"author_name"`
	CoverI           metadata.Number `json:"cover_i"`
	ISBN             []string        `json:"isbn"`
	FirstSentence    flexText        `json:"first_sentence"`
	FirstPublishYear metadata.Number `json:"first_publish_year"`
}

type rawWork struct {
	Description flexText `json:"description"`
}

// flexText accepts the shapes Open Library uses for prose fields: a plain
// string, a {"type": ..., "value": ...} object, or an array of strings.
type flexText string

// UnmarshalJSON implements json.Unmarshaler.
func (t *flexText) UnmarshalJSON(b []byte) error {
	*t = ""
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err == nil {
			*t = flexText(s)
		}
	case '{':
		var obj struct {
			Value string `json:"value"`
		}
		if err := json.Unmarshal(b, &obj); err == nil {
			*t = flexText(obj.Value)
		}
	case '[':
		var parts []string
		if err := json.Unmarshal(b, &parts); err == nil {
			*t = flexText(strings.Join(parts, " "))
		}
	}
	return nil
}

func (t flexText) String() string {
	return strings.TrimSpace(string(t))
}
