// Package librivox is the catalog client: paginated listing and full-record
// fetches against the LibriVox audiobook feed API.
package librivox

import (
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
	"github.com/listenupapp/listenup-addon/internal/validation"
)

const (
	// DefaultBaseURL is the public feed endpoint.
	DefaultBaseURL = "https://librivox.org/api/feed/audiobooks"

	// SourceName labels logs and metrics.
	SourceName = "librivox"

	defaultListTimeout  = 3 * time.Second
	defaultFetchTimeout = 8 * time.Second

	defaultLimit = 50
	maxLimit     = 100

	untitled = "Untitled"
)

// Config configures a Client. Zero values fall back to defaults.
type Config struct {
	BaseURL      string
	UserAgent    string
	ListTimeout  time.Duration
	FetchTimeout time.Duration
	Limiter      *ratelimit.KeyedRateLimiter
	Metrics      *metrics.Metrics
}

// Client is a rate-limited LibriVox API client.
type Client struct {
	baseURL      string
	req          *httpclient.Requester
	listTimeout  time.Duration
	fetchTimeout time.Duration
	validator    *validation.Validator
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// New creates a new LibriVox client.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ListTimeout <= 0 {
		cfg.ListTimeout = defaultListTimeout
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		req: &httpclient.Requester{
			Client:    httpclient.WithTimeout(cfg.FetchTimeout),
			Limiter:   cfg.Limiter,
			UserAgent: cfg.UserAgent,
		},
		listTimeout:  cfg.ListTimeout,
		fetchTimeout: cfg.FetchTimeout,
		validator:    validation.New(),
		metrics:      cfg.Metrics,
		logger:       logger,
	}
}

// List returns one page of catalog records. It fails soft: any upstream or
// decoding failure is logged and yields an empty slice.
func (c *Client) List(ctx context.Context, limit, offset int) []domain.SourceRecord {
	if limit <= 0 {
		limit = defaultLimit
	}
	limit = min(limit, maxLimit)
	offset = max(offset, 0)

	start := time.Now()
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))

	books, err := c.doRequest(ctx, query, c.listTimeout)
	if err != nil {
		c.metrics.ObserveSource(SourceName, metrics.OutcomeError, time.Since(start))
		c.logger.Warn("librivox list failed",
			"limit", limit,
			"offset", offset,
			"error", wrapError("list", "", err),
		)
		return []domain.SourceRecord{}
	}

	records := make([]domain.SourceRecord, 0, len(books))
	for i := range books {
		rec := c.toRecord(&books[i])
		if rec.Title == "" {
			rec.Title = untitled
		}
		records = append(records, rec)
	}

	outcome := metrics.OutcomeOK
	if len(records) == 0 {
		outcome = metrics.OutcomeEmpty
	}
	c.metrics.ObserveSource(SourceName, outcome, time.Since(start))
	return records
}

// FetchByID returns the full record for sourceKey, sections included.
func (c *Client) FetchByID(ctx context.Context, sourceKey string) (*domain.SourceRecord, error) {
	sourceKey = strings.TrimSpace(sourceKey)
	if !validKey(sourceKey) {
		return nil, wrapError("fetch", sourceKey, ErrInvalidID)
	}

	start := time.Now()
	query := url.Values{}
	query.Set("id", sourceKey)

	books, err := c.doRequest(ctx, query, c.fetchTimeout)
	if err == nil && len(books) == 0 {
		err = ErrNotFound
	}
	if err != nil {
		c.metrics.ObserveSource(SourceName, metrics.OutcomeError, time.Since(start))
		return nil, wrapError("fetch", sourceKey, err)
	}

	c.metrics.ObserveSource(SourceName, metrics.OutcomeOK, time.Since(start))
	rec := c.toRecord(&books[0])
	if rec.SourceKey == "" {
		rec.SourceKey = sourceKey
	}
	return &rec, nil
}

// doRequest executes one bounded, rate-limited call and decodes the books array.
func (c *Client) doRequest(ctx context.Context, query url.Values, timeout time.Duration) ([]rawBook, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	query.Set("format", "json")
	query.Set("extended", "1")
	fullURL := c.baseURL + "?" + query.Encode()

	c.logger.Debug("librivox request", "url", fullURL)

	resp, err := c.req.Get(ctx, fullURL, "application/json")
	if err != nil {
		return nil, err
	}
	body, err := httpclient.ReadBody(resp)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode >= 500:
		return nil, ErrServer
	default:
		return nil, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	var payload rawResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, domainerrors.ParseFailure(err, "parse response")
	}
	return payload.Books, nil
}

// toRecord sanitises a decoded book and maps it to the domain record.
func (c *Client) toRecord(b *rawBook) domain.SourceRecord {
	if cleared := c.validator.Sanitize(b); len(cleared) > 0 {
		c.logger.Debug("librivox dropped malformed fields", "id", b.ID.String(), "fields", cleared)
	}

	rec := domain.SourceRecord{
		SourceKey:    b.ID.String(),
		Title:        strings.TrimSpace(b.Title),
		Author:       authorName(b.Authors),
		Description:  metadata.HTMLToMarkdown(b.Description),
		CoverURL:     b.CoverArt,
		ArchiveURL:   b.URLArchive,
		SiteURL:      b.URLLibriVox,
		FeedURL:      b.URLRSS,
		ZipURL:       b.URLZip,
		TotalSeconds: b.totalSeconds(),
	}

	if len(b.Sections) > 0 {
		rec.Sections = make([]domain.RawSection, 0, len(b.Sections))
		for i := range b.Sections {
			rec.Sections = append(rec.Sections, c.toSection(&b.Sections[i]))
		}
	}
	return rec
}

func (c *Client) toSection(s *rawSection) domain.RawSection {
	c.validator.Sanitize(s)

	fileURL := s.FileURL
	if fileURL == "" {
		fileURL = s.ListenURL
	}
	title := strings.TrimSpace(s.SectionTitle)
	if title == "" {
		title = strings.TrimSpace(s.Title)
	}

	return domain.RawSection{
		Number:          s.number(),
		Title:           title,
		FileURL:         fileURL,
		DurationSeconds: s.duration(),
	}
}

// authorName joins the first author's names; LibriVox lists the primary author first.
func authorName(authors []rawAuthor) string {
	if len(authors) == 0 {
		return ""
	}
	a := authors[0]
	return strings.TrimSpace(strings.TrimSpace(a.FirstName) + " " + strings.TrimSpace(a.LastName))
}

func validKey(key string) bool {
	if key == "" {
		return false
	}
	for _, r := range key {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Raw API response types (internal)

type rawResponse struct {
	Books []rawBook `json:"books"`
}

type rawBook struct {
	ID               metadata.Text   `json:"id"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	URLArchive       string          `json:"url_iarchive" validate:"omitempty,http_url"`
	URLLibriVox      string          `json:"url_librivox" validate:"omitempty,http_url"`
	URLRSS           string          `json:"url_rss" validate:"omitempty,http_url"`
	URLZip           string          `json:"url_zip_file" validate:"omitempty,http_url"`
	CoverArt         string          `json:"coverart_jpg" validate:"omitempty,http_url"`
	TotalTime        metadata.Text   `json:"totaltime"`
	TotalTimeSecs    metadata.Number `json:"totaltimesecs"`
	TotalTimeSeconds metadata.Number `json:"totaltime_seconds"`
	Authors          []rawAuthor     `json:"authors"`
	Sections         []rawSection    `json:"sections"`
}

func (b *rawBook) totalSeconds() *float64 {
	if v := b.TotalTimeSeconds.Ptr(); v != nil {
		return v
	}
	if v := b.TotalTimeSecs.Ptr(); v != nil {
		return v
	}
	return metadata.ParseClock(b.TotalTime.String())
}

type rawAuthor struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type rawSection struct {
	ID              metadata.Text   `json:"id"`
	SectionNumber   metadata.Number `json:"section_number"`
	TrackNumber     metadata.Number `json:"track_number"`
	SectionTitle    string          `json:"section_title"`
	Title           string          `json:"title"`
	FileURL         string          `json:"file_url" validate:"omitempty,http_url"`
	ListenURL       string          `json:"listen_url" validate:"omitempty,http_url"`
	PlaytimeSeconds metadata.Number `json:"playtime_seconds"`
	Playtime        metadata.Text   `json:"playtime"`
}

// number picks section_number, then track_number, then a numeric id.
func (s *rawSection) number() *int {
	if n := s.SectionNumber.IntPtr(); n != nil {
		return n
	}
	if n := s.TrackNumber.IntPtr(); n != nil {
		return n
	}
	if n, err := strconv.Atoi(s.ID.String()); err == nil {
		return &n
	}
	return nil
}

func (s *rawSection) duration() *float64 {
	if v := s.PlaytimeSeconds.Ptr(); v != nil {
		return v
	}
	return metadata.ParseClock(s.Playtime.String())
}
