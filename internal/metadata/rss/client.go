// Package rss expands a syndication feed into an ordered list of mp3 tracks.
package rss

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
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
	// SourceName labels logs and metrics.
	SourceName = "rss"

	defaultTimeout = 8 * time.Second

	// maxFeedBytes bounds how much of a feed is decoded.
	maxFeedBytes = 16 << 20

	acceptFeed = "application/rss+xml,application/xml,text/xml;q=0.9,text/html;q=0.8,*/*;q=0.7"
)

// ErrStatus reports a non-OK feed response.
var ErrStatus = domainerrors.UpstreamRejection("rss: unexpected status")

// Config configures a Client. Zero values fall back to defaults.
type Config struct {
	UserAgent string
	Timeout   time.Duration
	Limiter   *ratelimit.KeyedRateLimiter
	Metrics   *metrics.Metrics
}

// Client fetches and expands feeds.
type Client struct {
	req     *httpclient.Requester
	timeout time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates a new feed client.
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

// Expand fetches feedURL and returns its mp3 items oldest first, labelled
// "Track N: <title>". It never fails: network and parse errors are logged and
// produce an empty list.
func (c *Client) Expand(ctx context.Context, feedURL string) []domain.Track {
	start := time.Now()
	feedURL = strings.TrimSpace(feedURL)

	tracks, err := c.fetch(ctx, feedURL)
	if err != nil {
		c.metrics.ObserveSource(SourceName, metrics.OutcomeError, time.Since(start))
		c.logger.Warn("rss expand failed", "url", feedURL, "error", err)
		return []domain.Track{}
	}

	outcome := metrics.OutcomeOK
	if len(tracks) == 0 {
		outcome = metrics.OutcomeEmpty
	}
	c.metrics.ObserveSource(SourceName, outcome, time.Since(start))
	return tracks
}

func (c *Client) fetch(ctx context.Context, feedURL string) ([]domain.Track, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.req.Get(ctx, feedURL, acceptFeed)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}
	return Parse(io.LimitReader(resp.Body, maxFeedBytes))
}

type item struct {
	Title     string `xml:"title"`
	Enclosure struct {
		URL string `xml:"url,attr"`
	} `xml:"enclosure"`
	GUID           string `xml:"guid"`
	Link           string `xml:"link"`
	ItunesDuration string `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd duration"`
	Duration       string `xml:"duration"`
}

// Parse decodes every <item> in r. Feeds list newest first, so the result is
// reversed to chronological order before numbering. Items without an mp3 URL
// in enclosure, guid or link (checked in that order) are dropped.
func Parse(r io.Reader) ([]domain.Track, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity

	var tracks []domain.Track
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, domainerrors.ParseFailure(err, "decode feed")
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "item" {
			continue
		}
		var it item
		if err := dec.DecodeElement(&it, &se); err != nil {
			return nil, domainerrors.ParseFailure(err, "decode item")
		}
		if t, ok := it.track(); ok {
			tracks = append(tracks, t)
		}
	}

	slices.Reverse(tracks)
	for i := range tracks {
		n := i + 1
		tracks[i].Index = n
		tracks[i].Name = tracks[i].Title
		tracks[i].Title = "Track " + strconv.Itoa(n) + ": " + tracks[i].Title
	}
	if tracks == nil {
		tracks = []domain.Track{}
	}
	return tracks, nil
}

func (it *item) track() (domain.Track, bool) {
	var audioURL string
	for _, candidate := range []string{it.Enclosure.URL, it.GUID, it.Link} {
		candidate = strings.TrimSpace(candidate)
		if candidate != "" && metadata.IsMP3URL(candidate) {
			audioURL = candidate
			break
		}
	}
	if audioURL == "" {
		return domain.Track{}, false
	}

	title := metadata.CleanText(it.Title)
	if title == "" {
		title = "Track"
	}

	duration := it.ItunesDuration
	if strings.TrimSpace(duration) == "" {
		duration = it.Duration
	}

	return domain.Track{
		Title:           title,
		URL:             httpclient.ToHTTPS(audioURL),
		MimeType:        domain.MimeMP3,
		DurationSeconds: metadata.ParseClock(metadata.CleanText(duration)),
	}, true
}
