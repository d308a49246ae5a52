package service

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/listenupapp/listenup-addon/internal/domain"
	domainerrors "github.com/listenupapp/listenup-addon/internal/errors"
	"github.com/listenupapp/listenup-addon/internal/id"
	"github.com/listenupapp/listenup-addon/internal/logger"
	"github.com/listenupapp/listenup-addon/internal/media/covers"
	"github.com/listenupapp/listenup-addon/internal/metrics"
	"github.com/listenupapp/listenup-addon/internal/relay"
	"github.com/listenupapp/listenup-addon/internal/tracks"
)

// Titles of the auxiliary catalog links.
const (
	zipTitle  = "LibriVox ZIP (all tracks)"
	feedTitle = "LibriVox RSS"
)

// ResolveRequest identifies the work to resolve. Hints come from the catalog
// index or, failing that, from the id itself.
type ResolveRequest struct {
	ID            domain.CanonicalID
	TitleHint     string
	AuthorHint    string
	SourceKeyHint string

	// ExpandSecondary appends tracks from the record's feed, when it has one.
	ExpandSecondary bool

	// BaseURL prefixes the poster's relay URL. Empty gives a root-relative
	// relay path; the upstream poster is never returned as is.
	BaseURL string
}

// Resolution is the merged view of one work.
type Resolution struct {
	Meta   domain.CanonicalMeta
	Tracks []domain.Track
	// Extras are whole-book links (archive, feed) listed after the tracks and
	// never numbered with them.
	Extras []domain.Track
}

// Streams returns tracks followed by extras in wire form.
func (r *Resolution) Streams() []domain.Stream {
	out := make([]domain.Stream, 0, len(r.Tracks)+len(r.Extras))
	for _, t := range r.Tracks {
		out = append(out, t.Stream())
	}
	for _, t := range r.Extras {
		out = append(out, t.Stream())
	}
	return out
}

// AudiobookResolver merges catalog, enrichment and feed data into a Resolution.
type AudiobookResolver struct {
	catalog    CatalogSource
	enrichment EnrichmentSource
	feeds      FeedExpander
	covers     *covers.Resolver
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewAudiobookResolver creates a resolver. Any source may be nil.
func NewAudiobookResolver(
	catalog CatalogSource,
	enrichment EnrichmentSource,
	feeds FeedExpander,
	coverResolver *covers.Resolver,
	m *metrics.Metrics,
	logger *slog.Logger,
) *AudiobookResolver {
	return &AudiobookResolver{
		catalog:    catalog,
		enrichment: enrichment,
		feeds:      feeds,
		covers:     coverResolver,
		metrics:    m,
		logger:     logger,
	}
}

// Resolve fetches the catalog record when a key is known, looks up enrichment
// with the best available title and author, picks a cover and merges tracks.
//
// A failing source only leaves its fields empty. The only error is
// SourceUnavailable, returned when neither a source nor the hint yields a title.
func (s *AudiobookResolver) Resolve(ctx context.Context, req ResolveRequest) (*Resolution, error) {
	log := logger.FromContext(ctx, s.logger).With("resolution_id", resolutionID(), "id", req.ID)

	record := s.fetchRecord(ctx, log, req.SourceKeyHint)

	title := strings.TrimSpace(req.TitleHint)
	author := strings.TrimSpace(req.AuthorHint)
	if record != nil {
		title = firstNonEmpty(record.Title, title)
		author = firstNonEmpty(record.Author, author)
	}

	enrichment := s.enrich(ctx, log, title, author)

	var rec domain.SourceRecord
	if record != nil {
		rec = *record
	}
	var enr domain.Enrichment
	if enrichment != nil {
		enr = *enrichment
	}

	name := firstNonEmpty(enr.Title, rec.Title, req.TitleHint)
	if name == "" {
		s.metrics.ObserveResolution(metrics.ResolutionUnavailable)
		log.Warn("no source yielded a title")
		return nil, domainerrors.SourceUnavailable("no source yielded a title")
	}

	poster := s.covers.Resolve(covers.Candidates{
		ArchiveURL:    rec.ArchiveURL,
		EnrichedCover: enr.CoverURL,
		SiteURL:       rec.SiteURL,
	})
	if poster == "" {
		poster = strings.TrimSpace(rec.CoverURL)
	}
	poster = relay.ImageURL(req.BaseURL, poster)

	var secondary tracks.Provider
	if req.ExpandSecondary && rec.FeedURL != "" && s.feeds != nil {
		feedURL := rec.FeedURL
		secondary = func(ctx context.Context) []domain.Track {
			return s.feeds.Expand(ctx, feedURL)
		}
	}

	res := &Resolution{
		Meta: domain.CanonicalMeta{
			ID:              req.ID,
			Name:            name,
			Author:          firstNonEmpty(enr.Author, rec.Author, req.AuthorHint),
			Description:     firstNonEmpty(enr.Description, rec.Description),
			PosterURL:       poster,
			DurationSeconds: rec.TotalSeconds,
			Chapters:        chapters(rec.Sections),
		},
		Tracks: tracks.Merge(ctx, rec.Sections, secondary),
		Extras: extras(rec),
	}

	outcome := metrics.ResolutionPartial
	if record != nil && enrichment != nil {
		outcome = metrics.ResolutionComplete
	}
	s.metrics.ObserveResolution(outcome)

	log.Info("resolved audiobook",
		"outcome", outcome,
		"catalog", record != nil,
		"enriched", enrichment != nil,
		"tracks", len(res.Tracks),
	)
	return res, nil
}

func (s *AudiobookResolver) fetchRecord(ctx context.Context, log *slog.Logger, key string) *domain.SourceRecord {
	key = strings.TrimSpace(key)
	if key == "" || s.catalog == nil {
		return nil
	}
	record, err := s.catalog.FetchByID(ctx, key)
	if err != nil {
		log.Warn("catalog fetch failed", "source_key", key, "error", err)
		return nil
	}
	return record
}

func (s *AudiobookResolver) enrich(ctx context.Context, log *slog.Logger, title, author string) *domain.Enrichment {
	if s.enrichment == nil || (title == "" && author == "") {
		return nil
	}
	enrichment, err := s.enrichment.Search(ctx, title, author)
	if err != nil {
		log.Debug("enrichment lookup failed", "title", title, "author", author, "error", err)
		return nil
	}
	return enrichment
}

// chapters lists every catalog section in source order. Each section is its
// own file, so every chapter starts at zero.
func chapters(sections []domain.RawSection) []domain.Chapter {
	out := make([]domain.Chapter, 0, len(sections))
	for i, s := range sections {
		title := strings.TrimSpace(s.Title)
		if title == "" {
			title = "Track " + strconv.Itoa(i+1)
		}
		out = append(out, domain.Chapter{Title: title, Start: 0})
	}
	return out
}

func extras(rec domain.SourceRecord) []domain.Track {
	var out []domain.Track
	if u := strings.TrimSpace(rec.ZipURL); u != "" {
		out = append(out, domain.Track{Title: zipTitle, URL: u, MimeType: domain.MimeZip})
	}
	if u := strings.TrimSpace(rec.FeedURL); u != "" {
		out = append(out, domain.Track{Title: feedTitle, URL: u, MimeType: domain.MimeRSS})
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func resolutionID() string {
	rid, err := id.Generate("res")
	if err != nil {
		return "unknown"
	}
	return rid
}
