package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/listenupapp/listenup-addon/internal/domain"
	domainerrors "github.com/listenupapp/listenup-addon/internal/errors"
	"github.com/listenupapp/listenup-addon/internal/relay"
	"github.com/listenupapp/listenup-addon/internal/tracks"
)

// StreamRequest selects the streams for one work.
type StreamRequest struct {
	ID              domain.CanonicalID
	ExpandSecondary bool
	// ScrapeHint is an optional scraped-site page whose tracks are listed first.
	ScrapeHint string
	// BaseURL, when set, turns every stream URL into a relay URL under it.
	BaseURL string
}

// StreamService answers meta and stream lookups for minted ids.
type StreamService struct {
	resolver *AudiobookResolver
	minter   *IDMinter
	scraper  PageScraper
	feeds    FeedExpander
	logger   *slog.Logger
}

// NewStreamService creates a stream service.
func NewStreamService(
	resolver *AudiobookResolver,
	minter *IDMinter,
	scraper PageScraper,
	feeds FeedExpander,
	logger *slog.Logger,
) *StreamService {
	return &StreamService{
		resolver: resolver,
		minter:   minter,
		scraper:  scraper,
		feeds:    feeds,
		logger:   logger,
	}
}

// Meta resolves the canonical meta for cid without expanding feeds.
func (s *StreamService) Meta(ctx context.Context, cid domain.CanonicalID, baseURL string) (*domain.CanonicalMeta, error) {
	res, err := s.resolve(ctx, cid, false, baseURL)
	if err != nil {
		return nil, err
	}
	return &res.Meta, nil
}

// Streams resolves the playable streams for req. Tracks from the scrape hint
// come first, then catalog and feed tracks, then whole-book links.
func (s *StreamService) Streams(ctx context.Context, req StreamRequest) ([]domain.Stream, error) {
	res, err := s.resolve(ctx, req.ID, req.ExpandSecondary, "")
	if err != nil {
		return nil, err
	}

	merged := res.Tracks
	if hint := strings.TrimSpace(req.ScrapeHint); hint != "" && s.scraper != nil {
		scraped, err := s.scraper.Resolve(ctx, hint)
		switch {
		case err != nil:
			s.logger.Warn("scrape hint failed", "id", req.ID, "url", hint, "error", err)
		case len(scraped.Tracks) > 0:
			merged = tracks.Prepend(scraped.Tracks, res.Tracks)
		}
	}

	out := (&Resolution{Tracks: merged, Extras: res.Extras}).Streams()
	if req.BaseURL != "" {
		for i := range out {
			out[i].URL = relay.ProxyURL(req.BaseURL, out[i].URL)
		}
	}
	return out, nil
}

// ScrapePage resolves a scraped-site page on its own. Its URLs are not relayed.
func (s *StreamService) ScrapePage(ctx context.Context, pageURL string) (*domain.ScrapeResult, error) {
	if s.scraper == nil {
		return nil, domainerrors.SourceUnavailable("scraping disabled")
	}
	return s.scraper.Resolve(ctx, pageURL)
}

// ExpandFeed lists a feed's tracks on their own. It never fails.
func (s *StreamService) ExpandFeed(ctx context.Context, feedURL string) []domain.Track {
	if s.feeds == nil {
		return []domain.Track{}
	}
	return s.feeds.Expand(ctx, feedURL)
}

func (s *StreamService) resolve(ctx context.Context, cid domain.CanonicalID, expand bool, baseURL string) (*Resolution, error) {
	if !cid.Valid() {
		return nil, domainerrors.Validationf("invalid id %q", cid)
	}
	entry := s.minter.Lookup(ctx, cid)
	return s.resolver.Resolve(ctx, ResolveRequest{
		ID:              cid,
		TitleHint:       entry.Title,
		AuthorHint:      entry.Author,
		SourceKeyHint:   entry.SourceKey,
		ExpandSecondary: expand,
		BaseURL:         baseURL,
	})
}
