package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/listenupapp/listenup-addon/internal/domain"
	"github.com/listenupapp/listenup-addon/internal/relay"
	"github.com/listenupapp/listenup-addon/internal/search"
)

// localSearchLimit caps hits taken from the local index.
const localSearchLimit = 10

// SearchService answers free-text queries from the local index and the
// enrichment source.
type SearchService struct {
	enrichment EnrichmentSource
	index      EntrySearcher
	minter     *IDMinter
	logger     *slog.Logger
}

// NewSearchService creates a search service. index may be nil.
func NewSearchService(enrichment EnrichmentSource, index EntrySearcher, minter *IDMinter, logger *slog.Logger) *SearchService {
	return &SearchService{
		enrichment: enrichment,
		index:      index,
		minter:     minter,
		logger:     logger,
	}
}

// SplitQuery splits "title - author" into its parts. Without a separator the
// whole query is the title.
func SplitQuery(q string) (title, author string) {
	q = strings.TrimSpace(q)
	parts := strings.Split(q, " - ")
	title = strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		author = strings.TrimSpace(parts[1])
	}
	if title == "" {
		title = q
	}
	return title, author
}

// Search returns local index hits followed by at most one enrichment match,
// which is minted and indexed. Failures give fewer results, never an error.
func (s *SearchService) Search(ctx context.Context, q, baseURL string) []domain.MetaPreview {
	metas := []domain.MetaPreview{}
	if strings.TrimSpace(q) == "" {
		return metas
	}
	title, author := SplitQuery(q)
	seen := make(map[domain.CanonicalID]bool)

	if s.index != nil {
		hits, err := s.index.Search(ctx, search.Params{Title: title, Author: author, Limit: localSearchLimit})
		if err != nil {
			s.logger.Warn("local search failed", "query", q, "error", err)
		}
		for _, hit := range hits {
			cid := domain.CanonicalID(hit.ID)
			seen[cid] = true
			entry := s.minter.Lookup(ctx, cid)
			metas = append(metas, domain.MetaPreview{
				ID:          cid,
				Type:        domain.ContentType,
				Name:        hit.Title,
				Poster:      relay.ImageURL(baseURL, entry.PosterURL),
				Description: entry.Description,
			})
		}
	}

	enrichment, err := s.enrichment.Search(ctx, title, author)
	if err != nil {
		s.logger.Debug("enrichment search failed", "query", q, "error", err)
		return metas
	}
	if strings.TrimSpace(enrichment.Title) == "" {
		return metas
	}

	cid := s.minter.Mint(ctx, domain.IndexEntry{
		Title:       enrichment.Title,
		Author:      enrichment.Author,
		PosterURL:   enrichment.CoverURL,
		Description: enrichment.Description,
	})
	if seen[cid] {
		return metas
	}

	return append(metas, domain.MetaPreview{
		ID:          cid,
		Type:        domain.ContentType,
		Name:        enrichment.Title,
		Poster:      relay.ImageURL(baseURL, enrichment.CoverURL),
		Description: enrichment.Description,
	})
}
