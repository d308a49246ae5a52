// Package service composes the source clients, cover resolver, track merger
// and catalog index into the operations the HTTP layer exposes.
package service

import (
	"context"

	"github.com/listenupapp/listenup-addon/internal/domain"
	"github.com/listenupapp/listenup-addon/internal/search"
)

// CatalogSource lists and fetches catalog records.
type CatalogSource interface {
	List(ctx context.Context, limit, offset int) []domain.SourceRecord
	FetchByID(ctx context.Context, sourceKey string) (*domain.SourceRecord, error)
}

// EnrichmentSource finds richer metadata for a title/author pair.
type EnrichmentSource interface {
	Search(ctx context.Context, title, author string) (*domain.Enrichment, error)
}

// FeedExpander turns a syndication feed into tracks. It never fails.
type FeedExpander interface {
	Expand(ctx context.Context, feedURL string) []domain.Track
}

// PageScraper extracts tracks from a third-party audiobook page.
type PageScraper interface {
	Resolve(ctx context.Context, pageURL string) (*domain.ScrapeResult, error)
}

// EntrySearcher finds indexed catalog entries.
type EntrySearcher interface {
	Search(ctx context.Context, params search.Params) ([]search.Hit, error)
}
