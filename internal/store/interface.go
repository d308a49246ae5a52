// Package store persists the catalog index: the mapping from minted canonical
// ids to the title, author and catalog key they were minted from.
package store

import (
	"context"

	"github.com/listenupapp/listenup-addon/internal/domain"
)

// CatalogIndex remembers what each minted id refers to.
type CatalogIndex interface {
	// Put records entry under id, replacing any earlier entry.
	Put(ctx context.Context, id domain.CanonicalID, entry domain.IndexEntry) error
	// Get returns nil, nil when id is unknown or its entry has expired.
	Get(ctx context.Context, id domain.CanonicalID) (*domain.IndexEntry, error)
}

// SearchIndexer keeps the full-text index in step with the catalog index.
type SearchIndexer interface {
	IndexEntry(ctx context.Context, id domain.CanonicalID, entry domain.IndexEntry) error
}

// NoopSearchIndexer ignores every entry.
type NoopSearchIndexer struct{}

// IndexEntry is a no-op.
func (NoopSearchIndexer) IndexEntry(context.Context, domain.CanonicalID, domain.IndexEntry) error {
	return nil
}
