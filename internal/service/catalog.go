package service

import (
	"context"
	"log/slog"

	"github.com/listenupapp/listenup-addon/internal/domain"
	"github.com/listenupapp/listenup-addon/internal/media/covers"
	"github.com/listenupapp/listenup-addon/internal/relay"
)

// Catalog paging bounds.
const (
	DefaultCatalogLimit = 50
	MaxCatalogLimit     = 100
)

// ListRequest selects a catalog page.
type ListRequest struct {
	Type      string
	CatalogID string
	Limit     int
	Offset    int
	BaseURL   string // Prefix for poster relay URLs
}

// CatalogService lists catalog pages and indexes every work it shows.
type CatalogService struct {
	catalog CatalogSource
	covers  *covers.Resolver
	minter  *IDMinter
	logger  *slog.Logger
}

// NewCatalogService creates a catalog service.
func NewCatalogService(catalog CatalogSource, coverResolver *covers.Resolver, minter *IDMinter, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		catalog: catalog,
		covers:  coverResolver,
		minter:  minter,
		logger:  logger,
	}
}

// ClampPage applies the catalog paging rules: limit 1..100 with 50 for
// anything unset, offset at least 0.
func ClampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultCatalogLimit
	}
	limit = min(limit, MaxCatalogLimit)
	return limit, max(offset, 0)
}

// List returns one page of the popular catalog. Unknown types or catalogs
// and upstream failures give an empty page.
func (s *CatalogService) List(ctx context.Context, req ListRequest) []domain.MetaPreview {
	if req.Type != domain.ContentType || req.CatalogID != domain.PopularCatalogID {
		return []domain.MetaPreview{}
	}
	limit, offset := ClampPage(req.Limit, req.Offset)

	records := s.catalog.List(ctx, limit, offset)
	metas := make([]domain.MetaPreview, 0, len(records))
	for _, rec := range records {
		// Enrichment is deferred to meta resolution to keep listing fast.
		poster := s.covers.Resolve(covers.Candidates{
			ArchiveURL: rec.ArchiveURL,
			SiteURL:    rec.SiteURL,
		})

		cid := s.minter.Mint(ctx, domain.IndexEntry{
			Title:       rec.Title,
			Author:      rec.Author,
			SourceKey:   rec.SourceKey,
			PosterURL:   poster,
			Description: rec.Description,
		})

		metas = append(metas, domain.MetaPreview{
			ID:          cid,
			Type:        domain.ContentType,
			Name:        rec.Title,
			Poster:      relay.ImageURL(req.BaseURL, poster),
			Description: rec.Description,
		})
	}

	s.logger.Debug("listed catalog page", "limit", limit, "offset", offset, "count", len(metas))
	return metas
}
