package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/listenupapp/listenup-addon/internal/domain"
	"github.com/listenupapp/listenup-addon/internal/id"
	"github.com/listenupapp/listenup-addon/internal/store"
)

// IDMinter mints canonical ids and records them in the catalog index.
//
// The base id is the slug of title and author. A base already indexed for a
// different catalog key gets that key as a suffix. A keyless entry whose base
// is already indexed reuses it and leaves the stored entry alone, so
// "Dr. Jekyll" and "Dr Jekyll" share one id and keep any key already recorded.
// Minting is deterministic: the same entry always yields the same id.
type IDMinter struct {
	index  store.CatalogIndex
	logger *slog.Logger

	// Serialises the read-then-write in Mint.
	mu sync.Mutex
}

// NewIDMinter creates a minter over index.
func NewIDMinter(index store.CatalogIndex, logger *slog.Logger) *IDMinter {
	return &IDMinter{index: index, logger: logger}
}

// Mint returns the id for entry and stores entry under it. An index failure
// is logged and the id is still returned.
func (m *IDMinter) Mint(ctx context.Context, entry domain.IndexEntry) domain.CanonicalID {
	entry.Title = strings.TrimSpace(entry.Title)
	entry.Author = strings.TrimSpace(entry.Author)
	entry.SourceKey = strings.TrimSpace(entry.SourceKey)
	entry.PosterURL = strings.TrimSpace(entry.PosterURL)

	m.mu.Lock()
	defer m.mu.Unlock()

	base := id.Canonical(entry.Title, entry.Author)
	if !base.Valid() {
		minted := domain.CanonicalID(domain.IDPrefix + id.StableSuffix(entry.Title, entry.Author))
		m.put(ctx, minted, entry)
		return minted
	}

	existing, err := m.index.Get(ctx, base)
	if err != nil {
		m.logger.Warn("catalog index lookup failed", "id", base, "error", err)
	}

	switch {
	case existing == nil:
		m.put(ctx, base, entry)
		return base

	case entry.SourceKey != "":
		// Same key, or a keyless entry gaining its key.
		if existing.SourceKey == entry.SourceKey || existing.SourceKey == "" {
			entry, _ = fillPresentation(entry, *existing)
			m.put(ctx, base, entry)
			return base
		}
		minted := id.WithSuffix(base, entry.SourceKey)
		m.put(ctx, minted, entry)
		return minted

	default:
		// Keep the existing entry; it may carry a catalog key this one lacks.
		// Only blank presentation fields are filled in.
		if merged, changed := fillPresentation(*existing, entry); changed {
			m.put(ctx, base, merged)
		}
		return base
	}
}

func (m *IDMinter) put(ctx context.Context, cid domain.CanonicalID, entry domain.IndexEntry) {
	if err := m.index.Put(ctx, cid, entry); err != nil {
		m.logger.Warn("catalog index write failed", "id", cid, "error", err)
	}
}

// Lookup returns the indexed entry for cid, or a title guessed from its slug
// when the index has none.
func (m *IDMinter) Lookup(ctx context.Context, cid domain.CanonicalID) domain.IndexEntry {
	entry, err := m.index.Get(ctx, cid)
	if err != nil {
		m.logger.Warn("catalog index lookup failed", "id", cid, "error", err)
	}
	if entry != nil {
		return *entry
	}
	return domain.IndexEntry{Title: id.GuessTitle(cid)}
}

// fillPresentation copies poster and description from src into the blank
// fields of dst and reports whether anything changed.
func fillPresentation(dst, src domain.IndexEntry) (domain.IndexEntry, bool) {
	changed := false
	if dst.PosterURL == "" && src.PosterURL != "" {
		dst.PosterURL = src.PosterURL
		changed = true
	}
	if dst.Description == "" && src.Description != "" {
		dst.Description = src.Description
		changed = true
	}
	return dst, changed
}
