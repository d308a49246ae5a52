package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/listenup-addon/internal/domain"
	"github.com/listenupapp/listenup-addon/internal/logger"
	"github.com/listenupapp/listenup-addon/internal/search"
)

func TestSplitQuery(t *testing.T) {
	tests := []struct {
		q, title, author string
	}{
		{"Emma - Jane Austen", "Emma", "Jane Austen"},
		{"  Emma  ", "Emma", ""},
		{"Spider-Man", "Spider-Man", ""},
		{" - Jane Austen", "- Jane Austen", ""},
	}
	for _, tt := range tests {
		title, author := SplitQuery(tt.q)
		assert.Equal(t, tt.title, title, tt.q)
		assert.Equal(t, tt.author, author, tt.q)
	}
}

func TestSearch_LocalThenEnrichment(t *testing.T) {
	index := newTestIndex(t)
	enrichment := &fakeEnrichment{result: &domain.Enrichment{
		Title:       "Emma",
		Author:      "Jane Austen",
		CoverURL:    "https://covers.openlibrary.org/b/id/5-L.jpg",
		Description: "A novel",
	}}
	local := &fakeSearcher{hits: []search.Hit{{ID: "audiobook:emma-and-friends-anon", Title: "Emma and Friends"}}}
	svc := NewSearchService(enrichment, local, NewIDMinter(index, logger.Discard()), logger.Discard())

	metas := svc.Search(context.Background(), "Emma - Jane Austen", "http://localhost:7000")
	require.Len(t, metas, 2)
	assert.Equal(t, []string{"Emma|Jane Austen"}, enrichment.calls)

	assert.Equal(t, domain.CanonicalID("audiobook:emma-and-friends-anon"), metas[0].ID)
	assert.Equal(t, "Emma and Friends", metas[0].Name)

	assert.Equal(t, domain.CanonicalID("audiobook:emma-jane-austen"), metas[1].ID)
	assert.Equal(t, "other", metas[1].Type)
	assert.Equal(t, "A novel", metas[1].Description)
	assert.Equal(t, "http://localhost:7000/img?u=https%3A%2F%2Fcovers.openlibrary.org%2Fb%2Fid%2F5-L.jpg", metas[1].Poster)

	entry, err := index.Get(context.Background(), metas[1].ID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "Emma", entry.Title)
}

func TestSearch_DedupesLocalHit(t *testing.T) {
	index := newTestIndex(t)
	minter := NewIDMinter(index, logger.Discard())
	cid := minter.Mint(context.Background(), domain.IndexEntry{Title: "Emma", Author: "Jane Austen", SourceKey: "7"})

	enrichment := &fakeEnrichment{result: &domain.Enrichment{Title: "Emma", Author: "Jane Austen"}}
	local := &fakeSearcher{hits: []search.Hit{{ID: cid.String(), Title: "Emma"}}}
	svc := NewSearchService(enrichment, local, minter, logger.Discard())

	metas := svc.Search(context.Background(), "emma", "")
	require.Len(t, metas, 1)
	assert.Equal(t, cid, metas[0].ID)
}

func TestSearch_FailuresGiveFewerResults(t *testing.T) {
	svc := NewSearchService(
		&fakeEnrichment{err: errUpstream},
		&fakeSearcher{err: errUpstream},
		NewIDMinter(newTestIndex(t), logger.Discard()),
		logger.Discard(),
	)

	metas := svc.Search(context.Background(), "anything", "")
	assert.NotNil(t, metas)
	assert.Empty(t, metas)
}

func TestSearch_EmptyQuery(t *testing.T) {
	enrichment := &fakeEnrichment{}
	svc := NewSearchService(enrichment, nil, NewIDMinter(newTestIndex(t), logger.Discard()), logger.Discard())

	metas := svc.Search(context.Background(), "   ", "")
	assert.NotNil(t, metas)
	assert.Empty(t, metas)
	assert.Empty(t, enrichment.calls)
}

func TestSearch_EnrichmentWithoutTitle(t *testing.T) {
	index := newTestIndex(t)
	svc := NewSearchService(
		&fakeEnrichment{result: &domain.Enrichment{Author: "Someone"}},
		nil,
		NewIDMinter(index, logger.Discard()),
		logger.Discard(),
	)

	assert.Empty(t, svc.Search(context.Background(), "q", ""))
	count := 0
	require.NoError(t, index.Each(context.Background(), func(domain.CanonicalID, domain.IndexEntry) bool {
		count++
		return true
	}))
	assert.Zero(t, count)
}

func TestSearch_RepeatedQueryKeepsOneID(t *testing.T) {
	index := newTestIndex(t)
	minter := NewIDMinter(index, logger.Discard())
	ctx := context.Background()
	keyed := minter.Mint(ctx, domain.IndexEntry{Title: "Dr Jekyll and Mr Hyde", Author: "Robert Louis Stevenson", SourceKey: "42"})

	enrichment := &fakeEnrichment{result: &domain.Enrichment{Title: "Dr. Jekyll and Mr. Hyde", Author: "Robert Louis Stevenson"}}
	svc := NewSearchService(enrichment, nil, minter, logger.Discard())

	for range 3 {
		metas := svc.Search(ctx, "Dr. Jekyll and Mr. Hyde", "")
		require.Len(t, metas, 1)
		assert.Equal(t, keyed, metas[0].ID)
	}

	count := 0
	require.NoError(t, index.Each(ctx, func(domain.CanonicalID, domain.IndexEntry) bool {
		count++
		return true
	}))
	assert.Equal(t, 1, count, "repeated searches must not grow the index")
	assert.Equal(t, "42", minter.Lookup(ctx, keyed).SourceKey)
}

func TestSearch_LocalHitCarriesIndexedPresentation(t *testing.T) {
	index := newTestIndex(t)
	minter := NewIDMinter(index, logger.Discard())
	ctx := context.Background()
	cid := minter.Mint(ctx, domain.IndexEntry{
		Title:       "Emma",
		Author:      "Jane Austen",
		SourceKey:   "7",
		PosterURL:   "https://archive.org/services/img/emma",
		Description: "A novel",
	})

	local := &fakeSearcher{hits: []search.Hit{{ID: cid.String(), Title: "Emma"}}}
	svc := NewSearchService(&fakeEnrichment{err: errUpstream}, local, minter, logger.Discard())

	metas := svc.Search(ctx, "emma", "http://localhost:7000")
	require.Len(t, metas, 1)
	assert.Equal(t, "http://localhost:7000/img?u=https%3A%2F%2Farchive.org%2Fservices%2Fimg%2Femma", metas[0].Poster)
	assert.Equal(t, "A novel", metas[0].Description)
}
