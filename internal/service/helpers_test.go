package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/listenupapp/listenup-addon/internal/domain"
	"github.com/listenupapp/listenup-addon/internal/logger"
	"github.com/listenupapp/listenup-addon/internal/media/covers"
	"github.com/listenupapp/listenup-addon/internal/search"
	"github.com/listenupapp/listenup-addon/internal/store"
)

var errUpstream = errors.New("upstream down")

type fakeCatalog struct {
	mu      sync.Mutex
	records map[string]*domain.SourceRecord
	page    []domain.SourceRecord
	fetches int
	limit   int
	offset  int
}

func (f *fakeCatalog) List(_ context.Context, limit, offset int) []domain.SourceRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limit, f.offset = limit, offset
	return f.page
}

func (f *fakeCatalog) FetchByID(_ context.Context, key string) (*domain.SourceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	rec, ok := f.records[key]
	if !ok {
		return nil, errUpstream
	}
	clone := *rec
	return &clone, nil
}

type fakeEnrichment struct {
	result *domain.Enrichment
	err    error
	calls  []string
}

func (f *fakeEnrichment) Search(_ context.Context, title, author string) (*domain.Enrichment, error) {
	f.calls = append(f.calls, title+"|"+author)
	if f.err != nil {
		return nil, f.err
	}
	if f.result == nil {
		return nil, errUpstream
	}
	clone := *f.result
	return &clone, nil
}

type fakeFeeds struct {
	tracks []domain.Track
	calls  []string
}

func (f *fakeFeeds) Expand(_ context.Context, feedURL string) []domain.Track {
	f.calls = append(f.calls, feedURL)
	return f.tracks
}

type fakeScraper struct {
	result *domain.ScrapeResult
	err    error
}

func (f *fakeScraper) Resolve(context.Context, string) (*domain.ScrapeResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeSearcher struct {
	hits []search.Hit
	err  error
}

func (f *fakeSearcher) Search(context.Context, search.Params) ([]search.Hit, error) {
	return f.hits, f.err
}

func ptr[T any](v T) *T { return &v }

func newTestIndex(t *testing.T) *store.BadgerIndex {
	t.Helper()
	index, err := store.New(store.Options{}, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	return index
}

func newTestCovers(t *testing.T) *covers.Resolver {
	t.Helper()
	r, err := covers.NewResolver(nil)
	require.NoError(t, err)
	return r
}

// prideRecord is a catalog record with sections out of order, one non-audio
// file and both whole-book links.
func prideRecord() *domain.SourceRecord {
	return &domain.SourceRecord{
		SourceKey:    "123",
		Title:        "Pride and Prejudice",
		Author:       "Jane Austen",
		Description:  "Catalog description",
		CoverURL:     "https://librivox.org/pride/cover.jpg",
		ArchiveURL:   "https://archive.org/details/pride_prejudice_librivox",
		SiteURL:      "https://librivox.org/pride/",
		FeedURL:      "https://librivox.org/rss/123",
		ZipURL:       "https://archive.org/download/pride/pride_64kb_mp3.zip",
		TotalSeconds: ptr(3600.0),
		Sections: []domain.RawSection{
			{Number: ptr(2), Title: "Chapter 2", FileURL: "http://archive.org/download/pride/02.mp3", DurationSeconds: ptr(600.0)},
			{Number: ptr(1), Title: "Chapter 1", FileURL: "https://archive.org/download/pride/01.mp3", DurationSeconds: ptr(500.0)},
			{Number: ptr(3), Title: "", FileURL: "https://archive.org/download/pride/03.ogg"},
		},
	}
}
