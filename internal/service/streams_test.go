package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/listenup-addon/internal/domain"
	domainerrors "github.com/listenupapp/listenup-addon/internal/errors"
	"github.com/listenupapp/listenup-addon/internal/logger"
)

type streamFixture struct {
	svc     *StreamService
	minter  *IDMinter
	scraper *fakeScraper
	feeds   *fakeFeeds
	cid     domain.CanonicalID
}

func newStreamFixture(t *testing.T) *streamFixture {
	t.Helper()
	catalog := &fakeCatalog{records: map[string]*domain.SourceRecord{"123": prideRecord()}}
	feeds := &fakeFeeds{}
	scraper := &fakeScraper{}
	minter := NewIDMinter(newTestIndex(t), logger.Discard())
	resolver := newTestResolver(t, catalog, &fakeEnrichment{}, feeds)

	cid := minter.Mint(context.Background(), domain.IndexEntry{
		Title:     "Pride and Prejudice",
		Author:    "Jane Austen",
		SourceKey: "123",
	})

	return &streamFixture{
		svc:     NewStreamService(resolver, minter, scraper, feeds, logger.Discard()),
		minter:  minter,
		scraper: scraper,
		feeds:   feeds,
		cid:     cid,
	}
}

func TestStreams_CatalogTracksThenExtras(t *testing.T) {
	f := newStreamFixture(t)

	streams, err := f.svc.Streams(context.Background(), StreamRequest{ID: f.cid})
	require.NoError(t, err)
	require.Len(t, streams, 4)

	assert.Equal(t, "Track 1: Chapter 1", streams[0].Title)
	assert.Equal(t, "LibriVox", streams[0].Name)
	assert.Equal(t, "audio/mpeg", streams[0].Mime)
	require.NotNil(t, streams[0].Duration)
	assert.InDelta(t, 500, *streams[0].Duration, 0)
	assert.Equal(t, "LibriVox ZIP (all tracks)", streams[2].Title)
	assert.Equal(t, "LibriVox RSS", streams[3].Name)
	assert.Empty(t, f.feeds.calls)
}

func TestStreams_ExpandsFeed(t *testing.T) {
	f := newStreamFixture(t)
	f.feeds.tracks = []domain.Track{{Title: "Epilogue", URL: "https://archive.org/download/pride/99.mp3", MimeType: domain.MimeMP3}}

	streams, err := f.svc.Streams(context.Background(), StreamRequest{ID: f.cid, ExpandSecondary: true})
	require.NoError(t, err)

	require.Len(t, streams, 5)
	assert.Equal(t, "Track 3: Epilogue", streams[2].Title)
	assert.Equal(t, []string{"https://librivox.org/rss/123"}, f.feeds.calls)
}

func TestStreams_ScrapeHintFirst(t *testing.T) {
	f := newStreamFixture(t)
	f.scraper.result = &domain.ScrapeResult{Tracks: []domain.Track{
		{Index: 1, Title: "Part A", Name: "Part A", URL: "https://cdn.audioaz.com/a.mp3", MimeType: domain.MimeMP3, Source: domain.SourceAudioAZ},
		{Index: 2, Title: "Part B", Name: "Part B", URL: "https://cdn.audioaz.com/b.mp3", MimeType: domain.MimeMP3, Source: domain.SourceAudioAZ},
	}}

	streams, err := f.svc.Streams(context.Background(), StreamRequest{ID: f.cid, ScrapeHint: "https://audioaz.com/en/audiobook/pride"})
	require.NoError(t, err)
	require.Len(t, streams, 6)

	assert.Equal(t, "AudioAZ", streams[0].Name)
	assert.Equal(t, "Track 1: Part A", streams[0].Title)
	assert.Equal(t, "Track 2: Part B", streams[1].Title)
	assert.Equal(t, "LibriVox", streams[2].Name)
	assert.Equal(t, "Track 3: Chapter 1", streams[2].Title)
	assert.Equal(t, "Track 4: Chapter 2", streams[3].Title)
}

func TestStreams_ScrapeHintFailureIgnored(t *testing.T) {
	f := newStreamFixture(t)
	f.scraper.err = errUpstream

	streams, err := f.svc.Streams(context.Background(), StreamRequest{ID: f.cid, ScrapeHint: "https://audioaz.com/x"})
	require.NoError(t, err)
	assert.Len(t, streams, 4)
	assert.Equal(t, "Track 1: Chapter 1", streams[0].Title)
}

func TestStreams_ProxiesURLs(t *testing.T) {
	f := newStreamFixture(t)

	streams, err := f.svc.Streams(context.Background(), StreamRequest{ID: f.cid, BaseURL: "http://localhost:7000"})
	require.NoError(t, err)
	require.NotEmpty(t, streams)

	assert.Equal(t, "http://localhost:7000/proxy?u=https%3A%2F%2Farchive.org%2Fdownload%2Fpride%2F01.mp3", streams[0].URL)
	for _, s := range streams {
		assert.Contains(t, s.URL, "http://localhost:7000/proxy?u=")
	}
}

func TestStreams_InvalidID(t *testing.T) {
	f := newStreamFixture(t)

	_, err := f.svc.Streams(context.Background(), StreamRequest{ID: "tt12345"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestStreams_UnknownIDUsesSlug(t *testing.T) {
	f := newStreamFixture(t)

	streams, err := f.svc.Streams(context.Background(), StreamRequest{ID: "audiobook:unknown-book"})
	require.NoError(t, err)
	assert.NotNil(t, streams)
	assert.Empty(t, streams)
}

func TestMeta(t *testing.T) {
	f := newStreamFixture(t)

	meta, err := f.svc.Meta(context.Background(), f.cid, "")
	require.NoError(t, err)
	assert.Equal(t, f.cid, meta.ID)
	assert.Equal(t, "Pride and Prejudice", meta.Name)
	assert.Equal(t, "Jane Austen", meta.Author)
	assert.Len(t, meta.Chapters, 3)
	assert.Empty(t, f.feeds.calls, "meta never expands feeds")
}

func TestScrapePage(t *testing.T) {
	f := newStreamFixture(t)
	f.scraper.result = &domain.ScrapeResult{Title: "Pride", Tracks: []domain.Track{}}

	res, err := f.svc.ScrapePage(context.Background(), "https://audioaz.com/x")
	require.NoError(t, err)
	assert.Equal(t, "Pride", res.Title)

	disabled := NewStreamService(nil, f.minter, nil, nil, logger.Discard())
	_, err = disabled.ScrapePage(context.Background(), "https://audioaz.com/x")
	assert.ErrorIs(t, err, domainerrors.ErrSourceUnavailable)
	assert.Empty(t, disabled.ExpandFeed(context.Background(), "https://librivox.org/rss/1"))
}
