package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/listenup-addon/internal/domain"
)

func (s *Server) registerDebugRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "resolveScrapedPage",
		Method:      http.MethodGet,
		Path:        "/audioaz/resolve.json",
		Summary:     "Resolve a scraped page",
		Description: "Extracts title, author and tracks from one scraped-site page. Stream URLs are not relayed",
		Tags:        []string{"Debug"},
	}, s.handleResolveScrapedPage)

	huma.Register(s.api, huma.Operation{
		OperationID: "expandFeed",
		Method:      http.MethodGet,
		Path:        "/librivox/rss.json",
		Summary:     "Expand a feed",
		Description: "Lists the audio enclosures of one syndication feed",
		Tags:        []string{"Debug"},
	}, s.handleExpandFeed)
}

// PageURLInput carries the page or feed to inspect.
type PageURLInput struct {
	URL string `query:"url" doc:"Absolute http(s) URL"`
}

// ScrapedPageResponse is what a scraped page yields. Title and author are
// null when the page had no structured data.
type ScrapedPageResponse struct {
	Title   *string         `json:"title" doc:"Page title"`
	Author  *string         `json:"author" doc:"Page author"`
	Streams []domain.Stream `json:"streams" doc:"Extracted tracks"`
}

// ScrapedPageOutput wraps the scraped page response for Huma.
type ScrapedPageOutput struct {
	Body ScrapedPageResponse
}

// FeedItemsResponse lists a feed's tracks.
type FeedItemsResponse struct {
	Items []domain.Stream `json:"items" doc:"Feed tracks"`
}

// FeedItemsOutput wraps the feed response for Huma.
type FeedItemsOutput struct {
	Body FeedItemsResponse
}

func (s *Server) handleResolveScrapedPage(ctx context.Context, input *PageURLInput) (*ScrapedPageOutput, error) {
	pageURL := strings.TrimSpace(input.URL)
	if pageURL == "" {
		return nil, huma.Error400BadRequest("missing url")
	}

	out := &ScrapedPageOutput{Body: ScrapedPageResponse{Streams: []domain.Stream{}}}
	res, err := s.services.Streams.ScrapePage(ctx, pageURL)
	if err != nil {
		s.logger.Warn("scraped page resolve failed", "url", pageURL, "error", err)
		return out, nil
	}

	out.Body.Title = optional(res.Title)
	out.Body.Author = optional(res.Author)
	for _, t := range res.Tracks {
		out.Body.Streams = append(out.Body.Streams, t.Stream())
	}
	return out, nil
}

func (s *Server) handleExpandFeed(ctx context.Context, input *PageURLInput) (*FeedItemsOutput, error) {
	feedURL := strings.TrimSpace(input.URL)
	if feedURL == "" {
		return nil, huma.Error400BadRequest("missing url")
	}

	tracks := s.services.Streams.ExpandFeed(ctx, feedURL)
	items := make([]domain.Stream, 0, len(tracks))
	for _, t := range tracks {
		items = append(items, t.Stream())
	}
	return &FeedItemsOutput{Body: FeedItemsResponse{Items: items}}, nil
}

func optional(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}
