package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/listenup-addon/internal/domain"
	"github.com/listenupapp/listenup-addon/internal/service"
)

// Resource paths end in ".json". The suffix is stripped from the last path
// parameter because catalog ids contain dots of their own.
func (s *Server) registerAddonRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getCatalog",
		Method:      http.MethodGet,
		Path:        "/catalog/{type}/{id}",
		Summary:     "Catalog page",
		Description: "Lists one page of the popular audiobook catalog",
		Tags:        []string{"Add-on"},
	}, s.handleGetCatalog)

	huma.Register(s.api, huma.Operation{
		OperationID: "getMeta",
		Method:      http.MethodGet,
		Path:        "/meta/{type}/{id}",
		Summary:     "Audiobook meta",
		Description: "Resolves the merged record for one audiobook",
		Tags:        []string{"Add-on"},
	}, s.handleGetMeta)

	huma.Register(s.api, huma.Operation{
		OperationID: "getStreams",
		Method:      http.MethodGet,
		Path:        "/stream/{type}/{id}",
		Summary:     "Audiobook streams",
		Description: "Lists playable tracks for one audiobook, relayed through this server",
		Tags:        []string{"Add-on"},
	}, s.handleGetStreams)

	huma.Register(s.api, huma.Operation{
		OperationID: "search",
		Method:      http.MethodGet,
		Path:        "/search.json",
		Summary:     "Search audiobooks",
		Description: "Searches indexed audiobooks and the enrichment source. Accepts \"title - author\"",
		Tags:        []string{"Add-on"},
	}, s.handleSearch)
}

// === DTOs ===

// CatalogInput selects a catalog page.
type CatalogInput struct {
	Type   string `path:"type" doc:"Content type"`
	ID     string `path:"id" doc:"Catalog id followed by .json"`
	Limit  string `query:"limit" doc:"Page size, 1-100 (default 50)"`
	Offset string `query:"offset" doc:"Page offset (default 0)"`
}

// MetasResponse lists meta previews.
type MetasResponse struct {
	Metas []domain.MetaPreview `json:"metas" doc:"Meta previews"`
}

// MetasOutput wraps a meta preview list for Huma.
type MetasOutput struct {
	CacheControl string `header:"Cache-Control"`
	Body         MetasResponse
}

// ResourceInput addresses one audiobook.
type ResourceInput struct {
	Type string `path:"type" doc:"Content type"`
	ID   string `path:"id" doc:"Audiobook id followed by .json"`
}

// AudiobookDetails carries the audiobook-specific meta fields.
type AudiobookDetails struct {
	Author   string           `json:"author" doc:"Author name"`
	Duration *float64         `json:"duration,omitempty" doc:"Total duration in seconds"`
	Chapters []domain.Chapter `json:"chapters" doc:"Chapter list"`
}

// MetaDetail is the wire form of a canonical meta.
type MetaDetail struct {
	ID          domain.CanonicalID `json:"id" doc:"Audiobook id"`
	Type        string             `json:"type" doc:"Content type"`
	Name        string             `json:"name" doc:"Title"`
	Description string             `json:"description" doc:"Description"`
	Poster      string             `json:"poster,omitempty" doc:"Relayed cover URL"`
	Audiobook   AudiobookDetails   `json:"audiobook"`
}

// MetaResponse wraps a meta detail.
type MetaResponse struct {
	Meta MetaDetail `json:"meta"`
}

// MetaOutput wraps the meta response for Huma.
type MetaOutput struct {
	Body MetaResponse
}

// StreamInput addresses one audiobook's streams.
type StreamInput struct {
	Type      string `path:"type" doc:"Content type"`
	ID        string `path:"id" doc:"Audiobook id followed by .json"`
	ExpandRSS string `query:"expandRss" doc:"Set to 0 to skip feed expansion (default 1)"`
	AudioAZ   string `query:"audioaz" doc:"Optional scraped-site page whose tracks are listed first"`
}

// StreamsResponse lists streams.
type StreamsResponse struct {
	Streams []domain.Stream `json:"streams" doc:"Playable streams"`
}

// StreamsOutput wraps the streams response for Huma.
type StreamsOutput struct {
	Body StreamsResponse
}

// SearchInput contains the free-text query.
type SearchInput struct {
	Query string `query:"q" maxLength:"200" doc:"Search query, optionally \"title - author\""`
}

// === Handlers ===

func (s *Server) handleGetCatalog(ctx context.Context, input *CatalogInput) (*MetasOutput, error) {
	metas := s.services.Catalog.List(ctx, service.ListRequest{
		Type:      input.Type,
		CatalogID: resourceID(input.ID),
		Limit:     lenientInt(input.Limit),
		Offset:    lenientInt(input.Offset),
		BaseURL:   getBaseURL(ctx),
	})
	return &MetasOutput{CacheControl: CacheOneHour, Body: MetasResponse{Metas: metas}}, nil
}

func (s *Server) handleGetMeta(ctx context.Context, input *ResourceInput) (*MetaOutput, error) {
	if input.Type != domain.ContentType {
		return nil, huma.Error404NotFound("wrong type")
	}

	meta, err := s.services.Streams.Meta(ctx, domain.CanonicalID(resourceID(input.ID)), getBaseURL(ctx))
	if err != nil {
		return nil, err
	}

	chapters := meta.Chapters
	if chapters == nil {
		chapters = []domain.Chapter{}
	}
	return &MetaOutput{Body: MetaResponse{Meta: MetaDetail{
		ID:          meta.ID,
		Type:        domain.ContentType,
		Name:        meta.Name,
		Description: meta.Description,
		Poster:      meta.PosterURL,
		Audiobook: AudiobookDetails{
			Author:   meta.Author,
			Duration: meta.DurationSeconds,
			Chapters: chapters,
		},
	}}}, nil
}

func (s *Server) handleGetStreams(ctx context.Context, input *StreamInput) (*StreamsOutput, error) {
	if input.Type != domain.ContentType {
		return nil, huma.Error404NotFound("wrong type")
	}

	streams, err := s.services.Streams.Streams(ctx, service.StreamRequest{
		ID:              domain.CanonicalID(resourceID(input.ID)),
		ExpandSecondary: input.ExpandRSS != "0",
		ScrapeHint:      input.AudioAZ,
		BaseURL:         getBaseURL(ctx),
	})
	if err != nil {
		return nil, err
	}
	return &StreamsOutput{Body: StreamsResponse{Streams: streams}}, nil
}

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*MetasOutput, error) {
	metas := s.services.Search.Search(ctx, input.Query, getBaseURL(ctx))
	return &MetasOutput{CacheControl: CacheNoStore, Body: MetasResponse{Metas: metas}}, nil
}

// resourceID strips the ".json" suffix and any percent-encoding from a path id.
func resourceID(raw string) string {
	raw = strings.TrimSuffix(raw, jsonSuffix)
	if unescaped, err := url.PathUnescape(raw); err == nil {
		return unescaped
	}
	return raw
}

// lenientInt parses a query integer, treating anything unparseable as unset.
func lenientInt(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return n
}
