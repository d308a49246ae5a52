package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Params configures a search.
type Params struct {
	Title  string // Matched against titles
	Author string // Optional; narrows results when set
	Limit  int
}

// Hit is one matching entry.
type Hit struct {
	ID        string  `json:"id"`
	Score     float64 `json:"score"`
	Title     string  `json:"title"`
	Author    string  `json:"author,omitempty"`
	SourceKey string  `json:"source_key,omitempty"`
}

// DefaultLimit caps results when Params.Limit is not positive.
const DefaultLimit = 10

// Search runs a title query, optionally constrained by author.
// An empty title returns no hits.
func (s *Index) Search(ctx context.Context, params Params) ([]Hit, error) {
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return []Hit{}, nil
	}
	limit := params.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildQuery(title, strings.TrimSpace(params.Author)), limit, 0, false)
	req.Fields = []string{"title", "author", "source_key"}
	req.SortBy([]string{"-_score", "_id"})

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hit := Hit{ID: h.ID, Score: h.Score}
		if v, ok := h.Fields["title"].(string); ok {
			hit.Title = v
		}
		if v, ok := h.Fields["author"].(string); ok {
			hit.Author = v
		}
		if v, ok := h.Fields["source_key"].(string); ok {
			hit.SourceKey = v
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// buildQuery matches the title with a typo-tolerant fallback and, when an
// author is given, requires it to match as well.
func buildQuery(title, author string) query.Query {
	titleMatch := bleve.NewMatchQuery(title)
	titleMatch.SetField("title")
	titleMatch.SetBoost(3.0)

	fuzzy := bleve.NewMatchQuery(title)
	fuzzy.SetField("title")
	fuzzy.SetFuzziness(1)
	fuzzy.SetBoost(0.8)

	textQuery := bleve.NewDisjunctionQuery(titleMatch, fuzzy)
	if author == "" {
		return textQuery
	}

	authorMatch := bleve.NewMatchQuery(author)
	authorMatch.SetField("author")
	return bleve.NewConjunctionQuery(textQuery, authorMatch)
}
