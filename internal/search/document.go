// Package search provides full-text lookup over catalog index entries using Bleve.
// Entries are indexed as they are minted so the search endpoint can return
// books seen in earlier catalog pages alongside remote results.
package search

import (
	"github.com/listenupapp/listenup-addon/internal/domain"
)

// Document is the structure stored in the Bleve index.
type Document struct {
	ID        string `json:"id"` // Canonical id
	Title     string `json:"title"`
	Author    string `json:"author,omitempty"`
	SourceKey string `json:"source_key,omitempty"`
}

// DocumentFromEntry converts an index entry to a search document.
func DocumentFromEntry(id domain.CanonicalID, entry domain.IndexEntry) *Document {
	return &Document{
		ID:        string(id),
		Title:     entry.Title,
		Author:    entry.Author,
		SourceKey: entry.SourceKey,
	}
}

// ToMap converts the document to a map so field names match the mapping.
func (d *Document) ToMap() map[string]any {
	m := map[string]any{
		"id":    d.ID,
		"title": d.Title,
	}
	if d.Author != "" {
		m["author"] = d.Author
	}
	if d.SourceKey != "" {
		m["source_key"] = d.SourceKey
	}
	return m
}
