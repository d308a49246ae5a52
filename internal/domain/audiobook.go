// Package domain contains the core entities shared by the source clients, the resolver and the relay.
package domain

import "strings"

// IDPrefix prefixes every canonical audiobook id.
const IDPrefix = "audiobook:"

// CanonicalID correlates catalog, meta and stream calls within a session.
// Format: audiobook:<slug>[-<disambiguator>]. Not globally persistent.
type CanonicalID string

// Slug returns the id without its prefix.
func (id CanonicalID) Slug() string {
	return strings.TrimPrefix(string(id), IDPrefix)
}

// Valid reports whether the id carries the audiobook prefix and a non-empty slug.
func (id CanonicalID) Valid() bool {
	return strings.HasPrefix(string(id), IDPrefix) && id.Slug() != ""
}

// String implements fmt.Stringer.
func (id CanonicalID) String() string {
	return string(id)
}

// RawSection is a per-track entry exactly as a source exposed it, before ordering.
type RawSection struct {
	Number          *int     `json:"number,omitempty"`
	Title           string   `json:"title"`
	FileURL         string   `json:"file_url"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`
}

// SourceRecord is the raw per-source view of a work. Transient.
type SourceRecord struct {
	SourceKey    string       `json:"source_key"`
	Title        string       `json:"title"`
	Author       string       `json:"author,omitempty"`
	Description  string       `json:"description,omitempty"`
	CoverURL     string       `json:"cover_url,omitempty"`
	ArchiveURL   string       `json:"archive_url,omitempty"`
	SiteURL      string       `json:"site_url,omitempty"`
	FeedURL      string       `json:"feed_url,omitempty"`
	ZipURL       string       `json:"zip_url,omitempty"`
	TotalSeconds *float64     `json:"total_seconds,omitempty"`
	Sections     []RawSection `json:"sections,omitempty"`
}

// Enrichment is the secondary metadata found for a title/author pair.
type Enrichment struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	CoverURL    string `json:"cover_url,omitempty"`
	Description string `json:"description,omitempty"`
	Year        int    `json:"year,omitempty"`
}

// Track is one playable audio file. Identity is the normalized URL.
type Track struct {
	Index           int      `json:"index"`
	Title           string   `json:"title"`
	URL             string   `json:"url"`
	MimeType        string   `json:"mime"`
	DurationSeconds *float64 `json:"duration,omitempty"`
	// Source names the provider shown to listeners; empty means the catalog.
	Source string `json:"source,omitempty"`
	// Name is the source-given title without numbering. It is authoritative
	// once Index is set; an unnumbered track takes its name from Title.
	Name string `json:"-"`
}

// Chapter is a display entry in the canonical meta.
type Chapter struct {
	Title string  `json:"title"`
	Start float64 `json:"start"`
}

// CanonicalMeta is the merged record for one audiobook. Built per request.
type CanonicalMeta struct {
	ID              CanonicalID `json:"id"`
	Name            string      `json:"name"`
	Author          string      `json:"author"`
	Description     string      `json:"description"`
	PosterURL       string      `json:"poster,omitempty"`
	DurationSeconds *float64    `json:"duration,omitempty"`
	Chapters        []Chapter   `json:"chapters"`
}

// IndexEntry is what the catalog index remembers about a minted id.
type IndexEntry struct {
	Title     string `json:"title"`
	Author    string `json:"author,omitempty"`
	SourceKey string `json:"source_key,omitempty"`

	// Upstream poster (never a relay URL) and description, shown on local
	// search hits.
	PosterURL   string `json:"poster_url,omitempty"`
	Description string `json:"description,omitempty"`
}

// ScrapeResult is what a scraped page yields.
type ScrapeResult struct {
	Title  string  `json:"title,omitempty"`
	Author string  `json:"author,omitempty"`
	Tracks []Track `json:"tracks"`
}
