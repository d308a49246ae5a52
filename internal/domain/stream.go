package domain

// Provider labels used as stream names.
const (
	SourceLibriVox    = "LibriVox"
	SourceLibriVoxRSS = "LibriVox RSS"
	SourceAudioAZ     = "AudioAZ"
)

// Stream is the client-facing form of a Track.
type Stream struct {
	Name     string   `json:"name"`
	Title    string   `json:"title"`
	URL      string   `json:"url"`
	Mime     string   `json:"mime"`
	Duration *float64 `json:"duration,omitempty"`
}

// Stream converts t to its wire form. Feed links are named after the feed;
// everything else after the track's source, the catalog by default.
func (t Track) Stream() Stream {
	name := t.Source
	switch {
	case t.MimeType == MimeRSS:
		name = SourceLibriVoxRSS
	case name == "":
		name = SourceLibriVox
	}
	return Stream{
		Name:     name,
		Title:    t.Title,
		URL:      t.URL,
		Mime:     t.MimeType,
		Duration: t.DurationSeconds,
	}
}

// ContentType is the only content type the add-on serves.
const ContentType = "other"

// PopularCatalogID names the single browsable catalog.
const PopularCatalogID = "audiobook.popular"

// MetaPreview is the short form of a work shown in catalog and search results.
type MetaPreview struct {
	ID          CanonicalID `json:"id"`
	Type        string      `json:"type"`
	Name        string      `json:"name"`
	Poster      string      `json:"poster,omitempty"`
	Description string      `json:"description"`
}
