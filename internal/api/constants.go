package api

// Add-on manifest values.
const (
	ManifestID          = "com.example.audiobooks"
	ManifestVersion     = "3.1.0"
	ManifestName        = "Example Audiobooks (LibriVox + AudioAZ + RSS)"
	ManifestDescription = "LibriVox catalog with Open Library enrichment, AudioAZ streams, and LibriVox RSS expansion"

	popularCatalogName = "Popular Audiobooks"
)

// Cache-Control header values.
const (
	CacheOneDay  = "public, max-age=86400"
	CacheOneHour = "public, max-age=3600"
	CacheNoStore = "no-cache"
)

// jsonSuffix ends every add-on resource path segment.
const jsonSuffix = ".json"
