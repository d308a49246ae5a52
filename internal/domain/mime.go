package domain

// Media types emitted for tracks and auxiliary links.
const (
	MimeMP3 = "audio/mpeg"
	MimeZip = "application/zip"
	MimeRSS = "application/rss+xml"
)
