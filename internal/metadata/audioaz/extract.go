package audioaz

import (
	"bytes"
	"encoding/json/v2"
	"log/slog"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/listenupapp/listenup-addon/internal/domain"
	domainerrors "github.com/listenupapp/listenup-addon/internal/errors"
	"github.com/listenupapp/listenup-addon/internal/metadata"
)

// maxDepth caps the walk over the embedded payload.
const maxDepth = 32

var (
	pagePattern        = regexp.MustCompile(`(?i)audioaz\.com/(en|vi|es|de|ru|zh)/audiobook/`)
	mp3LinkPattern     = regexp.MustCompile(`(?i)https?://[^\s"'<>]+?\.mp3(?:\?[^\s"'<>]*)?`)
	sectionLinePattern = regexp.MustCompile(`(?i)^\d+\.\s+(Section|Chapter|Track)\b`)
	ordinalPrefix      = regexp.MustCompile(`^\d+\.\s+`)
)

// Extract pulls title, author and tracks out of a page. Structured data wins;
// the regex scrape only runs when the payload is missing or holds no mp3
// track list. Extraction problems are logged, never returned.
func Extract(page []byte, logger *slog.Logger) *domain.ScrapeResult {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		logger.Warn("audioaz html parse failed", "error", err)
		return scrapeLinks(string(page), string(page))
	}

	if payload := strings.TrimSpace(doc.Find("script#__NEXT_DATA__").First().Text()); payload != "" {
		tree, err := decodePayload(payload)
		if err != nil {
			logger.Warn("audioaz embedded payload malformed", "error", err)
		} else if result, ok := findTrackList(tree, 0); ok {
			return result
		}
	}

	return scrapeLinks(string(page), doc.Text())
}

// decodePayload decodes the page's embedded JSON data.
func decodePayload(payload string) (any, error) {
	var tree any
	if err := json.Unmarshal([]byte(payload), &tree); err != nil {
		return nil, domainerrors.ParseFailure(err, "decode embedded payload")
	}
	return tree, nil
}

// findTrackList walks tree depth first, object keys in sorted order, and
// returns the first object exposing a sections or tracks array with at least
// one mp3 entry.
func findTrackList(node any, depth int) (*domain.ScrapeResult, bool) {
	if depth > maxDepth {
		return nil, false
	}

	switch v := node.(type) {
	case map[string]any:
		if tracks := tracksFrom(v); len(tracks) > 0 {
			return &domain.ScrapeResult{
				Title:  firstString(v, "title", "book.title", "meta.title"),
				Author: firstString(v, "author.name", "book.author", "meta.author"),
				Tracks: tracks,
			}, true
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			if result, ok := findTrackList(v[k], depth+1); ok {
				return result, true
			}
		}
	case []any:
		for _, child := range v {
			if result, ok := findTrackList(child, depth+1); ok {
				return result, true
			}
		}
	}
	return nil, false
}

func tracksFrom(node map[string]any) []domain.Track {
	list, ok := node["sections"].([]any)
	if !ok {
		list, ok = node["tracks"].([]any)
	}
	if !ok {
		return nil
	}

	var tracks []domain.Track
	for i, raw := range list {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		audioURL := firstString(entry, "file_url", "url")
		if audioURL == "" || !metadata.IsMP3URL(audioURL) {
			continue
		}

		name := firstString(entry, "section_title", "title")
		title := name
		if title == "" {
			title = "Track " + strconv.Itoa(i+1)
		}
		duration := entryDuration(entry)
		if duration != nil {
			if clock := metadata.FormatClock(*duration); clock != "" {
				title += " • " + clock
				if name != "" {
					name = title
				}
			}
		}

		tracks = append(tracks, domain.Track{
			Index:           len(tracks) + 1,
			Title:           title,
			Name:            name,
			URL:             audioURL,
			MimeType:        domain.MimeMP3,
			DurationSeconds: duration,
			Source:          domain.SourceAudioAZ,
		})
	}
	return tracks
}

func entryDuration(entry map[string]any) *float64 {
	if secs, ok := entry["playtime_seconds"].(float64); ok {
		return &secs
	}
	if clock, ok := entry["playtime"].(string); ok {
		return metadata.ParseClock(clock)
	}
	return nil
}

// firstString returns the first non-empty string found at any of the dotted paths.
func firstString(node map[string]any, paths ...string) string {
	for _, path := range paths {
		var cur any = node
		for _, key := range strings.Split(path, ".") {
			m, ok := cur.(map[string]any)
			if !ok {
				cur = nil
				break
			}
			cur = m[key]
		}
		if s, ok := cur.(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// scrapeLinks collects distinct mp3 links in document order and labels them
// with ordinal section lines from the page text, position by position.
func scrapeLinks(markup, text string) *domain.ScrapeResult {
	links := mp3LinkPattern.FindAllString(markup, -1)
	seen := make(map[string]bool, len(links))

	var labels []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if sectionLinePattern.MatchString(line) {
			labels = append(labels, strings.TrimSpace(ordinalPrefix.ReplaceAllString(line, "")))
		}
	}

	tracks := []domain.Track{}
	for _, link := range links {
		if seen[link] {
			continue
		}
		seen[link] = true

		i := len(tracks)
		var name string
		if i < len(labels) {
			name = labels[i]
		}
		title := name
		if title == "" {
			title = "Track " + strconv.Itoa(i+1)
		}
		tracks = append(tracks, domain.Track{
			Index:    i + 1,
			Title:    title,
			Name:     name,
			URL:      link,
			MimeType: domain.MimeMP3,
			Source:   domain.SourceAudioAZ,
		})
	}
	return &domain.ScrapeResult{Tracks: tracks}
}
