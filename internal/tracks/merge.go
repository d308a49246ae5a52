// Package tracks orders, deduplicates and numbers the playable tracks of an audiobook.
package tracks

import (
	"cmp"
	"context"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/listenupapp/listenup-addon/internal/domain"
	"github.com/listenupapp/listenup-addon/internal/httpclient"
	"github.com/listenupapp/listenup-addon/internal/metadata"
)

var leadingNumber = regexp.MustCompile(`^\s*(\d{1,3})\b`)

// Provider lazily supplies secondary tracks. It is only called when merging.
type Provider func(ctx context.Context) []domain.Track

// Merge orders the primary sections, drops those without an mp3 URL, appends
// secondary tracks whose normalised URL is new, and numbers the result.
func Merge(ctx context.Context, primary []domain.RawSection, secondary Provider) []domain.Track {
	result := Order(primary)
	if secondary != nil {
		result = append(result, secondary(ctx)...)
	}
	return Relabel(Dedupe(result))
}

// Order sorts sections and converts them to tracks.
//
// Sections are sorted by their explicit number when every section has one and
// no two share it. Otherwise they are sorted by a 1-3 digit number leading the
// title, untitled-number sections last. Ties and the remaining cases keep input
// order. Sections without a recognisable mp3 URL are dropped after sorting.
func Order(sections []domain.RawSection) []domain.Track {
	sorted := slices.Clone(sections)

	switch {
	case explicitlyNumbered(sorted):
		slices.SortStableFunc(sorted, func(a, b domain.RawSection) int {
			return cmp.Compare(*a.Number, *b.Number)
		})
	case anyTitleNumber(sorted):
		slices.SortStableFunc(sorted, func(a, b domain.RawSection) int {
			return cmp.Compare(titleNumber(a.Title), titleNumber(b.Title))
		})
	}

	out := make([]domain.Track, 0, len(sorted))
	for _, s := range sorted {
		fileURL := httpclient.ToHTTPS(strings.TrimSpace(s.FileURL))
		if fileURL == "" || !metadata.IsMP3URL(fileURL) {
			continue
		}
		out = append(out, domain.Track{
			Title:           strings.TrimSpace(s.Title),
			URL:             fileURL,
			MimeType:        domain.MimeMP3,
			DurationSeconds: s.DurationSeconds,
		})
	}
	return out
}

// Dedupe keeps the first track for each normalised URL.
func Dedupe(list []domain.Track) []domain.Track {
	seen := make(map[string]bool, len(list))
	out := make([]domain.Track, 0, len(list))
	for _, t := range list {
		key := NormalizeURL(t.URL)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}

// Prepend places front before base, dropping base tracks already present in
// front, and renumbers the whole list.
func Prepend(front, base []domain.Track) []domain.Track {
	combined := make([]domain.Track, 0, len(front)+len(base))
	combined = append(combined, front...)
	combined = append(combined, base...)
	return Relabel(Dedupe(combined))
}

// Relabel sets Index to the 1-based position and the title to
// "Track {N}: {name}", or "Track {N}" for a track without a name. Numbered
// tracks are relabelled from Name and unnumbered ones from Title, so a
// "Track 03:" the source itself wrote is kept and relabelling twice gives the
// same result.
func Relabel(list []domain.Track) []domain.Track {
	out := make([]domain.Track, len(list))
	for i, t := range list {
		n := i + 1
		name := t.Name
		if t.Index == 0 {
			name = t.Title
		}
		name = strings.TrimSpace(name)

		t.Index = n
		t.Name = name
		if name == "" {
			t.Title = "Track " + strconv.Itoa(n)
		} else {
			t.Title = "Track " + strconv.Itoa(n) + ": " + name
		}
		out[i] = t
	}
	return out
}

// NormalizeURL is the identity used for deduplication: http becomes https,
// scheme and host are lower-cased and any fragment is removed.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(httpclient.ToHTTPS(raw))
	if err != nil {
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}

func explicitlyNumbered(sections []domain.RawSection) bool {
	if len(sections) == 0 {
		return false
	}
	seen := make(map[int]bool, len(sections))
	for _, s := range sections {
		if s.Number == nil || seen[*s.Number] {
			return false
		}
		seen[*s.Number] = true
	}
	return true
}

func anyTitleNumber(sections []domain.RawSection) bool {
	for _, s := range sections {
		if leadingNumber.MatchString(s.Title) {
			return true
		}
	}
	return false
}

// titleNumber returns the leading number of title, or a value past any
// three-digit number when there is none.
func titleNumber(title string) int {
	m := leadingNumber.FindStringSubmatch(title)
	if m == nil {
		return 1000
	}
	n, _ := strconv.Atoi(m[1])
	return n
}
