// Package id mints canonical audiobook identifiers.
package id

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/text/unicode/norm"

	"github.com/listenupapp/listenup-addon/internal/domain"
)

const suffixLength = 8

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases s, collapses every run of non-alphanumeric characters to
// a single hyphen and trims hyphens from both ends.
// "Pride & Prejudice-Jane Austen" -> "pride-prejudice-jane-austen".
// "Les Misérables" -> "les-miserables".
func Slugify(s string) string {
	s = norm.NFKD.String(s)
	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)
	s = strings.ToLower(s)
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Canonical builds the undisambiguated id for a title/author pair.
func Canonical(title, author string) domain.CanonicalID {
	return domain.CanonicalID(domain.IDPrefix + Slugify(title+"-"+author))
}

// WithSuffix appends a disambiguator to id. The suffix is slugified so the
// result stays inside the id alphabet.
func WithSuffix(id domain.CanonicalID, suffix string) domain.CanonicalID {
	suffix = Slugify(suffix)
	if suffix == "" {
		return id
	}
	return domain.CanonicalID(id.String() + "-" + suffix)
}

// StableSuffix derives a short disambiguator from title and author. The same
// pair always yields the same suffix. The result is lower-case hex, so it is
// already slug-safe.
func StableSuffix(title, author string) string {
	key := strings.ToLower(strings.TrimSpace(title)) + "\x00" + strings.ToLower(strings.TrimSpace(author))
	sum := uuid.NewSHA1(uuid.NameSpaceOID, []byte(key))
	return strings.ReplaceAll(sum.String(), "-", "")[:suffixLength]
}

// Generate creates a prefixed random id, e.g. "res-V1StGXR8_Z5jdHi6B-myT".
// Used for log correlation, never for catalog ids.
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate(prefix string) (string, error) {
	s, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + s, nil
}

// GuessTitle reconstructs a lossy title from an id's slug, turning hyphens
// into spaces. Used when the catalog index has no entry for the id.
func GuessTitle(id domain.CanonicalID) string {
	return strings.TrimSpace(strings.ReplaceAll(id.Slug(), "-", " "))
}
