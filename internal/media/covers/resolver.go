// Package covers picks a single cover image URL for an audiobook from the
// candidates each source offers.
package covers

import (
	"fmt"
	"net/url"
	"strings"
)

// Rule names one way of producing a cover URL.
type Rule string

// Rules, in the default priority order.
const (
	// RuleArchive maps an Internet Archive item to its image service.
	RuleArchive Rule = "archive"
	// RuleEnrichment uses the cover found by the enrichment lookup as is.
	RuleEnrichment Rule = "enrichment"
	// RuleSite appends the conventional cover path to the catalog page URL.
	RuleSite Rule = "site"
)

const archiveImageBase = "https://archive.org/services/img/"

// DefaultPolicy is archive, then enrichment, then site.
var DefaultPolicy = []Rule{RuleArchive, RuleEnrichment, RuleSite}

// Candidates are the optional inputs a source may contribute.
type Candidates struct {
	ArchiveURL    string
	EnrichedCover string
	SiteURL       string
}

// Resolver applies an ordered policy. It is immutable and safe for concurrent use.
type Resolver struct {
	policy []Rule
}

// NewResolver builds a resolver for the given rule names. An empty list
// selects DefaultPolicy.
func NewResolver(rules []string) (*Resolver, error) {
	if len(rules) == 0 {
		return &Resolver{policy: DefaultPolicy}, nil
	}

	policy := make([]Rule, 0, len(rules))
	seen := make(map[Rule]bool, len(rules))
	for _, name := range rules {
		rule := Rule(strings.ToLower(strings.TrimSpace(name)))
		switch rule {
		case RuleArchive, RuleEnrichment, RuleSite:
		default:
			return nil, fmt.Errorf("unknown cover rule %q", name)
		}
		if !seen[rule] {
			seen[rule] = true
			policy = append(policy, rule)
		}
	}
	return &Resolver{policy: policy}, nil
}

// Policy returns a copy of the rule order.
func (r *Resolver) Policy() []Rule {
	return append([]Rule(nil), r.policy...)
}

// Resolve returns the URL produced by the first applicable rule, or "" when
// none applies. Later candidates are not consulted once a rule matches.
func (r *Resolver) Resolve(c Candidates) string {
	for _, rule := range r.policy {
		if u := apply(rule, c); u != "" {
			return u
		}
	}
	return ""
}

func apply(rule Rule, c Candidates) string {
	switch rule {
	case RuleArchive:
		if id := ArchiveIdentifier(c.ArchiveURL); id != "" {
			return archiveImageBase + url.PathEscape(id)
		}
	case RuleEnrichment:
		return strings.TrimSpace(c.EnrichedCover)
	case RuleSite:
		if site := strings.TrimSpace(c.SiteURL); site != "" {
			return strings.TrimSuffix(site, "/") + "/cover.jpg"
		}
	}
	return ""
}

// ArchiveIdentifier extracts the item identifier from an archive URL: the
// path segment after "details" when present, otherwise the last segment.
// https://archive.org/details/mybook123 -> mybook123.
func ArchiveIdentifier(archiveURL string) string {
	archiveURL = strings.TrimSpace(archiveURL)
	if archiveURL == "" {
		return ""
	}
	u, err := url.Parse(archiveURL)
	if err != nil || u.Host == "" {
		return ""
	}

	var parts []string
	for _, p := range strings.Split(u.Path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	for i, p := range parts {
		if p == "details" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return parts[len(parts)-1]
}
