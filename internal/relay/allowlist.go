// Package relay streams upstream audio and cover images through the add-on's
// own origin so browser clients avoid cross-origin and opaque-response blocking.
// Only hosts on a fixed allowlist are ever contacted.
package relay

import (
	"net/url"
	"regexp"
	"strings"
)

// archiveNode matches numbered Internet Archive storage nodes such as ia601234.us.archive.org.
var archiveNode = regexp.MustCompile(`^ia\d{3,}\.us\.archive\.org$`)

var defaultHosts = []string{
	"archive.org",
	"www.archive.org",
	"covers.openlibrary.org",
	"librivox.org",
	"www.librivox.org",
}

var scrapedHosts = []string{
	"audioaz.com",
	"www.audioaz.com",
}

// Allowlist decides which upstream hosts the relay may contact.
// It is immutable after construction.
type Allowlist struct {
	hosts map[string]bool
}

// NewAllowlist builds the allowlist. allowScraped adds the scraped-site media
// hosts; extra hosts are matched exactly, case-insensitively.
func NewAllowlist(allowScraped bool, extra []string) *Allowlist {
	hosts := make(map[string]bool, len(defaultHosts)+len(scrapedHosts)+len(extra))
	for _, h := range defaultHosts {
		hosts[h] = true
	}
	if allowScraped {
		for _, h := range scrapedHosts {
			hosts[h] = true
		}
	}
	for _, h := range extra {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			hosts[h] = true
		}
	}
	return &Allowlist{hosts: hosts}
}

// Allowed reports whether rawURL is an http(s) URL on an allowed host.
func (a *Allowlist) Allowed(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return false
	}
	return a.AllowedHost(u.Hostname())
}

// AllowedHost reports whether host, without port, is allowed.
func (a *Allowlist) AllowedHost(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "" {
		return false
	}
	if a.hosts[host] {
		return true
	}
	return archiveNode.MatchString(host)
}
