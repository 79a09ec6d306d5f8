// Package extract turns rendered HTML into frontier candidates and page
// records.
package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/corpuscrawl/corpuscrawl/internal/urlnorm"
)

// excludedSegments are path fragments that never lead to crawlable content.
var excludedSegments = []string{
	"/cdn-cgi/",
	"/wp-admin/",
	"/wp-includes/",
	"/wp-content/uploads/",
}

// excludedExt matches asset and archive extensions at the end of a path.
var excludedExt = regexp.MustCompile(`\.(jpg|jpeg|gif|png|svg|css|js|ico|xml|pdf|zip|gz|rar)$`)

// ExcludedURL reports whether a normalized URL matches the exclusion
// patterns. Matching is case-insensitive.
func ExcludedURL(raw string) bool {
	lower := strings.ToLower(raw)
	for _, seg := range excludedSegments {
		if strings.Contains(lower, seg) {
			return true
		}
	}

	path := lower
	if parsed, err := url.Parse(lower); err == nil && parsed.Path != "" {
		path = parsed.Path
	}
	return excludedExt.MatchString(path)
}

// Links parses rendered HTML and returns the normalized URLs of every anchor
// that survives normalization, the exclusion patterns, and the caller's
// admission predicate. Discovery order is preserved.
func Links(html, baseURL string, keep func(string) bool) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		base = nil
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}

		normalized, ok := urlnorm.Normalize(href, base)
		if !ok {
			return
		}
		if ExcludedURL(normalized) {
			return
		}
		if keep != nil && !keep(normalized) {
			return
		}
		links = append(links, normalized)
	})
	return links
}

// AllowedHost reports whether a URL's host is in the allow-list, with an
// optional per-host path prefix restriction.
type AllowedHost struct {
	hosts    map[string]struct{}
	prefixes map[string]string
}

// NewAllowedHost builds a host allow-list from normalized domain names.
func NewAllowedHost(domains []string) *AllowedHost {
	a := &AllowedHost{
		hosts:    make(map[string]struct{}, len(domains)),
		prefixes: make(map[string]string),
	}
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(d, "www.")))
		if d != "" {
			a.hosts[d] = struct{}{}
		}
	}
	return a
}

// RestrictPath limits an allowed host to URLs whose path starts with prefix.
func (a *AllowedHost) RestrictPath(host, prefix string) {
	host = strings.ToLower(strings.TrimPrefix(host, "www."))
	a.prefixes[host] = prefix
}

// Admits reports whether the normalized URL's host is allowed.
func (a *AllowedHost) Admits(normalized string) bool {
	host := urlnorm.Host(normalized)
	if _, ok := a.hosts[host]; !ok {
		return false
	}
	prefix, ok := a.prefixes[host]
	if !ok || prefix == "" {
		return true
	}
	parsed, err := url.Parse(normalized)
	if err != nil {
		return false
	}
	return strings.HasPrefix(parsed.Path, prefix)
}
