// Package urlnorm canonicalizes URLs into the comparable form used by the
// frontier and the visited set.
package urlnorm

import (
	"net/url"
	"strings"
)

// Normalize canonicalizes a raw URL, resolving it against base when base is
// non-nil. It returns false for URLs that cannot become crawl candidates:
// empty strings, mailto:/tel: references, and URLs without a scheme or host.
//
// The canonical form is https, without fragment, without a leading "www." on
// the host, with repeated and trailing path separators collapsed, and with
// the query string preserved verbatim. Normalize is idempotent.
func Normalize(raw string, base *url.URL) (string, bool) {
	if raw == "" {
		return "", false
	}
	if strings.HasPrefix(raw, "mailto:") || strings.HasPrefix(raw, "tel:") {
		return "", false
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if base != nil {
		parsed = base.ResolveReference(parsed)
	}

	if parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}

	host := trimWWW(strings.ToLower(parsed.Host))

	var b strings.Builder
	b.WriteString("https://")
	b.WriteString(host)
	b.WriteString(normalizePath(parsed.EscapedPath()))
	if parsed.RawQuery != "" {
		b.WriteByte('?')
		b.WriteString(parsed.RawQuery)
	}
	return b.String(), true
}

// Host returns the normalized host of a URL, or "" if it has none.
func Host(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return trimWWW(strings.ToLower(parsed.Host))
}

// trimWWW strips every leading "www." label so stacked prefixes collapse to
// the same canonical host. A host that is nothing but "www." is left alone.
func trimWWW(host string) string {
	for strings.HasPrefix(host, "www.") && len(host) > len("www.") {
		host = host[len("www."):]
	}
	return host
}

// normalizePath collapses repeated separators and trims boundary slashes,
// reattaching a single leading slash. The empty and root paths both come
// back as "/".
func normalizePath(p string) string {
	segments := make([]string, 0, 8)
	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	if len(segments) == 0 {
		return "/"
	}
	return "/" + strings.Join(segments, "/")
}
