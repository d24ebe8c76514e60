package urlutil

import (
	"net/url"
	"regexp"
	"strings"
)

var serviceIDPattern = regexp.MustCompile(`service-catalog/([0-9a-f-]+)`)

// BuildAbsolute builds an absolute URL from a base origin and a path.
func BuildAbsolute(base, path string) string {
	base = normalizeBaseURL(base)
	if path == "" {
		return base
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if strings.HasPrefix(path, "/") {
		return base + path
	}
	return base + "/" + path
}

// ServiceIDFromURL returns the service id embedded in a service detail URL
// (".../service-catalog/<id>"), or "" when the URL carries none.
func ServiceIDFromURL(raw string) string {
	m := serviceIDPattern.FindStringSubmatch(raw)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// LastPathSegment returns the final non-empty path segment of raw, ignoring
// query and fragment.
func LastPathSegment(raw string) string {
	path := raw
	if u, err := url.Parse(raw); err == nil {
		path = u.Path
	}
	path = strings.TrimRight(path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// HostIs reports whether raw points at host (exact match, port ignored).
func HostIs(raw, host string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Hostname(), host)
}

// HasPathPrefix reports whether raw's path starts with prefix.
func HasPathPrefix(raw, prefix string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return strings.HasPrefix(u.Path, prefix)
}

func normalizeBaseURL(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return ""
	}
	return strings.TrimRight(base, "/")
}
