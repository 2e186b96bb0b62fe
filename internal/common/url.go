package common

import (
	"net/url"
	"sort"
	"strings"
)

// trackingParams lists query parameters known to be injected by ad/
// analytics pipelines rather than identifying distinct content. They
// are stripped during normalization so that a job listing reached via
// different campaign links still collapses to one normalized URL (see
// spec.md §9 Open Question on cross-source duplicate detection).
var trackingParams = map[string]bool{
	"utm_source":   true,
	"utm_medium":   true,
	"utm_campaign": true,
	"utm_term":     true,
	"utm_content":  true,
	"ref":          true,
	"referrer":     true,
	"gh_src":       true,
	"gh_jid":       true,
	"source":       true,
	"fbclid":       true,
	"gclid":        true,
}

// NormalizeURL canonicalizes a URL for uniqueness/ancestry comparisons:
// lowercase scheme/host, strip default ports, strip a trailing slash,
// strip tracking query parameters, and sort remaining query parameters
// so that parameter order never causes a spurious duplicate. Returns
// the original (trimmed) string if it does not parse as a URL.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return raw
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Host = strings.TrimSuffix(parsed.Host, ":80")
	parsed.Host = strings.TrimSuffix(parsed.Host, ":443")
	parsed.Fragment = ""

	if parsed.RawQuery != "" {
		q := parsed.Query()
		for key := range q {
			if trackingParams[strings.ToLower(key)] {
				q.Del(key)
			}
		}
		keys := make([]string, 0, len(q))
		for k := range q {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		for i, k := range keys {
			for _, v := range q[k] {
				if b.Len() > 0 {
					b.WriteByte('&')
				}
				b.WriteString(url.QueryEscape(k))
				b.WriteByte('=')
				b.WriteString(url.QueryEscape(v))
				_ = i
			}
		}
		parsed.RawQuery = b.String()
	}

	path := parsed.Path
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = strings.TrimSuffix(path, "/")
	}
	parsed.Path = path

	return parsed.String()
}

// SameHost reports whether two URLs share the same normalized host,
// used by the HTML fetch client to refuse off-host redirects beyond
// the configured max.
func SameHost(a, b string) bool {
	pa, errA := url.Parse(a)
	pb, errB := url.Parse(b)
	if errA != nil || errB != nil {
		return false
	}
	return strings.EqualFold(pa.Host, pb.Host)
}

// Host returns the normalized (lowercased) host of a URL, or "" if it
// does not parse.
func Host(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Host)
}
