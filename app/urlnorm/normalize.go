// Package urlnorm canonicalizes URLs for deduplication.
package urlnorm

import (
	"net/url"
	"strings"
)

// trackingParams are marketing attribution query keys stripped during
// normalization. Any key with an "utm_" prefix is stripped as well.
var trackingParams = map[string]struct{}{
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_term":     {},
	"utm_content":  {},
	"utm_id":       {},
	"gclid":        {},
	"fbclid":       {},
	"msclkid":      {},
	"igshid":       {},
	"mc_cid":       {},
	"mc_eid":       {},
	"_ga":          {},
	"_gl":          {},
}

// Normalize returns the canonical form of rawURL used as the deduplication
// key: lowercased scheme and host, tracking parameters removed (remaining
// query order preserved), fragment dropped, and a single trailing slash
// trimmed from non-root paths. Unparseable input is returned unchanged.
func Normalize(rawURL string) string {
	if rawURL == "" {
		return ""
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	if u.RawQuery != "" {
		u.RawQuery = stripTracking(u.RawQuery)
	}

	if len(u.Path) > 1 && strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	normalized := u.String()
	if normalized == "" {
		return rawURL
	}
	return normalized
}

// stripTracking filters tracking keys out of a raw query string without
// reordering the remaining pairs. url.Values cannot be used here because it
// loses the original parameter order.
func stripTracking(rawQuery string) string {
	var kept []string
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key := pair
		if idx := strings.Index(pair, "="); idx >= 0 {
			key = pair[:idx]
		}
		decoded, err := url.QueryUnescape(key)
		if err != nil {
			decoded = key
		}
		if isTrackingParam(decoded) {
			continue
		}
		kept = append(kept, pair)
	}
	return strings.Join(kept, "&")
}

func isTrackingParam(key string) bool {
	if strings.HasPrefix(key, "utm_") {
		return true
	}
	_, ok := trackingParams[key]
	return ok
}
