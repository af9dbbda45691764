package normalize

import (
	"net/url"
	"regexp"
	"strings"
)

var urlPattern = regexp.MustCompile(`https?://\S+`)

// ExtractURLs returns every http(s) URL candidate found in a message.
func ExtractURLs(content string) []string {
	return urlPattern.FindAllString(content, -1)
}

// twitterHosts covers twitter proper plus the embed-proxy mirrors that
// point at the same statuses.
var twitterHosts = map[string]struct{}{
	"twitter.com":   {},
	"x.com":         {},
	"vxtwitter.com": {},
	"fxtwitter.com": {},
	"fixupx.com":    {},
	"fixvx.com":     {},
	"twittpr.com":   {},
	"nitter.net":    {},
}

// Key canonicalizes a raw URL into the dedup key used by the link
// history. Cosmetic variants of the same content collide:
//
//   - Twitter/X status links (any mirror host) become "tw/<id>".
//     A twitter link without a status ID is NOT rewritten.
//   - youtu.be short links expand to the canonical watch URL, keeping
//     extra query parameters.
//   - Canonical youtube links drop the redundant feature=youtu.be tag.
//   - Anything else, including unparseable input, is the lower-cased
//     URL unchanged.
//
// Key is idempotent: Key(Key(u)) == Key(u).
func Key(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	parsed, err := url.Parse(lowered)
	if err != nil || parsed.Host == "" {
		return lowered
	}
	host := parsed.Hostname()
	switch {
	case isTwitterHost(host):
		if id, ok := statusID(parsed.Path); ok {
			return "tw/" + id
		}
		return lowered
	case host == "youtu.be":
		return expandShortYouTube(parsed, lowered)
	case isYouTubeHost(host):
		return strings.Replace(lowered, "&feature=youtu.be", "", 1)
	}
	return lowered
}

func isTwitterHost(host string) bool {
	if _, ok := twitterHosts[host]; ok {
		return true
	}
	for h := range twitterHosts {
		if strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

func isYouTubeHost(host string) bool {
	return host == "youtube.com" || strings.HasSuffix(host, ".youtube.com")
}

// statusID extracts the numeric ID following a /status/ path segment.
func statusID(path string) (string, bool) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range segments {
		if seg != "status" && seg != "statuses" {
			continue
		}
		if i+1 >= len(segments) {
			return "", false
		}
		id := digitPrefix(segments[i+1])
		if id == "" {
			return "", false
		}
		return id, true
	}
	return "", false
}

func digitPrefix(s string) string {
	for i, ch := range s {
		if ch < '0' || ch > '9' {
			return s[:i]
		}
	}
	return s
}

func expandShortYouTube(parsed *url.URL, fallback string) string {
	id := strings.Trim(parsed.Path, "/")
	if id == "" {
		return fallback
	}
	key := "https://www.youtube.com/watch?v=" + id
	if parsed.RawQuery != "" {
		key += "&" + parsed.RawQuery
	}
	return strings.Replace(key, "&feature=youtu.be", "", 1)
}
