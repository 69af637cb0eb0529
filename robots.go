package shopcrawl

import (
	"context"
	"net/url"
	"strings"
)

// Rules is the set of disallowed path prefixes parsed from a robots.txt.
// Rules apply to every user agent.
type Rules map[string]struct{}

// ParseRobots collects the remainder of every "Disallow:" line as a path
// prefix. All other directives, User-agent included, are ignored. Empty
// Disallow values allow everything and are dropped.
func ParseRobots(text string) Rules {
	rules := make(Rules)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "Disallow:") {
			continue
		}
		prefix := strings.TrimSpace(line[len("Disallow:"):])
		if prefix == "" {
			continue
		}
		rules[prefix] = struct{}{}
	}
	return rules
}

// Allowed reports whether rawURL may be crawled. A URL is denied when its
// path starts with any disallowed prefix. URLs that cannot be parsed are
// denied.
func (r Rules) Allowed(rawURL string) bool {
	if len(r) == 0 {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	for prefix := range r {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	return true
}

// RobotsService retrieves robots.txt content for a domain.
type RobotsService interface {
	// FetchRobots returns the robots.txt body served at baseURL.
	// Any failure yields an empty string so that crawling fails open.
	FetchRobots(ctx context.Context, baseURL string) string
}
