package shopcrawl

import "strings"

// Links holds the same-domain links found on one page, partitioned by
// classification. Each URL appears at most once across both slices.
type Links struct {
	Products   []string
	Navigation []string
}

// LinkExtractor finds and classifies anchors in HTML.
type LinkExtractor interface {
	// ExtractLinks parses HTML and returns the normalized same-domain links.
	// The baseURL is the domain root used to resolve and scope hrefs.
	// Malformed markup yields fewer links, never an error.
	ExtractLinks(html string, baseURL string) (*Links, error)
}

// InDomain reports whether rawURL lies under baseURL. The prefix must end
// on a path boundary so that https://shop.test does not match
// https://shop.test.example.
func InDomain(baseURL, rawURL string) bool {
	prefix := strings.TrimSuffix(baseURL, "/")
	if !strings.HasPrefix(rawURL, prefix) {
		return false
	}
	if len(rawURL) == len(prefix) {
		return true
	}
	switch rawURL[len(prefix)] {
	case '/', '?', '#':
		return true
	}
	return false
}
