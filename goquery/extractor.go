// Package goquery implements shopcrawl.LinkExtractor using goquery over
// the golang.org/x/net/html parser.
package goquery

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/shopcrawl"
	"golang.org/x/net/html"
)

// Compile-time interface verification.
var _ shopcrawl.LinkExtractor = (*Extractor)(nil)

// schemeRe matches a URL scheme prefix such as "https:" or "mailto:".
var schemeRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*:`)

// Extractor extracts anchors from HTML, normalizes them against the domain
// root and classifies each as product or navigation.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractLinks parses HTML and returns the same-domain links of every
// anchor, in document order of first occurrence. Links are deduplicated
// within the page. Markup the parser cannot make sense of contributes no
// links; it is never an error.
func (e *Extractor) ExtractLinks(htmlText string, baseURL string) (*shopcrawl.Links, error) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, shopcrawl.Errorf(shopcrawl.EINVALID, "invalid base URL: %q", baseURL)
	}

	links := &shopcrawl.Links{}

	root, err := html.Parse(strings.NewReader(htmlText))
	if err != nil {
		return links, nil
	}
	doc := goquery.NewDocumentFromNode(root)

	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || isNonHTTPLink(href) {
			return
		}

		normalized := Normalize(baseURL, href)
		if !shopcrawl.InDomain(baseURL, normalized) || seen[normalized] {
			return
		}
		seen[normalized] = true

		if shopcrawl.IsProduct(normalized) {
			links.Products = append(links.Products, normalized)
		} else {
			links.Navigation = append(links.Navigation, normalized)
		}
	})

	return links, nil
}

// ExtractProducts returns the product links of a page. It is a
// convenience over ExtractLinks for callers that only need products; an
// invalid base URL yields no links.
func (e *Extractor) ExtractProducts(htmlText string, baseURL string) []string {
	links, err := e.ExtractLinks(htmlText, baseURL)
	if err != nil {
		return nil
	}
	return links.Products
}

// Normalize turns href into an absolute URL relative to the domain root.
// Scheme-prefixed hrefs are returned unchanged, root-relative hrefs are
// resolved against the base scheme and host, and anything else is joined
// to the base URL with a single slash.
func Normalize(baseURL, href string) string {
	if schemeRe.MatchString(href) {
		return href
	}
	if strings.HasPrefix(href, "/") {
		base, err := url.Parse(baseURL)
		if err != nil {
			return href
		}
		// Protocol-relative reference.
		if strings.HasPrefix(href, "//") {
			return base.Scheme + ":" + href
		}
		return base.Scheme + "://" + base.Host + href
	}
	return strings.TrimSuffix(baseURL, "/") + "/" + href
}

// isNonHTTPLink returns true for hrefs that can never be fetched.
func isNonHTTPLink(href string) bool {
	href = strings.ToLower(href)
	return strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:")
}
