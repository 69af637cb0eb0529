package http

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/beevik/etree"
	"github.com/fwojciec/shopcrawl"
)

// maxSitemapDepth bounds how deep nested sitemap indexes are followed.
const maxSitemapDepth = 3

// Ensure SitemapService implements shopcrawl.SitemapService.
var _ shopcrawl.SitemapService = (*SitemapService)(nil)

// SitemapService discovers shop URLs from sitemaps. The crawler uses it to
// seed a domain's frontier with pages its link graph may not reach.
type SitemapService struct {
	client *http.Client
}

// NewSitemapService creates a new SitemapService with the given HTTP client.
// If client is nil, http.DefaultClient is used.
func NewSitemapService(client *http.Client) *SitemapService {
	if client == nil {
		client = http.DefaultClient
	}
	return &SitemapService{client: client}
}

// DiscoverURLs returns the page URLs listed in the shop's sitemaps, in
// listing order without duplicates. Sitemap locations come from Sitemap:
// lines in robots.txt, falling back to /sitemap.xml. Only URLs under
// baseURL, as decided by shopcrawl.InDomain, are returned. A shop without sitemaps yields an empty slice.
func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return nil, shopcrawl.Errorf(shopcrawl.EINVALID, "invalid base URL: %q", baseURL)
	}
	root := base.Scheme + "://" + base.Host

	locations := s.robotsSitemaps(ctx, root+"/robots.txt")
	if len(locations) == 0 {
		locations = []string{root + "/sitemap.xml"}
	}

	seenSitemaps := make(map[string]bool)
	seenURLs := make(map[string]bool)
	urls := []string{}

	for _, loc := range locations {
		found, err := s.walkSitemap(ctx, loc, seenSitemaps, 0)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Missing or broken sitemaps are common; skip them.
			continue
		}
		for _, u := range found {
			if seenURLs[u] || !shopcrawl.InDomain(baseURL, u) {
				continue
			}
			seenURLs[u] = true
			urls = append(urls, u)
		}
	}

	return urls, nil
}

// robotsSitemaps extracts Sitemap: directives from robots.txt.
// Fetch failures yield no locations.
func (s *SitemapService) robotsSitemaps(ctx context.Context, robotsURL string) []string {
	body, err := s.get(ctx, robotsURL)
	if err != nil {
		return nil
	}
	defer body.Close()

	var locations []string
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(strings.ToLower(line), "sitemap:") {
			if loc := strings.TrimSpace(line[len("sitemap:"):]); loc != "" {
				locations = append(locations, loc)
			}
		}
	}
	return locations
}

// walkSitemap fetches a sitemap and returns its page URLs, descending into
// sitemap indexes up to maxSitemapDepth.
func (s *SitemapService) walkSitemap(ctx context.Context, loc string, seen map[string]bool, depth int) ([]string, error) {
	if seen[loc] || depth > maxSitemapDepth {
		return nil, nil
	}
	seen[loc] = true

	body, err := s.get(ctx, loc)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(body); err != nil {
		return nil, fmt.Errorf("parsing sitemap %s: %w", loc, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("empty sitemap %s", loc)
	}

	if root.Tag != "sitemapindex" {
		return locs(root, "url"), nil
	}

	var urls []string
	for _, child := range locs(root, "sitemap") {
		found, err := s.walkSitemap(ctx, child, seen, depth+1)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		urls = append(urls, found...)
	}
	return urls, nil
}

// locs returns the trimmed <loc> text of every child element named tag.
func locs(root *etree.Element, tag string) []string {
	var out []string
	for _, el := range root.SelectElements(tag) {
		loc := el.SelectElement("loc")
		if loc == nil {
			continue
		}
		if u := strings.TrimSpace(loc.Text()); u != "" {
			out = append(out, u)
		}
	}
	return out
}

// get performs a GET request and returns the body of a 200 response.
func (s *SitemapService) get(ctx context.Context, target string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, target)
	}
	return resp.Body, nil
}
