package mock

import "github.com/fwojciec/shopcrawl"

var _ shopcrawl.LinkExtractor = (*LinkExtractor)(nil)

// LinkExtractor is a mock implementation of shopcrawl.LinkExtractor.
type LinkExtractor struct {
	ExtractLinksFn func(html, baseURL string) (*shopcrawl.Links, error)
}

func (e *LinkExtractor) ExtractLinks(html, baseURL string) (*shopcrawl.Links, error) {
	return e.ExtractLinksFn(html, baseURL)
}
