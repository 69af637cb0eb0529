package crawl_test

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/fwojciec/shopcrawl"
	"github.com/fwojciec/shopcrawl/mock"
)

// site serves pages by absolute URL and records every fetch.
type site struct {
	pages map[string]string

	mu      sync.Mutex
	fetches map[string]int
}

func newSite(pages map[string]string) *site {
	return &site{pages: pages, fetches: make(map[string]int)}
}

func (s *site) fetcher() *mock.Fetcher {
	return &mock.Fetcher{
		FetchFn: func(_ context.Context, url string) (string, error) {
			s.mu.Lock()
			s.fetches[url]++
			s.mu.Unlock()
			body, ok := s.pages[url]
			if !ok {
				return "", fmt.Errorf("HTTP 404 for %s", url)
			}
			return body, nil
		},
		CloseFn: func() error { return nil },
	}
}

func (s *site) fetched(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches[url]
}

func (s *site) totalFetches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.fetches {
		n += c
	}
	return n
}

// productStore is an in-memory ProductService that skips known URLs.
type productStore struct {
	mu   sync.Mutex
	urls map[string]string
	err  error
}

func newProductStore() *productStore {
	return &productStore{urls: make(map[string]string)}
}

func (s *productStore) service() *mock.ProductService {
	return &mock.ProductService{
		CreateProductsFn: func(_ context.Context, products []*shopcrawl.ProductURL) (int, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.err != nil {
				return 0, s.err
			}
			n := 0
			for _, p := range products {
				if _, ok := s.urls[p.URL]; ok {
					continue
				}
				p.ID = fmt.Sprintf("p%d", len(s.urls)+1)
				s.urls[p.URL] = p.DomainID
				n++
			}
			return n, nil
		},
	}
}

func (s *productStore) list() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.urls))
	for u := range s.urls {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

func links(hrefs ...string) string {
	html := "<html><body>"
	for _, h := range hrefs {
		html += fmt.Sprintf(`<a href="%s">link</a>`, h)
	}
	return html + "</body></html>"
}
