package crawl

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fwojciec/shopcrawl"
	"golang.org/x/sync/errgroup"
)

// Walker traverses the link graph of a single domain, recording every
// product link it finds.
type Walker struct {
	Fetcher   shopcrawl.Fetcher
	Extractor shopcrawl.LinkExtractor
	Products  shopcrawl.ProductService
	Pool      *Pool

	// MaxPages caps the number of pages fetched in one walk. Zero means
	// unbounded.
	MaxPages int

	Now      func() time.Time
	Progress ProgressFunc
}

// WalkResult holds the outcome of a walk.
type WalkResult struct {
	// Products are the product URLs found during the walk, sorted.
	Products []string
	// Inserted is the number of products that were new to the store.
	Inserted int
	// Pages is the number of pages fetched.
	Pages int
}

// Walk visits the domain root and every seed, then follows same-domain
// navigation links until the filter reports every reachable URL as seen.
//
// A URL is visited only if rules allow it and the filter has not seen it;
// it is recorded in the filter before it is fetched. A failed fetch
// contributes nothing. A product URL is yielded along with the product
// links on its page, and its links are not followed. Any other page yields
// its product links and its navigation links are visited concurrently.
//
// Products are persisted page by page. A persistence or extraction error
// aborts the walk and is returned.
func (w *Walker) Walk(ctx context.Context, domain *shopcrawl.Domain, rules shopcrawl.Rules, filter shopcrawl.URLFilter, seeds ...string) (*WalkResult, error) {
	now := w.Now
	if now == nil {
		now = time.Now
	}
	pool := w.Pool
	if pool == nil {
		pool = NewPool(DefaultPoolSize)
	}

	st := &walk{
		Walker: w,
		domain: domain,
		rules:  rules,
		filter: filter,
		pool:   pool,
		now:    now,
		found:  make(map[string]struct{}),
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, u := range append([]string{domain.URL}, seeds...) {
		g.Go(func() error { return st.visit(gctx, u) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	products := make([]string, 0, len(st.found))
	for u := range st.found {
		products = append(products, u)
	}
	sort.Strings(products)

	return &WalkResult{
		Products: products,
		Inserted: int(st.inserted.Load()),
		Pages:    int(st.pages.Load()),
	}, nil
}

// walk is the shared state of one Walk call.
type walk struct {
	*Walker
	domain *shopcrawl.Domain
	rules  shopcrawl.Rules
	filter shopcrawl.URLFilter
	pool   *Pool
	now    func() time.Time

	pages    atomic.Int64
	inserted atomic.Int64

	mu    sync.Mutex
	found map[string]struct{}
}

func (st *walk) visit(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !st.rules.Allowed(url) || st.filter.TestAndAdd(url) {
		return nil
	}
	if n := st.pages.Add(1); st.MaxPages > 0 && n > int64(st.MaxPages) {
		st.pages.Add(-1)
		return nil
	}

	body, err := st.pool.Fetch(ctx, st.Fetcher, url)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return nil
	}

	links, err := st.Extractor.ExtractLinks(body, st.domain.URL)
	if err != nil {
		return fmt.Errorf("extract links from %s: %w", url, err)
	}

	isProduct := shopcrawl.IsProduct(url)
	products := links.Products
	if isProduct {
		products = append([]string{url}, products...)
	}
	if err := st.record(ctx, products); err != nil {
		return err
	}
	if isProduct {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, link := range links.Navigation {
		g.Go(func() error { return st.visit(gctx, link) })
	}
	return g.Wait()
}

// record adds products not yet found in this walk to the result set and
// persists them.
func (st *walk) record(ctx context.Context, urls []string) error {
	st.mu.Lock()
	var fresh []*shopcrawl.ProductURL
	discoveredAt := st.now().UTC()
	for _, u := range urls {
		if _, ok := st.found[u]; ok {
			continue
		}
		st.found[u] = struct{}{}
		fresh = append(fresh, &shopcrawl.ProductURL{
			DomainID:     st.domain.ID,
			URL:          u,
			DiscoveredAt: discoveredAt,
		})
	}
	st.mu.Unlock()

	if len(fresh) == 0 {
		return nil
	}

	n, err := st.Products.CreateProducts(ctx, fresh)
	if err != nil {
		return fmt.Errorf("save products for %s: %w", st.domain.URL, err)
	}
	st.inserted.Add(int64(n))

	if st.Progress != nil {
		for _, p := range fresh {
			if p.ID == "" {
				continue
			}
			st.Progress(ProgressEvent{
				Type:   ProgressProductFound,
				Domain: st.domain,
				URL:    p.URL,
			})
		}
	}
	return nil
}
