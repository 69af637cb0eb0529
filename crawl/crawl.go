// Package crawl provides the crawl engine: a shared fetch pool, the
// per-domain link walker and the orchestrator that runs crawl passes over
// every eligible domain.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fwojciec/shopcrawl"
	"github.com/fwojciec/shopcrawl/bloom"
	"golang.org/x/sync/errgroup"
)

// Crawler orchestrates crawl passes over registered domains.
type Crawler struct {
	Domains   shopcrawl.DomainService
	Products  shopcrawl.ProductService
	Robots    shopcrawl.RobotsService
	Fetcher   shopcrawl.Fetcher
	Extractor shopcrawl.LinkExtractor

	// Sitemaps, if set, seeds each walk with the domain's sitemap URLs.
	Sitemaps shopcrawl.SitemapService

	// Pool is shared by all domains of a pass. Nil uses DefaultPoolSize.
	Pool *Pool

	// Filter is the visited-URL set shared by every walk of this crawler.
	// Nil gives each pass a fresh default Bloom filter.
	Filter shopcrawl.URLFilter

	// MaxPages caps pages fetched per domain. Zero means unbounded.
	MaxPages int

	Now func() time.Time
}

// PassResult holds the outcome of a crawl pass.
type PassResult struct {
	Domains   int
	Completed int
	Failed    int
	Products  int
}

// ProgressEvent reports progress during a crawl pass.
type ProgressEvent struct {
	Type     ProgressType
	Domain   *shopcrawl.Domain
	URL      string
	Products int
	Pages    int
	Error    error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressDomainStarted ProgressType = iota
	ProgressProductFound
	ProgressDomainCompleted
	ProgressDomainFailed
)

// String returns a short name for the event type.
func (t ProgressType) String() string {
	switch t {
	case ProgressDomainStarted:
		return "started"
	case ProgressProductFound:
		return "product"
	case ProgressDomainCompleted:
		return "completed"
	case ProgressDomainFailed:
		return "failed"
	}
	return fmt.Sprintf("ProgressType(%d)", int(t))
}

// ProgressFunc is a callback for reporting crawl progress. It may be
// called from several goroutines at once.
type ProgressFunc func(event ProgressEvent)

// RunPass crawls every domain that is PENDING or FAILED.
func (c *Crawler) RunPass(ctx context.Context, progress ProgressFunc) (*PassResult, error) {
	domains, err := c.Domains.FindDomains(ctx, shopcrawl.DomainFilter{
		Statuses: shopcrawl.EligibleStatuses,
	})
	if err != nil {
		return nil, fmt.Errorf("find eligible domains: %w", err)
	}
	return c.CrawlDomains(ctx, domains, progress), nil
}

// CrawlDomains crawls the domains concurrently. A failing domain never
// stops its siblings; its failure is recorded in its status.
func (c *Crawler) CrawlDomains(ctx context.Context, domains []*shopcrawl.Domain, progress ProgressFunc) *PassResult {
	filter := c.Filter
	if filter == nil {
		filter = bloom.NewDefaultFilter()
	}
	pool := c.pool()

	var mu sync.Mutex
	result := &PassResult{Domains: len(domains)}

	var g errgroup.Group
	for _, d := range domains {
		g.Go(func() error {
			res, err := c.crawlDomain(ctx, d, filter, pool, progress)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed++
				return nil
			}
			result.Completed++
			result.Products += res.Inserted
			return nil
		})
	}
	_ = g.Wait()

	return result
}

// CrawlDomain runs one crawl of a single domain. The domain is persisted as
// IN_PROGRESS before any network activity, then as COMPLETED with its
// last crawl time, or as FAILED if the walk returns an error.
func (c *Crawler) CrawlDomain(ctx context.Context, domain *shopcrawl.Domain, progress ProgressFunc) (*WalkResult, error) {
	filter := c.Filter
	if filter == nil {
		filter = bloom.NewDefaultFilter()
	}
	return c.crawlDomain(ctx, domain, filter, c.pool(), progress)
}

func (c *Crawler) crawlDomain(ctx context.Context, domain *shopcrawl.Domain, filter shopcrawl.URLFilter, pool *Pool, progress ProgressFunc) (*WalkResult, error) {
	if err := domain.Transition(shopcrawl.StatusInProgress, c.now()); err != nil {
		c.report(progress, ProgressEvent{Type: ProgressDomainFailed, Domain: domain, Error: err})
		return nil, err
	}
	if err := c.Domains.UpdateDomain(ctx, domain); err != nil {
		err = fmt.Errorf("mark %s in progress: %w", domain.URL, err)
		c.report(progress, ProgressEvent{Type: ProgressDomainFailed, Domain: domain, Error: err})
		return nil, err
	}
	c.report(progress, ProgressEvent{Type: ProgressDomainStarted, Domain: domain})

	res, err := c.walk(ctx, domain, filter, pool, progress)

	// Terminal status is saved even when the pass is being canceled.
	saveCtx := context.WithoutCancel(ctx)

	if err != nil {
		if terr := domain.Transition(shopcrawl.StatusFailed, c.now()); terr == nil {
			if uerr := c.Domains.UpdateDomain(saveCtx, domain); uerr != nil {
				err = errors.Join(err, fmt.Errorf("mark %s failed: %w", domain.URL, uerr))
			}
		}
		c.report(progress, ProgressEvent{Type: ProgressDomainFailed, Domain: domain, Error: err})
		return nil, err
	}

	if err := domain.Transition(shopcrawl.StatusCompleted, c.now()); err != nil {
		return nil, err
	}
	if err := c.Domains.UpdateDomain(saveCtx, domain); err != nil {
		err = fmt.Errorf("mark %s completed: %w", domain.URL, err)
		c.report(progress, ProgressEvent{Type: ProgressDomainFailed, Domain: domain, Error: err})
		return nil, err
	}
	c.report(progress, ProgressEvent{
		Type:     ProgressDomainCompleted,
		Domain:   domain,
		Products: len(res.Products),
		Pages:    res.Pages,
	})

	return res, nil
}

// walk fetches the domain's robots rules and optional sitemap seeds, then
// walks its link graph.
func (c *Crawler) walk(ctx context.Context, domain *shopcrawl.Domain, filter shopcrawl.URLFilter, pool *Pool, progress ProgressFunc) (*WalkResult, error) {
	if err := domain.Validate(); err != nil {
		return nil, err
	}

	var robots string
	if err := pool.Do(ctx, func(ctx context.Context) error {
		robots = c.Robots.FetchRobots(ctx, domain.URL)
		return nil
	}); err != nil {
		return nil, err
	}
	rules := shopcrawl.ParseRobots(robots)

	var seeds []string
	if c.Sitemaps != nil {
		if err := pool.Do(ctx, func(ctx context.Context) error {
			urls, err := c.Sitemaps.DiscoverURLs(ctx, domain.URL)
			if err != nil {
				// Sitemaps only add seeds; a shop without one is still crawled.
				return ctx.Err()
			}
			seeds = urls
			return nil
		}); err != nil {
			return nil, err
		}
	}

	w := &Walker{
		Fetcher:   c.Fetcher,
		Extractor: c.Extractor,
		Products:  c.Products,
		Pool:      pool,
		MaxPages:  c.MaxPages,
		Now:       c.Now,
		Progress:  progress,
	}
	return w.Walk(ctx, domain, rules, filter, seeds...)
}

func (c *Crawler) pool() *Pool {
	if c.Pool == nil {
		return NewPool(DefaultPoolSize)
	}
	return c.Pool
}

func (c *Crawler) now() time.Time {
	if c.Now == nil {
		return time.Now().UTC()
	}
	return c.Now()
}

func (c *Crawler) report(progress ProgressFunc, event ProgressEvent) {
	if progress != nil {
		progress(event)
	}
}
