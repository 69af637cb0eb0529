package crawl_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/shopcrawl"
	"github.com/fwojciec/shopcrawl/bloom"
	"github.com/fwojciec/shopcrawl/crawl"
	"github.com/fwojciec/shopcrawl/goquery"
	shophttp "github.com/fwojciec/shopcrawl/http"
	"github.com/fwojciec/shopcrawl/mock"
	"github.com/fwojciec/shopcrawl/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// domainStore is an in-memory DomainService recording every saved status.
type domainStore struct {
	mu      sync.Mutex
	domains []*shopcrawl.Domain
	saved   map[string][]shopcrawl.Status
	failOn  map[string]error
}

func newDomainStore(domains ...*shopcrawl.Domain) *domainStore {
	return &domainStore{
		domains: domains,
		saved:   make(map[string][]shopcrawl.Status),
		failOn:  make(map[string]error),
	}
}

func (s *domainStore) service() *mock.DomainService {
	return &mock.DomainService{
		FindDomainsFn: func(_ context.Context, filter shopcrawl.DomainFilter) ([]*shopcrawl.Domain, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			var out []*shopcrawl.Domain
			for _, d := range s.domains {
				for _, st := range filter.Statuses {
					if d.Status == st {
						out = append(out, d)
					}
				}
			}
			return out, nil
		},
		UpdateDomainFn: func(_ context.Context, d *shopcrawl.Domain) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			if err := s.failOn[d.ID+":"+string(d.Status)]; err != nil {
				return err
			}
			s.saved[d.ID] = append(s.saved[d.ID], d.Status)
			return nil
		},
	}
}

func (s *domainStore) history(id string) []shopcrawl.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]shopcrawl.Status(nil), s.saved[id]...)
}

func noRobots() *mock.RobotsService {
	return &mock.RobotsService{
		FetchRobotsFn: func(context.Context, string) string { return "" },
	}
}

func TestCrawler_EndToEnd(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	hits := make(map[string]int)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits[r.URL.Path]++
		mu.Unlock()
		switch r.URL.Path {
		case "/robots.txt":
			fmt.Fprint(w, "User-agent: *\nDisallow: /admin\n")
		case "/":
			fmt.Fprint(w, links("/admin/secret", "/product/42", "/about"))
		case "/about":
			fmt.Fprint(w, `<html><body><p>About us</p></body></html>`)
		case "/admin/secret":
			fmt.Fprint(w, links("/product/666"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	db := sqlite.NewDB(":memory:")
	require.NoError(t, db.Open())
	t.Cleanup(func() { db.Close() })
	domains := sqlite.NewDomainService(db)
	products := sqlite.NewProductService(db)
	ctx := context.Background()

	domain := &shopcrawl.Domain{URL: srv.URL}
	require.NoError(t, domains.CreateDomain(ctx, domain))

	fetcher := shophttp.NewFetcher(shophttp.WithTimeout(5 * time.Second))
	robots, err := shophttp.NewRobotsService(fetcher, time.Hour, 10)
	require.NoError(t, err)
	t.Cleanup(func() { robots.Close() })
	c := &crawl.Crawler{
		Domains:   domains,
		Products:  products,
		Robots:    robots,
		Fetcher:   fetcher,
		Extractor: goquery.NewExtractor(),
		Pool:      crawl.NewPool(4),
	}

	result, err := c.RunPass(ctx, nil)

	require.NoError(t, err)
	assert.Equal(t, &crawl.PassResult{Domains: 1, Completed: 1, Products: 1}, result)

	found, err := products.FindProducts(ctx, shopcrawl.ProductFilter{DomainID: &domain.ID})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, srv.URL+"/product/42", found[0].URL)

	mu.Lock()
	assert.Zero(t, hits["/admin/secret"])
	assert.Equal(t, 1, hits["/about"])
	mu.Unlock()

	stored, err := domains.FindDomainByID(ctx, domain.ID)
	require.NoError(t, err)
	assert.Equal(t, shopcrawl.StatusCompleted, stored.Status)
	assert.NotNil(t, stored.LastCrawledAt)

	again, err := c.RunPass(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Domains, "completed domains are not eligible")
}

func TestCrawler_CrawlDomain(t *testing.T) {
	t.Parallel()

	t.Run("persists IN_PROGRESS before the first fetch and COMPLETED after", func(t *testing.T) {
		t.Parallel()

		domain := &shopcrawl.Domain{ID: "d1", URL: shopURL, Status: shopcrawl.StatusPending}
		ds := newDomainStore(domain)
		s := newSite(map[string]string{shopURL: links("/p/1")})
		fetcher := s.fetcher()
		fetch := fetcher.FetchFn
		fetcher.FetchFn = func(ctx context.Context, url string) (string, error) {
			assert.Equal(t, []shopcrawl.Status{shopcrawl.StatusInProgress}, ds.history("d1"))
			return fetch(ctx, url)
		}
		robotsChecked := false
		now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

		c := &crawl.Crawler{
			Domains:  ds.service(),
			Products: newProductStore().service(),
			Robots: &mock.RobotsService{
				FetchRobotsFn: func(context.Context, string) string {
					robotsChecked = true
					assert.Equal(t, []shopcrawl.Status{shopcrawl.StatusInProgress}, ds.history("d1"))
					return ""
				},
			},
			Fetcher:   fetcher,
			Extractor: goquery.NewExtractor(),
			Now:       func() time.Time { return now },
		}

		res, err := c.CrawlDomain(context.Background(), domain, nil)

		require.NoError(t, err)
		assert.True(t, robotsChecked)
		assert.Equal(t, []string{shopURL + "/p/1"}, res.Products)
		assert.Equal(t, []shopcrawl.Status{shopcrawl.StatusInProgress, shopcrawl.StatusCompleted}, ds.history("d1"))
		require.NotNil(t, domain.LastCrawledAt)
		assert.Equal(t, now, *domain.LastCrawledAt)
	})

	t.Run("marks domain FAILED on persistence error", func(t *testing.T) {
		t.Parallel()

		domain := &shopcrawl.Domain{ID: "d1", URL: shopURL, Status: shopcrawl.StatusPending}
		ds := newDomainStore(domain)
		store := newProductStore()
		store.err = errors.New("disk full")

		c := &crawl.Crawler{
			Domains:   ds.service(),
			Products:  store.service(),
			Robots:    noRobots(),
			Fetcher:   newSite(map[string]string{shopURL: links("/p/1")}).fetcher(),
			Extractor: goquery.NewExtractor(),
		}

		_, err := c.CrawlDomain(context.Background(), domain, nil)

		require.Error(t, err)
		assert.Equal(t, shopcrawl.StatusFailed, domain.Status)
		assert.Nil(t, domain.LastCrawledAt)
		assert.Equal(t, []shopcrawl.Status{shopcrawl.StatusInProgress, shopcrawl.StatusFailed}, ds.history("d1"))
	})

	t.Run("completes with no products when every fetch fails", func(t *testing.T) {
		t.Parallel()

		domain := &shopcrawl.Domain{ID: "d1", URL: shopURL, Status: shopcrawl.StatusFailed}
		ds := newDomainStore(domain)

		c := &crawl.Crawler{
			Domains:   ds.service(),
			Products:  newProductStore().service(),
			Robots:    noRobots(),
			Fetcher:   newSite(nil).fetcher(),
			Extractor: goquery.NewExtractor(),
		}

		res, err := c.CrawlDomain(context.Background(), domain, nil)

		require.NoError(t, err)
		assert.Empty(t, res.Products)
		assert.Equal(t, shopcrawl.StatusCompleted, domain.Status)
	})

	t.Run("rejects a completed domain without fetching", func(t *testing.T) {
		t.Parallel()

		domain := &shopcrawl.Domain{ID: "d1", URL: shopURL, Status: shopcrawl.StatusCompleted}
		ds := newDomainStore(domain)
		s := newSite(map[string]string{shopURL: links()})

		c := &crawl.Crawler{
			Domains:   ds.service(),
			Products:  newProductStore().service(),
			Robots:    noRobots(),
			Fetcher:   s.fetcher(),
			Extractor: goquery.NewExtractor(),
		}

		_, err := c.CrawlDomain(context.Background(), domain, nil)

		assert.Equal(t, shopcrawl.EINVALID, shopcrawl.ErrorCode(err))
		assert.Empty(t, ds.history("d1"))
		assert.Zero(t, s.totalFetches())
	})

	t.Run("does not fetch when IN_PROGRESS cannot be saved", func(t *testing.T) {
		t.Parallel()

		domain := &shopcrawl.Domain{ID: "d1", URL: shopURL, Status: shopcrawl.StatusPending}
		ds := newDomainStore(domain)
		ds.failOn["d1:IN_PROGRESS"] = errors.New("database is locked")
		s := newSite(map[string]string{shopURL: links()})

		c := &crawl.Crawler{
			Domains:   ds.service(),
			Products:  newProductStore().service(),
			Robots:    noRobots(),
			Fetcher:   s.fetcher(),
			Extractor: goquery.NewExtractor(),
		}

		_, err := c.CrawlDomain(context.Background(), domain, nil)

		require.Error(t, err)
		assert.Zero(t, s.totalFetches())
	})

	t.Run("seeds the walk from sitemaps", func(t *testing.T) {
		t.Parallel()

		domain := &shopcrawl.Domain{ID: "d1", URL: shopURL, Status: shopcrawl.StatusPending}
		s := newSite(map[string]string{
			shopURL:               links(),
			shopURL + "/hidden":   links("/item/7"),
			shopURL + "/prod/123": links(),
		})

		c := &crawl.Crawler{
			Domains:   newDomainStore(domain).service(),
			Products:  newProductStore().service(),
			Robots:    noRobots(),
			Fetcher:   s.fetcher(),
			Extractor: goquery.NewExtractor(),
			Sitemaps: &mock.SitemapService{
				DiscoverURLsFn: func(_ context.Context, baseURL string) ([]string, error) {
					assert.Equal(t, shopURL, baseURL)
					return []string{shopURL + "/hidden", shopURL + "/prod/123"}, nil
				},
			},
		}

		res, err := c.CrawlDomain(context.Background(), domain, nil)

		require.NoError(t, err)
		assert.Equal(t, []string{shopURL + "/item/7", shopURL + "/prod/123"}, res.Products)
	})

	t.Run("crawls without seeds when sitemap discovery fails", func(t *testing.T) {
		t.Parallel()

		domain := &shopcrawl.Domain{ID: "d1", URL: shopURL, Status: shopcrawl.StatusPending}

		c := &crawl.Crawler{
			Domains:   newDomainStore(domain).service(),
			Products:  newProductStore().service(),
			Robots:    noRobots(),
			Fetcher:   newSite(map[string]string{shopURL: links("/p/1")}).fetcher(),
			Extractor: goquery.NewExtractor(),
			Sitemaps: &mock.SitemapService{
				DiscoverURLsFn: func(context.Context, string) ([]string, error) {
					return nil, errors.New("HTTP 500")
				},
			},
		}

		res, err := c.CrawlDomain(context.Background(), domain, nil)

		require.NoError(t, err)
		assert.Equal(t, []string{shopURL + "/p/1"}, res.Products)
	})

	t.Run("reports progress events", func(t *testing.T) {
		t.Parallel()

		domain := &shopcrawl.Domain{ID: "d1", URL: shopURL, Status: shopcrawl.StatusPending}

		c := &crawl.Crawler{
			Domains:   newDomainStore(domain).service(),
			Products:  newProductStore().service(),
			Robots:    noRobots(),
			Fetcher:   newSite(map[string]string{shopURL: links("/p/1")}).fetcher(),
			Extractor: goquery.NewExtractor(),
		}

		var mu sync.Mutex
		var types []crawl.ProgressType
		_, err := c.CrawlDomain(context.Background(), domain, func(e crawl.ProgressEvent) {
			mu.Lock()
			defer mu.Unlock()
			types = append(types, e.Type)
		})

		require.NoError(t, err)
		assert.Equal(t, []crawl.ProgressType{
			crawl.ProgressDomainStarted,
			crawl.ProgressProductFound,
			crawl.ProgressDomainCompleted,
		}, types)
	})
}

func TestCrawler_RunPass(t *testing.T) {
	t.Parallel()

	t.Run("crawls only PENDING and FAILED domains", func(t *testing.T) {
		t.Parallel()

		pending := &shopcrawl.Domain{ID: "a", URL: "https://a.test", Status: shopcrawl.StatusPending}
		failed := &shopcrawl.Domain{ID: "b", URL: "https://b.test", Status: shopcrawl.StatusFailed}
		done := &shopcrawl.Domain{ID: "c", URL: "https://c.test", Status: shopcrawl.StatusCompleted}
		running := &shopcrawl.Domain{ID: "d", URL: "https://d.test", Status: shopcrawl.StatusInProgress}
		ds := newDomainStore(pending, failed, done, running)

		c := &crawl.Crawler{
			Domains:  ds.service(),
			Products: newProductStore().service(),
			Robots:   noRobots(),
			Fetcher: newSite(map[string]string{
				"https://a.test": links("/p/1"),
				"https://b.test": links("/p/2"),
			}).fetcher(),
			Extractor: goquery.NewExtractor(),
		}

		result, err := c.RunPass(context.Background(), nil)

		require.NoError(t, err)
		assert.Equal(t, &crawl.PassResult{Domains: 2, Completed: 2, Products: 2}, result)
		assert.Equal(t, shopcrawl.StatusCompleted, pending.Status)
		assert.Equal(t, shopcrawl.StatusCompleted, failed.Status)
		assert.Empty(t, ds.history("c"))
		assert.Empty(t, ds.history("d"))
	})

	t.Run("a failing domain does not affect its siblings", func(t *testing.T) {
		t.Parallel()

		good := &shopcrawl.Domain{ID: "good", URL: "https://good.test", Status: shopcrawl.StatusPending}
		bad := &shopcrawl.Domain{ID: "bad", URL: "https://bad.test", Status: shopcrawl.StatusPending}
		ds := newDomainStore(good, bad)
		store := newProductStore()
		products := store.service()
		create := products.CreateProductsFn
		products.CreateProductsFn = func(ctx context.Context, ps []*shopcrawl.ProductURL) (int, error) {
			if ps[0].DomainID == "bad" {
				return 0, errors.New("constraint failed")
			}
			return create(ctx, ps)
		}

		c := &crawl.Crawler{
			Domains:  ds.service(),
			Products: products,
			Robots:   noRobots(),
			Fetcher: newSite(map[string]string{
				"https://good.test":       links("/about"),
				"https://good.test/about": links("/p/1"),
				"https://bad.test":        links("/p/1"),
			}).fetcher(),
			Extractor: goquery.NewExtractor(),
		}

		result, err := c.RunPass(context.Background(), nil)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Completed)
		assert.Equal(t, 1, result.Failed)
		assert.Equal(t, shopcrawl.StatusCompleted, good.Status)
		assert.Equal(t, shopcrawl.StatusFailed, bad.Status)
		assert.Equal(t, []string{"https://good.test/p/1"}, store.list())
	})

	t.Run("shares the pool across domains", func(t *testing.T) {
		t.Parallel()

		var domains []*shopcrawl.Domain
		pages := make(map[string]string)
		for i := range 4 {
			u := fmt.Sprintf("https://shop%d.test", i)
			domains = append(domains, &shopcrawl.Domain{ID: u, URL: u, Status: shopcrawl.StatusPending})
			pages[u] = links("/a", "/b", "/c")
			for _, p := range []string{"/a", "/b", "/c"} {
				pages[u+p] = links()
			}
		}
		s := newSite(pages)
		fetcher := s.fetcher()
		fetch := fetcher.FetchFn
		var current, peak atomic.Int32
		fetcher.FetchFn = func(ctx context.Context, url string) (string, error) {
			n := current.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			current.Add(-1)
			return fetch(ctx, url)
		}

		c := &crawl.Crawler{
			Domains:   newDomainStore(domains...).service(),
			Products:  newProductStore().service(),
			Robots:    noRobots(),
			Fetcher:   fetcher,
			Extractor: goquery.NewExtractor(),
			Pool:      crawl.NewPool(2),
		}

		result, err := c.RunPass(context.Background(), nil)

		require.NoError(t, err)
		assert.Equal(t, 4, result.Completed)
		assert.Equal(t, 16, s.totalFetches())
		assert.LessOrEqual(t, peak.Load(), int32(2))
	})

	t.Run("shares one filter across domains when configured", func(t *testing.T) {
		t.Parallel()

		domain := &shopcrawl.Domain{ID: "d1", URL: shopURL, Status: shopcrawl.StatusPending}
		s := newSite(map[string]string{shopURL: links("/p/1")})
		filter := bloom.NewFilter(1000, 0.01)
		filter.Add(shopURL)

		c := &crawl.Crawler{
			Domains:   newDomainStore(domain).service(),
			Products:  newProductStore().service(),
			Robots:    noRobots(),
			Fetcher:   s.fetcher(),
			Extractor: goquery.NewExtractor(),
			Filter:    filter,
		}

		result, err := c.RunPass(context.Background(), nil)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Completed)
		assert.Zero(t, s.totalFetches())
	})

	t.Run("returns store errors from domain selection", func(t *testing.T) {
		t.Parallel()

		c := &crawl.Crawler{
			Domains: &mock.DomainService{
				FindDomainsFn: func(context.Context, shopcrawl.DomainFilter) ([]*shopcrawl.Domain, error) {
					return nil, errors.New("no such table: domains")
				},
			},
		}

		_, err := c.RunPass(context.Background(), nil)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "no such table")
	})
}
