// Package prometheus exposes crawl metrics through
// github.com/prometheus/client_golang.
package prometheus

import (
	"context"
	"net/http"
	"time"

	"github.com/fwojciec/shopcrawl"
	"github.com/fwojciec/shopcrawl/crawl"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shopcrawl"

// Metrics holds the crawler's collectors.
type Metrics struct {
	Fetches       *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	Products      prometheus.Counter
	DomainRuns    *prometheus.CounterVec
	Domains       *prometheus.GaugeVec

	gatherer prometheus.Gatherer
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg uses a fresh registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		Fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "HTTP fetches by kind (page or robots) and result.",
		}, []string{"kind", "result"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "HTTP fetch latency by kind.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		Products: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "products_discovered_total",
			Help:      "Product URLs newly stored.",
		}),
		DomainRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "domain_crawls_total",
			Help:      "Finished domain crawls by outcome.",
		}, []string{"status"}),
		Domains: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "domains",
			Help:      "Registered domains by crawl status.",
		}, []string{"status"}),
		gatherer: reg,
	}
	reg.MustRegister(m.Fetches, m.FetchDuration, m.Products, m.DomainRuns, m.Domains)
	return m
}

// Handler serves the registered metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Progress returns a crawl.ProgressFunc that records events and then
// forwards them to next, if set.
func (m *Metrics) Progress(next crawl.ProgressFunc) crawl.ProgressFunc {
	return func(e crawl.ProgressEvent) {
		switch e.Type {
		case crawl.ProgressProductFound:
			m.Products.Inc()
		case crawl.ProgressDomainCompleted:
			m.DomainRuns.WithLabelValues(string(shopcrawl.StatusCompleted)).Inc()
		case crawl.ProgressDomainFailed:
			m.DomainRuns.WithLabelValues(string(shopcrawl.StatusFailed)).Inc()
		}
		if next != nil {
			next(e)
		}
	}
}

// RefreshDomains sets the domain gauge from the store's per-status counts.
func (m *Metrics) RefreshDomains(ctx context.Context, domains shopcrawl.DomainService) error {
	for _, st := range shopcrawl.Statuses {
		n, err := domains.CountDomains(ctx, shopcrawl.DomainFilter{Statuses: []shopcrawl.Status{st}})
		if err != nil {
			return err
		}
		m.Domains.WithLabelValues(string(st)).Set(float64(n))
	}
	return nil
}

// Fetch kinds used as the "kind" label.
const (
	KindPage   = "page"
	KindRobots = "robots"
)

// Ensure Fetcher implements shopcrawl.Fetcher.
var _ shopcrawl.Fetcher = (*Fetcher)(nil)

// Fetcher wraps a shopcrawl.Fetcher and records request counts and
// latency under its kind.
type Fetcher struct {
	next    shopcrawl.Fetcher
	metrics *Metrics
	kind    string
}

// NewFetcher creates a Fetcher instrumenting page fetches.
func NewFetcher(next shopcrawl.Fetcher, metrics *Metrics) *Fetcher {
	return &Fetcher{next: next, metrics: metrics, kind: KindPage}
}

// NewRobotsFetcher creates a Fetcher instrumenting robots.txt fetches.
func NewRobotsFetcher(next shopcrawl.Fetcher, metrics *Metrics) *Fetcher {
	return &Fetcher{next: next, metrics: metrics, kind: KindRobots}
}

// Fetch delegates to the wrapped fetcher and records the outcome.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	begin := time.Now()
	body, err := f.next.Fetch(ctx, url)
	f.metrics.FetchDuration.WithLabelValues(f.kind).Observe(time.Since(begin).Seconds())
	result := "ok"
	if err != nil {
		result = "error"
	}
	f.metrics.Fetches.WithLabelValues(f.kind, result).Inc()
	return body, err
}

// Close delegates to the wrapped fetcher.
func (f *Fetcher) Close() error {
	return f.next.Close()
}
