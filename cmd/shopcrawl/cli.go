package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/shopcrawl"
	"github.com/fwojciec/shopcrawl/crawl"
	shopprom "github.com/fwojciec/shopcrawl/prometheus"
	"github.com/fwojciec/shopcrawl/sqlite"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx      context.Context
	Stdout   io.Writer
	Stderr   io.Writer
	Logger   *slog.Logger
	DB       *sqlite.DB
	Domains  shopcrawl.DomainService
	Products shopcrawl.ProductService
	Crawler  *crawl.Crawler
	Metrics  *shopprom.Metrics
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	DB      string `help:"Database path (default ~/.shopcrawl/shopcrawl.db)" env:"SHOPCRAWL_DB"`
	Verbose bool   `short:"v" help:"Log fetches and status changes to stderr" env:"SHOPCRAWL_VERBOSE"`

	Seed     SeedCmd     `cmd:"" help:"Register shop domains for crawling"`
	Crawl    CrawlCmd    `cmd:"" help:"Run one crawl pass over pending and failed domains"`
	Run      RunCmd      `cmd:"" help:"Run crawl passes periodically until interrupted. The visited-URL filter resets every pass unless --shared-filter is set."`
	Status   StatusCmd   `cmd:"" help:"Show domain and product totals"`
	Domains  DomainsCmd  `cmd:"" help:"List registered domains"`
	Products ProductsCmd `cmd:"" help:"List product URLs found on a domain"`
	Recrawl  RecrawlCmd  `cmd:"" help:"Reset a domain so the next pass crawls it again"`
}

// CrawlFlags configures the crawler for the crawl and run commands.
type CrawlFlags struct {
	Concurrency int           `short:"c" default:"10" env:"SHOPCRAWL_CONCURRENCY" help:"Concurrent fetch limit shared by all domains"`
	MaxPages    int           `default:"10000" env:"SHOPCRAWL_MAX_PAGES" help:"Pages fetched per domain before stopping (0 for no limit)"`
	Timeout     time.Duration `default:"30s" env:"SHOPCRAWL_TIMEOUT" help:"Per-request timeout"`
	UserAgent   string        `default:"shopcrawl/1.0" env:"SHOPCRAWL_USER_AGENT" help:"User-Agent header sent with requests"`
	RobotsTTL   time.Duration `default:"1h" env:"SHOPCRAWL_ROBOTS_TTL" help:"How long robots.txt responses are cached"`
	Sitemaps    bool          `env:"SHOPCRAWL_SITEMAPS" help:"Seed each crawl with URLs from the shop's sitemaps"`
}

// SeedCmd is the "seed" subcommand.
type SeedCmd struct {
	URLs     []string `arg:"" optional:"" name:"url" help:"Shop root URLs"`
	Defaults bool     `help:"Also register the built-in list of shops"`
}

// CrawlCmd is the "crawl" subcommand.
type CrawlCmd struct {
	CrawlFlags `embed:""`
}

// RunCmd is the "run" subcommand.
type RunCmd struct {
	CrawlFlags   `embed:""`
	Interval     time.Duration `default:"24h" env:"SHOPCRAWL_INTERVAL" help:"Delay between the end of one pass and the start of the next"`
	MetricsAddr  string        `env:"SHOPCRAWL_METRICS_ADDR" help:"Serve Prometheus metrics on this address, e.g. :9090"`
	SharedFilter bool          `env:"SHOPCRAWL_SHARED_FILTER" help:"Keep one visited-URL filter for the whole process instead of resetting it every pass. Pages seen in an earlier pass are then never refetched, so retried domains find nothing new."`
}

// StatusCmd is the "status" subcommand.
type StatusCmd struct{}

// DomainsCmd is the "domains" subcommand.
type DomainsCmd struct {
	Status []string `short:"s" help:"Only list domains in these statuses (repeatable)"`
}

// ProductsCmd is the "products" subcommand.
type ProductsCmd struct {
	Domain string `arg:"" help:"Domain ID or URL"`
	Limit  int    `short:"n" help:"Maximum number of products to list"`
}

// RecrawlCmd is the "recrawl" subcommand.
type RecrawlCmd struct {
	Domain string `arg:"" help:"Domain ID or URL"`
	Force  bool   `help:"Also reset a domain stuck in IN_PROGRESS"`
}
