package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/shopcrawl"
	"github.com/fwojciec/shopcrawl/bloom"
	"github.com/fwojciec/shopcrawl/crawl"
	"github.com/fwojciec/shopcrawl/goquery"
	shophttp "github.com/fwojciec/shopcrawl/http"
	shopprom "github.com/fwojciec/shopcrawl/prometheus"
	shopslog "github.com/fwojciec/shopcrawl/slog"
	"github.com/fwojciec/shopcrawl/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path. Set before calling Run().
	DBPath string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Services for end-to-end testing.
	DomainService  shopcrawl.DomainService
	ProductService shopcrawl.ProductService

	// Collectors of the last crawl or run command.
	Metrics *shopprom.Metrics
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath: defaultDBPath(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("shopcrawl"),
		kong.Description("Discover product pages on e-commerce sites."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'shopcrawl --help' to see available commands")
	}

	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	cmd := strings.Fields(kongCtx.Command())[0]

	level := slog.LevelError
	if cli.Verbose {
		level = slog.LevelDebug
	}
	deps.Logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if cli.DB != "" {
		m.DBPath = cli.DB
	}
	if dir := filepath.Dir(m.DBPath); dir != "." {
		_ = os.MkdirAll(dir, 0755)
	}

	m.DB = sqlite.NewDB(m.DBPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set SHOPCRAWL_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", m.DB.Path(), err)
	}
	defer m.Close()

	m.DomainService = shopslog.NewLoggingDomainService(sqlite.NewDomainService(m.DB), deps.Logger)
	m.ProductService = sqlite.NewProductService(m.DB)
	deps.DB = m.DB
	deps.Domains = m.DomainService
	deps.Products = m.ProductService

	var flags *CrawlFlags
	switch cmd {
	case "crawl":
		flags = &cli.Crawl.CrawlFlags
	case "run":
		flags = &cli.Run.CrawlFlags
	}
	if flags != nil {
		m.Metrics = shopprom.NewMetrics(nil)
		deps.Metrics = m.Metrics

		base := shophttp.NewFetcher(
			shophttp.WithTimeout(flags.Timeout),
			shophttp.WithUserAgent(flags.UserAgent),
		)
		var fetcher shopcrawl.Fetcher = shopprom.NewFetcher(base, m.Metrics)
		fetcher = shopslog.NewLoggingFetcher(fetcher, deps.Logger)
		defer fetcher.Close()

		robots, err := shophttp.NewRobotsService(shopprom.NewRobotsFetcher(base, m.Metrics), flags.RobotsTTL, 0)
		if err != nil {
			return err
		}
		defer robots.Close()

		crawler := &crawl.Crawler{
			Domains:   deps.Domains,
			Products:  deps.Products,
			Robots:    shopslog.NewLoggingRobotsService(robots, deps.Logger),
			Fetcher:   fetcher,
			Extractor: goquery.NewExtractor(),
			Pool:      crawl.NewPool(flags.Concurrency),
			MaxPages:  flags.MaxPages,
		}
		if flags.Sitemaps {
			crawler.Sitemaps = shopslog.NewLoggingSitemapService(shophttp.NewSitemapService(&http.Client{Timeout: flags.Timeout}), deps.Logger)
		}
		if cmd == "run" && cli.Run.SharedFilter {
			crawler.Filter = bloom.NewDefaultFilter()
		}
		deps.Crawler = crawler
	}

	return kongCtx.Run(deps)
}

func defaultDBPath() string {
	if path := os.Getenv("SHOPCRAWL_DB"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "shopcrawl.db"
	}
	return filepath.Join(home, ".shopcrawl", "shopcrawl.db")
}
