package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/fwojciec/shopcrawl"
	"github.com/fwojciec/shopcrawl/crawl"
	shopslog "github.com/fwojciec/shopcrawl/slog"
)

// Run executes the crawl command.
func (c *CrawlCmd) Run(deps *Dependencies) error {
	result, err := runPass(deps)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", shopcrawl.ErrorMessage(err))
		return err
	}
	if result.Failed > 0 {
		return fmt.Errorf("%d of %d domains failed", result.Failed, result.Domains)
	}
	return nil
}

// Run executes the run command. A pass starts immediately and the next
// one Interval after the previous pass finished.
func (c *RunCmd) Run(deps *Dependencies) error {
	if c.Interval <= 0 {
		fmt.Fprintln(deps.Stderr, "error: --interval must be positive")
		return shopcrawl.Errorf(shopcrawl.EINVALID, "interval must be positive")
	}

	if c.MetricsAddr != "" && deps.Metrics != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", deps.Metrics.Handler())
		srv := &http.Server{Addr: c.MetricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				fmt.Fprintf(deps.Stderr, "error: metrics server: %v\n", err)
			}
		}()
		defer srv.Shutdown(context.WithoutCancel(deps.Ctx))
		fmt.Fprintf(deps.Stdout, "Serving metrics on %s/metrics\n", c.MetricsAddr)
	}

	for {
		if _, err := runPass(deps); err != nil {
			if deps.Ctx.Err() != nil {
				return nil
			}
			// The next pass retries; a store hiccup should not end the loop.
			fmt.Fprintf(deps.Stderr, "error: %s\n", shopcrawl.ErrorMessage(err))
		}

		select {
		case <-deps.Ctx.Done():
			return nil
		case <-time.After(c.Interval):
		}
	}
}

// runPass runs one crawl pass and prints its progress and summary.
func runPass(deps *Dependencies) (*crawl.PassResult, error) {
	progress := printProgress(deps.Stdout)
	if deps.Logger != nil {
		printEvent := progress
		logEvent := shopslog.ProgressLogger(deps.Logger)
		progress = func(e crawl.ProgressEvent) {
			printEvent(e)
			logEvent(e)
		}
	}
	if deps.Metrics != nil {
		progress = deps.Metrics.Progress(progress)
	}

	result, err := deps.Crawler.RunPass(deps.Ctx, progress)
	if err != nil {
		return nil, err
	}

	if deps.Metrics != nil {
		// The pass itself succeeded; a stale gauge is only logged.
		if err := deps.Metrics.RefreshDomains(deps.Ctx, deps.Domains); err != nil && deps.Logger != nil {
			deps.Logger.Error("refresh domain metrics", "err", err)
		}
	}

	if result.Domains == 0 {
		fmt.Fprintln(deps.Stdout, "No domains to crawl. Use 'shopcrawl seed' to add some, or 'shopcrawl recrawl' to reset one.")
		return result, nil
	}
	fmt.Fprintln(deps.Stdout, crawl.FormatPass(result))
	return result, nil
}

// printProgress returns a ProgressFunc writing domain-level events to w.
// Product events are skipped; the summary carries their count.
func printProgress(w io.Writer) crawl.ProgressFunc {
	var mu sync.Mutex
	return func(e crawl.ProgressEvent) {
		if e.Type == crawl.ProgressProductFound {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintln(w, crawl.FormatEvent(e))
	}
}
