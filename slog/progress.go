package slog

import (
	"log/slog"

	"github.com/fwojciec/shopcrawl/crawl"
)

// ProgressLogger returns a crawl.ProgressFunc that logs each event.
func ProgressLogger(logger *slog.Logger) crawl.ProgressFunc {
	return func(e crawl.ProgressEvent) {
		var url string
		if e.Domain != nil {
			url = e.Domain.URL
		}
		switch e.Type {
		case crawl.ProgressDomainStarted:
			logger.Info("crawl started", "domain", url)
		case crawl.ProgressProductFound:
			logger.Debug("product found", "domain", url, "url", e.URL)
		case crawl.ProgressDomainCompleted:
			logger.Info("crawl completed",
				"domain", url,
				"products", e.Products,
				"pages", e.Pages,
			)
		case crawl.ProgressDomainFailed:
			logger.Error("crawl failed", "domain", url, "err", e.Error)
		}
	}
}
