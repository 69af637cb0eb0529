// Package slog provides logging decorators for shopcrawl services using
// the standard log/slog package.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/shopcrawl"
)

// Ensure LoggingFetcher implements shopcrawl.Fetcher.
var _ shopcrawl.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with per-request logging. Failed fetches
// are logged at warn level since the crawler otherwise absorbs them.
type LoggingFetcher struct {
	next   shopcrawl.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next shopcrawl.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch delegates to the wrapped fetcher and logs the request. Successful
// fetches log at debug level; a pass fetches thousands of pages.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string) (body string, err error) {
	defer func(begin time.Time) {
		attrs := []slog.Attr{
			slog.String("url", url),
			slog.Duration("duration", time.Since(begin)),
		}
		level := slog.LevelDebug
		if err != nil {
			level = slog.LevelWarn
			attrs = append(attrs, slog.Any("err", err))
		} else {
			attrs = append(attrs, slog.Int("bytes", len(body)))
		}
		f.logger.LogAttrs(ctx, level, "fetch", attrs...)
	}(time.Now())
	return f.next.Fetch(ctx, url)
}

// Close delegates to the wrapped fetcher.
func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}
