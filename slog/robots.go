package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/shopcrawl"
)

// Ensure LoggingRobotsService implements shopcrawl.RobotsService.
var _ shopcrawl.RobotsService = (*LoggingRobotsService)(nil)

// LoggingRobotsService wraps a RobotsService and logs the parsed rule count.
type LoggingRobotsService struct {
	next   shopcrawl.RobotsService
	logger *slog.Logger
}

// NewLoggingRobotsService creates a new LoggingRobotsService.
func NewLoggingRobotsService(next shopcrawl.RobotsService, logger *slog.Logger) *LoggingRobotsService {
	return &LoggingRobotsService{next: next, logger: logger}
}

// FetchRobots delegates to the wrapped service and logs the result.
func (s *LoggingRobotsService) FetchRobots(ctx context.Context, baseURL string) (text string) {
	defer func(begin time.Time) {
		s.logger.Info("robots",
			"url", baseURL,
			"disallow", len(shopcrawl.ParseRobots(text)),
			"duration", time.Since(begin),
		)
	}(time.Now())
	return s.next.FetchRobots(ctx, baseURL)
}
