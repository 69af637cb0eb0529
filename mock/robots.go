package mock

import (
	"context"

	"github.com/fwojciec/shopcrawl"
)

var _ shopcrawl.RobotsService = (*RobotsService)(nil)

// RobotsService is a mock implementation of shopcrawl.RobotsService.
type RobotsService struct {
	FetchRobotsFn func(ctx context.Context, baseURL string) string
}

func (s *RobotsService) FetchRobots(ctx context.Context, baseURL string) string {
	return s.FetchRobotsFn(ctx, baseURL)
}
