package crawl

import (
	"context"

	"github.com/fwojciec/shopcrawl"
	"golang.org/x/sync/semaphore"
)

// DefaultPoolSize is the number of network fetches allowed in flight
// across a whole crawl pass.
const DefaultPoolSize = 10

// Pool is the concurrency budget shared by every domain in a pass and by
// the recursive fan-out inside each domain. Only network work holds a
// slot; goroutines waiting on children hold none, so recursion cannot
// starve itself.
type Pool struct {
	sem  *semaphore.Weighted
	size int
}

// NewPool creates a Pool admitting size concurrent fetches.
// Non-positive sizes use DefaultPoolSize.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = DefaultPoolSize
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size)), size: size}
}

// Size returns the number of slots in the pool.
func (p *Pool) Size() int {
	return p.size
}

// Do runs fn once a slot is free. Waiting work queues rather than being
// dropped. Returns the context error if ctx ends before a slot frees up.
func (p *Pool) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)
	return fn(ctx)
}

// Fetch fetches url with f inside a pool slot.
func (p *Pool) Fetch(ctx context.Context, f shopcrawl.Fetcher, url string) (string, error) {
	var body string
	err := p.Do(ctx, func(ctx context.Context) error {
		var err error
		body, err = f.Fetch(ctx, url)
		return err
	})
	return body, err
}
