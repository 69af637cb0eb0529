package http

import (
	"context"
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/fwojciec/shopcrawl"
)

// Robots cache defaults.
const (
	DefaultRobotsTTL     = time.Hour
	DefaultRobotsEntries = 1000
)

// robotsCacheMB caps the memory held by cached robots.txt bodies.
const robotsCacheMB = 16

// Ensure RobotsService implements shopcrawl.RobotsService at compile time.
var _ shopcrawl.RobotsService = (*RobotsService)(nil)

// RobotsService fetches robots.txt files and caches them per base URL in a
// bigcache. It is safe for concurrent use.
type RobotsService struct {
	fetcher shopcrawl.Fetcher
	ttl     time.Duration
	cache   *bigcache.BigCache

	// Now returns the current time. Overridable for tests.
	Now func() time.Time
}

// NewRobotsService returns a RobotsService that fetches with fetcher and
// keeps results for ttl. maxEntries sizes the cache for that many shops.
// Non-positive values select the defaults. Call Close to stop the cache's
// cleanup goroutine.
func NewRobotsService(fetcher shopcrawl.Fetcher, ttl time.Duration, maxEntries int) (*RobotsService, error) {
	if ttl <= 0 {
		ttl = DefaultRobotsTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultRobotsEntries
	}

	cache, err := bigcache.New(context.Background(), bigcache.Config{
		Shards:             16,
		LifeWindow:         ttl,
		CleanWindow:        cleanWindow(ttl),
		MaxEntriesInWindow: maxEntries,
		MaxEntrySize:       512,
		HardMaxCacheSize:   robotsCacheMB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create robots cache: %w", err)
	}

	return &RobotsService{
		fetcher: fetcher,
		ttl:     ttl,
		cache:   cache,
		Now:     time.Now,
	}, nil
}

// cleanWindow is how often expired entries are purged: half the TTL, at
// least a second since bigcache tracks entry age in seconds.
func cleanWindow(ttl time.Duration) time.Duration {
	return max(ttl/2, time.Second)
}

// FetchRobots returns the robots.txt body for baseURL. Network errors,
// timeouts and non-2xx responses all yield "". Failures are cached like
// successes so an unreachable robots.txt is not retried on every pass.
func (s *RobotsService) FetchRobots(ctx context.Context, baseURL string) string {
	key := strings.TrimSuffix(baseURL, "/")

	if text, ok := s.lookup(key); ok {
		return text
	}

	text, err := s.fetcher.Fetch(ctx, key+"/robots.txt")
	if err != nil {
		// A canceled crawl says nothing about the shop's robots.txt.
		if ctx.Err() != nil {
			return ""
		}
		text = ""
	}

	// A full cache only costs a refetch on the next pass.
	_ = s.cache.Set(key, encodeRobots(s.Now(), text))
	return text
}

// Close stops the cache's cleanup goroutine.
func (s *RobotsService) Close() error {
	return s.cache.Close()
}

// lookup returns the cached text for key if it is younger than the TTL.
// bigcache purges expired entries only every CleanWindow, so age is also
// checked here.
func (s *RobotsService) lookup(key string) (string, bool) {
	entry, err := s.cache.Get(key)
	if err != nil {
		// bigcache.ErrEntryNotFound, or an entry purged by the cleaner.
		return "", false
	}
	fetchedAt, text, ok := decodeRobots(entry)
	if !ok || s.Now().Sub(fetchedAt) >= s.ttl {
		return "", false
	}
	return text, true
}

// encodeRobots prefixes text with its fetch time in Unix nanoseconds.
func encodeRobots(fetchedAt time.Time, text string) []byte {
	buf := make([]byte, 8+len(text))
	binary.BigEndian.PutUint64(buf, uint64(fetchedAt.UnixNano()))
	copy(buf[8:], text)
	return buf
}

func decodeRobots(entry []byte) (time.Time, string, bool) {
	if len(entry) < 8 {
		return time.Time{}, "", false
	}
	nanos := int64(binary.BigEndian.Uint64(entry))
	return time.Unix(0, nanos), string(entry[8:]), true
}
