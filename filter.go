package shopcrawl

// URLFilter is a probabilistic visited-URL set shared by every crawl task.
// Implementations must be safe for concurrent use and must never report a
// recorded URL as unseen.
type URLFilter interface {
	// Add records the URL.
	Add(url string)

	// Test returns true if the URL might have been recorded.
	Test(url string) bool

	// TestAndAdd records the URL and returns true if it might have been
	// recorded before. Check and record happen atomically.
	TestAndAdd(url string) bool
}
