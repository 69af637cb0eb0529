// Package shopcrawl discovers product pages on e-commerce sites.
// It recursively follows same-domain links from each registered shop,
// honours robots.txt Disallow rules, deduplicates visited URLs with a
// Bloom filter, and records every URL that looks like a product listing.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, goquery/, bloom/).
package shopcrawl
