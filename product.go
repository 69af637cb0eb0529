package shopcrawl

import (
	"context"
	"strings"
	"time"
)

// productMarkers are URL fragments that identify a product listing page.
var productMarkers = []string{"/product/", "/item/", "/p/", "/pr/", "-p-", "/prod/"}

// IsProduct reports whether the URL looks like an individual product page.
// It is a pure string heuristic: no page content is inspected.
func IsProduct(url string) bool {
	for _, m := range productMarkers {
		if strings.Contains(url, m) {
			return true
		}
	}
	return false
}

// ProductURL is a page classified as an individual product listing.
// It references its domain by ID.
type ProductURL struct {
	ID           string    `json:"id"`
	DomainID     string    `json:"domainId"`
	URL          string    `json:"url"`
	DiscoveredAt time.Time `json:"discoveredAt"`
}

// Validate returns an error if the product contains invalid fields.
func (p *ProductURL) Validate() error {
	if p.DomainID == "" {
		return Errorf(EINVALID, "product domain ID required")
	}
	if p.URL == "" {
		return Errorf(EINVALID, "product URL required")
	}
	return nil
}

// ProductService represents a service for managing discovered products.
type ProductService interface {
	// ExistsByURL reports whether the product URL has been recorded.
	ExistsByURL(ctx context.Context, url string) (bool, error)

	// CreateProducts records products whose URL is not stored yet and
	// returns how many were inserted. Already-known URLs are skipped.
	CreateProducts(ctx context.Context, products []*ProductURL) (int, error)

	// FindProducts retrieves products matching the filter.
	FindProducts(ctx context.Context, filter ProductFilter) ([]*ProductURL, error)

	// CountProducts returns the number of products matching the filter.
	CountProducts(ctx context.Context, filter ProductFilter) (int, error)
}

// ProductFilter represents a filter for FindProducts and CountProducts.
type ProductFilter struct {
	DomainID *string `json:"domainId"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}
