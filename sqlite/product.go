package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/shopcrawl"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ shopcrawl.ProductService = (*ProductService)(nil)

// ProductService implements shopcrawl.ProductService using SQLite.
type ProductService struct {
	db *DB
}

// NewProductService creates a new ProductService.
func NewProductService(db *DB) *ProductService {
	return &ProductService{db: db}
}

// hashURL returns the xxHash of a URL as a signed integer for the indexed
// url_hash column.
func hashURL(url string) int64 {
	return int64(xxhash.Sum64String(url))
}

// ExistsByURL reports whether the product URL has been recorded.
func (s *ProductService) ExistsByURL(ctx context.Context, url string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM products WHERE url_hash = ? AND url = ?)",
		hashURL(url), url).Scan(&exists)
	return exists, err
}

// CreateProducts inserts the products whose URL is not yet stored, inside a
// single transaction, and returns how many rows were added. IDs and
// discovery times are assigned to inserted products.
func (s *ProductService) CreateProducts(ctx context.Context, products []*shopcrawl.ProductURL) (int, error) {
	for _, p := range products {
		if err := p.Validate(); err != nil {
			return 0, err
		}
	}
	if len(products) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	inserted := 0
	for _, p := range products {
		h := hashURL(p.URL)

		var exists bool
		if err := tx.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM products WHERE url_hash = ? AND url = ?)",
			h, p.URL).Scan(&exists); err != nil {
			return 0, err
		}
		if exists {
			continue
		}

		p.ID = uuid.New().String()
		if p.DiscoveredAt.IsZero() {
			p.DiscoveredAt = now
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO products (id, domain_id, url, url_hash, discovered_at)
			VALUES (?, ?, ?, ?, ?)
		`, p.ID, p.DomainID, p.URL, h, p.DiscoveredAt.UTC().Format(sortableTime)); err != nil {
			return 0, err
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// FindProducts retrieves products matching the filter in discovery order.
func (s *ProductService) FindProducts(ctx context.Context, filter shopcrawl.ProductFilter) ([]*shopcrawl.ProductURL, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT id, domain_id, url, discovered_at FROM products WHERE 1=1")
	if filter.DomainID != nil {
		query.WriteString(" AND domain_id = ?")
		args = append(args, *filter.DomainID)
	}
	query.WriteString(" ORDER BY discovered_at ASC, url ASC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*shopcrawl.ProductURL
	for rows.Next() {
		var p shopcrawl.ProductURL
		var discoveredAt string
		if err := rows.Scan(&p.ID, &p.DomainID, &p.URL, &discoveredAt); err != nil {
			return nil, err
		}
		if p.DiscoveredAt, err = parseRFC3339(discoveredAt, "discovered_at"); err != nil {
			return nil, err
		}
		products = append(products, &p)
	}

	return products, rows.Err()
}

// CountProducts returns the number of products matching the filter.
func (s *ProductService) CountProducts(ctx context.Context, filter shopcrawl.ProductFilter) (int, error) {
	query := "SELECT COUNT(*) FROM products"
	var args []any
	if filter.DomainID != nil {
		query += " WHERE domain_id = ?"
		args = append(args, *filter.DomainID)
	}

	var n int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}
