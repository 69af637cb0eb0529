package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/fwojciec/shopcrawl"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ shopcrawl.DomainService = (*DomainService)(nil)

// DomainService implements shopcrawl.DomainService using SQLite.
type DomainService struct {
	db *DB
}

// NewDomainService creates a new DomainService.
func NewDomainService(db *DB) *DomainService {
	return &DomainService{db: db}
}

const domainColumns = "id, url, status, last_crawled_at, created_at"

// CreateDomain registers a new domain. An empty status defaults to PENDING.
func (s *DomainService) CreateDomain(ctx context.Context, domain *shopcrawl.Domain) error {
	if err := domain.Validate(); err != nil {
		return err
	}

	exists, err := s.ExistsByURL(ctx, domain.URL)
	if err != nil {
		return err
	}
	if exists {
		return shopcrawl.Errorf(shopcrawl.ECONFLICT, "domain %q already registered", domain.URL)
	}

	domain.ID = uuid.New().String()
	if domain.Status == "" {
		domain.Status = shopcrawl.StatusPending
	}
	domain.CreatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO domains (id, url, status, last_crawled_at, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, domain.ID, domain.URL, string(domain.Status), formatNullTime(domain.LastCrawledAt),
		domain.CreatedAt.Format(sortableTime))

	return err
}

// FindDomainByID retrieves a domain by ID.
func (s *DomainService) FindDomainByID(ctx context.Context, id string) (*shopcrawl.Domain, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+domainColumns+" FROM domains WHERE id = ?", id)
	return scanDomainRow(row)
}

// FindDomainByURL retrieves a domain by its root URL.
func (s *DomainService) FindDomainByURL(ctx context.Context, url string) (*shopcrawl.Domain, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+domainColumns+" FROM domains WHERE url = ?", url)
	return scanDomainRow(row)
}

// FindDomains retrieves domains matching the filter. Most recently crawled
// domains come first; never-crawled domains follow in registration order.
func (s *DomainService) FindDomains(ctx context.Context, filter shopcrawl.DomainFilter) ([]*shopcrawl.Domain, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT " + domainColumns + " FROM domains WHERE 1=1")
	appendStatusFilter(&query, &args, filter.Statuses)
	query.WriteString(" ORDER BY last_crawled_at IS NULL, last_crawled_at DESC, created_at ASC, id ASC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var domains []*shopcrawl.Domain
	for rows.Next() {
		d, err := scanDomain(rows)
		if err != nil {
			return nil, err
		}
		domains = append(domains, d)
	}

	return domains, rows.Err()
}

// CountDomains returns the number of domains matching the filter.
// Pagination fields are ignored.
func (s *DomainService) CountDomains(ctx context.Context, filter shopcrawl.DomainFilter) (int, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT COUNT(*) FROM domains WHERE 1=1")
	appendStatusFilter(&query, &args, filter.Statuses)

	var n int
	err := s.db.QueryRowContext(ctx, query.String(), args...).Scan(&n)
	return n, err
}

// ExistsByURL reports whether a domain with the URL is registered.
func (s *DomainService) ExistsByURL(ctx context.Context, url string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM domains WHERE url = ?)", url).Scan(&exists)
	return exists, err
}

// UpdateDomain persists the status and last crawl time of a domain.
func (s *DomainService) UpdateDomain(ctx context.Context, domain *shopcrawl.Domain) error {
	if !domain.Status.Valid() {
		return shopcrawl.Errorf(shopcrawl.EINVALID, "unknown domain status %q", domain.Status)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE domains
		SET status = ?, last_crawled_at = ?
		WHERE id = ?
	`, string(domain.Status), formatNullTime(domain.LastCrawledAt), domain.ID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return shopcrawl.Errorf(shopcrawl.ENOTFOUND, "domain not found")
	}
	return nil
}

// appendStatusFilter appends an IN clause for the statuses, if any.
func appendStatusFilter(query *strings.Builder, args *[]any, statuses []shopcrawl.Status) {
	if len(statuses) == 0 {
		return
	}
	query.WriteString(" AND status IN (")
	for i, st := range statuses {
		if i > 0 {
			query.WriteString(", ")
		}
		query.WriteString("?")
		*args = append(*args, string(st))
	}
	query.WriteString(")")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDomainRow(row *sql.Row) (*shopcrawl.Domain, error) {
	d, err := scanDomain(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shopcrawl.Errorf(shopcrawl.ENOTFOUND, "domain not found")
	}
	return d, err
}

func scanDomain(s scanner) (*shopcrawl.Domain, error) {
	var d shopcrawl.Domain
	var status, createdAt string
	var lastCrawledAt sql.NullString

	if err := s.Scan(&d.ID, &d.URL, &status, &lastCrawledAt, &createdAt); err != nil {
		return nil, err
	}
	d.Status = shopcrawl.Status(status)

	var err error
	d.CreatedAt, err = parseRFC3339(createdAt, "created_at")
	if err != nil {
		return nil, err
	}
	if lastCrawledAt.Valid {
		t, err := parseRFC3339(lastCrawledAt.String, "last_crawled_at")
		if err != nil {
			return nil, err
		}
		d.LastCrawledAt = &t
	}
	return &d, nil
}

// formatNullTime formats t for storage or returns nil for a missing time.
func formatNullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(sortableTime)
}
