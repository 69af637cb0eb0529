package shopcrawl

import (
	"context"
	"net/url"
	"time"
)

// Status is the crawl lifecycle state of a Domain.
type Status string

// Crawl statuses.
const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted, StatusFailed}

// EligibleStatuses are the statuses a domain must be in to be picked up
// by a crawl pass.
var EligibleStatuses = []Status{StatusPending, StatusFailed}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// CanTransition reports whether a domain in status s may move to status to.
//
//	PENDING     -> IN_PROGRESS
//	FAILED      -> IN_PROGRESS, PENDING
//	IN_PROGRESS -> COMPLETED, FAILED
//	COMPLETED   -> PENDING
func (s Status) CanTransition(to Status) bool {
	switch s {
	case StatusPending:
		return to == StatusInProgress
	case StatusFailed:
		return to == StatusInProgress || to == StatusPending
	case StatusInProgress:
		return to == StatusCompleted || to == StatusFailed
	case StatusCompleted:
		return to == StatusPending
	}
	return false
}

// Domain is a root e-commerce site under crawl.
type Domain struct {
	ID            string     `json:"id"`
	URL           string     `json:"url"`
	Status        Status     `json:"status"`
	LastCrawledAt *time.Time `json:"lastCrawledAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// Validate returns an error if the domain contains invalid fields.
func (d *Domain) Validate() error {
	if d.URL == "" {
		return Errorf(EINVALID, "domain URL required")
	}
	u, err := url.Parse(d.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Errorf(EINVALID, "domain URL must be absolute: %q", d.URL)
	}
	if d.Status != "" && !d.Status.Valid() {
		return Errorf(EINVALID, "unknown domain status %q", d.Status)
	}
	return nil
}

// Transition moves the domain to status to. Moving to COMPLETED stamps
// LastCrawledAt with now. Returns EINVALID for an illegal transition.
func (d *Domain) Transition(to Status, now time.Time) error {
	if !d.Status.CanTransition(to) {
		return Errorf(EINVALID, "illegal status transition %s -> %s", d.Status, to)
	}
	d.Status = to
	if to == StatusCompleted {
		t := now
		d.LastCrawledAt = &t
	}
	return nil
}

// DomainService represents a service for managing domains.
type DomainService interface {
	// CreateDomain registers a new domain in PENDING status.
	// Returns ECONFLICT if a domain with the same URL exists.
	CreateDomain(ctx context.Context, domain *Domain) error

	// FindDomainByID retrieves a domain by ID.
	// Returns ENOTFOUND if domain does not exist.
	FindDomainByID(ctx context.Context, id string) (*Domain, error)

	// FindDomainByURL retrieves a domain by its root URL.
	// Returns ENOTFOUND if domain does not exist.
	FindDomainByURL(ctx context.Context, url string) (*Domain, error)

	// FindDomains retrieves domains matching the filter, most recently
	// crawled first.
	FindDomains(ctx context.Context, filter DomainFilter) ([]*Domain, error)

	// CountDomains returns the number of domains matching the filter.
	CountDomains(ctx context.Context, filter DomainFilter) (int, error)

	// ExistsByURL reports whether a domain with the URL is registered.
	ExistsByURL(ctx context.Context, url string) (bool, error)

	// UpdateDomain persists the status and last crawl time of a domain.
	// Returns ENOTFOUND if domain does not exist.
	UpdateDomain(ctx context.Context, domain *Domain) error
}

// DomainFilter represents a filter for FindDomains and CountDomains.
// An empty Statuses slice matches every status.
type DomainFilter struct {
	Statuses []Status `json:"statuses"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}
