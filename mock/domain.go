package mock

import (
	"context"

	"github.com/fwojciec/shopcrawl"
)

var _ shopcrawl.DomainService = (*DomainService)(nil)

// DomainService is a mock implementation of shopcrawl.DomainService.
type DomainService struct {
	CreateDomainFn    func(ctx context.Context, domain *shopcrawl.Domain) error
	FindDomainByIDFn  func(ctx context.Context, id string) (*shopcrawl.Domain, error)
	FindDomainByURLFn func(ctx context.Context, url string) (*shopcrawl.Domain, error)
	FindDomainsFn     func(ctx context.Context, filter shopcrawl.DomainFilter) ([]*shopcrawl.Domain, error)
	CountDomainsFn    func(ctx context.Context, filter shopcrawl.DomainFilter) (int, error)
	ExistsByURLFn     func(ctx context.Context, url string) (bool, error)
	UpdateDomainFn    func(ctx context.Context, domain *shopcrawl.Domain) error
}

func (s *DomainService) CreateDomain(ctx context.Context, domain *shopcrawl.Domain) error {
	return s.CreateDomainFn(ctx, domain)
}

func (s *DomainService) FindDomainByID(ctx context.Context, id string) (*shopcrawl.Domain, error) {
	return s.FindDomainByIDFn(ctx, id)
}

func (s *DomainService) FindDomainByURL(ctx context.Context, url string) (*shopcrawl.Domain, error) {
	return s.FindDomainByURLFn(ctx, url)
}

func (s *DomainService) FindDomains(ctx context.Context, filter shopcrawl.DomainFilter) ([]*shopcrawl.Domain, error) {
	return s.FindDomainsFn(ctx, filter)
}

func (s *DomainService) CountDomains(ctx context.Context, filter shopcrawl.DomainFilter) (int, error) {
	return s.CountDomainsFn(ctx, filter)
}

func (s *DomainService) ExistsByURL(ctx context.Context, url string) (bool, error) {
	return s.ExistsByURLFn(ctx, url)
}

func (s *DomainService) UpdateDomain(ctx context.Context, domain *shopcrawl.Domain) error {
	return s.UpdateDomainFn(ctx, domain)
}
