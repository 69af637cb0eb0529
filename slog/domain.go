package slog

import (
	"context"
	"log/slog"

	"github.com/fwojciec/shopcrawl"
)

// Ensure LoggingDomainService implements shopcrawl.DomainService.
var _ shopcrawl.DomainService = (*LoggingDomainService)(nil)

// LoggingDomainService wraps a DomainService and logs writes. Reads are
// passed through.
type LoggingDomainService struct {
	next   shopcrawl.DomainService
	logger *slog.Logger
}

// NewLoggingDomainService creates a new LoggingDomainService.
func NewLoggingDomainService(next shopcrawl.DomainService, logger *slog.Logger) *LoggingDomainService {
	return &LoggingDomainService{next: next, logger: logger}
}

// CreateDomain delegates to the wrapped service and logs the registration.
func (s *LoggingDomainService) CreateDomain(ctx context.Context, domain *shopcrawl.Domain) (err error) {
	defer func() {
		s.logger.Info("domain registered",
			"url", domain.URL,
			"id", domain.ID,
			"err", err,
		)
	}()
	return s.next.CreateDomain(ctx, domain)
}

// UpdateDomain delegates to the wrapped service and logs the status change.
func (s *LoggingDomainService) UpdateDomain(ctx context.Context, domain *shopcrawl.Domain) (err error) {
	defer func() {
		level := slog.LevelInfo
		if err != nil || domain.Status == shopcrawl.StatusFailed {
			level = slog.LevelWarn
		}
		s.logger.Log(ctx, level, "domain status",
			"url", domain.URL,
			"status", string(domain.Status),
			"err", err,
		)
	}()
	return s.next.UpdateDomain(ctx, domain)
}

func (s *LoggingDomainService) FindDomainByID(ctx context.Context, id string) (*shopcrawl.Domain, error) {
	return s.next.FindDomainByID(ctx, id)
}

func (s *LoggingDomainService) FindDomainByURL(ctx context.Context, url string) (*shopcrawl.Domain, error) {
	return s.next.FindDomainByURL(ctx, url)
}

func (s *LoggingDomainService) FindDomains(ctx context.Context, filter shopcrawl.DomainFilter) ([]*shopcrawl.Domain, error) {
	return s.next.FindDomains(ctx, filter)
}

func (s *LoggingDomainService) CountDomains(ctx context.Context, filter shopcrawl.DomainFilter) (int, error) {
	return s.next.CountDomains(ctx, filter)
}

func (s *LoggingDomainService) ExistsByURL(ctx context.Context, url string) (bool, error) {
	return s.next.ExistsByURL(ctx, url)
}
