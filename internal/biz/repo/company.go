package repo

import (
	"context"

	"github.com/axionhq/axion-router/internal/biz/domain"
)

// CompanyRepo is the tenant repository interface
type CompanyRepo interface {
	// Get loads a company by id. Returns nil, nil when unknown.
	Get(ctx context.Context, companyID string) (*domain.Company, error)

	// Save creates or replaces a company
	Save(ctx context.Context, company *domain.Company) error

	// ListIDs returns every known company id
	ListIDs(ctx context.Context) ([]string, error)

	// NextAssignIndex atomically claims the current value of one of the
	// round-robin counters and increments the stored value by one.
	NextAssignIndex(ctx context.Context, companyID string, counter domain.AssignCounter) (int, error)

	// SetAdminOnline flips the admin presence switch
	SetAdminOnline(ctx context.Context, companyID string, online bool) error
}
