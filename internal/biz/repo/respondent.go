package repo

import (
	"context"
	"time"

	"github.com/axionhq/axion-router/internal/biz/domain"
)

// RespondentRepo is the respondent repository interface
type RespondentRepo interface {
	// ListActive lists a company's active respondents in stored order
	ListActive(ctx context.Context, companyID string) ([]*domain.Respondent, error)

	// GetByEmail loads a respondent by email. Returns nil, nil when unknown.
	GetByEmail(ctx context.Context, companyID, email string) (*domain.Respondent, error)

	// Save creates or replaces a respondent
	Save(ctx context.Context, companyID string, r *domain.Respondent) error

	// SetPresence updates the online flag and, when lastSeen is non-zero,
	// the lastSeen timestamp. A zero lastSeen preserves the stored value.
	SetPresence(ctx context.Context, companyID, email string, online bool, lastSeen time.Time) error

	// ForceOfflineStale marks respondents offline whose lastSeen is older
	// than the cutoff, preserving lastSeen. Returns the number corrected.
	ForceOfflineStale(ctx context.Context, companyID string, cutoff time.Time) (int64, error)
}
