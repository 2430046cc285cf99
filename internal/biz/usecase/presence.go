package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/axionhq/axion-router/internal/biz/domain"
	"github.com/axionhq/axion-router/internal/biz/repo"
)

// PresenceUsecase evaluates respondent liveness and corrects stale online
// flags as a side effect
type PresenceUsecase struct {
	respondentRepo repo.RespondentRepo
	now            func() time.Time
}

// NewPresenceUsecase creates a new presence usecase
func NewPresenceUsecase(respondentRepo repo.RespondentRepo) *PresenceUsecase {
	return &PresenceUsecase{
		respondentRepo: respondentRepo,
		now:            time.Now,
	}
}

// IsEffectivelyOnline applies the presence gates to a respondent and, when
// the 10-minute hard threshold has passed, persists the offline correction
// while preserving the original lastSeen. The company wait window only
// affects the returned verdict, never the stored flag.
func (uc *PresenceUsecase) IsEffectivelyOnline(ctx context.Context, companyID string, r *domain.Respondent, wait time.Duration) bool {
	now := uc.now()

	if !r.IsOnline {
		return false
	}
	if r.LastSeen.IsZero() {
		// No timestamp to judge staleness by; trust the flag
		return true
	}
	if r.HardStale(now) {
		mins := int(now.Sub(r.LastSeen) / time.Minute)
		fmt.Printf("[Presence] Auto-correcting stale online flag for %s (last seen %d minutes ago)\n", r.Email, mins)
		if err := uc.respondentRepo.SetPresence(ctx, companyID, r.Email, false, time.Time{}); err != nil {
			fmt.Printf("[Presence] Failed to persist offline correction for %s: %v\n", r.Email, err)
		}
		r.IsOnline = false
		return false
	}
	return now.Sub(r.LastSeen) <= wait
}

// SweepStale forces offline every respondent in a company whose lastSeen is
// past the hard threshold. Returns the number of corrected rows.
func (uc *PresenceUsecase) SweepStale(ctx context.Context, companyID string) (int64, error) {
	cutoff := uc.now().Add(-domain.HardOfflineAfter)
	return uc.respondentRepo.ForceOfflineStale(ctx, companyID, cutoff)
}
