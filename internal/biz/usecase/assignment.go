package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/axionhq/axion-router/internal/biz/domain"
	"github.com/axionhq/axion-router/internal/biz/repo"
)

// AssignmentUsecase picks a respondent (or the admin fallback) for a new
// ticket using tiered round-robin over the company's active respondents
type AssignmentUsecase struct {
	companyRepo    repo.CompanyRepo
	respondentRepo repo.RespondentRepo
	now            func() time.Time
}

// NewAssignmentUsecase creates a new assignment usecase
func NewAssignmentUsecase(companyRepo repo.CompanyRepo, respondentRepo repo.RespondentRepo) *AssignmentUsecase {
	return &AssignmentUsecase{
		companyRepo:    companyRepo,
		respondentRepo: respondentRepo,
		now:            time.Now,
	}
}

// Select resolves the assignee for a new ticket. Tiers, first non-empty
// wins: online respondents, recently-online respondents, the admin if
// online, then any respondent at all. The matching round-robin counter is
// claimed atomically so concurrent assignments spread across respondents.
func (uc *AssignmentUsecase) Select(ctx context.Context, company *domain.Company) (domain.Assignee, error) {
	respondents, err := uc.respondentRepo.ListActive(ctx, company.ID)
	if err != nil {
		return domain.Assignee{}, fmt.Errorf("list respondents: %w", err)
	}

	if len(respondents) == 0 {
		fmt.Printf("[Assign] No respondents for company %s, assigned to Admin\n", company.ID)
		return domain.AdminAssignee(), nil
	}

	now := uc.now()

	// Tier order is significant: store order within a tier must be kept
	var online []*domain.Respondent
	var recent []*domain.Respondent
	for _, r := range respondents {
		if r.IsOnline {
			online = append(online, r)
		}
		if r.RecentlyOnline(now) {
			recent = append(recent, r)
		}
	}

	if len(online) > 0 {
		return uc.roundRobin(ctx, company.ID, domain.CounterOnline, online)
	}
	if len(recent) > 0 {
		return uc.roundRobin(ctx, company.ID, domain.CounterRecent, recent)
	}

	// Admin presence outranks offline respondents
	if company.AdminOnline {
		fmt.Printf("[Assign] Admin online, assigned to Admin over offline respondents\n")
		return domain.AdminAssignee(), nil
	}

	return uc.roundRobin(ctx, company.ID, domain.CounterAny, respondents)
}

func (uc *AssignmentUsecase) roundRobin(ctx context.Context, companyID string, counter domain.AssignCounter, pool []*domain.Respondent) (domain.Assignee, error) {
	index, err := uc.companyRepo.NextAssignIndex(ctx, companyID, counter)
	if err != nil {
		// A lost increment only skews fairness; fall back to the head
		fmt.Printf("[Assign] Failed to claim %s index: %v\n", counter, err)
		index = 0
	}

	picked := pool[index%len(pool)]
	assignee := domain.RespondentAssignee(picked)
	fmt.Printf("[Assign] Round-robin %s tier: %d/%d -> %s (%s)\n",
		counter, index%len(pool)+1, len(pool), assignee.Label, assignee.Email)
	return assignee, nil
}
