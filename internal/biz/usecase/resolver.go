package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/axionhq/axion-router/internal/biz/domain"
	"github.com/axionhq/axion-router/internal/biz/repo"
)

// historyLookback is how many finished tickets feed the customer summary
const historyLookback = 3

// TicketResolverUsecase finds or creates the ticket an inbound message
// belongs to
type TicketResolverUsecase struct {
	ticketRepo repo.TicketRepo
	assignUC   *AssignmentUsecase
	now        func() time.Time

	// Collapses concurrent find-or-create for the same customer within
	// this process; cross-process races remain a known risk window
	creates singleflight.Group
}

// NewTicketResolverUsecase creates a new ticket resolver
func NewTicketResolverUsecase(ticketRepo repo.TicketRepo, assignUC *AssignmentUsecase) *TicketResolverUsecase {
	return &TicketResolverUsecase{
		ticketRepo: ticketRepo,
		assignUC:   assignUC,
		now:        time.Now,
	}
}

// ResolveResult is the outcome of ticket resolution
type ResolveResult struct {
	Ticket  *domain.Ticket
	Created bool
}

// NormalizeCustomerID strips the provider addressing prefix from a sender
// identifier so tickets key on the bare number
func NormalizeCustomerID(from string) string {
	return strings.TrimPrefix(from, "whatsapp:")
}

// Resolve returns the open ticket for a customer, creating and assigning
// one when none exists. The inbound message itself is persisted by the
// caller after arbitration so lastMessage and the ack stay consistent.
func (uc *TicketResolverUsecase) Resolve(ctx context.Context, company *domain.Company, customerID string) (*ResolveResult, error) {
	key := company.ID + "|" + customerID
	v, err, _ := uc.creates.Do(key, func() (interface{}, error) {
		return uc.resolve(ctx, company, customerID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*ResolveResult), nil
}

func (uc *TicketResolverUsecase) resolve(ctx context.Context, company *domain.Company, customerID string) (*ResolveResult, error) {
	existing, err := uc.ticketRepo.FindOpenByCustomer(ctx, company.ID, customerID)
	if err != nil {
		return nil, fmt.Errorf("find open ticket: %w", err)
	}
	if existing != nil {
		fmt.Printf("[Resolver] Using existing ticket %s for customer %s\n", existing.ID, customerID)
		return &ResolveResult{Ticket: existing}, nil
	}

	now := uc.now()
	summary := uc.customerHistorySummary(ctx, company.ID, customerID, now)

	ticket := &domain.Ticket{
		ID:             "ticket-" + uuid.NewString(),
		CompanyID:      company.ID,
		CustomerID:     customerID,
		Status:         domain.TicketOpen,
		AIEnabled:      true,
		HistorySummary: summary,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := uc.ticketRepo.Create(ctx, ticket); err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}

	// Two-phase write: the ticket must exist before assignment touches it,
	// since assignment reads and increments company counters on the way
	assignee, err := uc.assignUC.Select(ctx, company)
	if err != nil {
		fmt.Printf("[Resolver] Assignment failed for ticket %s, falling back to Admin: %v\n", ticket.ID, err)
		assignee = domain.AdminAssignee()
	}
	if err := uc.ticketRepo.UpdateAssignment(ctx, company.ID, ticket.ID, assignee); err != nil {
		return nil, fmt.Errorf("assign ticket: %w", err)
	}
	ticket.AssignedTo = assignee.Label
	ticket.AssignedEmail = assignee.Email

	if summary != "" {
		msg := &domain.Message{
			ID:       "system-history-" + uuid.NewString(),
			TicketID: ticket.ID,
			From:     "System",
			Role:     domain.RoleSystem,
			Kind:     domain.KindHistory,
			Body:     summary + "\n\nCheck the customer history section above for previous conversations and context.",
		}
		if err := uc.ticketRepo.AppendMessage(ctx, company.ID, msg); err != nil {
			fmt.Printf("[Resolver] Failed to store history message for ticket %s: %v\n", ticket.ID, err)
		}
	}

	fmt.Printf("[Resolver] Created ticket %s for customer %s, assigned to %s\n", ticket.ID, customerID, assignee.Label)
	return &ResolveResult{Ticket: ticket, Created: true}, nil
}

// customerHistorySummary builds the returning-customer line from recent
// finished tickets. Lookup failures soft-fail to an empty summary.
func (uc *TicketResolverUsecase) customerHistorySummary(ctx context.Context, companyID, customerID string, now time.Time) string {
	previous, err := uc.ticketRepo.ListRecentFinished(ctx, companyID, customerID, historyLookback)
	if err != nil {
		fmt.Printf("[Resolver] History lookup failed for customer %s: %v\n", customerID, err)
		return ""
	}
	if len(previous) == 0 {
		return ""
	}

	plural := "s"
	if len(previous) == 1 {
		plural = ""
	}
	summary := fmt.Sprintf("Returning customer with %d previous interaction%s. ", len(previous), plural)

	daysSince := int(now.Sub(previous[0].UpdatedAt).Hours() / 24)
	switch {
	case daysSince <= 0:
		summary += "Last interaction was today."
	case daysSince == 1:
		summary += "Last interaction was yesterday."
	default:
		summary += fmt.Sprintf("Last interaction was %d days ago.", daysSince)
	}
	return summary
}
