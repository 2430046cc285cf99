package repo

import (
	"context"

	"github.com/axionhq/axion-router/internal/biz/domain"
)

// TicketRepo is the ticket and conversation repository interface
type TicketRepo interface {
	// Get loads a ticket by id. Returns nil, nil when unknown.
	Get(ctx context.Context, companyID, ticketID string) (*domain.Ticket, error)

	// FindOpenByCustomer returns the first non-closed ticket for a
	// customer, or nil when none exists
	FindOpenByCustomer(ctx context.Context, companyID, customerID string) (*domain.Ticket, error)

	// ListRecentFinished returns up to limit closed or pending tickets for
	// a customer, most recently updated first
	ListRecentFinished(ctx context.Context, companyID, customerID string, limit int) ([]*domain.Ticket, error)

	// Create writes a new ticket
	Create(ctx context.Context, t *domain.Ticket) error

	// UpdateAssignment sets the assignment fields on a ticket
	UpdateAssignment(ctx context.Context, companyID, ticketID string, a domain.Assignee) error

	// TouchLastMessage updates lastMessage and updatedAt
	TouchLastMessage(ctx context.Context, companyID, ticketID, lastMessage string) error

	// SetAIEnabled flips the AI toggle and updates updatedAt
	SetAIEnabled(ctx context.Context, companyID, ticketID string, enabled bool) error

	// AppendMessage writes a message keyed by its id; re-delivery of the
	// same id overwrites rather than duplicates
	AppendMessage(ctx context.Context, companyID string, m *domain.Message) error

	// RecentMessages returns the last limit messages ordered by createdAt
	// ascending
	RecentMessages(ctx context.Context, companyID, ticketID string, limit int) ([]*domain.Message, error)
}
