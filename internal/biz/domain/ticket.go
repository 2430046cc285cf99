package domain

import "time"

// TicketStatus represents the ticket lifecycle
type TicketStatus string

const (
	TicketOpen    TicketStatus = "open"
	TicketPending TicketStatus = "pending"
	TicketClosed  TicketStatus = "closed"
)

// AdminLabel is the display label for the admin fallback assignee
const AdminLabel = "Admin"

// Assignee is the tagged union of ticket assignment targets: a respondent
// identified by email, or the admin fallback actor.
type Assignee struct {
	Label string
	Email string // empty for the admin fallback
}

// AdminAssignee returns the admin fallback assignee
func AdminAssignee() Assignee {
	return Assignee{Label: AdminLabel}
}

// RespondentAssignee returns an assignee for the given respondent
func RespondentAssignee(r *Respondent) Assignee {
	return Assignee{Label: r.DisplayLabel(), Email: r.Email}
}

// IsAdmin reports whether this is the admin fallback
func (a Assignee) IsAdmin() bool {
	return a.Email == "" || a.Label == AdminLabel
}

// Ticket represents a customer conversation thread
type Ticket struct {
	ID             string
	CompanyID      string
	CustomerID     string
	Status         TicketStatus
	AssignedTo     string
	AssignedEmail  string
	AIEnabled      bool
	LastMessage    string
	HistorySummary string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Assignee returns the ticket's assignment as a tagged value
func (t *Ticket) Assignee() Assignee {
	return Assignee{Label: t.AssignedTo, Email: t.AssignedEmail}
}

// AssignedToHuman reports whether the ticket is assigned to a respondent
// rather than the admin fallback
func (t *Ticket) AssignedToHuman() bool {
	return t.AssignedEmail != "" && t.AssignedTo != AdminLabel
}

// IsClosed reports whether the ticket is terminal for routing purposes
func (t *Ticket) IsClosed() bool {
	return t.Status == TicketClosed
}

// RoutingState is the derived handoff state of a ticket. It is computed
// from ticket and presence inputs on every message, never persisted.
type RoutingState string

const (
	StateAIActive      RoutingState = "ai_active"
	StateHumanActive   RoutingState = "human_active"
	StateAdminFallback RoutingState = "admin_fallback"
)
