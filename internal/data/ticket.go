package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/axionhq/axion-router/internal/biz/domain"
	"github.com/axionhq/axion-router/internal/biz/repo"
)

// ticketRepo implements the ticket and message repository over SQLite
type ticketRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewTicketRepo creates a new ticket repository
func NewTicketRepo(db *sql.DB) repo.TicketRepo {
	return &ticketRepo{db: db, now: time.Now}
}

const ticketColumns = `id, company_id, customer_id, status, assigned_to, assigned_email,
	ai_enabled, last_message, history_summary, created_at, updated_at`

// Get loads a ticket by id
func (r *ticketRepo) Get(ctx context.Context, companyID, ticketID string) (*domain.Ticket, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+ticketColumns+`
		FROM tickets
		WHERE company_id = ? AND id = ?
	`, companyID, ticketID)
	return scanTicket(row)
}

// FindOpenByCustomer returns the first non-closed ticket for a customer.
// Oldest first: concurrent duplicate creates converge on one winner.
func (r *ticketRepo) FindOpenByCustomer(ctx context.Context, companyID, customerID string) (*domain.Ticket, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+ticketColumns+`
		FROM tickets
		WHERE company_id = ? AND customer_id = ? AND status != ?
		ORDER BY created_at ASC
		LIMIT 1
	`, companyID, customerID, string(domain.TicketClosed))
	return scanTicket(row)
}

// ListRecentFinished returns closed or pending tickets for a customer,
// most recently updated first
func (r *ticketRepo) ListRecentFinished(ctx context.Context, companyID, customerID string, limit int) ([]*domain.Ticket, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+ticketColumns+`
		FROM tickets
		WHERE company_id = ? AND customer_id = ? AND status IN (?, ?)
		ORDER BY updated_at DESC
		LIMIT ?
	`, companyID, customerID, string(domain.TicketClosed), string(domain.TicketPending), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list finished tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*domain.Ticket
	for rows.Next() {
		var t domain.Ticket
		var aiEnabled int
		var createdAt, updatedAt int64
		if err := rows.Scan(&t.ID, &t.CompanyID, &t.CustomerID, (*string)(&t.Status), &t.AssignedTo,
			&t.AssignedEmail, &aiEnabled, &t.LastMessage, &t.HistorySummary, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		t.AIEnabled = aiEnabled != 0
		t.CreatedAt = time.UnixMilli(createdAt)
		t.UpdatedAt = time.UnixMilli(updatedAt)
		tickets = append(tickets, &t)
	}
	return tickets, rows.Err()
}

// Create writes a new ticket
func (r *ticketRepo) Create(ctx context.Context, t *domain.Ticket) error {
	now := r.now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tickets (`+ticketColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.CompanyID, t.CustomerID, string(t.Status), t.AssignedTo, t.AssignedEmail,
		boolToInt(t.AIEnabled), t.LastMessage, t.HistorySummary,
		t.CreatedAt.UnixMilli(), t.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to create ticket: %w", err)
	}
	return nil
}

// UpdateAssignment sets the assignment fields on a ticket
func (r *ticketRepo) UpdateAssignment(ctx context.Context, companyID, ticketID string, a domain.Assignee) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE tickets SET assigned_to = ?, assigned_email = ?, updated_at = ?
		WHERE company_id = ? AND id = ?
	`, a.Label, a.Email, r.now().UnixMilli(), companyID, ticketID)
	if err != nil {
		return fmt.Errorf("failed to update assignment: %w", err)
	}
	return nil
}

// TouchLastMessage updates lastMessage and updatedAt
func (r *ticketRepo) TouchLastMessage(ctx context.Context, companyID, ticketID, lastMessage string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE tickets SET last_message = ?, updated_at = ?
		WHERE company_id = ? AND id = ?
	`, lastMessage, r.now().UnixMilli(), companyID, ticketID)
	if err != nil {
		return fmt.Errorf("failed to touch ticket: %w", err)
	}
	return nil
}

// SetAIEnabled flips the AI toggle
func (r *ticketRepo) SetAIEnabled(ctx context.Context, companyID, ticketID string, enabled bool) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE tickets SET ai_enabled = ?, updated_at = ?
		WHERE company_id = ? AND id = ?
	`, boolToInt(enabled), r.now().UnixMilli(), companyID, ticketID)
	if err != nil {
		return fmt.Errorf("failed to set ai enabled: %w", err)
	}
	return nil
}

// AppendMessage writes a message keyed by id; provider re-delivery of the
// same id overwrites instead of duplicating
func (r *ticketRepo) AppendMessage(ctx context.Context, companyID string, m *domain.Message) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = r.now()
	}
	errorCode, errorMessage, errorStatus := "", "", 0
	if m.Error != nil {
		errorCode = m.Error.Code
		errorMessage = m.Error.Message
		errorStatus = m.Error.Status
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO messages
			(company_id, ticket_id, id, from_label, role, kind, body, sender_email,
			 error_code, error_message, error_status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, companyID, m.TicketID, m.ID, m.From, string(m.Role), string(m.Kind), m.Body,
		m.SenderEmail, errorCode, errorMessage, errorStatus, m.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

// RecentMessages returns the last limit messages, createdAt ascending
func (r *ticketRepo) RecentMessages(ctx context.Context, companyID, ticketID string, limit int) ([]*domain.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, ticket_id, from_label, role, kind, body, sender_email,
			error_code, error_message, error_status, created_at
		FROM (
			SELECT * FROM messages
			WHERE company_id = ? AND ticket_id = ?
			ORDER BY created_at DESC, rowid DESC
			LIMIT ?
		)
		ORDER BY created_at ASC, rowid ASC
	`, companyID, ticketID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []*domain.Message
	for rows.Next() {
		var m domain.Message
		var errorCode, errorMessage string
		var errorStatus int
		var createdAt int64
		if err := rows.Scan(&m.ID, &m.TicketID, &m.From, (*string)(&m.Role), (*string)(&m.Kind),
			&m.Body, &m.SenderEmail, &errorCode, &errorMessage, &errorStatus, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if errorCode != "" || errorMessage != "" {
			m.Error = &domain.DeliveryError{Code: errorCode, Message: errorMessage, Status: errorStatus}
		}
		m.CreatedAt = time.UnixMilli(createdAt)
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}

func scanTicket(row *sql.Row) (*domain.Ticket, error) {
	var t domain.Ticket
	var aiEnabled int
	var createdAt, updatedAt int64
	err := row.Scan(&t.ID, &t.CompanyID, &t.CustomerID, (*string)(&t.Status), &t.AssignedTo,
		&t.AssignedEmail, &aiEnabled, &t.LastMessage, &t.HistorySummary, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query ticket: %w", err)
	}
	t.AIEnabled = aiEnabled != 0
	t.CreatedAt = time.UnixMilli(createdAt)
	t.UpdatedAt = time.UnixMilli(updatedAt)
	return &t, nil
}
