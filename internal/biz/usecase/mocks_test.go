package usecase

import (
	"context"
	"time"

	"github.com/axionhq/axion-router/internal/biz/domain"
	"github.com/axionhq/axion-router/internal/biz/repo"
)

// Mock implementations shared across the usecase tests

type mockCompanyRepo struct {
	companies map[string]*domain.Company
	counters  map[string]int
	indexErr  error
}

func newMockCompanyRepo() *mockCompanyRepo {
	return &mockCompanyRepo{
		companies: make(map[string]*domain.Company),
		counters:  make(map[string]int),
	}
}

func (m *mockCompanyRepo) Get(ctx context.Context, companyID string) (*domain.Company, error) {
	return m.companies[companyID], nil
}

func (m *mockCompanyRepo) Save(ctx context.Context, c *domain.Company) error {
	m.companies[c.ID] = c
	return nil
}

func (m *mockCompanyRepo) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	for id := range m.companies {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *mockCompanyRepo) NextAssignIndex(ctx context.Context, companyID string, counter domain.AssignCounter) (int, error) {
	if m.indexErr != nil {
		return 0, m.indexErr
	}
	key := companyID + "|" + string(counter)
	claimed := m.counters[key]
	m.counters[key] = claimed + 1
	return claimed, nil
}

func (m *mockCompanyRepo) SetAdminOnline(ctx context.Context, companyID string, online bool) error {
	if c, ok := m.companies[companyID]; ok {
		c.AdminOnline = online
	}
	return nil
}

type presenceCall struct {
	email    string
	online   bool
	lastSeen time.Time
}

type mockRespondentRepo struct {
	respondents   []*domain.Respondent
	presenceCalls []presenceCall
	listErr       error
}

func (m *mockRespondentRepo) ListActive(ctx context.Context, companyID string) ([]*domain.Respondent, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var active []*domain.Respondent
	for _, r := range m.respondents {
		if r.Status == domain.RespondentActive {
			active = append(active, r)
		}
	}
	return active, nil
}

func (m *mockRespondentRepo) GetByEmail(ctx context.Context, companyID, email string) (*domain.Respondent, error) {
	for _, r := range m.respondents {
		if r.Email == email {
			return r, nil
		}
	}
	return nil, nil
}

func (m *mockRespondentRepo) Save(ctx context.Context, companyID string, r *domain.Respondent) error {
	m.respondents = append(m.respondents, r)
	return nil
}

func (m *mockRespondentRepo) SetPresence(ctx context.Context, companyID, email string, online bool, lastSeen time.Time) error {
	m.presenceCalls = append(m.presenceCalls, presenceCall{email: email, online: online, lastSeen: lastSeen})
	for _, r := range m.respondents {
		if r.Email == email {
			r.IsOnline = online
			if !lastSeen.IsZero() {
				r.LastSeen = lastSeen
			}
		}
	}
	return nil
}

func (m *mockRespondentRepo) ForceOfflineStale(ctx context.Context, companyID string, cutoff time.Time) (int64, error) {
	var count int64
	for _, r := range m.respondents {
		if r.IsOnline && !r.LastSeen.IsZero() && r.LastSeen.Before(cutoff) {
			r.IsOnline = false
			count++
		}
	}
	return count, nil
}

type mockTicketRepo struct {
	tickets  map[string]*domain.Ticket
	messages map[string][]*domain.Message

	createErr    error
	assignErr    error
	finishedErr  error
	messagesErr  error
	finished     []*domain.Ticket
	aiToggles    []bool
	lastTouched  string
	appendedMsgs []*domain.Message
}

func newMockTicketRepo() *mockTicketRepo {
	return &mockTicketRepo{
		tickets:  make(map[string]*domain.Ticket),
		messages: make(map[string][]*domain.Message),
	}
}

func (m *mockTicketRepo) Get(ctx context.Context, companyID, ticketID string) (*domain.Ticket, error) {
	return m.tickets[ticketID], nil
}

func (m *mockTicketRepo) FindOpenByCustomer(ctx context.Context, companyID, customerID string) (*domain.Ticket, error) {
	for _, t := range m.tickets {
		if t.CustomerID == customerID && t.Status != domain.TicketClosed {
			return t, nil
		}
	}
	return nil, nil
}

func (m *mockTicketRepo) ListRecentFinished(ctx context.Context, companyID, customerID string, limit int) ([]*domain.Ticket, error) {
	if m.finishedErr != nil {
		return nil, m.finishedErr
	}
	if len(m.finished) > limit {
		return m.finished[:limit], nil
	}
	return m.finished, nil
}

func (m *mockTicketRepo) Create(ctx context.Context, t *domain.Ticket) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.tickets[t.ID] = t
	return nil
}

func (m *mockTicketRepo) UpdateAssignment(ctx context.Context, companyID, ticketID string, a domain.Assignee) error {
	if m.assignErr != nil {
		return m.assignErr
	}
	if t, ok := m.tickets[ticketID]; ok {
		t.AssignedTo = a.Label
		t.AssignedEmail = a.Email
	}
	return nil
}

func (m *mockTicketRepo) TouchLastMessage(ctx context.Context, companyID, ticketID, lastMessage string) error {
	m.lastTouched = lastMessage
	if t, ok := m.tickets[ticketID]; ok {
		t.LastMessage = lastMessage
	}
	return nil
}

func (m *mockTicketRepo) SetAIEnabled(ctx context.Context, companyID, ticketID string, enabled bool) error {
	m.aiToggles = append(m.aiToggles, enabled)
	if t, ok := m.tickets[ticketID]; ok {
		t.AIEnabled = enabled
	}
	return nil
}

func (m *mockTicketRepo) AppendMessage(ctx context.Context, companyID string, msg *domain.Message) error {
	m.appendedMsgs = append(m.appendedMsgs, msg)
	m.messages[msg.TicketID] = append(m.messages[msg.TicketID], msg)
	return nil
}

func (m *mockTicketRepo) RecentMessages(ctx context.Context, companyID, ticketID string, limit int) ([]*domain.Message, error) {
	if m.messagesErr != nil {
		return nil, m.messagesErr
	}
	msgs := m.messages[ticketID]
	if len(msgs) > limit {
		return msgs[len(msgs)-limit:], nil
	}
	return msgs, nil
}

func (m *mockTicketRepo) lastAppended() *domain.Message {
	if len(m.appendedMsgs) == 0 {
		return nil
	}
	return m.appendedMsgs[len(m.appendedMsgs)-1]
}

type mockMessenger struct {
	sent    []repo.OutboundMessage
	sendErr error
}

func (m *mockMessenger) CreateMessage(ctx context.Context, accountSID, authToken string, msg repo.OutboundMessage) (string, error) {
	if m.sendErr != nil {
		return "", m.sendErr
	}
	m.sent = append(m.sent, msg)
	return "SM123", nil
}

type mockCompletion struct {
	reply     string
	err       error
	gotPrompt string
}

func (m *mockCompletion) Generate(ctx context.Context, apiKey, prompt string) (string, error) {
	m.gotPrompt = prompt
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}
