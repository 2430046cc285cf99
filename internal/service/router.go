package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/axionhq/axion-router/internal/biz"
	"github.com/axionhq/axion-router/internal/biz/domain"
	"github.com/axionhq/axion-router/internal/biz/repo"
	"github.com/axionhq/axion-router/internal/biz/usecase"
	"github.com/axionhq/axion-router/internal/conf"
)

// Sentinel errors for the HTTP layer to map onto status codes
var (
	ErrCompanyNotFound = errors.New("company not found")
	ErrTicketNotFound  = errors.New("ticket not found")
)

// RouterService sequences resolve, arbitrate, effects, and reply for each
// webhook invocation
type RouterService struct {
	companyRepo    repo.CompanyRepo
	respondentRepo repo.RespondentRepo
	ticketRepo     repo.TicketRepo
	ucs            *biz.Usecases
	prompts        *conf.PromptsConfig
	now            func() time.Time
}

// NewRouterService creates a new router service
func NewRouterService(repos *RouterRepos, ucs *biz.Usecases, prompts *conf.PromptsConfig) *RouterService {
	return &RouterService{
		companyRepo:    repos.Company,
		respondentRepo: repos.Respondent,
		ticketRepo:     repos.Ticket,
		ucs:            ucs,
		prompts:        prompts,
		now:            time.Now,
	}
}

// RouterRepos bundles the repositories the service reads directly
type RouterRepos struct {
	Company    repo.CompanyRepo
	Respondent repo.RespondentRepo
	Ticket     repo.TicketRepo
}

// InboundRequest is one customer message delivered by the provider webhook
type InboundRequest struct {
	CompanyID string
	From      string
	Body      string
	MessageID string
}

// InboundResult reports how the webhook invocation ended
type InboundResult struct {
	TicketID  string
	Replied   bool
	ReplyBody string
	State     domain.RoutingState
}

// HandleInbound processes one inbound customer message end to end
func (s *RouterService) HandleInbound(ctx context.Context, req *InboundRequest) (*InboundResult, error) {
	company, err := s.companyRepo.Get(ctx, req.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("load company: %w", err)
	}
	if company == nil {
		return nil, ErrCompanyNotFound
	}

	customerID := usecase.NormalizeCustomerID(req.From)

	// 1. Find or create the ticket for this customer
	resolved, err := s.ucs.Resolver.Resolve(ctx, company, customerID)
	if err != nil {
		return nil, fmt.Errorf("resolve ticket: %w", err)
	}
	ticket := resolved.Ticket

	// 2. Re-read before arbitration; an agent may have toggled or taken
	// over between resolution and now
	if !resolved.Created {
		fresh, err := s.ticketRepo.Get(ctx, company.ID, ticket.ID)
		if err != nil {
			return nil, fmt.Errorf("reload ticket: %w", err)
		}
		if fresh != nil {
			ticket = fresh
		}
	}

	// 3. Arbitrate the handoff
	decision, err := s.ucs.Handoff.DecideInbound(ctx, company, ticket)
	if err != nil {
		return nil, fmt.Errorf("arbitrate: %w", err)
	}
	fmt.Printf("[Router] Ticket %s state=%s aiShouldRespond=%v (%s)\n",
		ticket.ID, decision.State, decision.AIShouldRespond, decision.Reason)

	// 4. Persist the inbound message keyed by the provider id so
	// re-deliveries overwrite instead of duplicating
	messageID := req.MessageID
	if messageID == "" {
		messageID = "msg-" + uuid.NewString()
	}
	inbound := &domain.Message{
		ID:       messageID,
		TicketID: ticket.ID,
		From:     customerID,
		Role:     domain.RoleCustomer,
		Body:     req.Body,
	}
	if err := s.ticketRepo.AppendMessage(ctx, company.ID, inbound); err != nil {
		return nil, fmt.Errorf("store inbound message: %w", err)
	}
	if err := s.ticketRepo.TouchLastMessage(ctx, company.ID, ticket.ID, req.Body); err != nil {
		fmt.Printf("[Router] Failed to touch ticket %s: %v\n", ticket.ID, err)
	}

	result := &InboundResult{TicketID: ticket.ID, State: decision.State}

	// 5. Suppressed path: the human owns the conversation, store and ack
	if !decision.AIShouldRespond {
		return result, nil
	}

	// 6. Execute arbiter effects before the reply goes out
	for _, effect := range decision.Effects {
		if effect == usecase.EffectTakeoverNotice {
			s.sendNotice(ctx, company, ticket, domain.KindTakeoverNotice, s.prompts.Notices.AITakeover, "AI takeover notification")
		}
	}

	// 7. Generate and deliver the AI reply
	history, err := s.ticketRepo.RecentMessages(ctx, company.ID, ticket.ID, s.prompts.History.MaxCount)
	if err != nil {
		fmt.Printf("[Router] History load failed for ticket %s, generating without context: %v\n", ticket.ID, err)
		history = nil
	}

	replyBody := s.ucs.Reply.Generate(ctx, company, history, req.Body)
	if company.ShowInitials {
		replyBody = domain.AttributeBody(replyBody, s.prompts.Reply.AIName)
	}

	aiMsg := &domain.Message{
		ID:       "ai-" + uuid.NewString(),
		TicketID: ticket.ID,
		From:     s.prompts.Reply.AIName,
		Role:     domain.RoleAI,
		Body:     replyBody,
	}
	if err := s.ticketRepo.AppendMessage(ctx, company.ID, aiMsg); err != nil {
		return nil, fmt.Errorf("store ai message: %w", err)
	}

	if _, err := s.ucs.Reply.Deliver(ctx, company, ticket, replyBody, "AI reply"); err != nil {
		// Deliver absorbs provider failures; anything else is a store fault
		fmt.Printf("[Router] Delivery bookkeeping failed for ticket %s: %v\n", ticket.ID, err)
	}

	// The reply becomes the ticket's preview, replacing the customer body
	// stamped at step 4
	if err := s.ticketRepo.TouchLastMessage(ctx, company.ID, ticket.ID, replyBody); err != nil {
		fmt.Printf("[Router] Failed to touch ticket %s: %v\n", ticket.ID, err)
	}

	result.Replied = true
	result.ReplyBody = replyBody
	return result, nil
}

// AgentMessageRequest is one outbound message typed by a human respondent
type AgentMessageRequest struct {
	CompanyID   string
	TicketID    string
	Body        string
	SenderName  string
	SenderEmail string
}

// HandleAgentMessage stores and delivers a human agent's message, firing
// the join notice and AI-disable side effects the arbiter calls for
func (s *RouterService) HandleAgentMessage(ctx context.Context, req *AgentMessageRequest) error {
	company, err := s.companyRepo.Get(ctx, req.CompanyID)
	if err != nil {
		return fmt.Errorf("load company: %w", err)
	}
	if company == nil {
		return ErrCompanyNotFound
	}

	ticket, err := s.ticketRepo.Get(ctx, company.ID, req.TicketID)
	if err != nil {
		return fmt.Errorf("load ticket: %w", err)
	}
	if ticket == nil {
		return ErrTicketNotFound
	}

	decision, err := s.ucs.Handoff.DecideAgentMessage(ctx, company, ticket, req.SenderEmail)
	if err != nil {
		return fmt.Errorf("arbitrate agent message: %w", err)
	}

	for _, effect := range decision.Effects {
		switch effect {
		case usecase.EffectJoinNotice:
			s.sendNotice(ctx, company, ticket, domain.KindJoinNotice, s.prompts.Notices.AgentJoin, "agent join notification")
		case usecase.EffectDisableAI:
			if err := s.ticketRepo.SetAIEnabled(ctx, company.ID, ticket.ID, false); err != nil {
				fmt.Printf("[Router] Failed to disable AI on ticket %s: %v\n", ticket.ID, err)
			} else {
				fmt.Printf("[Router] AI disabled on ticket %s: human agent took over\n", ticket.ID)
				ticket.AIEnabled = false
			}
		}
	}

	body := req.Body
	if company.ShowInitials {
		body = domain.AttributeBody(body, req.SenderName)
	}

	agentMsg := &domain.Message{
		ID:          "agent-" + uuid.NewString(),
		TicketID:    ticket.ID,
		From:        req.SenderName,
		Role:        domain.RoleAgent,
		Body:        body,
		SenderEmail: req.SenderEmail,
	}
	if err := s.ticketRepo.AppendMessage(ctx, company.ID, agentMsg); err != nil {
		return fmt.Errorf("store agent message: %w", err)
	}

	if _, err := s.ucs.Reply.Deliver(ctx, company, ticket, body, "agent message"); err != nil {
		fmt.Printf("[Router] Delivery bookkeeping failed for ticket %s: %v\n", ticket.ID, err)
	}

	if err := s.ticketRepo.TouchLastMessage(ctx, company.ID, ticket.ID, req.Body); err != nil {
		fmt.Printf("[Router] Failed to touch ticket %s: %v\n", ticket.ID, err)
	}
	return nil
}

// ToggleAI flips a ticket's AI switch, records the change in the
// transcript, and tells the customer
func (s *RouterService) ToggleAI(ctx context.Context, companyID, ticketID string, enable bool) error {
	company, err := s.companyRepo.Get(ctx, companyID)
	if err != nil {
		return fmt.Errorf("load company: %w", err)
	}
	if company == nil {
		return ErrCompanyNotFound
	}

	ticket, err := s.ticketRepo.Get(ctx, company.ID, ticketID)
	if err != nil {
		return fmt.Errorf("load ticket: %w", err)
	}
	if ticket == nil {
		return ErrTicketNotFound
	}

	if err := s.ticketRepo.SetAIEnabled(ctx, company.ID, ticket.ID, enable); err != nil {
		return fmt.Errorf("set ai enabled: %w", err)
	}
	fmt.Printf("[Router] AI toggled %v on ticket %s\n", enable, ticket.ID)

	text := s.prompts.ToggleText(enable)
	msg := &domain.Message{
		ID:       "system-toggle-" + uuid.NewString(),
		TicketID: ticket.ID,
		From:     "System",
		Role:     domain.RoleSystem,
		Kind:     domain.KindAIToggle,
		Body:     text,
	}
	if err := s.ticketRepo.AppendMessage(ctx, company.ID, msg); err != nil {
		fmt.Printf("[Router] Failed to store toggle message for ticket %s: %v\n", ticket.ID, err)
	}

	if _, err := s.ucs.Reply.Deliver(ctx, company, ticket, text, "AI status notification"); err != nil {
		fmt.Printf("[Router] Delivery bookkeeping failed for ticket %s: %v\n", ticket.ID, err)
	}
	return nil
}

// UpdateRespondentStatus applies a presence beacon. Online stamps lastSeen
// with the current time; offline flips the flag but keeps the stored
// lastSeen so staleness windows still have a reference point.
func (s *RouterService) UpdateRespondentStatus(ctx context.Context, companyID, email string, online bool) error {
	company, err := s.companyRepo.Get(ctx, companyID)
	if err != nil {
		return fmt.Errorf("load company: %w", err)
	}
	if company == nil {
		return ErrCompanyNotFound
	}

	if online {
		err = s.respondentRepo.SetPresence(ctx, companyID, email, true, s.now())
	} else {
		err = s.respondentRepo.SetPresence(ctx, companyID, email, false, time.Time{})
	}
	if err != nil {
		return fmt.Errorf("set presence: %w", err)
	}
	fmt.Printf("[Router] Presence beacon: %s online=%v\n", email, online)
	return nil
}

// RespondentSnapshot is one row of the presence debug view
type RespondentSnapshot struct {
	Email             string `json:"email"`
	Name              string `json:"name"`
	IsOnline          bool   `json:"isOnline"`
	LastSeen          string `json:"lastSeen,omitempty"`
	MinutesSinceSeen  int    `json:"minutesSinceSeen"`
	EffectivelyOnline bool   `json:"effectivelyOnline"`
}

// ListRespondents returns the presence snapshot for a company's active
// respondents, applying the same gates the arbiter uses
func (s *RouterService) ListRespondents(ctx context.Context, companyID string) ([]*RespondentSnapshot, error) {
	company, err := s.companyRepo.Get(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("load company: %w", err)
	}
	if company == nil {
		return nil, ErrCompanyNotFound
	}

	respondents, err := s.respondentRepo.ListActive(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("list respondents: %w", err)
	}

	wait := time.Duration(company.WaitMinutes()) * time.Minute
	now := s.now()

	snapshots := make([]*RespondentSnapshot, 0, len(respondents))
	for _, r := range respondents {
		snap := &RespondentSnapshot{
			Email:             r.Email,
			Name:              r.Name,
			IsOnline:          r.IsOnline,
			EffectivelyOnline: r.EffectivelyOnline(now, wait),
		}
		if !r.LastSeen.IsZero() {
			snap.LastSeen = r.LastSeen.UTC().Format(time.RFC3339)
			snap.MinutesSinceSeen = int(now.Sub(r.LastSeen) / time.Minute)
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, nil
}

// sendNotice stores a tagged system message and pushes the same text to
// the customer. Notice failures are logged, never fatal: notices are
// best-effort courtesy traffic.
func (s *RouterService) sendNotice(ctx context.Context, company *domain.Company, ticket *domain.Ticket, kind domain.MessageKind, text, sendContext string) {
	msg := &domain.Message{
		ID:       "system-" + string(kind) + "-" + uuid.NewString(),
		TicketID: ticket.ID,
		From:     "System",
		Role:     domain.RoleSystem,
		Kind:     kind,
		Body:     text,
	}
	if err := s.ticketRepo.AppendMessage(ctx, company.ID, msg); err != nil {
		fmt.Printf("[Router] Failed to store %s for ticket %s: %v\n", kind, ticket.ID, err)
		return
	}

	if _, err := s.ucs.Reply.Deliver(ctx, company, ticket, text, sendContext); err != nil {
		fmt.Printf("[Router] Delivery bookkeeping failed for ticket %s: %v\n", ticket.ID, err)
	}
}
