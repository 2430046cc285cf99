package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/axionhq/axion-router/internal/biz/domain"
	"github.com/axionhq/axion-router/internal/biz/repo"
)

// promptHistoryLimit is how many non-system messages feed the prompt
const promptHistoryLimit = 20

// generateTimeout bounds one completion-provider call
const generateTimeout = 30 * time.Second

// ErrorCodeDailyLimit is the provider code for the daily message quota
const ErrorCodeDailyLimit = "63038"

// ReplyConfig carries the pipeline's templates and identity
type ReplyConfig struct {
	// DefaultPromptTemplate is used when a company has no template of its
	// own; placeholders {companyName} and {history} are substituted
	DefaultPromptTemplate string

	// AIName is the attribution name for generated replies
	AIName string
}

// ReplyUsecase builds prompts, generates replies, and delivers them
// through the messaging provider
type ReplyUsecase struct {
	ticketRepo repo.TicketRepo
	completion repo.CompletionRepo
	messenger  repo.MessengerRepo
	cfg        ReplyConfig
}

// NewReplyUsecase creates a new reply pipeline
func NewReplyUsecase(ticketRepo repo.TicketRepo, completion repo.CompletionRepo, messenger repo.MessengerRepo, cfg ReplyConfig) *ReplyUsecase {
	return &ReplyUsecase{
		ticketRepo: ticketRepo,
		completion: completion,
		messenger:  messenger,
		cfg:        cfg,
	}
}

// BuildPrompt renders the generation prompt from the company template and
// recent conversation history, oldest first, system messages excluded
func (uc *ReplyUsecase) BuildPrompt(company *domain.Company, history []*domain.Message) string {
	var conversational []*domain.Message
	for _, m := range history {
		if m.Role != domain.RoleSystem {
			conversational = append(conversational, m)
		}
	}
	if len(conversational) > promptHistoryLimit {
		conversational = conversational[len(conversational)-promptHistoryLimit:]
	}

	lines := make([]string, 0, len(conversational))
	for _, m := range conversational {
		lines = append(lines, m.From+": "+m.Body)
	}

	template := company.PromptTemplate
	if template == "" {
		template = uc.cfg.DefaultPromptTemplate
	}

	prompt := strings.ReplaceAll(template, "{companyName}", company.DisplayName())
	prompt = strings.ReplaceAll(prompt, "{history}", strings.Join(lines, "\n"))
	return prompt
}

// Generate produces the reply text for an inbound message. Provider
// errors, timeouts, and empty responses all fall back to a deterministic
// placeholder; generation never fails the webhook.
func (uc *ReplyUsecase) Generate(ctx context.Context, company *domain.Company, history []*domain.Message, inbound string) string {
	fallback := fmt.Sprintf("AI reply to %q", inbound)

	if company.GenAIAPIKey == "" {
		fmt.Printf("[Reply] Company %s has no completion API key; using fallback reply\n", company.ID)
		return fallback
	}

	prompt := uc.BuildPrompt(company, history)

	genCtx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	text, err := uc.completion.Generate(genCtx, company.GenAIAPIKey, prompt)
	if err != nil {
		fmt.Printf("[Reply] Completion error for company %s: %v\n", company.ID, err)
		return fallback
	}
	text = strings.TrimSpace(text)
	if text == "" {
		fmt.Printf("[Reply] Empty completion response for company %s; using fallback reply\n", company.ID)
		return fallback
	}
	return text
}

// EnsureAddress adds the provider addressing prefix when missing;
// idempotent on already-prefixed identifiers
func EnsureAddress(number string) string {
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}

// DeliveryResult reports how an outbound send ended
type DeliveryResult struct {
	Sent bool
	SID  string
}

// Deliver sends body to the ticket's customer. Send failures are recorded
// as a system message on the ticket, classified by provider code, and do
// not propagate: the webhook must still acknowledge the inbound message.
func (uc *ReplyUsecase) Deliver(ctx context.Context, company *domain.Company, ticket *domain.Ticket, body, failureContext string) (*DeliveryResult, error) {
	if !company.HasTwilio() {
		fmt.Printf("[Reply] Company %s messaging provider not configured; message stored but not sent\n", company.ID)
		return &DeliveryResult{}, nil
	}

	msg := repo.OutboundMessage{
		From: EnsureAddress(company.TwilioFromNumber),
		To:   EnsureAddress(ticket.CustomerID),
		Body: body,
	}

	sid, err := uc.messenger.CreateMessage(ctx, company.TwilioAccountSID, company.TwilioAuthToken, msg)
	if err == nil {
		fmt.Printf("[Reply] Sent message %s to %s\n", sid, msg.To)
		return &DeliveryResult{Sent: true, SID: sid}, nil
	}

	fmt.Printf("[Reply] Provider send failed for ticket %s: %v\n", ticket.ID, err)
	uc.recordDeliveryFailure(ctx, company.ID, ticket.ID, err, failureContext)
	return &DeliveryResult{}, nil
}

// recordDeliveryFailure stores an operator-facing system message carrying
// the provider error code so the failure is visible in the transcript
func (uc *ReplyUsecase) recordDeliveryFailure(ctx context.Context, companyID, ticketID string, sendErr error, failureContext string) {
	code := "UNKNOWN"
	status := 0
	detail := sendErr.Error()

	var perr *repo.ProviderError
	if errors.As(sendErr, &perr) {
		status = perr.Status
		detail = perr.Message
		if perr.Code != "" {
			code = perr.Code
		} else if perr.Status == 429 {
			code = "429"
		}
	}

	var body string
	switch {
	case code == ErrorCodeDailyLimit:
		body = fmt.Sprintf("Failed to send %s: %s. Customer may not have received it.", failureContext, detail)
	case status == 429:
		body = fmt.Sprintf("Failed to send %s: rate limit exceeded. Customer may not have received it.", failureContext)
	default:
		body = fmt.Sprintf("Failed to send %s. Customer may not have received it.", failureContext)
	}
	body += " Error Code: " + code

	msg := &domain.Message{
		ID:       "system-delivery-error-" + uuid.NewString(),
		TicketID: ticketID,
		From:     "System",
		Role:     domain.RoleSystem,
		Kind:     domain.KindDeliveryError,
		Body:     body,
		Error: &domain.DeliveryError{
			Code:    code,
			Message: detail,
			Status:  status,
		},
	}
	if err := uc.ticketRepo.AppendMessage(ctx, companyID, msg); err != nil {
		fmt.Printf("[Reply] Failed to store delivery-error message for ticket %s: %v\n", ticketID, err)
	}
}
