package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/axionhq/axion-router/internal/biz/domain"
	"github.com/axionhq/axion-router/internal/biz/repo"
)

// joinNoticeWindow is the de-dup window for agent-join notices
const joinNoticeWindow = 5 * time.Minute

// historyDepth is how many recent messages the arbiter inspects when
// checking notice history
const historyDepth = 50

// Effect is a side effect the orchestrator must execute after a decision
type Effect string

const (
	EffectTakeoverNotice Effect = "takeover-notice"
	EffectJoinNotice     Effect = "join-notice"
	EffectDisableAI      Effect = "disable-ai"
)

// Decision is the outcome of handoff arbitration for one message
type Decision struct {
	State           domain.RoutingState
	AIShouldRespond bool
	Effects         []Effect
	Reason          string
}

// HandoffUsecase decides, per message, whether the AI responds and which
// notifications are due
type HandoffUsecase struct {
	respondentRepo repo.RespondentRepo
	ticketRepo     repo.TicketRepo
	presenceUC     *PresenceUsecase
	now            func() time.Time
}

// NewHandoffUsecase creates a new handoff arbiter
func NewHandoffUsecase(respondentRepo repo.RespondentRepo, ticketRepo repo.TicketRepo, presenceUC *PresenceUsecase) *HandoffUsecase {
	return &HandoffUsecase{
		respondentRepo: respondentRepo,
		ticketRepo:     ticketRepo,
		presenceUC:     presenceUC,
		now:            time.Now,
	}
}

// DecideInbound arbitrates an inbound customer message: should the AI
// generate a reply, and is a takeover notice due first
func (uc *HandoffUsecase) DecideInbound(ctx context.Context, company *domain.Company, ticket *domain.Ticket) (*Decision, error) {
	wait := time.Duration(company.WaitMinutes()) * time.Minute

	d := &Decision{State: domain.StateAdminFallback}

	if ticket.AssignedToHuman() {
		respondent, err := uc.respondentRepo.GetByEmail(ctx, company.ID, ticket.AssignedEmail)
		if err != nil {
			return nil, fmt.Errorf("load respondent: %w", err)
		}
		if respondent == nil {
			// Assigned respondent vanished; fail open to the AI
			fmt.Printf("[Arbiter] Respondent %s not found, AI will respond\n", ticket.AssignedEmail)
			d.State = domain.StateAIActive
			d.AIShouldRespond = true
			d.Reason = "assigned respondent not found"
		} else if uc.presenceUC.IsEffectivelyOnline(ctx, company.ID, respondent, wait) {
			d.State = domain.StateHumanActive
			d.AIShouldRespond = false
			d.Reason = "assigned respondent is online"
		} else {
			d.State = domain.StateAIActive
			d.AIShouldRespond = true
			d.Reason = "assigned respondent is stale or offline"
		}
	} else {
		// Admin tickets respect the explicit toggle
		d.AIShouldRespond = ticket.AIEnabled
		if ticket.AIEnabled {
			d.State = domain.StateAIActive
			d.Reason = "admin ticket with AI enabled"
		} else {
			d.Reason = "admin ticket with AI disabled"
		}
	}

	if !d.AIShouldRespond {
		return d, nil
	}

	due, why, err := uc.takeoverNoticeDue(ctx, company, ticket, wait)
	if err != nil {
		// Notice evaluation is best-effort; the reply must still go out
		fmt.Printf("[Arbiter] Takeover check failed for ticket %s: %v\n", ticket.ID, err)
	} else if due {
		d.Effects = append(d.Effects, EffectTakeoverNotice)
		fmt.Printf("[Arbiter] Takeover notice due for ticket %s: %s\n", ticket.ID, why)
	}

	return d, nil
}

// takeoverNoticeDue implements the one-notice-per-stale-episode rule: a
// notice fires when the human went quiet past the wait window and no notice
// has been sent since their last message, or when a human-assigned ticket
// has never seen an agent message and never had a notice.
func (uc *HandoffUsecase) takeoverNoticeDue(ctx context.Context, company *domain.Company, ticket *domain.Ticket, wait time.Duration) (bool, string, error) {
	if !company.NotifyAITakeover {
		return false, "", nil
	}

	messages, err := uc.ticketRepo.RecentMessages(ctx, company.ID, ticket.ID, historyDepth)
	if err != nil {
		return false, "", fmt.Errorf("load messages: %w", err)
	}

	lastAgent := lastOfRole(messages, domain.RoleAgent)
	lastNotice := lastOfKind(messages, domain.KindTakeoverNotice)
	now := uc.now()

	if lastAgent != nil {
		if now.Sub(lastAgent.CreatedAt) < wait {
			// Human spoke recently; not a stale episode
			return false, "", nil
		}
		// Re-arming: a human message after the last notice opens a new
		// stale episode
		if lastNotice == nil {
			return true, "first takeover after human activity", nil
		}
		if lastAgent.IsAfter(lastNotice.CreatedAt) {
			return true, "human returned and went inactive again", nil
		}
		return false, "", nil
	}

	// No agent messages yet: notify once when a human-assigned ticket
	// starts with its respondent already offline
	if ticket.AssignedToHuman() && lastNotice == nil {
		return true, "human assigned but offline from the start", nil
	}
	return false, "", nil
}

// DecideAgentMessage arbitrates a respondent's outbound message: is an
// agent-join notice due, and should the AI toggle flip off
func (uc *HandoffUsecase) DecideAgentMessage(ctx context.Context, company *domain.Company, ticket *domain.Ticket, senderEmail string) (*Decision, error) {
	d := &Decision{State: domain.StateHumanActive}

	if !company.NotifyAgentJoin {
		return d, nil
	}

	messages, err := uc.ticketRepo.RecentMessages(ctx, company.ID, ticket.ID, historyDepth)
	if err != nil {
		// If the history cannot be read, assume a first join to be safe
		fmt.Printf("[Arbiter] Join check failed for ticket %s, assuming first join: %v\n", ticket.ID, err)
		d.Effects = append(d.Effects, EffectJoinNotice)
		return uc.withDisableAI(d, ticket, senderEmail), nil
	}

	if recentNotice := lastOfKind(messages, domain.KindJoinNotice); recentNotice != nil {
		if uc.now().Sub(recentNotice.CreatedAt) < joinNoticeWindow {
			return uc.withDisableAI(d, ticket, senderEmail), nil
		}
	}

	firstAgentMessage := lastOfRole(messages, domain.RoleAgent) == nil
	takingOverFromAI := false
	if prev := lastNonSystem(messages); prev != nil && prev.Role == domain.RoleAI {
		takingOverFromAI = true
	}

	if firstAgentMessage || takingOverFromAI {
		d.Effects = append(d.Effects, EffectJoinNotice)
		if firstAgentMessage {
			d.Reason = "first agent message"
		} else {
			d.Reason = "human taking back over from AI"
		}
		return uc.withDisableAI(d, ticket, senderEmail), nil
	}

	return d, nil
}

// withDisableAI adds the DisableAI effect when the join notice fired and
// the sender is the assigned respondent with the toggle still on. A human
// actively typing outranks presence polling.
func (uc *HandoffUsecase) withDisableAI(d *Decision, ticket *domain.Ticket, senderEmail string) *Decision {
	if len(d.Effects) == 0 {
		return d
	}
	if senderEmail != "" && senderEmail == ticket.AssignedEmail && ticket.AIEnabled {
		d.Effects = append(d.Effects, EffectDisableAI)
	}
	return d
}

func lastOfRole(messages []*domain.Message, role domain.MessageRole) *domain.Message {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == role {
			return messages[i]
		}
	}
	return nil
}

func lastOfKind(messages []*domain.Message, kind domain.MessageKind) *domain.Message {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Kind == kind {
			return messages[i]
		}
	}
	return nil
}

func lastNonSystem(messages []*domain.Message) *domain.Message {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != domain.RoleSystem {
			return messages[i]
		}
	}
	return nil
}
