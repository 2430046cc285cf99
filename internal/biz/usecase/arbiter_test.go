package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/axionhq/axion-router/internal/biz/domain"
)

func arbiterFixture(t *testing.T) (*HandoffUsecase, *mockRespondentRepo, *mockTicketRepo) {
	t.Helper()
	respondentRepo := &mockRespondentRepo{}
	ticketRepo := newMockTicketRepo()
	presenceUC := NewPresenceUsecase(respondentRepo)
	return NewHandoffUsecase(respondentRepo, ticketRepo, presenceUC), respondentRepo, ticketRepo
}

func humanTicket() *domain.Ticket {
	return &domain.Ticket{
		ID:            "t1",
		CompanyID:     "c1",
		CustomerID:    "+155500",
		Status:        domain.TicketOpen,
		AssignedTo:    "Ann",
		AssignedEmail: "ann@x.com",
		AIEnabled:     true,
	}
}

func hasEffect(d *Decision, e Effect) bool {
	for _, got := range d.Effects {
		if got == e {
			return true
		}
	}
	return false
}

func TestDecideInbound_HumanOnlineSuppressesAI(t *testing.T) {
	uc, respondentRepo, _ := arbiterFixture(t)
	respondentRepo.respondents = []*domain.Respondent{
		{Email: "ann@x.com", Status: domain.RespondentActive, IsOnline: true, LastSeen: time.Now()},
	}

	d, err := uc.DecideInbound(context.Background(), &domain.Company{ID: "c1"}, humanTicket())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if d.AIShouldRespond {
		t.Error("Expected AI suppressed while the human is online")
	}
	if d.State != domain.StateHumanActive {
		t.Errorf("Expected human_active state, got %s", d.State)
	}
}

func TestDecideInbound_StaleHumanHandsToAI(t *testing.T) {
	uc, respondentRepo, _ := arbiterFixture(t)
	respondentRepo.respondents = []*domain.Respondent{
		{Email: "ann@x.com", Status: domain.RespondentActive, IsOnline: false, LastSeen: time.Now().Add(-30 * time.Minute)},
	}

	d, err := uc.DecideInbound(context.Background(), &domain.Company{ID: "c1"}, humanTicket())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !d.AIShouldRespond {
		t.Error("Expected AI to respond for a stale human")
	}
	if d.State != domain.StateAIActive {
		t.Errorf("Expected ai_active state, got %s", d.State)
	}
}

func TestDecideInbound_MissingRespondentFailsOpen(t *testing.T) {
	uc, _, _ := arbiterFixture(t)

	d, err := uc.DecideInbound(context.Background(), &domain.Company{ID: "c1"}, humanTicket())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !d.AIShouldRespond {
		t.Error("Expected AI to respond when the assigned respondent is gone")
	}
}

func TestDecideInbound_AdminTicketRespectsToggle(t *testing.T) {
	uc, _, _ := arbiterFixture(t)

	ticket := humanTicket()
	ticket.AssignedTo = domain.AdminLabel
	ticket.AssignedEmail = ""
	ticket.AIEnabled = false

	d, err := uc.DecideInbound(context.Background(), &domain.Company{ID: "c1"}, ticket)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if d.AIShouldRespond {
		t.Error("Expected disabled toggle to silence the AI on admin tickets")
	}
	if d.State != domain.StateAdminFallback {
		t.Errorf("Expected admin_fallback state, got %s", d.State)
	}
}

func TestDecideInbound_TakeoverNoticeAfterHumanWentQuiet(t *testing.T) {
	uc, respondentRepo, ticketRepo := arbiterFixture(t)
	respondentRepo.respondents = []*domain.Respondent{
		{Email: "ann@x.com", Status: domain.RespondentActive, IsOnline: false, LastSeen: time.Now().Add(-30 * time.Minute)},
	}
	ticketRepo.messages["t1"] = []*domain.Message{
		{ID: "m1", TicketID: "t1", Role: domain.RoleAgent, CreatedAt: time.Now().Add(-20 * time.Minute)},
	}

	company := &domain.Company{ID: "c1", NotifyAITakeover: true}
	d, err := uc.DecideInbound(context.Background(), company, humanTicket())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !hasEffect(d, EffectTakeoverNotice) {
		t.Error("Expected takeover notice after human inactivity")
	}
}

func TestDecideInbound_TakeoverNoticeOncePerEpisode(t *testing.T) {
	uc, respondentRepo, ticketRepo := arbiterFixture(t)
	respondentRepo.respondents = []*domain.Respondent{
		{Email: "ann@x.com", Status: domain.RespondentActive, IsOnline: false, LastSeen: time.Now().Add(-30 * time.Minute)},
	}
	// Notice already sent after the agent's last message
	ticketRepo.messages["t1"] = []*domain.Message{
		{ID: "m1", TicketID: "t1", Role: domain.RoleAgent, CreatedAt: time.Now().Add(-40 * time.Minute)},
		{ID: "m2", TicketID: "t1", Role: domain.RoleSystem, Kind: domain.KindTakeoverNotice, CreatedAt: time.Now().Add(-20 * time.Minute)},
	}

	company := &domain.Company{ID: "c1", NotifyAITakeover: true}
	d, err := uc.DecideInbound(context.Background(), company, humanTicket())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if hasEffect(d, EffectTakeoverNotice) {
		t.Error("Expected no second notice within the same stale episode")
	}
}

func TestDecideInbound_TakeoverNoticeRearmsAfterHumanReturns(t *testing.T) {
	uc, respondentRepo, ticketRepo := arbiterFixture(t)
	respondentRepo.respondents = []*domain.Respondent{
		{Email: "ann@x.com", Status: domain.RespondentActive, IsOnline: false, LastSeen: time.Now().Add(-30 * time.Minute)},
	}
	// Human came back after the notice, then went quiet again
	ticketRepo.messages["t1"] = []*domain.Message{
		{ID: "m1", TicketID: "t1", Role: domain.RoleSystem, Kind: domain.KindTakeoverNotice, CreatedAt: time.Now().Add(-60 * time.Minute)},
		{ID: "m2", TicketID: "t1", Role: domain.RoleAgent, CreatedAt: time.Now().Add(-30 * time.Minute)},
	}

	company := &domain.Company{ID: "c1", NotifyAITakeover: true}
	d, err := uc.DecideInbound(context.Background(), company, humanTicket())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !hasEffect(d, EffectTakeoverNotice) {
		t.Error("Expected notice to re-arm after the human returned and went quiet")
	}
}

func TestDecideInbound_NoTakeoverNoticeWhenDisabled(t *testing.T) {
	uc, respondentRepo, _ := arbiterFixture(t)
	respondentRepo.respondents = []*domain.Respondent{
		{Email: "ann@x.com", Status: domain.RespondentActive, IsOnline: false, LastSeen: time.Now().Add(-30 * time.Minute)},
	}

	company := &domain.Company{ID: "c1", NotifyAITakeover: false}
	d, err := uc.DecideInbound(context.Background(), company, humanTicket())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if hasEffect(d, EffectTakeoverNotice) {
		t.Error("Expected no notice when the company disabled takeover notifications")
	}
}

func TestDecideAgentMessage_FirstMessageFiresJoinAndDisable(t *testing.T) {
	uc, _, _ := arbiterFixture(t)

	company := &domain.Company{ID: "c1", NotifyAgentJoin: true}
	d, err := uc.DecideAgentMessage(context.Background(), company, humanTicket(), "ann@x.com")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !hasEffect(d, EffectJoinNotice) {
		t.Error("Expected join notice on the first agent message")
	}
	if !hasEffect(d, EffectDisableAI) {
		t.Error("Expected AI disable when the assigned respondent joins")
	}
}

func TestDecideAgentMessage_JoinNoticeDeduped(t *testing.T) {
	uc, _, ticketRepo := arbiterFixture(t)
	ticketRepo.messages["t1"] = []*domain.Message{
		{ID: "m1", TicketID: "t1", Role: domain.RoleAgent, CreatedAt: time.Now().Add(-2 * time.Minute)},
		{ID: "m2", TicketID: "t1", Role: domain.RoleSystem, Kind: domain.KindJoinNotice, CreatedAt: time.Now().Add(-2 * time.Minute)},
	}

	company := &domain.Company{ID: "c1", NotifyAgentJoin: true}
	d, err := uc.DecideAgentMessage(context.Background(), company, humanTicket(), "ann@x.com")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if hasEffect(d, EffectJoinNotice) {
		t.Error("Expected join notice suppressed inside the de-dup window")
	}
}

func TestDecideAgentMessage_TakingBackOverFromAI(t *testing.T) {
	uc, _, ticketRepo := arbiterFixture(t)
	ticketRepo.messages["t1"] = []*domain.Message{
		{ID: "m1", TicketID: "t1", Role: domain.RoleAgent, CreatedAt: time.Now().Add(-2 * time.Hour)},
		{ID: "m2", TicketID: "t1", Role: domain.RoleCustomer, CreatedAt: time.Now().Add(-10 * time.Minute)},
		{ID: "m3", TicketID: "t1", Role: domain.RoleAI, CreatedAt: time.Now().Add(-9 * time.Minute)},
	}

	company := &domain.Company{ID: "c1", NotifyAgentJoin: true}
	d, err := uc.DecideAgentMessage(context.Background(), company, humanTicket(), "ann@x.com")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !hasEffect(d, EffectJoinNotice) {
		t.Error("Expected join notice when the preceding message was from the AI")
	}
}

func TestDecideAgentMessage_NoDisableForOtherSenders(t *testing.T) {
	uc, _, _ := arbiterFixture(t)

	company := &domain.Company{ID: "c1", NotifyAgentJoin: true}
	d, err := uc.DecideAgentMessage(context.Background(), company, humanTicket(), "someone-else@x.com")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !hasEffect(d, EffectJoinNotice) {
		t.Error("Expected join notice regardless of sender")
	}
	if hasEffect(d, EffectDisableAI) {
		t.Error("Expected no AI disable for a sender who is not the assignee")
	}
}
