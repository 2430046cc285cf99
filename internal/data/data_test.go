package data

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/axionhq/axion-router/internal/biz/domain"
)

func testRepos(t *testing.T) (*Repositories, func()) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "router.db")
	db, err := OpenStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	repos := &Repositories{
		Company:    NewCompanyRepo(db),
		Respondent: NewRespondentRepo(db),
		Ticket:     NewTicketRepo(db),
	}
	return repos, func() { db.Close() }
}

func TestCompanyRoundTrip(t *testing.T) {
	repos, cleanup := testRepos(t)
	defer cleanup()
	ctx := context.Background()

	missing, err := repos.Company.Get(ctx, "nope")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if missing != nil {
		t.Error("Expected nil for unknown company")
	}

	company := &domain.Company{
		ID:               "acme",
		Name:             "Acme",
		TwilioAccountSID: "AC123",
		AIWaitMinutes:    10,
		NotifyAITakeover: true,
		ShowInitials:     true,
	}
	if err := repos.Company.Save(ctx, company); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	got, err := repos.Company.Get(ctx, "acme")
	if err != nil {
		t.Fatalf("Failed to get: %v", err)
	}
	if got.Name != "Acme" || got.AIWaitMinutes != 10 || !got.NotifyAITakeover || got.NotifyAgentJoin {
		t.Errorf("Round trip mismatch: %+v", got)
	}

	ids, err := repos.Company.ListIDs(ctx)
	if err != nil {
		t.Fatalf("Failed to list ids: %v", err)
	}
	if len(ids) != 1 || ids[0] != "acme" {
		t.Errorf("Expected [acme], got %v", ids)
	}
}

func TestNextAssignIndexClaimsAndIncrements(t *testing.T) {
	repos, cleanup := testRepos(t)
	defer cleanup()
	ctx := context.Background()

	if err := repos.Company.Save(ctx, &domain.Company{ID: "acme"}); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	for want := 0; want < 3; want++ {
		got, err := repos.Company.NextAssignIndex(ctx, "acme", domain.CounterOnline)
		if err != nil {
			t.Fatalf("Failed to claim index: %v", err)
		}
		if got != want {
			t.Errorf("Expected claim %d, got %d", want, got)
		}
	}

	// Counters are independent per tier
	got, err := repos.Company.NextAssignIndex(ctx, "acme", domain.CounterAny)
	if err != nil {
		t.Fatalf("Failed to claim index: %v", err)
	}
	if got != 0 {
		t.Errorf("Expected fresh counter for any tier, got %d", got)
	}
}

func TestRespondentPresenceSemantics(t *testing.T) {
	repos, cleanup := testRepos(t)
	defer cleanup()
	ctx := context.Background()

	seen := time.Now().Add(-time.Minute).Truncate(time.Millisecond)
	r := &domain.Respondent{Email: "ann@x.com", Name: "Ann", Status: domain.RespondentActive, IsOnline: true, LastSeen: seen}
	if err := repos.Respondent.Save(ctx, "acme", r); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	// Offline with zero lastSeen keeps the stored timestamp
	if err := repos.Respondent.SetPresence(ctx, "acme", "ann@x.com", false, time.Time{}); err != nil {
		t.Fatalf("Failed to set presence: %v", err)
	}
	got, err := repos.Respondent.GetByEmail(ctx, "acme", "ann@x.com")
	if err != nil {
		t.Fatalf("Failed to get: %v", err)
	}
	if got.IsOnline {
		t.Error("Expected offline")
	}
	if !got.LastSeen.Equal(seen) {
		t.Errorf("Expected lastSeen preserved, got %v want %v", got.LastSeen, seen)
	}

	// Online with a timestamp updates both
	newSeen := time.Now().Truncate(time.Millisecond)
	if err := repos.Respondent.SetPresence(ctx, "acme", "ann@x.com", true, newSeen); err != nil {
		t.Fatalf("Failed to set presence: %v", err)
	}
	got, _ = repos.Respondent.GetByEmail(ctx, "acme", "ann@x.com")
	if !got.IsOnline || !got.LastSeen.Equal(newSeen) {
		t.Errorf("Expected updated presence, got %+v", got)
	}
}

func TestForceOfflineStale(t *testing.T) {
	repos, cleanup := testRepos(t)
	defer cleanup()
	ctx := context.Background()

	now := time.Now()
	stale := &domain.Respondent{Email: "stale@x.com", Status: domain.RespondentActive, IsOnline: true, LastSeen: now.Add(-20 * time.Minute)}
	fresh := &domain.Respondent{Email: "fresh@x.com", Status: domain.RespondentActive, IsOnline: true, LastSeen: now}
	noSeen := &domain.Respondent{Email: "new@x.com", Status: domain.RespondentActive, IsOnline: true}
	for _, r := range []*domain.Respondent{stale, fresh, noSeen} {
		if err := repos.Respondent.Save(ctx, "acme", r); err != nil {
			t.Fatalf("Failed to save: %v", err)
		}
	}

	count, err := repos.Respondent.ForceOfflineStale(ctx, "acme", now.Add(-10*time.Minute))
	if err != nil {
		t.Fatalf("Failed to sweep: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 corrected row, got %d", count)
	}

	got, _ := repos.Respondent.GetByEmail(ctx, "acme", "stale@x.com")
	if got.IsOnline {
		t.Error("Expected stale respondent offline")
	}
	if got.LastSeen.IsZero() {
		t.Error("Expected lastSeen kept through the sweep")
	}
	if got, _ := repos.Respondent.GetByEmail(ctx, "acme", "new@x.com"); !got.IsOnline {
		t.Error("Expected respondent without lastSeen untouched")
	}
}

func TestListActiveKeepsStoredOrder(t *testing.T) {
	repos, cleanup := testRepos(t)
	defer cleanup()
	ctx := context.Background()

	emails := []string{"b@x.com", "a@x.com", "c@x.com"}
	for _, email := range emails {
		r := &domain.Respondent{Email: email, Status: domain.RespondentActive}
		if err := repos.Respondent.Save(ctx, "acme", r); err != nil {
			t.Fatalf("Failed to save: %v", err)
		}
	}
	invited := &domain.Respondent{Email: "invited@x.com", Status: domain.RespondentInvited}
	if err := repos.Respondent.Save(ctx, "acme", invited); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	active, err := repos.Respondent.ListActive(ctx, "acme")
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(active) != 3 {
		t.Fatalf("Expected 3 active respondents, got %d", len(active))
	}
	for i, email := range emails {
		if active[i].Email != email {
			t.Errorf("Expected stored order %v, got %s at %d", emails, active[i].Email, i)
		}
	}
}

func TestTicketLifecycle(t *testing.T) {
	repos, cleanup := testRepos(t)
	defer cleanup()
	ctx := context.Background()

	ticket := &domain.Ticket{
		ID:         "t1",
		CompanyID:  "acme",
		CustomerID: "+155500",
		Status:     domain.TicketOpen,
		AIEnabled:  true,
	}
	if err := repos.Ticket.Create(ctx, ticket); err != nil {
		t.Fatalf("Failed to create: %v", err)
	}

	open, err := repos.Ticket.FindOpenByCustomer(ctx, "acme", "+155500")
	if err != nil {
		t.Fatalf("Failed to find: %v", err)
	}
	if open == nil || open.ID != "t1" {
		t.Fatalf("Expected open ticket t1, got %+v", open)
	}

	if err := repos.Ticket.UpdateAssignment(ctx, "acme", "t1", domain.Assignee{Label: "Ann", Email: "ann@x.com"}); err != nil {
		t.Fatalf("Failed to assign: %v", err)
	}
	if err := repos.Ticket.SetAIEnabled(ctx, "acme", "t1", false); err != nil {
		t.Fatalf("Failed to toggle: %v", err)
	}
	if err := repos.Ticket.TouchLastMessage(ctx, "acme", "t1", "latest"); err != nil {
		t.Fatalf("Failed to touch: %v", err)
	}

	got, err := repos.Ticket.Get(ctx, "acme", "t1")
	if err != nil {
		t.Fatalf("Failed to get: %v", err)
	}
	if got.AssignedEmail != "ann@x.com" || got.AIEnabled || got.LastMessage != "latest" {
		t.Errorf("Lifecycle mismatch: %+v", got)
	}

	if err := repos.Ticket.Create(ctx, &domain.Ticket{ID: "t2", CompanyID: "acme", CustomerID: "+155501", Status: domain.TicketOpen}); err != nil {
		t.Fatalf("Failed to create: %v", err)
	}
	open, _ = repos.Ticket.FindOpenByCustomer(ctx, "acme", "+155501")
	if open == nil || open.ID != "t2" {
		t.Errorf("Expected per-customer lookup, got %+v", open)
	}
}

func TestAppendMessageIdempotent(t *testing.T) {
	repos, cleanup := testRepos(t)
	defer cleanup()
	ctx := context.Background()

	if err := repos.Ticket.Create(ctx, &domain.Ticket{ID: "t1", CompanyID: "acme", CustomerID: "+155500", Status: domain.TicketOpen}); err != nil {
		t.Fatalf("Failed to create: %v", err)
	}

	msg := &domain.Message{ID: "SM1", TicketID: "t1", From: "+155500", Role: domain.RoleCustomer, Body: "hello"}
	if err := repos.Ticket.AppendMessage(ctx, "acme", msg); err != nil {
		t.Fatalf("Failed to append: %v", err)
	}
	// Provider re-delivery of the same sid
	dup := &domain.Message{ID: "SM1", TicketID: "t1", From: "+155500", Role: domain.RoleCustomer, Body: "hello"}
	if err := repos.Ticket.AppendMessage(ctx, "acme", dup); err != nil {
		t.Fatalf("Failed to append duplicate: %v", err)
	}

	msgs, err := repos.Ticket.RecentMessages(ctx, "acme", "t1", 10)
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(msgs) != 1 {
		t.Errorf("Expected one message after re-delivery, got %d", len(msgs))
	}
}

func TestRecentMessagesOrderAndError(t *testing.T) {
	repos, cleanup := testRepos(t)
	defer cleanup()
	ctx := context.Background()

	if err := repos.Ticket.Create(ctx, &domain.Ticket{ID: "t1", CompanyID: "acme", CustomerID: "+155500", Status: domain.TicketOpen}); err != nil {
		t.Fatalf("Failed to create: %v", err)
	}

	base := time.Now().Add(-time.Hour)
	for i, body := range []string{"first", "second", "third"} {
		msg := &domain.Message{
			ID:        body,
			TicketID:  "t1",
			Role:      domain.RoleCustomer,
			Body:      body,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := repos.Ticket.AppendMessage(ctx, "acme", msg); err != nil {
			t.Fatalf("Failed to append: %v", err)
		}
	}
	failed := &domain.Message{
		ID:        "err1",
		TicketID:  "t1",
		From:      "System",
		Role:      domain.RoleSystem,
		Kind:      domain.KindDeliveryError,
		Body:      "Failed to send AI reply. Error Code: 63038",
		Error:     &domain.DeliveryError{Code: "63038", Message: "daily limit", Status: 429},
		CreatedAt: base.Add(10 * time.Minute),
	}
	if err := repos.Ticket.AppendMessage(ctx, "acme", failed); err != nil {
		t.Fatalf("Failed to append: %v", err)
	}

	msgs, err := repos.Ticket.RecentMessages(ctx, "acme", "t1", 3)
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("Expected limit applied, got %d", len(msgs))
	}
	if msgs[0].Body != "second" || msgs[2].Kind != domain.KindDeliveryError {
		t.Errorf("Expected oldest-first window ending at the error, got %v", []string{msgs[0].Body, msgs[1].Body, msgs[2].Body})
	}
	if msgs[2].Error == nil || msgs[2].Error.Code != "63038" || msgs[2].Error.Status != 429 {
		t.Errorf("Expected structured error round trip, got %+v", msgs[2].Error)
	}
}
