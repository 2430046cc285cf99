package domain

// AssignCounter identifies one of the per-company round-robin counters.
type AssignCounter string

const (
	CounterOnline AssignCounter = "online"
	CounterRecent AssignCounter = "recent"
	CounterAny    AssignCounter = "any"
)

// Company represents a tenant and its routing configuration
type Company struct {
	ID   string
	Name string

	// Messaging provider credentials (optional; delivery is skipped when unset)
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	// Text-completion credentials (optional; fallback reply is used when unset)
	GenAIAPIKey string

	// Reply prompt template with {companyName} and {history} placeholders
	PromptTemplate string

	// Minutes of respondent inactivity before the AI takes over
	AIWaitMinutes int

	NotifyAITakeover bool
	NotifyAgentJoin  bool
	ShowInitials     bool

	// Admin presence is an explicit switch, not inferred from heartbeats
	AdminOnline bool

	// Round-robin assignment counters, one per tier
	LastAssignedOnlineIndex int
	LastAssignedRecentIndex int
	LastAssignedAnyIndex    int
}

// WaitMinutes returns the configured AI wait time, defaulting to 5
func (c *Company) WaitMinutes() int {
	if c.AIWaitMinutes <= 0 {
		return 5
	}
	return c.AIWaitMinutes
}

// HasTwilio checks if the company can deliver outbound messages
func (c *Company) HasTwilio() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioFromNumber != ""
}

// DisplayName returns the company name for prompt substitution
func (c *Company) DisplayName() string {
	if c.Name == "" {
		return "our company"
	}
	return c.Name
}
