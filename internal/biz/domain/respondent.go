package domain

import (
	"strings"
	"time"
)

// RespondentStatus represents the invitation lifecycle of a respondent
type RespondentStatus string

const (
	RespondentInvited RespondentStatus = "invited"
	RespondentActive  RespondentStatus = "active"
)

// HardOfflineAfter is the staleness threshold past which a respondent's
// online flag is forcibly corrected, regardless of company configuration.
// Safety net against clients that crash without sending an offline signal.
const HardOfflineAfter = 10 * time.Minute

// RecentWindow is how far back lastSeen may be for a respondent to count
// as "recently online" during initial assignment.
const RecentWindow = 5 * time.Minute

// Respondent represents a human agent within a company
type Respondent struct {
	ID       string
	Email    string
	Name     string
	Status   RespondentStatus
	IsOnline bool
	LastSeen time.Time
}

// DisplayLabel returns the label stored on tickets assigned to this
// respondent: the name, or the local part of the email when unnamed
func (r *Respondent) DisplayLabel() string {
	if r.Name != "" {
		return r.Name
	}
	if at := strings.Index(r.Email, "@"); at > 0 {
		return r.Email[:at]
	}
	return r.Email
}

// HardStale reports whether lastSeen is past the 10-minute correction
// threshold. A respondent with no lastSeen is never hard-stale.
func (r *Respondent) HardStale(now time.Time) bool {
	if r.LastSeen.IsZero() {
		return false
	}
	return now.Sub(r.LastSeen) > HardOfflineAfter
}

// EffectivelyOnline applies the presence gates in order: the stored flag,
// the hard 10-minute threshold, then the company wait window. A respondent
// with the flag set but no lastSeen is trusted as online.
func (r *Respondent) EffectivelyOnline(now time.Time, wait time.Duration) bool {
	if !r.IsOnline {
		return false
	}
	if r.LastSeen.IsZero() {
		return true
	}
	if r.HardStale(now) {
		return false
	}
	return now.Sub(r.LastSeen) <= wait
}

// RecentlyOnline reports lastSeen within the recent window, ignoring the
// online flag. Used only by the assignment tiers.
func (r *Respondent) RecentlyOnline(now time.Time) bool {
	if r.LastSeen.IsZero() {
		return false
	}
	return now.Sub(r.LastSeen) <= RecentWindow
}
