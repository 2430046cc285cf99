package domain

import (
	"strings"
	"time"
)

// MessageRole identifies the author class of a message
type MessageRole string

const (
	RoleCustomer MessageRole = "customer"
	RoleAgent    MessageRole = "agent"
	RoleAI       MessageRole = "ai"
	RoleSystem   MessageRole = "system"
)

// MessageKind tags system messages so the arbiter can recognize notices
// without matching on body text
type MessageKind string

const (
	KindNone           MessageKind = ""
	KindHistory        MessageKind = "history"
	KindTakeoverNotice MessageKind = "takeover-notice"
	KindJoinNotice     MessageKind = "join-notice"
	KindAIToggle       MessageKind = "ai-toggle"
	KindDeliveryError  MessageKind = "delivery-error"
)

// DeliveryError records a provider send failure on a system message
type DeliveryError struct {
	Code    string
	Message string
	Status  int
}

// Message represents one entry in a ticket's conversation record
type Message struct {
	ID          string
	TicketID    string
	From        string
	Role        MessageRole
	Kind        MessageKind
	Body        string
	SenderEmail string
	Error       *DeliveryError
	CreatedAt   time.Time
}

// IsAfter checks if the message is after the specified time
func (m *Message) IsAfter(t time.Time) bool {
	return m.CreatedAt.After(t)
}

// UserInitials derives a short attribution tag from a display name:
// first and last initial, or the first two letters of a single name.
func UserInitials(name string) string {
	parts := strings.Fields(strings.TrimSpace(name))
	if len(parts) == 0 {
		return ""
	}
	if len(parts) == 1 {
		if len(parts[0]) == 1 {
			return strings.ToUpper(parts[0])
		}
		return strings.ToUpper(parts[0][:2])
	}
	return strings.ToUpper(parts[0][:1] + parts[len(parts)-1][:1])
}

// AttributeBody appends the sender's initials to a message body,
// matching the inbox attribution convention
func AttributeBody(body, senderName string) string {
	initials := UserInitials(senderName)
	if initials == "" {
		return body
	}
	return body + "\n\n<" + initials + ">"
}
