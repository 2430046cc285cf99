package repo

import "context"

// OutboundMessage is a messaging-provider send request
type OutboundMessage struct {
	From string
	To   string
	Body string
}

// ProviderError is the typed error surface of the messaging provider.
// Implementations return it (wrapped or not) so delivery failures can be
// classified by code and HTTP status.
type ProviderError struct {
	Code    string
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	return "provider error " + e.Code + ": " + e.Message
}

// MessengerRepo is the outbound messaging-provider interface
type MessengerRepo interface {
	// CreateMessage sends one message and returns the provider sid
	CreateMessage(ctx context.Context, accountSID, authToken string, msg OutboundMessage) (string, error)
}
