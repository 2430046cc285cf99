package data

import (
	"context"
	"errors"
	"strconv"

	"github.com/axionhq/axion-router/internal/biz/repo"
	"github.com/axionhq/axion-router/twilio"
)

// twilioRepo adapts the Twilio client to the messenger repository
type twilioRepo struct {
	client *twilio.Client
}

// NewTwilioRepo creates a messenger repository backed by Twilio
func NewTwilioRepo(client *twilio.Client) repo.MessengerRepo {
	return &twilioRepo{client: client}
}

// CreateMessage sends one outbound message using the company's credentials
func (r *twilioRepo) CreateMessage(ctx context.Context, accountSID, authToken string, msg repo.OutboundMessage) (string, error) {
	sid, err := r.client.CreateMessage(ctx, accountSID, authToken, msg.From, msg.To, msg.Body)
	if err != nil {
		var terr *twilio.Error
		if errors.As(err, &terr) {
			code := ""
			if terr.Code != 0 {
				code = strconv.Itoa(terr.Code)
			}
			return "", &repo.ProviderError{
				Code:    code,
				Status:  terr.Status,
				Message: terr.Message,
			}
		}
		return "", err
	}
	return sid, nil
}
