package data

import (
	"database/sql"

	"github.com/axionhq/axion-router/gemini"
	"github.com/axionhq/axion-router/internal/biz/repo"
	"github.com/axionhq/axion-router/twilio"
)

// Repositories contains all repositories
type Repositories struct {
	Company    repo.CompanyRepo
	Respondent repo.RespondentRepo
	Ticket     repo.TicketRepo
	Messenger  repo.MessengerRepo
	Completion repo.CompletionRepo
}

// NewRepositories creates all repositories over one database handle
func NewRepositories(db *sql.DB, twilioClient *twilio.Client, geminiClient *gemini.Client) *Repositories {
	return &Repositories{
		Company:    NewCompanyRepo(db),
		Respondent: NewRespondentRepo(db),
		Ticket:     NewTicketRepo(db),
		Messenger:  NewTwilioRepo(twilioClient),
		Completion: NewGeminiRepo(geminiClient),
	}
}
