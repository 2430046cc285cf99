package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/axionhq/axion-router/internal/biz/domain"
	"github.com/axionhq/axion-router/internal/biz/repo"
)

// companyRepo implements the company repository over SQLite
type companyRepo struct {
	db *sql.DB
}

// NewCompanyRepo creates a new company repository
func NewCompanyRepo(db *sql.DB) repo.CompanyRepo {
	return &companyRepo{db: db}
}

const companyColumns = `id, name, twilio_account_sid, twilio_auth_token, twilio_from_number,
	genai_api_key, prompt_template, ai_wait_minutes, notify_ai_takeover, notify_agent_join,
	show_initials, admin_online, last_assigned_online_index, last_assigned_recent_index,
	last_assigned_any_index`

// Get loads a company by id
func (r *companyRepo) Get(ctx context.Context, companyID string) (*domain.Company, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+companyColumns+`
		FROM companies
		WHERE id = ?
	`, companyID)

	var c domain.Company
	var notifyTakeover, notifyJoin, showInitials, adminOnline int
	err := row.Scan(
		&c.ID, &c.Name, &c.TwilioAccountSID, &c.TwilioAuthToken, &c.TwilioFromNumber,
		&c.GenAIAPIKey, &c.PromptTemplate, &c.AIWaitMinutes, &notifyTakeover, &notifyJoin,
		&showInitials, &adminOnline, &c.LastAssignedOnlineIndex, &c.LastAssignedRecentIndex,
		&c.LastAssignedAnyIndex,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query company: %w", err)
	}

	c.NotifyAITakeover = notifyTakeover != 0
	c.NotifyAgentJoin = notifyJoin != 0
	c.ShowInitials = showInitials != 0
	c.AdminOnline = adminOnline != 0
	return &c, nil
}

// Save creates or replaces a company
func (r *companyRepo) Save(ctx context.Context, c *domain.Company) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO companies (`+companyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.ID, c.Name, c.TwilioAccountSID, c.TwilioAuthToken, c.TwilioFromNumber,
		c.GenAIAPIKey, c.PromptTemplate, c.AIWaitMinutes, boolToInt(c.NotifyAITakeover),
		boolToInt(c.NotifyAgentJoin), boolToInt(c.ShowInitials), boolToInt(c.AdminOnline),
		c.LastAssignedOnlineIndex, c.LastAssignedRecentIndex, c.LastAssignedAnyIndex,
	)
	if err != nil {
		return fmt.Errorf("failed to save company: %w", err)
	}
	return nil
}

// ListIDs returns every company id in stored order
func (r *companyRepo) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM companies ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan company id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// NextAssignIndex claims the current counter value and increments the
// stored one in a single transaction
func (r *companyRepo) NextAssignIndex(ctx context.Context, companyID string, counter domain.AssignCounter) (int, error) {
	column, err := counterColumn(counter)
	if err != nil {
		return 0, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	var claimed int
	row := tx.QueryRowContext(ctx, `SELECT `+column+` FROM companies WHERE id = ?`, companyID)
	if err := row.Scan(&claimed); err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", column, err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE companies SET `+column+` = `+column+` + 1 WHERE id = ?`, companyID); err != nil {
		return 0, fmt.Errorf("failed to increment %s: %w", column, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return claimed, nil
}

// SetAdminOnline flips the admin presence switch
func (r *companyRepo) SetAdminOnline(ctx context.Context, companyID string, online bool) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE companies SET admin_online = ? WHERE id = ?
	`, boolToInt(online), companyID)
	if err != nil {
		return fmt.Errorf("failed to set admin online: %w", err)
	}
	return nil
}

func counterColumn(counter domain.AssignCounter) (string, error) {
	switch counter {
	case domain.CounterOnline:
		return "last_assigned_online_index", nil
	case domain.CounterRecent:
		return "last_assigned_recent_index", nil
	case domain.CounterAny:
		return "last_assigned_any_index", nil
	default:
		return "", fmt.Errorf("unknown assign counter %q", counter)
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
