package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/axionhq/axion-router/internal/biz/domain"
	"github.com/axionhq/axion-router/internal/biz/repo"
)

// respondentRepo implements the respondent repository over SQLite
type respondentRepo struct {
	db *sql.DB
}

// NewRespondentRepo creates a new respondent repository
func NewRespondentRepo(db *sql.DB) repo.RespondentRepo {
	return &respondentRepo{db: db}
}

// ListActive lists a company's active respondents in insertion order.
// Order matters: assignment tie-breaks follow stored order.
func (r *respondentRepo) ListActive(ctx context.Context, companyID string) ([]*domain.Respondent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT email, name, status, is_online, last_seen
		FROM respondents
		WHERE company_id = ? AND status = ?
		ORDER BY rowid
	`, companyID, string(domain.RespondentActive))
	if err != nil {
		return nil, fmt.Errorf("failed to list respondents: %w", err)
	}
	defer rows.Close()

	var respondents []*domain.Respondent
	for rows.Next() {
		respondent, err := scanRespondent(rows)
		if err != nil {
			return nil, err
		}
		respondents = append(respondents, respondent)
	}
	return respondents, rows.Err()
}

// GetByEmail loads a respondent by email
func (r *respondentRepo) GetByEmail(ctx context.Context, companyID, email string) (*domain.Respondent, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT email, name, status, is_online, last_seen
		FROM respondents
		WHERE company_id = ? AND email = ?
	`, companyID, email)

	var respondent domain.Respondent
	var isOnline int
	var lastSeen int64
	err := row.Scan(&respondent.Email, &respondent.Name, (*string)(&respondent.Status), &isOnline, &lastSeen)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query respondent: %w", err)
	}

	respondent.ID = respondent.Email
	respondent.IsOnline = isOnline != 0
	if lastSeen > 0 {
		respondent.LastSeen = time.UnixMilli(lastSeen)
	}
	return &respondent, nil
}

// Save creates or replaces a respondent
func (r *respondentRepo) Save(ctx context.Context, companyID string, respondent *domain.Respondent) error {
	lastSeen := int64(0)
	if !respondent.LastSeen.IsZero() {
		lastSeen = respondent.LastSeen.UnixMilli()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO respondents (company_id, email, name, status, is_online, last_seen)
		VALUES (?, ?, ?, ?, ?, ?)
	`, companyID, respondent.Email, respondent.Name, string(respondent.Status), boolToInt(respondent.IsOnline), lastSeen)
	if err != nil {
		return fmt.Errorf("failed to save respondent: %w", err)
	}
	return nil
}

// SetPresence updates the online flag; a zero lastSeen preserves the
// stored timestamp (offline signals and stale corrections keep it)
func (r *respondentRepo) SetPresence(ctx context.Context, companyID, email string, online bool, lastSeen time.Time) error {
	var err error
	if lastSeen.IsZero() {
		_, err = r.db.ExecContext(ctx, `
			UPDATE respondents SET is_online = ? WHERE company_id = ? AND email = ?
		`, boolToInt(online), companyID, email)
	} else {
		_, err = r.db.ExecContext(ctx, `
			UPDATE respondents SET is_online = ?, last_seen = ? WHERE company_id = ? AND email = ?
		`, boolToInt(online), lastSeen.UnixMilli(), companyID, email)
	}
	if err != nil {
		return fmt.Errorf("failed to set presence: %w", err)
	}
	return nil
}

// ForceOfflineStale marks respondents offline whose lastSeen predates the
// cutoff, keeping lastSeen for reference
func (r *respondentRepo) ForceOfflineStale(ctx context.Context, companyID string, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE respondents
		SET is_online = 0
		WHERE company_id = ? AND is_online = 1 AND last_seen > 0 AND last_seen < ?
	`, companyID, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to force offline: %w", err)
	}
	return result.RowsAffected()
}

func scanRespondent(rows *sql.Rows) (*domain.Respondent, error) {
	var respondent domain.Respondent
	var isOnline int
	var lastSeen int64
	if err := rows.Scan(&respondent.Email, &respondent.Name, (*string)(&respondent.Status), &isOnline, &lastSeen); err != nil {
		return nil, fmt.Errorf("failed to scan respondent: %w", err)
	}
	respondent.ID = respondent.Email
	respondent.IsOnline = isOnline != 0
	if lastSeen > 0 {
		respondent.LastSeen = time.UnixMilli(lastSeen)
	}
	return &respondent, nil
}
