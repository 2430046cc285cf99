package data

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// OpenStore opens the router's SQLite database and ensures the schema
func OpenStore(dbPath string) (*sql.DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Serialize writers; webhook invocations are short-lived units of work
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func createSchema(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS companies (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			twilio_account_sid TEXT NOT NULL DEFAULT '',
			twilio_auth_token TEXT NOT NULL DEFAULT '',
			twilio_from_number TEXT NOT NULL DEFAULT '',
			genai_api_key TEXT NOT NULL DEFAULT '',
			prompt_template TEXT NOT NULL DEFAULT '',
			ai_wait_minutes INTEGER NOT NULL DEFAULT 5,
			notify_ai_takeover INTEGER NOT NULL DEFAULT 1,
			notify_agent_join INTEGER NOT NULL DEFAULT 1,
			show_initials INTEGER NOT NULL DEFAULT 1,
			admin_online INTEGER NOT NULL DEFAULT 0,
			last_assigned_online_index INTEGER NOT NULL DEFAULT 0,
			last_assigned_recent_index INTEGER NOT NULL DEFAULT 0,
			last_assigned_any_index INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS respondents (
			company_id TEXT NOT NULL,
			email TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'invited',
			is_online INTEGER NOT NULL DEFAULT 0,
			last_seen INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (company_id, email)
		)`,
		`CREATE TABLE IF NOT EXISTS tickets (
			company_id TEXT NOT NULL,
			id TEXT NOT NULL,
			customer_id TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'open',
			assigned_to TEXT NOT NULL DEFAULT '',
			assigned_email TEXT NOT NULL DEFAULT '',
			ai_enabled INTEGER NOT NULL DEFAULT 1,
			last_message TEXT NOT NULL DEFAULT '',
			history_summary TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (company_id, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tickets_customer
			ON tickets(company_id, customer_id, status)`,
		`CREATE TABLE IF NOT EXISTS messages (
			company_id TEXT NOT NULL,
			ticket_id TEXT NOT NULL,
			id TEXT NOT NULL,
			from_label TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT '',
			kind TEXT NOT NULL DEFAULT '',
			body TEXT NOT NULL DEFAULT '',
			sender_email TEXT NOT NULL DEFAULT '',
			error_code TEXT NOT NULL DEFAULT '',
			error_message TEXT NOT NULL DEFAULT '',
			error_status INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL,
			PRIMARY KEY (company_id, ticket_id, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_ticket
			ON messages(company_id, ticket_id, created_at)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}
