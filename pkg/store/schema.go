package store

import "fmt"

// schemaStatements returns the DDL for the given dialect. Statements are
// idempotent so they can run on every startup.
func schemaStatements(dialect string) []string {
	// Row ids are the tie-breaker for transcript ordering, so messages get
	// an autoincrementing surrogate key alongside the public id.
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if dialect == dialectPostgres {
		serial = "BIGSERIAL PRIMARY KEY"
	}

	return []string{
		`CREATE TABLE IF NOT EXISTS agents (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			name TEXT NOT NULL,
			persona TEXT NOT NULL,
			model TEXT NOT NULL,
			enabled_tools TEXT NOT NULL DEFAULT '[]',
			use_knowledge BOOLEAN NOT NULL DEFAULT FALSE,
			use_catalog BOOLEAN NOT NULL DEFAULT FALSE,
			use_pricing BOOLEAN NOT NULL DEFAULT FALSE,
			use_schedule BOOLEAN NOT NULL DEFAULT FALSE,
			response_delay_ms INTEGER NOT NULL DEFAULT 0,
			active BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS ticket_messages (
			seq %s,
			id TEXT NOT NULL,
			ticket_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`, serial),
		`CREATE INDEX IF NOT EXISTS idx_ticket_messages_ticket
			ON ticket_messages (ticket_id, created_at, seq)`,
		`CREATE TABLE IF NOT EXISTS contacts (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			name TEXT NOT NULL,
			phone TEXT NOT NULL,
			tags TEXT NOT NULL DEFAULT '[]',
			plan_name TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_contacts_phone
			ON contacts (tenant_id, phone)`,
		`CREATE TABLE IF NOT EXISTS plans (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			name TEXT NOT NULL,
			price REAL NOT NULL,
			billing_cycle TEXT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS offerings (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			active BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS schedule_slots (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			weekday INTEGER NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			offering_name TEXT NOT NULL,
			staff_name TEXT NOT NULL DEFAULT '',
			active BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS class_sessions (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			session_date TEXT NOT NULL,
			start_time TEXT NOT NULL,
			offering_name TEXT NOT NULL,
			staff_name TEXT NOT NULL DEFAULT '',
			capacity INTEGER NOT NULL,
			booked INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_class_sessions_date
			ON class_sessions (tenant_id, session_date)`,
		`CREATE TABLE IF NOT EXISTS bookings (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			contact_id TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
	}
}
