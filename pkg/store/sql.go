package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/fitdesk/agentd/pkg/config"
)

const (
	dialectSQLite   = "sqlite"
	dialectPostgres = "postgres"
)

// SQLStore implements Store on database/sql. SQLite and PostgreSQL are
// supported; queries are written with ? placeholders and rebound for
// postgres.
type SQLStore struct {
	db      *sql.DB
	dialect string
}

// NewSQLStore opens the database, applies the schema, and verifies
// connectivity.
func NewSQLStore(cfg *config.StoreConfig) (*SQLStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("store config is required")
	}

	db, err := sql.Open(cfg.DriverName(), cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MaxIdle)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &SQLStore{db: db, dialect: cfg.Driver}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) migrate() error {
	for _, stmt := range schemaStatements(s.dialect) {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// q rewrites ? placeholders to $1..$N for postgres. SQLite queries pass
// through unchanged.
func (s *SQLStore) q(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ---------------------------------------------------------------------------
// Agents
// ---------------------------------------------------------------------------

func (s *SQLStore) GetAgent(ctx context.Context, id string) (*AgentConfig, error) {
	row := s.db.QueryRowContext(ctx, s.q(`
		SELECT id, tenant_id, name, persona, model, enabled_tools,
		       use_knowledge, use_catalog, use_pricing, use_schedule,
		       response_delay_ms, active
		FROM agents WHERE id = ?`), id)

	var (
		a        AgentConfig
		toolsRaw string
		delayMS  int64
	)
	err := row.Scan(&a.ID, &a.TenantID, &a.Name, &a.Persona, &a.Model,
		&toolsRaw, &a.UseKnowledge, &a.UseCatalog, &a.UsePricing,
		&a.UseSchedule, &delayMS, &a.Active)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("agent %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load agent %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(toolsRaw), &a.EnabledTools); err != nil {
		return nil, fmt.Errorf("failed to decode enabled_tools for agent %s: %w", id, err)
	}
	a.ResponseDelay = time.Duration(delayMS) * time.Millisecond
	return &a, nil
}

// SaveAgent inserts or replaces an agent configuration. Used by seeding and
// tests; the orchestrator itself only reads agents.
func (s *SQLStore) SaveAgent(ctx context.Context, a *AgentConfig) error {
	tools, err := json.Marshal(a.EnabledTools)
	if err != nil {
		return fmt.Errorf("failed to encode enabled_tools: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, s.q(`DELETE FROM agents WHERE id = ?`), a.ID); err != nil {
		return fmt.Errorf("failed to save agent: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.q(`
		INSERT INTO agents (id, tenant_id, name, persona, model, enabled_tools,
			use_knowledge, use_catalog, use_pricing, use_schedule,
			response_delay_ms, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		a.ID, a.TenantID, a.Name, a.Persona, a.Model, string(tools),
		a.UseKnowledge, a.UseCatalog, a.UsePricing, a.UseSchedule,
		a.ResponseDelay.Milliseconds(), a.Active)
	if err != nil {
		return fmt.Errorf("failed to save agent: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Transcript
// ---------------------------------------------------------------------------

func (s *SQLStore) AppendMessage(ctx context.Context, msg *Message) error {
	if msg.TicketID == "" {
		return fmt.Errorf("ticket id is required")
	}
	createdAt := msg.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO ticket_messages (id, ticket_id, role, content, created_at)
		VALUES (?, ?, ?, ?, ?)`),
		msg.ID, msg.TicketID, msg.Role, msg.Content, createdAt)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

func (s *SQLStore) RecentMessages(ctx context.Context, ticketID string, limit int) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT id, ticket_id, role, content, created_at
		FROM ticket_messages
		WHERE ticket_id = ?
		ORDER BY created_at DESC, seq DESC
		LIMIT ?`), ticketID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.TicketID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	// Query returns newest first; callers want chronological order.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (s *SQLStore) LatestUserMessageAt(ctx context.Context, ticketID string) (time.Time, bool, error) {
	row := s.db.QueryRowContext(ctx, s.q(`
		SELECT created_at
		FROM ticket_messages
		WHERE ticket_id = ? AND role = 'user'
		ORDER BY created_at DESC, seq DESC
		LIMIT 1`), ticketID)

	var t time.Time
	err := row.Scan(&t)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to load latest user message: %w", err)
	}
	return t, true, nil
}

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

func (s *SQLStore) ActiveOfferings(ctx context.Context, tenantID string) ([]Offering, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT id, tenant_id, name, description, active
		FROM offerings
		WHERE tenant_id = ? AND active = ?
		ORDER BY name`), tenantID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load offerings: %w", err)
	}
	defer rows.Close()

	var out []Offering
	for rows.Next() {
		var o Offering
		if err := rows.Scan(&o.ID, &o.TenantID, &o.Name, &o.Description, &o.Active); err != nil {
			return nil, fmt.Errorf("failed to scan offering: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *SQLStore) ActivePlans(ctx context.Context, tenantID string) ([]Plan, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT id, tenant_id, name, price, billing_cycle, active
		FROM plans
		WHERE tenant_id = ? AND active = ?
		ORDER BY price, name`), tenantID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load plans: %w", err)
	}
	defer rows.Close()

	var out []Plan
	for rows.Next() {
		var p Plan
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Name, &p.Price, &p.BillingCycle, &p.Active); err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLStore) ActiveSlots(ctx context.Context, tenantID string) ([]ScheduleSlot, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT id, tenant_id, weekday, start_time, end_time, offering_name, staff_name, active
		FROM schedule_slots
		WHERE tenant_id = ? AND active = ?
		ORDER BY weekday, start_time`), tenantID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule slots: %w", err)
	}
	defer rows.Close()

	var out []ScheduleSlot
	for rows.Next() {
		var sl ScheduleSlot
		var weekday int
		if err := rows.Scan(&sl.ID, &sl.TenantID, &weekday, &sl.StartTime, &sl.EndTime,
			&sl.OfferingName, &sl.StaffName, &sl.Active); err != nil {
			return nil, fmt.Errorf("failed to scan schedule slot: %w", err)
		}
		sl.Weekday = time.Weekday(weekday)
		out = append(out, sl)
	}
	return out, rows.Err()
}

// ---------------------------------------------------------------------------
// CRM
// ---------------------------------------------------------------------------

func (s *SQLStore) ContactByPhone(ctx context.Context, tenantID, phone string) (*Contact, error) {
	row := s.db.QueryRowContext(ctx, s.q(`
		SELECT id, tenant_id, name, phone, tags, plan_name
		FROM contacts
		WHERE tenant_id = ? AND phone = ?`), tenantID, phone)

	var (
		c       Contact
		tagsRaw string
	)
	err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.Phone, &tagsRaw, &c.PlanName)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("contact with phone %s: %w", phone, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load contact: %w", err)
	}
	if err := json.Unmarshal([]byte(tagsRaw), &c.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags for contact %s: %w", c.ID, err)
	}
	return &c, nil
}

func (s *SQLStore) SaveContact(ctx context.Context, c *Contact) error {
	tags, err := json.Marshal(c.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, s.q(`DELETE FROM contacts WHERE id = ?`), c.ID); err != nil {
		return fmt.Errorf("failed to save contact: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.q(`
		INSERT INTO contacts (id, tenant_id, name, phone, tags, plan_name)
		VALUES (?, ?, ?, ?, ?, ?)`),
		c.ID, c.TenantID, c.Name, c.Phone, string(tags), c.PlanName)
	if err != nil {
		return fmt.Errorf("failed to save contact: %w", err)
	}
	return nil
}

func (s *SQLStore) ReplaceContactTags(ctx context.Context, contactID string, tags []string) error {
	if tags == nil {
		tags = []string{}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE contacts SET tags = ? WHERE id = ?`),
		string(raw), contactID)
	if err != nil {
		return fmt.Errorf("failed to update tags: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("contact %s: %w", contactID, ErrNotFound)
	}
	return nil
}

func (s *SQLStore) SessionsOnDate(ctx context.Context, tenantID, date, offering string) ([]ClassSession, error) {
	query := `
		SELECT id, tenant_id, session_date, start_time, offering_name, staff_name, capacity, booked
		FROM class_sessions
		WHERE tenant_id = ? AND session_date = ?`
	args := []interface{}{tenantID, date}
	if offering != "" {
		query += ` AND offering_name = ?`
		args = append(args, offering)
	}
	query += ` ORDER BY start_time`

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	defer rows.Close()

	var out []ClassSession
	for rows.Next() {
		var cs ClassSession
		if err := rows.Scan(&cs.ID, &cs.TenantID, &cs.Date, &cs.StartTime,
			&cs.OfferingName, &cs.StaffName, &cs.Capacity, &cs.Booked); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetSession(ctx context.Context, sessionID string) (*ClassSession, error) {
	row := s.db.QueryRowContext(ctx, s.q(`
		SELECT id, tenant_id, session_date, start_time, offering_name, staff_name, capacity, booked
		FROM class_sessions WHERE id = ?`), sessionID)

	var cs ClassSession
	err := row.Scan(&cs.ID, &cs.TenantID, &cs.Date, &cs.StartTime,
		&cs.OfferingName, &cs.StaffName, &cs.Capacity, &cs.Booked)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &cs, nil
}

func (s *SQLStore) SaveSession(ctx context.Context, cs *ClassSession) error {
	if _, err := s.db.ExecContext(ctx, s.q(`DELETE FROM class_sessions WHERE id = ?`), cs.ID); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO class_sessions (id, tenant_id, session_date, start_time,
			offering_name, staff_name, capacity, booked)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		cs.ID, cs.TenantID, cs.Date, cs.StartTime, cs.OfferingName,
		cs.StaffName, cs.Capacity, cs.Booked)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *SQLStore) RecordBooking(ctx context.Context, booking *Booking) error {
	createdAt := booking.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin booking transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, s.q(`
		UPDATE class_sessions SET booked = booked + 1 WHERE id = ?`),
		booking.SessionID)
	if err != nil {
		return fmt.Errorf("failed to increment booked count: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("session %s: %w", booking.SessionID, ErrNotFound)
	}

	_, err = tx.ExecContext(ctx, s.q(`
		INSERT INTO bookings (id, session_id, contact_id, created_at)
		VALUES (?, ?, ?, ?)`),
		booking.ID, booking.SessionID, booking.ContactID, createdAt)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking: %w", err)
	}
	return nil
}

// Seed helpers used by fixtures.

func (s *SQLStore) SavePlan(ctx context.Context, p *Plan) error {
	if _, err := s.db.ExecContext(ctx, s.q(`DELETE FROM plans WHERE id = ?`), p.ID); err != nil {
		return fmt.Errorf("failed to save plan: %w", err)
	}
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO plans (id, tenant_id, name, price, billing_cycle, active)
		VALUES (?, ?, ?, ?, ?, ?)`),
		p.ID, p.TenantID, p.Name, p.Price, p.BillingCycle, p.Active)
	if err != nil {
		return fmt.Errorf("failed to save plan: %w", err)
	}
	return nil
}

func (s *SQLStore) SaveOffering(ctx context.Context, o *Offering) error {
	if _, err := s.db.ExecContext(ctx, s.q(`DELETE FROM offerings WHERE id = ?`), o.ID); err != nil {
		return fmt.Errorf("failed to save offering: %w", err)
	}
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO offerings (id, tenant_id, name, description, active)
		VALUES (?, ?, ?, ?, ?)`),
		o.ID, o.TenantID, o.Name, o.Description, o.Active)
	if err != nil {
		return fmt.Errorf("failed to save offering: %w", err)
	}
	return nil
}

func (s *SQLStore) SaveSlot(ctx context.Context, sl *ScheduleSlot) error {
	if _, err := s.db.ExecContext(ctx, s.q(`DELETE FROM schedule_slots WHERE id = ?`), sl.ID); err != nil {
		return fmt.Errorf("failed to save schedule slot: %w", err)
	}
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO schedule_slots (id, tenant_id, weekday, start_time, end_time,
			offering_name, staff_name, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		sl.ID, sl.TenantID, int(sl.Weekday), sl.StartTime, sl.EndTime,
		sl.OfferingName, sl.StaffName, sl.Active)
	if err != nil {
		return fmt.Errorf("failed to save schedule slot: %w", err)
	}
	return nil
}
