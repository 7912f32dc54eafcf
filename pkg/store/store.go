package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// AgentConfig is an operator-authored answering persona. It is read-only to
// the orchestrator and immutable within one invocation.
type AgentConfig struct {
	ID       string
	TenantID string
	Name     string

	// Persona is the free-text system prompt.
	Persona string

	// Model identifier; resolved against the completion provider registry.
	Model string

	// EnabledTools are the tool names this agent may invoke.
	EnabledTools []string

	// Retrieval-source flags.
	UseKnowledge bool
	UseCatalog   bool
	UsePricing   bool
	UseSchedule  bool

	// ResponseDelay is the debounce window before answering. Zero disables
	// the debounce check.
	ResponseDelay time.Duration

	Active bool
}

// ToolEnabled reports whether the agent may invoke the named tool.
func (a *AgentConfig) ToolEnabled(name string) bool {
	for _, t := range a.EnabledTools {
		if t == name {
			return true
		}
	}
	return false
}

// Message is one entry of a durable conversation transcript. Append-only;
// ordering is creation time, ties broken by insertion order (row id).
type Message struct {
	ID        string
	TicketID  string
	Role      string
	Content   string
	CreatedAt time.Time
}

// Contact is a CRM customer record.
type Contact struct {
	ID       string
	TenantID string
	Name     string
	Phone    string
	Tags     []string
	PlanName string
}

// Plan is a priced membership plan.
type Plan struct {
	ID           string
	TenantID     string
	Name         string
	Price        float64
	BillingCycle string
	Active       bool
}

// Offering is a named service in the tenant's catalog.
type Offering struct {
	ID          string
	TenantID    string
	Name        string
	Description string
	Active      bool
}

// ScheduleSlot is a recurring weekly time slot.
type ScheduleSlot struct {
	ID           string
	TenantID     string
	Weekday      time.Weekday
	StartTime    string
	EndTime      string
	OfferingName string
	StaffName    string
	Active       bool
}

// ClassSession is a bookable dated occurrence with finite capacity.
type ClassSession struct {
	ID           string
	TenantID     string
	Date         string // YYYY-MM-DD
	StartTime    string
	OfferingName string
	StaffName    string
	Capacity     int
	Booked       int
}

// Remaining is the open capacity at read time.
func (s *ClassSession) Remaining() int {
	return s.Capacity - s.Booked
}

// Booking ties a contact to a class session.
type Booking struct {
	ID        string
	SessionID string
	ContactID string
	CreatedAt time.Time
}

// AgentStore reads agent configurations.
type AgentStore interface {
	GetAgent(ctx context.Context, id string) (*AgentConfig, error)
}

// MessageStore is the durable conversation transcript adapter.
type MessageStore interface {
	// AppendMessage persists one transcript entry.
	AppendMessage(ctx context.Context, msg *Message) error

	// RecentMessages returns up to limit messages for a ticket in
	// chronological order.
	RecentMessages(ctx context.Context, ticketID string, limit int) ([]Message, error)

	// LatestUserMessageAt returns the creation time of the newest user
	// message for a ticket. ok is false when the ticket has none.
	LatestUserMessageAt(ctx context.Context, ticketID string) (t time.Time, ok bool, err error)
}

// CatalogStore feeds the structured context providers.
type CatalogStore interface {
	ActiveOfferings(ctx context.Context, tenantID string) ([]Offering, error)
	ActivePlans(ctx context.Context, tenantID string) ([]Plan, error)
	ActiveSlots(ctx context.Context, tenantID string) ([]ScheduleSlot, error)
}

// CRMStore backs the tool implementations.
type CRMStore interface {
	ContactByPhone(ctx context.Context, tenantID, phone string) (*Contact, error)

	// ReplaceContactTags overwrites the stored tag list. Replace, not merge.
	ReplaceContactTags(ctx context.Context, contactID string, tags []string) error

	// SessionsOnDate returns sessions for a date, optionally filtered by
	// offering name, including full ones. Callers filter on remaining
	// capacity.
	SessionsOnDate(ctx context.Context, tenantID, date, offering string) ([]ClassSession, error)

	GetSession(ctx context.Context, sessionID string) (*ClassSession, error)

	// RecordBooking increments the session's booked count and inserts the
	// booking row. The capacity check happens before this call; the
	// check-then-increment pair is not atomic.
	RecordBooking(ctx context.Context, booking *Booking) error
}

// Store is the full persistence surface, implemented by SQLStore.
type Store interface {
	AgentStore
	MessageStore
	CatalogStore
	CRMStore
	Close() error
}
