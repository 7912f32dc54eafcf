package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fitdesk/agentd/pkg/store"
)

type availabilityArgs struct {
	Date     string `json:"date" jsonschema:"required" jsonschema_description:"Date to check, formatted YYYY-MM-DD"`
	Offering string `json:"offering,omitempty" jsonschema_description:"Optional class or service name to filter by"`
}

// AvailabilityTool lists sessions with open capacity on a date.
type AvailabilityTool struct {
	store store.CRMStore
}

func NewAvailabilityTool(s store.CRMStore) *AvailabilityTool {
	return &AvailabilityTool{store: s}
}

func (t *AvailabilityTool) Info() ToolInfo {
	return ToolInfo{
		Name:        "check_availability",
		Description: "List class sessions with open spots on a given date, optionally filtered by class name. Returns session ids usable with book_class.",
		Parameters:  schemaFor(&availabilityArgs{}),
	}
}

func (t *AvailabilityTool) Execute(ctx context.Context, inv Invocation) (string, error) {
	var args availabilityArgs
	if err := decodeArgs("check_availability", inv.Args, &args); err != nil {
		return "", err
	}
	if args.Date == "" {
		return "", &ValidationError{Tool: "check_availability", Field: "date", Reason: "is required"}
	}
	if _, err := time.Parse("2006-01-02", args.Date); err != nil {
		return "", &ValidationError{Tool: "check_availability", Field: "date", Reason: "must be formatted YYYY-MM-DD"}
	}

	sessions, err := t.store.SessionsOnDate(ctx, inv.TenantID, args.Date, args.Offering)
	if err != nil {
		return "", fmt.Errorf("failed to check availability: %w", err)
	}

	// Only sessions with strictly positive remaining capacity are open.
	var b strings.Builder
	open := 0
	for _, s := range sessions {
		if s.Remaining() <= 0 {
			continue
		}
		open++
		fmt.Fprintf(&b, "- [%s] %s %s", s.ID, s.StartTime, s.OfferingName)
		if s.StaffName != "" {
			fmt.Fprintf(&b, " with %s", s.StaffName)
		}
		fmt.Fprintf(&b, " (%d spots left)\n", s.Remaining())
	}
	if open == 0 {
		return fmt.Sprintf("No open sessions on %s.", args.Date), nil
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

type bookClassArgs struct {
	SessionID string `json:"session_id" jsonschema:"required" jsonschema_description:"Id of the session to book, as returned by check_availability"`
	Phone     string `json:"phone" jsonschema:"required" jsonschema_description:"Phone number of the customer the booking is for"`
}

// BookClassTool books a customer into a session. Remaining capacity is
// re-read at execution time; the check and the increment are two separate
// statements, so two racing bookings against the last spot can both pass
// the check.
type BookClassTool struct {
	store store.CRMStore
}

func NewBookClassTool(s store.CRMStore) *BookClassTool {
	return &BookClassTool{store: s}
}

func (t *BookClassTool) Info() ToolInfo {
	return ToolInfo{
		Name:        "book_class",
		Description: "Book a customer into a class session. Fails when the session is already full.",
		Parameters:  schemaFor(&bookClassArgs{}),
	}
}

func (t *BookClassTool) Execute(ctx context.Context, inv Invocation) (string, error) {
	var args bookClassArgs
	if err := decodeArgs("book_class", inv.Args, &args); err != nil {
		return "", err
	}
	if args.SessionID == "" {
		return "", &ValidationError{Tool: "book_class", Field: "session_id", Reason: "is required"}
	}
	if args.Phone == "" {
		return "", &ValidationError{Tool: "book_class", Field: "phone", Reason: "is required"}
	}

	contact, err := t.store.ContactByPhone(ctx, inv.TenantID, args.Phone)
	if errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("no customer found with phone %s", args.Phone)
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up customer: %w", err)
	}

	session, err := t.store.GetSession(ctx, args.SessionID)
	if errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("no session found with id %s", args.SessionID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to load session: %w", err)
	}
	if session.TenantID != inv.TenantID {
		return "", fmt.Errorf("no session found with id %s", args.SessionID)
	}
	if session.Remaining() <= 0 {
		return "", fmt.Errorf("session %s %s on %s is full", session.OfferingName, session.StartTime, session.Date)
	}

	booking := &store.Booking{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		ContactID: contact.ID,
	}
	if err := t.store.RecordBooking(ctx, booking); err != nil {
		return "", fmt.Errorf("failed to record booking: %w", err)
	}

	return fmt.Sprintf("Booked %s into %s on %s at %s.",
		contact.Name, session.OfferingName, session.Date, session.StartTime), nil
}
