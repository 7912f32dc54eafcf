package orchestrator

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fitdesk/agentd/pkg/catalog"
	"github.com/fitdesk/agentd/pkg/config"
	"github.com/fitdesk/agentd/pkg/llms"
	"github.com/fitdesk/agentd/pkg/store"
	"github.com/fitdesk/agentd/pkg/tools"
)

// Full pipeline against a real SQL store: the agent's enabled schedule data
// must reach the completion provider inside the system prompt, and a booking
// requested by the model must land in the database.
func TestInvokeEndToEnd(t *testing.T) {
	ctx := context.Background()

	cfg := &config.StoreConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "e2e.db")}
	cfg.SetDefaults()
	db, err := store.NewSQLStore(cfg)
	if err != nil {
		t.Fatalf("NewSQLStore: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	agent := &store.AgentConfig{
		ID:           "agent-1",
		TenantID:     "gym-1",
		Name:         "Front Desk",
		Persona:      "You are the front desk assistant for Iron Hill Gym.",
		EnabledTools: []string{"check_availability", "book_class"},
		UseSchedule:  true,
		Active:       true,
	}
	if err := db.SaveAgent(ctx, agent); err != nil {
		t.Fatalf("SaveAgent: %v", err)
	}
	if err := db.SaveSlot(ctx, &store.ScheduleSlot{
		ID: "slot-1", TenantID: "gym-1", Weekday: time.Monday,
		StartTime: "09:00", EndTime: "10:00", OfferingName: "Yoga",
		StaffName: "Alex", Active: true,
	}); err != nil {
		t.Fatalf("SaveSlot: %v", err)
	}
	if err := db.SaveContact(ctx, &store.Contact{
		ID: "c-1", TenantID: "gym-1", Name: "Dana", Phone: "+15550001111",
	}); err != nil {
		t.Fatalf("SaveContact: %v", err)
	}
	if err := db.SaveSession(ctx, &store.ClassSession{
		ID: "s-1", TenantID: "gym-1", Date: "2026-03-02", StartTime: "09:00",
		OfferingName: "Yoga", Capacity: 10, Booked: 0,
	}); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	registry, err := tools.NewDefaultRegistry(db)
	if err != nil {
		t.Fatalf("NewDefaultRegistry: %v", err)
	}

	provider := &scriptedProvider{turns: []llms.Turn{
		{ToolCalls: []llms.ToolCall{{ID: "call-1", Name: "book_class", Arguments: map[string]interface{}{
			"session_id": "s-1", "phone": "+15550001111",
		}}}},
		{Content: "You're booked into Yoga on Monday at 9am!"},
	}}
	providers := llms.NewProviderRegistry()
	if err := providers.RegisterProvider(llms.DefaultProviderName, provider); err != nil {
		t.Fatalf("RegisterProvider: %v", err)
	}

	orchCfg := config.OrchestratorConfig{}
	orchCfg.SetDefaults()
	deliverer := &recordingDeliverer{}
	orch := New(db, db, providers, registry, deliverer, orchCfg, Options{
		Schedule: catalog.NewScheduleProvider(db),
	})

	res, err := orch.Invoke(ctx, &Request{
		AgentID:  "agent-1",
		TicketID: "t-1",
		Messages: []llms.Message{{Role: llms.RoleUser, Content: "book me into monday yoga"}},
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	if res.Message == nil || !strings.Contains(*res.Message, "booked into Yoga") {
		t.Fatalf("message = %v", res.Message)
	}
	if deliverer.count() != 1 {
		t.Errorf("deliveries = %d, want 1", deliverer.count())
	}

	// The schedule line was injected into the system prompt of every
	// completion call.
	for _, prompt := range provider.prompts {
		if !strings.Contains(prompt, "Monday 09:00-10:00 Yoga with Alex") {
			t.Errorf("prompt missing schedule line: %q", prompt)
		}
	}

	// The model's booking tool call actually wrote through to storage.
	session, err := db.GetSession(ctx, "s-1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if session.Booked != 1 {
		t.Errorf("booked = %d, want 1", session.Booked)
	}
	var toolResult string
	for _, m := range res.History {
		if m.Role == llms.RoleTool {
			toolResult = m.Content
		}
	}
	if !strings.Contains(toolResult, "Booked Dana") {
		t.Errorf("tool result = %q", toolResult)
	}
}
