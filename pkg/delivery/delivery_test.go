package delivery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fitdesk/agentd/pkg/config"
)

func TestWebhookDeliverPostsPayload(t *testing.T) {
	var got webhookPayload
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := &config.DeliveryConfig{Type: "webhook", URL: server.URL, AuthToken: "secret"}
	cfg.SetDefaults()
	d, err := NewWebhookDeliverer(cfg)
	if err != nil {
		t.Fatalf("NewWebhookDeliverer: %v", err)
	}

	if err := d.Deliver(context.Background(), "t-1", "See you at 9am!"); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if got.TicketID != "t-1" || got.Message != "See you at 9am!" {
		t.Errorf("payload = %+v", got)
	}
	if auth != "Bearer secret" {
		t.Errorf("auth header = %q", auth)
	}
}

func TestWebhookDeliverSurfacesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "channel unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	cfg := &config.DeliveryConfig{Type: "webhook", URL: server.URL}
	cfg.SetDefaults()
	cfg.MaxRetries = 0 // keep the failure path fast
	d, err := NewWebhookDeliverer(cfg)
	if err != nil {
		t.Fatalf("NewWebhookDeliverer: %v", err)
	}

	if err := d.Deliver(context.Background(), "t-1", "hi"); err == nil {
		t.Error("expected error on non-2xx response")
	}
}

func TestNewFromConfig(t *testing.T) {
	cfg := &config.DeliveryConfig{Type: "log"}
	cfg.SetDefaults()
	d, err := NewFromConfig(cfg)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	if _, ok := d.(*LogDeliverer); !ok {
		t.Errorf("got %T, want *LogDeliverer", d)
	}

	if _, err := NewFromConfig(&config.DeliveryConfig{Type: "carrier-pigeon"}); err == nil {
		t.Error("expected error for unsupported type")
	}
}
