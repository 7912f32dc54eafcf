// Package delivery hands finished replies to the outbound message channel.
// The orchestrator calls Deliver at most once per invocation.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/fitdesk/agentd/pkg/config"
	"github.com/fitdesk/agentd/pkg/httpclient"
)

// Deliverer sends one reply to a conversation.
type Deliverer interface {
	Deliver(ctx context.Context, ticketID, text string) error
}

// NewFromConfig constructs the configured delivery backend.
func NewFromConfig(cfg *config.DeliveryConfig) (Deliverer, error) {
	switch cfg.Type {
	case "webhook":
		return NewWebhookDeliverer(cfg)
	case "log":
		return NewLogDeliverer(), nil
	default:
		return nil, fmt.Errorf("unsupported delivery type: %s", cfg.Type)
	}
}

// WebhookDeliverer POSTs replies to an external messaging endpoint.
type WebhookDeliverer struct {
	url       string
	authToken string
	client    *httpclient.Client
	timeout   time.Duration
}

func NewWebhookDeliverer(cfg *config.DeliveryConfig) (*WebhookDeliverer, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("webhook delivery requires a url")
	}
	return &WebhookDeliverer{
		url:       cfg.URL,
		authToken: cfg.AuthToken,
		client: httpclient.New(
			httpclient.WithMaxRetries(cfg.MaxRetries),
		),
		timeout: time.Duration(cfg.Timeout) * time.Second,
	}, nil
}

type webhookPayload struct {
	TicketID string `json:"ticket_id"`
	Message  string `json:"message"`
}

func (d *WebhookDeliverer) Deliver(ctx context.Context, ticketID, text string) error {
	body, err := json.Marshal(webhookPayload{TicketID: ticketID, Message: text})
	if err != nil {
		return fmt.Errorf("failed to encode delivery payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build delivery request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if d.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+d.authToken)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("delivery request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delivery endpoint returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// LogDeliverer writes replies to the process log. Default for local
// development, where no messaging channel is attached.
type LogDeliverer struct{}

func NewLogDeliverer() *LogDeliverer {
	return &LogDeliverer{}
}

func (d *LogDeliverer) Deliver(ctx context.Context, ticketID, text string) error {
	slog.Info("Delivering reply", "ticket", ticketID, "message", text)
	return nil
}
