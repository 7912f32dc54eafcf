// Package catalog renders tenant business data (services, pricing, weekly
// schedule) as plain-text blocks for prompt assembly. Rendering is
// deterministic for a given dataset and never fails: empty or unreadable
// data renders an explicit "none" line so the model does not hallucinate
// missing facts.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fitdesk/agentd/pkg/store"
)

// Provider renders one structured context section.
type Provider interface {
	// Name is the section heading used in the assembled prompt.
	Name() string

	// Render returns the section body. Implementations never return an
	// error; failures degrade to the empty-data sentinel.
	Render(ctx context.Context, tenantID string) string
}

// OfferingsProvider lists the tenant's active services.
type OfferingsProvider struct {
	store store.CatalogStore
}

func NewOfferingsProvider(s store.CatalogStore) *OfferingsProvider {
	return &OfferingsProvider{store: s}
}

func (p *OfferingsProvider) Name() string { return "Services" }

func (p *OfferingsProvider) Render(ctx context.Context, tenantID string) string {
	offerings, err := p.store.ActiveOfferings(ctx, tenantID)
	if err != nil {
		slog.Warn("Failed to load offerings for context", "tenant", tenantID, "error", err)
		offerings = nil
	}
	if len(offerings) == 0 {
		return "No services are currently listed."
	}

	var b strings.Builder
	for _, o := range offerings {
		b.WriteString("- ")
		b.WriteString(o.Name)
		if o.Description != "" {
			b.WriteString(": ")
			b.WriteString(o.Description)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// PricingProvider lists the tenant's active plans with prices.
type PricingProvider struct {
	store store.CatalogStore
}

func NewPricingProvider(s store.CatalogStore) *PricingProvider {
	return &PricingProvider{store: s}
}

func (p *PricingProvider) Name() string { return "Plans and pricing" }

func (p *PricingProvider) Render(ctx context.Context, tenantID string) string {
	plans, err := p.store.ActivePlans(ctx, tenantID)
	if err != nil {
		slog.Warn("Failed to load plans for context", "tenant", tenantID, "error", err)
		plans = nil
	}
	if len(plans) == 0 {
		return "No plans are currently offered."
	}

	var b strings.Builder
	for _, pl := range plans {
		fmt.Fprintf(&b, "- %s: %.2f", pl.Name, pl.Price)
		if pl.BillingCycle != "" {
			fmt.Fprintf(&b, " per %s", pl.BillingCycle)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// ScheduleProvider lists the tenant's recurring weekly time slots.
type ScheduleProvider struct {
	store store.CatalogStore
}

func NewScheduleProvider(s store.CatalogStore) *ScheduleProvider {
	return &ScheduleProvider{store: s}
}

func (p *ScheduleProvider) Name() string { return "Weekly schedule" }

func (p *ScheduleProvider) Render(ctx context.Context, tenantID string) string {
	slots, err := p.store.ActiveSlots(ctx, tenantID)
	if err != nil {
		slog.Warn("Failed to load schedule for context", "tenant", tenantID, "error", err)
		slots = nil
	}
	if len(slots) == 0 {
		return "No scheduled classes this week."
	}

	var b strings.Builder
	for _, sl := range slots {
		fmt.Fprintf(&b, "- %s %s-%s %s", sl.Weekday, sl.StartTime, sl.EndTime, sl.OfferingName)
		if sl.StaffName != "" {
			fmt.Fprintf(&b, " with %s", sl.StaffName)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
