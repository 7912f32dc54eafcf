package orchestrator

import (
	"context"
	"log/slog"

	"github.com/fitdesk/agentd/pkg/llms"
)

// loadHistory rebuilds the working history from durable storage, which is
// the source of truth when invocations race. The caller-supplied seed is
// used only when storage has nothing for the ticket.
func (o *Orchestrator) loadHistory(ctx context.Context, ticketID string, seed []llms.Message) []llms.Message {
	if o.messages == nil || ticketID == "" {
		return seed
	}

	stored, err := o.messages.RecentMessages(ctx, ticketID, o.cfg.HistoryWindow)
	if err != nil {
		slog.Warn("Failed to reload history, falling back to request messages",
			"ticket", ticketID, "error", err)
		return seed
	}
	if len(stored) == 0 {
		return seed
	}

	history := make([]llms.Message, 0, len(stored))
	for _, m := range stored {
		history = append(history, llms.Message{Role: m.Role, Content: m.Content})
	}
	return history
}

// trimToBudget drops the oldest messages until the history fits the token
// budget. The newest message always survives, even when it alone exceeds
// the budget.
func (o *Orchestrator) trimToBudget(history []llms.Message) []llms.Message {
	if o.tokenizer == nil || o.cfg.HistoryTokenBudget <= 0 || len(history) <= 1 {
		return history
	}

	counts := make([]int, len(history))
	total := 0
	for i, m := range history {
		counts[i] = len(o.tokenizer.Encode(m.Content, nil, nil))
		total += counts[i]
	}

	start := 0
	for total > o.cfg.HistoryTokenBudget && start < len(history)-1 {
		total -= counts[start]
		start++
	}
	if start > 0 {
		slog.Debug("Trimming working history to token budget",
			"dropped", start, "kept", len(history)-start)
	}
	return history[start:]
}

