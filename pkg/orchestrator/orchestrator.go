// Package orchestrator runs the reply pipeline for one inbound conversation
// event: load the agent, assemble context, debounce, rebuild history from
// storage, drive the bounded tool loop against the completion provider, and
// hand the final text to delivery. Every invocation is a stateless unit of
// work; nothing survives in process memory between invocations.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pkoukk/tiktoken-go"

	"github.com/fitdesk/agentd/pkg/catalog"
	"github.com/fitdesk/agentd/pkg/config"
	"github.com/fitdesk/agentd/pkg/delivery"
	"github.com/fitdesk/agentd/pkg/knowledge"
	"github.com/fitdesk/agentd/pkg/llms"
	"github.com/fitdesk/agentd/pkg/metrics"
	"github.com/fitdesk/agentd/pkg/store"
	"github.com/fitdesk/agentd/pkg/tools"
)

// Request is one inbound invocation.
type Request struct {
	AgentID  string
	TicketID string

	// Messages is the caller-supplied seed history, used only when storage
	// has no messages for the ticket.
	Messages []llms.Message

	// ReceivedAt is when the triggering message arrived. The debounce check
	// compares it against the newest stored user message. Zero means now.
	ReceivedAt time.Time
}

// Result is the outcome of one invocation. Message is nil when the agent
// loop exhausted its iterations without a final answer, or when the
// invocation was superseded.
type Result struct {
	Message *string        `json:"message"`
	History []llms.Message `json:"history"`
}

// Orchestrator wires the collaborators of the reply pipeline.
type Orchestrator struct {
	agents    store.AgentStore
	messages  store.MessageStore
	providers *llms.ProviderRegistry
	tools     *tools.Registry
	deliverer delivery.Deliverer

	// Context sources; any may be nil when the deployment does not
	// configure them.
	retriever *knowledge.Retriever
	offerings catalog.Provider
	pricing   catalog.Provider
	schedule  catalog.Provider

	tokenizer *tiktoken.Tiktoken
	cfg       config.OrchestratorConfig

	// sleep is swappable for tests.
	sleep func(time.Duration)
}

// Options carries the optional collaborators.
type Options struct {
	Retriever *knowledge.Retriever
	Offerings catalog.Provider
	Pricing   catalog.Provider
	Schedule  catalog.Provider
}

// New constructs an orchestrator. The token budget tokenizer is loaded
// lazily from config; an unknown encoding disables trimming with a warning
// rather than failing startup.
func New(
	agents store.AgentStore,
	messages store.MessageStore,
	providers *llms.ProviderRegistry,
	toolRegistry *tools.Registry,
	deliverer delivery.Deliverer,
	cfg config.OrchestratorConfig,
	opts Options,
) *Orchestrator {
	o := &Orchestrator{
		agents:    agents,
		messages:  messages,
		providers: providers,
		tools:     toolRegistry,
		deliverer: deliverer,
		retriever: opts.Retriever,
		offerings: opts.Offerings,
		pricing:   opts.Pricing,
		schedule:  opts.Schedule,
		cfg:       cfg,
		sleep:     time.Sleep,
	}

	if cfg.HistoryTokenBudget > 0 {
		tokenizer, err := tiktoken.GetEncoding(cfg.TokenizerEncoding)
		if err != nil {
			slog.Warn("Unknown tokenizer encoding, history token budget disabled",
				"encoding", cfg.TokenizerEncoding, "error", err)
		} else {
			o.tokenizer = tokenizer
		}
	}
	return o
}

// Invoke runs the full pipeline for one request. On ErrSuperseded the
// invocation aborted silently; any other error means no reply was sent.
func (o *Orchestrator) Invoke(ctx context.Context, req *Request) (*Result, error) {
	receivedAt := req.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now().UTC()
	}

	agent, err := o.agents.GetAgent(ctx, req.AgentID)
	if err != nil {
		metrics.Invocations.WithLabelValues(metrics.OutcomeFailed).Inc()
		return nil, err
	}
	if !agent.Active {
		metrics.Invocations.WithLabelValues(metrics.OutcomeFailed).Inc()
		return nil, fmt.Errorf("agent %s is disabled", agent.ID)
	}

	log := slog.With("agent", agent.ID, "ticket", req.TicketID)

	// Context assembly happens before the debounce sleep so injected data
	// reflects the moment the message arrived.
	buildCtx, cancel := context.WithTimeout(ctx, time.Duration(o.cfg.RetrievalTimeout)*time.Second)
	systemPrompt := o.buildSystemPrompt(buildCtx, agent, lastUserText(req.Messages))
	cancel()

	if agent.ResponseDelay > 0 {
		if err := o.debounce(ctx, agent, req.TicketID, receivedAt); err != nil {
			if errors.Is(err, ErrSuperseded) {
				log.Info("Invocation superseded during debounce window")
				metrics.Invocations.WithLabelValues(metrics.OutcomeSuperseded).Inc()
			} else {
				metrics.Invocations.WithLabelValues(metrics.OutcomeFailed).Inc()
			}
			return nil, err
		}
	}

	history := o.loadHistory(ctx, req.TicketID, req.Messages)

	answer, history, err := o.runLoop(ctx, agent, systemPrompt, history)
	if err != nil {
		metrics.Invocations.WithLabelValues(metrics.OutcomeFailed).Inc()
		return nil, err
	}
	if answer == nil {
		log.Warn("Agent loop exhausted its iterations without a final answer",
			"iterations", o.cfg.MaxIterations)
		metrics.Invocations.WithLabelValues(metrics.OutcomeExhausted).Inc()
		return &Result{History: history}, nil
	}

	if req.TicketID != "" && o.deliverer != nil {
		if err := o.deliverer.Deliver(ctx, req.TicketID, *answer); err != nil {
			metrics.Invocations.WithLabelValues(metrics.OutcomeFailed).Inc()
			return nil, fmt.Errorf("%w: %v", ErrDelivery, err)
		}
	}

	metrics.Invocations.WithLabelValues(metrics.OutcomeAnswered).Inc()
	return &Result{Message: answer, History: history}, nil
}

// debounce suspends for the agent's response delay, then aborts when a user
// message newer than the triggering one exists. Best effort: two invocations
// that wake at the same instant can both pass the check.
func (o *Orchestrator) debounce(ctx context.Context, agent *store.AgentConfig, ticketID string, receivedAt time.Time) error {
	// Not tied to ctx; once the window starts the invocation waits it out.
	o.sleep(agent.ResponseDelay)

	if o.messages == nil || ticketID == "" {
		return nil
	}
	latest, ok, err := o.messages.LatestUserMessageAt(ctx, ticketID)
	if err != nil {
		return fmt.Errorf("debounce check failed: %w", err)
	}
	if ok && latest.After(receivedAt) {
		return ErrSuperseded
	}
	return nil
}

// runLoop drives the plan, call tools, observe cycle. It returns a nil
// answer when MaxIterations completion calls all produced tool calls.
func (o *Orchestrator) runLoop(ctx context.Context, agent *store.AgentConfig, systemPrompt string, history []llms.Message) (*string, []llms.Message, error) {
	provider, err := o.providers.ForModel(agent.Model)
	if err != nil {
		return nil, history, err
	}

	enabled := o.tools.ForAgent(agent)
	defs := tools.Definitions(enabled)
	byName := make(map[string]tools.Tool, len(enabled))
	for _, t := range enabled {
		byName[t.Info().Name] = t
	}

	for iteration := 1; iteration <= o.cfg.MaxIterations; iteration++ {
		history = o.trimToBudget(history)

		callCtx, cancel := context.WithTimeout(ctx, time.Duration(o.cfg.CompletionTimeout)*time.Second)
		start := time.Now()
		turn, err := provider.Generate(callCtx, systemPrompt, history, defs)
		cancel()
		metrics.CompletionLatency.Observe(time.Since(start).Seconds())
		if err != nil {
			return nil, history, fmt.Errorf("%w: %v", ErrCompletion, err)
		}

		if !turn.HasToolCalls() {
			answer := turn.Content
			history = append(history, llms.Message{Role: llms.RoleAssistant, Content: answer})
			return &answer, history, nil
		}

		history = append(history, llms.Message{
			Role:      llms.RoleAssistant,
			Content:   turn.Content,
			ToolCalls: turn.ToolCalls,
		})

		// Strictly sequential execution keeps tool ordering deterministic.
		for _, call := range turn.ToolCalls {
			history = append(history, o.executeTool(ctx, agent, byName, call))
		}
	}

	return nil, history, nil
}

// executeTool runs one requested tool call. Failures of any kind become an
// error tool result fed back to the model; they never abort the loop.
func (o *Orchestrator) executeTool(ctx context.Context, agent *store.AgentConfig, byName map[string]tools.Tool, call llms.ToolCall) llms.Message {
	msg := llms.Message{
		Role:       llms.RoleTool,
		ToolCallID: call.ID,
		Name:       call.Name,
	}

	tool, ok := byName[call.Name]
	if !ok {
		metrics.ToolExecutions.WithLabelValues(call.Name, "error").Inc()
		msg.Content = fmt.Sprintf("error: tool %q is not available", call.Name)
		return msg
	}

	result, err := tool.Execute(ctx, tools.Invocation{
		TenantID: agent.TenantID,
		Args:     call.Arguments,
	})
	if err != nil {
		slog.Debug("Tool execution failed", "tool", call.Name, "error", err)
		metrics.ToolExecutions.WithLabelValues(call.Name, "error").Inc()
		msg.Content = fmt.Sprintf("error: %v", err)
		return msg
	}

	metrics.ToolExecutions.WithLabelValues(call.Name, "ok").Inc()
	msg.Content = result
	return msg
}
