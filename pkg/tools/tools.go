// Package tools implements the capabilities the model may invoke during the
// agent loop. Each tool carries a JSON schema describing its arguments,
// validates them into a typed struct before execution, and is dispatched
// through a registry resolved once at startup.
package tools

import (
	"context"
	"fmt"

	"github.com/fitdesk/agentd/pkg/llms"
	"github.com/fitdesk/agentd/pkg/registry"
	"github.com/fitdesk/agentd/pkg/store"
)

// ToolInfo describes a tool to the model.
type ToolInfo struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// Invocation carries one tool call plus the tenant it executes under.
type Invocation struct {
	TenantID string
	Args     map[string]interface{}
}

// Tool is a named capability. Execute returns human-readable result text;
// errors (including argument validation) are fed back to the model as error
// tool results by the caller, never raised out of the invocation.
type Tool interface {
	Info() ToolInfo
	Execute(ctx context.Context, inv Invocation) (string, error)
}

// ValidationError reports a missing or malformed tool argument.
type ValidationError struct {
	Tool   string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid arguments for tool %s: %s %s", e.Tool, e.Field, e.Reason)
}

// Registry holds all registered tools keyed by name.
type Registry struct {
	*registry.BaseRegistry[Tool]
}

func NewRegistry() *Registry {
	return &Registry{BaseRegistry: registry.NewBaseRegistry[Tool]()}
}

// RegisterTool adds a tool under its own name.
func (r *Registry) RegisterTool(t Tool) error {
	return r.Register(t.Info().Name, t)
}

// NewDefaultRegistry registers the built-in CRM and booking tools.
func NewDefaultRegistry(s store.CRMStore) (*Registry, error) {
	r := NewRegistry()
	for _, t := range []Tool{
		NewProfileTool(s),
		NewUpdateTagsTool(s),
		NewAvailabilityTool(s),
		NewBookClassTool(s),
	} {
		if err := r.RegisterTool(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ForAgent returns the subset of tools the agent's configuration enables, in
// stable name order.
func (r *Registry) ForAgent(agent *store.AgentConfig) []Tool {
	var out []Tool
	for _, name := range r.Names() {
		if !agent.ToolEnabled(name) {
			continue
		}
		if t, ok := r.Get(name); ok {
			out = append(out, t)
		}
	}
	return out
}

// Definitions converts tools to completion-provider tool definitions.
func Definitions(ts []Tool) []llms.ToolDefinition {
	var defs []llms.ToolDefinition
	for _, t := range ts {
		info := t.Info()
		defs = append(defs, llms.ToolDefinition{
			Name:        info.Name,
			Description: info.Description,
			Parameters:  info.Parameters,
		})
	}
	return defs
}
