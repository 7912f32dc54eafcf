package llms

// Message roles used across providers and the orchestrator working history.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry of a conversation as seen by a completion provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`

	// ToolCalls is set on assistant messages that request tool execution.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID and Name are set on tool-result messages.
	ToolCallID string `json:"tool_call_id,omitempty"`
	Name       string `json:"name,omitempty"`
}

// ToolCall is a tool invocation requested by the model. It lives only for
// the loop iteration that executes it.
type ToolCall struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// ToolDefinition is the schema advertised to the model for one callable tool.
type ToolDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// Turn is a single assistant turn: either plain content or tool calls,
// never both meaningfully.
type Turn struct {
	Content    string
	ToolCalls  []ToolCall
	TokensUsed int
}

// HasToolCalls reports whether the model asked for tool execution.
func (t Turn) HasToolCalls() bool {
	return len(t.ToolCalls) > 0
}
