package assistant

import "context"

// Conversation roles understood by LLM adapters.
const (
	RoleUser  = "user"
	RoleModel = "model"
	RoleTool  = "tool"
)

// LLM is a chat model with function calling.
type LLM interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// Request is one model turn: the system prompt, the conversation so far and the callable tools.
type Request struct {
	System   string
	Messages []Message
	Tools    []ToolDefinition
}

// Response carries either final text or tool calls to run (sometimes both).
type Response struct {
	Text      string
	ToolCalls []ToolCall
}

// Message is a conversation entry. Model messages may carry ToolCalls; tool messages carry
// ToolResults answering the previous model message.
type Message struct {
	Role        string
	Text        string
	ToolCalls   []ToolCall
	ToolResults []ToolResult
}

// ToolCall is a function invocation requested by the model.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// ToolResult is the JSON-able output of one call.
type ToolResult struct {
	ID       string
	Name     string
	Response map[string]any
}

// ToolDefinition declares a function to the model.
type ToolDefinition struct {
	Name        string
	Description string
	Params      []Param
}

// Param is an optional argument of a tool.
type Param struct {
	Name        string
	Type        string // "string" or "integer"
	Description string
	Enum        []string
}
