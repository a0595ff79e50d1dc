package llm

import (
	"context"
	"encoding/json"
)

// Message is a chat message in a provider-agnostic format. Assistant
// messages may carry tool calls; user messages may carry tool results that
// answer them.
type Message struct {
	Role        string
	Content     string
	ToolCalls   []ToolCall
	ToolResults []ToolResult
}

// Tool describes one callable function exposed to the model.
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]interface{}
}

// ToolCall is a model-issued invocation request with structured arguments.
type ToolCall struct {
	ID    string
	Name  string
	Input json.RawMessage
}

// ToolResult answers a prior tool call.
type ToolResult struct {
	ToolCallID string
	Content    string
	IsError    bool
}

// Completion is the terminal state of one streamed generation.
type Completion struct {
	Text       string
	ToolCalls  []ToolCall
	StopReason string
}

// ChatRequest is one generation request.
type ChatRequest struct {
	System      string
	Messages    []Message
	Tools       []Tool
	MaxTokens   int
	Temperature float64
}

// Provider defines the contract for any streaming, tool-capable LLM backend.
// onDelta receives text increments as they arrive; returning an error from it
// stops consumption (client disconnect).
type Provider interface {
	StreamChat(ctx context.Context, req ChatRequest, onDelta func(text string) error) (*Completion, error)
}
