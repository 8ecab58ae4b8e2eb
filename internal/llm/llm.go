// Package llm defines the provider-neutral shapes the assistant uses to
// talk to a language model.
package llm

import (
	"context"
	"encoding/json"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn sent to the model. Assistant turns may carry tool
// calls; the user turn that follows carries their results.
type Message struct {
	Role        Role
	Content     string
	ToolCalls   []ToolCall
	ToolResults []ToolResult
}

// ToolCall is a model request to run a named tool.
type ToolCall struct {
	ID    string
	Name  string
	Input json.RawMessage
}

// ToolResult answers a ToolCall with the same ID.
type ToolResult struct {
	CallID  string
	Content string
	IsError bool
}

// ToolSpec describes a tool to the model. Properties is a JSON Schema
// properties object.
type ToolSpec struct {
	Name        string
	Description string
	Properties  map[string]any
	Required    []string
}

// Request is one model step.
type Request struct {
	System   string
	Messages []Message
	Tools    []ToolSpec
}

// StopReason tells why the model ended a step.
type StopReason string

const (
	StopEndTurn   StopReason = "end_turn"
	StopToolUse   StopReason = "tool_use"
	StopMaxTokens StopReason = "max_tokens"
	StopOther     StopReason = "other"
)

// Step is the outcome of one streamed model call.
type Step struct {
	Text       string
	ToolCalls  []ToolCall
	StopReason StopReason
}

// Model is implemented by language model adapters.
type Model interface {
	// Stream runs one step, passing text deltas to onText as they arrive.
	Stream(ctx context.Context, req Request, onText func(string)) (Step, error)
	// Choose asks the model to pick one of options for prompt. The answer
	// is returned verbatim and may fall outside options.
	Choose(ctx context.Context, system, prompt string, options []string) (string, error)
}
