package domain

import "encoding/json"

// Role is the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// ToolState is the lifecycle position of a tool invocation. It moves from
// call to result exactly once.
type ToolState string

const (
	ToolStateCall   ToolState = "call"
	ToolStateResult ToolState = "result"
)

// ToolInvocation is one tool call made by the model, optionally resolved.
// ToolCallID correlates the call with its result across client round-trips.
type ToolInvocation struct {
	ToolCallID string
	ToolName   string
	State      ToolState
	Args       json.RawMessage
	Result     json.RawMessage
}

func (t ToolInvocation) Resolved() bool {
	return t.State == ToolStateResult && len(t.Result) > 0
}

// ResultString decodes a string result. ok is false when the result is
// missing or not a JSON string.
func (t ToolInvocation) ResultString() (string, bool) {
	if !t.Resolved() {
		return "", false
	}
	var s string
	if err := json.Unmarshal(t.Result, &s); err != nil {
		return "", false
	}
	return s, true
}

// ConversationMessage is one chat message as submitted by the client.
type ConversationMessage struct {
	Role            Role
	Content         string
	ToolInvocations []ToolInvocation
}

// LastUserMessage returns the most recent user message.
func LastUserMessage(msgs []ConversationMessage) (ConversationMessage, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == RoleUser {
			return msgs[i], true
		}
	}
	return ConversationMessage{}, false
}

// Tail returns at most n trailing messages.
func Tail(msgs []ConversationMessage, n int) []ConversationMessage {
	if n <= 0 || len(msgs) <= n {
		return msgs
	}
	return msgs[len(msgs)-n:]
}
