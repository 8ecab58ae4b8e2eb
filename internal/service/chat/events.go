package chat

import "github.com/heartmarshall/notes-assistant-backend/internal/domain"

type EventType string

const (
	EventText       EventType = "text"
	EventToolCall   EventType = "tool_call"
	EventToolResult EventType = "tool_result"
	EventFinish     EventType = "finish"
	EventError      EventType = "error"
)

// FinishReason tells the client why a turn ended.
type FinishReason string

const (
	FinishStop           FinishReason = "stop"
	FinishLength         FinishReason = "length"
	FinishAwaitingClient FinishReason = "awaiting_client"
	FinishMaxSteps       FinishReason = "max_steps"
)

// Event is one item of the reply stream. Which fields are set depends on
// Type.
type Event struct {
	Type       EventType
	Text       string
	Invocation *domain.ToolInvocation
	Finish     *Result
	Err        string
}

// Emitter receives reply events in order. An error aborts the turn.
type Emitter interface {
	Emit(e Event) error
}

// Result summarizes a finished turn.
type Result struct {
	Intent       domain.IntentTag
	FinishReason FinishReason
	Steps        int
}
