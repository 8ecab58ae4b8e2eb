package chat

import (
	"encoding/json"
	"strings"

	"github.com/heartmarshall/notes-assistant-backend/internal/domain"
	"github.com/heartmarshall/notes-assistant-backend/internal/llm"
)

// toModelHistory converts client messages into model turns. Client system
// messages are ignored. Unresolved tool invocations are dropped because the
// model API requires a result for every call. Leading assistant turns are
// trimmed so the history starts with the user.
func toModelHistory(msgs []domain.ConversationMessage) []llm.Message {
	out := make([]llm.Message, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case domain.RoleUser:
			if strings.TrimSpace(m.Content) == "" {
				continue
			}
			out = append(out, llm.Message{Role: llm.RoleUser, Content: m.Content})

		case domain.RoleAssistant:
			if len(out) == 0 {
				continue
			}
			msg := llm.Message{Role: llm.RoleAssistant, Content: m.Content}
			var results []llm.ToolResult
			for _, inv := range m.ToolInvocations {
				if !inv.Resolved() {
					continue
				}
				msg.ToolCalls = append(msg.ToolCalls, llm.ToolCall{
					ID:    inv.ToolCallID,
					Name:  inv.ToolName,
					Input: inv.Args,
				})
				results = append(results, llm.ToolResult{
					CallID:  inv.ToolCallID,
					Content: resultText(inv.Result),
				})
			}
			if msg.Content == "" && len(msg.ToolCalls) == 0 {
				continue
			}
			out = append(out, msg)
			if len(results) > 0 {
				out = append(out, llm.Message{Role: llm.RoleUser, ToolResults: results})
			}
		}
	}
	return out
}

// resultText renders a tool result for the model: JSON strings are
// unquoted, anything else is passed as JSON text.
func resultText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// embeddingText joins the message contents used to embed the query.
func embeddingText(msgs []domain.ConversationMessage) string {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == domain.RoleSystem || strings.TrimSpace(m.Content) == "" {
			continue
		}
		parts = append(parts, m.Content)
	}
	return strings.Join(parts, "\n")
}
