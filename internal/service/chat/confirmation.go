package chat

import (
	"encoding/json"
	"strings"

	"github.com/heartmarshall/notes-assistant-backend/internal/domain"
)

// Client answers to the declarative tools.
const (
	ConfirmYes       = "Yes, confirmed."
	ConfirmNo        = "No, denied."
	CancelNoteCreate = "Cancel note creation"
)

// Refusals returned to the model when makeNote is not allowed to run.
const (
	refuseUnconfirmed = "The note was not created because the user has not confirmed it yet. " +
		"Ask the user with askForConfirmation or promptForNoteData first."
	refuseDenied = "The note was not created because the user declined. Do not create it."
	refuseSpent  = "The user's confirmation was already used for a note. Ask again before creating another one."
)

// noteDraft is the form payload returned by promptForNoteData.
type noteDraft struct {
	Title   string  `json:"title"`
	Content *string `json:"content"`
}

type decision int

const (
	decisionNone decision = iota
	decisionApproved
	decisionDenied
)

// approval is the most recent resolved declarative answer of the current turn.
type approval struct {
	callID   string
	decision decision
	draft    *noteDraft
	consumed bool
}

// ledger correlates tool invocations by ToolCallID. It is rebuilt from the
// submitted history on every request, so the server keeps no session.
type ledger struct {
	calls  map[string]domain.ToolInvocation
	latest approval
}

func buildLedger(msgs []domain.ConversationMessage) *ledger {
	l := &ledger{calls: make(map[string]domain.ToolInvocation)}
	pending := trailingStart(msgs)
	for i, m := range msgs {
		if m.Role != domain.RoleAssistant {
			continue
		}
		for _, inv := range m.ToolInvocations {
			if inv.ToolCallID == "" {
				continue
			}
			// first occurrence wins; a call id is never reused
			if _, seen := l.calls[inv.ToolCallID]; seen {
				continue
			}
			l.calls[inv.ToolCallID] = inv
			// answers from earlier turns never authorize a write
			if i >= pending {
				l.observe(inv)
			}
		}
	}
	return l
}

// trailingStart returns the index of the first message after the last user
// message, where the suspension being resumed lives.
func trailingStart(msgs []domain.ConversationMessage) int {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == domain.RoleUser {
			return i + 1
		}
	}
	return 0
}

func (l *ledger) observe(inv domain.ToolInvocation) {
	if !inv.Resolved() {
		return
	}
	switch inv.ToolName {
	case toolAskForConfirmation, toolPromptForNoteData:
		l.latest = approval{callID: inv.ToolCallID}
		l.latest.decision, l.latest.draft = decide(inv)
	case toolMakeNote:
		// only a note that was actually written spends the approval
		if res, ok := inv.ResultString(); ok && strings.HasPrefix(res, noteCreatedPrefix) && l.latest.decision != decisionNone {
			l.latest.consumed = true
		}
	}
}

// decide reads a declarative result. Anything unrecognized is a denial.
func decide(inv domain.ToolInvocation) (decision, *noteDraft) {
	if s, ok := inv.ResultString(); ok {
		switch {
		case inv.ToolName == toolAskForConfirmation && s == ConfirmYes:
			return decisionApproved, nil
		case inv.ToolName == toolPromptForNoteData && s != CancelNoteCreate && strings.HasPrefix(strings.TrimSpace(s), "{"):
			// some clients double-encode the form object
			return decide(domain.ToolInvocation{ToolName: inv.ToolName, State: inv.State, Result: json.RawMessage(s)})
		default:
			return decisionDenied, nil
		}
	}

	if inv.ToolName != toolPromptForNoteData {
		return decisionDenied, nil
	}
	var d noteDraft
	if err := json.Unmarshal(inv.Result, &d); err != nil || strings.TrimSpace(d.Title) == "" {
		return decisionDenied, nil
	}
	return decisionApproved, &d
}

// authorize reports whether makeNote may run now. On refusal it returns the
// message for the model.
func (l *ledger) authorize() (*approval, string, bool) {
	switch {
	case l.latest.decision == decisionNone:
		return nil, refuseUnconfirmed, false
	case l.latest.decision == decisionDenied:
		return nil, refuseDenied, false
	case l.latest.consumed:
		return nil, refuseSpent, false
	}
	return &l.latest, "", true
}

// consume marks the current approval as used by a created note.
func (l *ledger) consume() {
	l.latest.consumed = true
}

// awaitingResume reports whether the last message is an assistant turn whose
// declarative invocations the client has just resolved.
func awaitingResume(msgs []domain.ConversationMessage) bool {
	if len(msgs) == 0 {
		return false
	}
	last := msgs[len(msgs)-1]
	if last.Role != domain.RoleAssistant {
		return false
	}
	for _, inv := range last.ToolInvocations {
		if isDeclarative(inv.ToolName) && inv.Resolved() {
			return true
		}
	}
	return false
}
