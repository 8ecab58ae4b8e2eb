package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/heartmarshall/notes-assistant-backend/internal/domain"
	"github.com/heartmarshall/notes-assistant-backend/internal/service/chat"
	"github.com/heartmarshall/notes-assistant-backend/pkg/ctxutil"
)

type replier interface {
	Reply(ctx context.Context, messages []domain.ConversationMessage, out chat.Emitter) (chat.Result, error)
}

// ChatHandler serves POST /api/chat as a server-sent event stream.
type ChatHandler struct {
	svc replier
	log *slog.Logger
}

func NewChatHandler(svc replier, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{svc: svc, log: logger.With("handler", "chat")}
}

type chatRequest struct {
	Messages []chatMessage `json:"messages"`
	Timezone string        `json:"timezone"`
}

type chatMessage struct {
	Role            string           `json:"role"`
	Content         string           `json:"content"`
	ToolInvocations []toolInvocation `json:"toolInvocations,omitempty"`
}

type toolInvocation struct {
	ToolCallID string          `json:"toolCallId"`
	ToolName   string          `json:"toolName"`
	State      string          `json:"state"`
	Args       json.RawMessage `json:"args,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
}

func (req chatRequest) conversation() ([]domain.ConversationMessage, error) {
	if len(req.Messages) == 0 {
		return nil, domain.NewValidationError("messages", "required")
	}

	out := make([]domain.ConversationMessage, 0, len(req.Messages))
	var errs []domain.FieldError
	for i, m := range req.Messages {
		role := domain.Role(m.Role)
		if !role.IsValid() {
			errs = append(errs, domain.FieldError{
				Field:   fmt.Sprintf("messages[%d].role", i),
				Message: "must be user, assistant or system",
			})
			continue
		}

		msg := domain.ConversationMessage{Role: role, Content: m.Content}
		for _, inv := range m.ToolInvocations {
			state := domain.ToolStateCall
			if inv.State == string(domain.ToolStateResult) {
				state = domain.ToolStateResult
			}
			msg.ToolInvocations = append(msg.ToolInvocations, domain.ToolInvocation{
				ToolCallID: inv.ToolCallID,
				ToolName:   inv.ToolName,
				State:      state,
				Args:       inv.Args,
				Result:     inv.Result,
			})
		}
		out = append(out, msg)
	}
	if len(errs) > 0 {
		return nil, domain.NewValidationErrors(errs)
	}
	return out, nil
}

// Chat handles POST /api/chat. Errors found before the first event are
// plain JSON responses; later ones become an error event.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := ctxutil.UserIDFromCtx(ctx); !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	messages, err := req.conversation()
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	if tz := strings.TrimSpace(req.Timezone); tz != "" && ctxutil.TimezoneFromCtx(ctx) == "" {
		ctx = ctxutil.WithTimezone(ctx, tz)
	}

	stream := newEventStream(w)
	_, err = h.svc.Reply(ctx, messages, stream)
	if err == nil {
		return
	}
	if !stream.started {
		handleError(h.log, w, r.WithContext(ctx), err)
		return
	}
	if errors.Is(err, context.Canceled) {
		return
	}

	h.log.ErrorContext(ctx, "chat reply failed", slog.String("error", err.Error()))
	stream.Emit(chat.Event{ //nolint:errcheck
		Type: chat.EventError,
		Err:  "the assistant could not finish this reply",
	})
}

// ---------------------------------------------------------------------------
// SSE encoding
// ---------------------------------------------------------------------------

// eventStream writes chat events as SSE frames and flushes after each one.
// Headers go out with the first event.
type eventStream struct {
	w       http.ResponseWriter
	rc      *http.ResponseController
	started bool
}

func newEventStream(w http.ResponseWriter) *eventStream {
	return &eventStream{w: w, rc: http.NewResponseController(w)}
}

type textPayload struct {
	Text string `json:"text"`
}

type finishPayload struct {
	Intent       string `json:"intent"`
	FinishReason string `json:"finishReason"`
	Steps        int    `json:"steps"`
}

type errorPayload struct {
	Error string `json:"error"`
}

func (s *eventStream) Emit(e chat.Event) error {
	payload, err := json.Marshal(eventPayload(e))
	if err != nil {
		return fmt.Errorf("encode %s event: %w", e.Type, err)
	}

	if !s.started {
		h := s.w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")
		s.w.WriteHeader(http.StatusOK)
		s.started = true
	}

	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", e.Type, payload); err != nil {
		return fmt.Errorf("write %s event: %w", e.Type, err)
	}
	if err := s.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return fmt.Errorf("flush %s event: %w", e.Type, err)
	}
	return nil
}

func eventPayload(e chat.Event) any {
	switch e.Type {
	case chat.EventText:
		return textPayload{Text: e.Text}
	case chat.EventToolCall, chat.EventToolResult:
		if e.Invocation == nil {
			return toolInvocation{}
		}
		return toolInvocation{
			ToolCallID: e.Invocation.ToolCallID,
			ToolName:   e.Invocation.ToolName,
			State:      string(e.Invocation.State),
			Args:       e.Invocation.Args,
			Result:     e.Invocation.Result,
		}
	case chat.EventFinish:
		if e.Finish == nil {
			return finishPayload{}
		}
		return finishPayload{
			Intent:       e.Finish.Intent.String(),
			FinishReason: string(e.Finish.FinishReason),
			Steps:        e.Finish.Steps,
		}
	default:
		return errorPayload{Error: e.Err}
	}
}
