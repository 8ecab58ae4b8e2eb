// Package chat runs one assistant turn: it classifies the request, gathers
// context, and drives the language model through its tools.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/heartmarshall/notes-assistant-backend/internal/domain"
	"github.com/heartmarshall/notes-assistant-backend/internal/llm"
	"github.com/heartmarshall/notes-assistant-backend/internal/metrics"
	"github.com/heartmarshall/notes-assistant-backend/internal/service/retrieval"
	"github.com/heartmarshall/notes-assistant-backend/pkg/ctxutil"
)

type classifier interface {
	Classify(ctx context.Context, messages []domain.ConversationMessage) (domain.IntentTag, error)
}

type retriever interface {
	Retrieve(ctx context.Context, q retrieval.Query) (retrieval.Records, error)
}

type embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type noteCreator interface {
	Create(ctx context.Context, input domain.NoteInput) (*domain.Note, error)
}

// Config bounds a turn.
type Config struct {
	MaxSteps         int
	ClassifierWindow int
	TopK             int
	DefaultTimezone  *time.Location
}

// Service is the chat orchestrator. It holds no per-conversation state.
type Service struct {
	model      llm.Model
	classifier classifier
	retriever  retriever
	embedder   embedder
	notes      noteCreator
	cfg        Config
	now        func() time.Time
	log        *slog.Logger
}

func NewService(
	log *slog.Logger,
	model llm.Model,
	classifier classifier,
	retriever retriever,
	embedder embedder,
	notes noteCreator,
	cfg Config,
) *Service {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = 5
	}
	if cfg.ClassifierWindow <= 0 {
		cfg.ClassifierWindow = 6
	}
	if cfg.TopK <= 0 {
		cfg.TopK = retrieval.DefaultTopK
	}
	if cfg.DefaultTimezone == nil {
		cfg.DefaultTimezone = time.UTC
	}
	return &Service{
		model:      model,
		classifier: classifier,
		retriever:  retriever,
		embedder:   embedder,
		notes:      notes,
		cfg:        cfg,
		now:        time.Now,
		log:        log.With("service", "chat"),
	}
}

// turn is the state of one request.
type turn struct {
	userID    string
	messages  []domain.ConversationMessage
	window    []domain.ConversationMessage
	ledger    *ledger
	loc       *time.Location
	out       Emitter
	embedding []float32
	steps     int
}

// Reply answers the conversation, streaming events to out. The final event
// is always a finish event when err is nil.
func (s *Service) Reply(ctx context.Context, messages []domain.ConversationMessage, out Emitter) (Result, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return Result{}, domain.ErrUnauthorized
	}
	if _, ok := domain.LastUserMessage(messages); !ok {
		return Result{}, domain.NewValidationError("messages", "must contain a user message")
	}

	t := &turn{
		userID:   userID,
		messages: messages,
		window:   domain.Tail(messages, s.cfg.ClassifierWindow),
		ledger:   buildLedger(messages),
		loc:      s.cfg.DefaultTimezone,
		out:      out,
	}
	if name := ctxutil.TimezoneFromCtx(ctx); name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			t.loc = loc
		}
	}

	intent := s.intentFor(ctx, t)

	var (
		reason FinishReason
		err    error
	)
	switch intent {
	case domain.IntentGeneral:
		reason, err = s.groundedReply(ctx, t)
	case domain.IntentNotes:
		reason, err = s.runTools(ctx, t, notesPrompt, s.notesTools())
	case domain.IntentCreateNote:
		reason, err = s.runTools(ctx, t, createNotePrompt, s.notesTools())
	case domain.IntentSales:
		reason, err = s.runTools(ctx, t, salesPrompt, s.salesTools())
	case domain.IntentCreateSalesRecord:
		reason, err = s.plainReply(ctx, t, unsupportedPrompt)
	default:
		return Result{}, fmt.Errorf("unhandled intent %q", intent)
	}
	if err != nil {
		return Result{}, err
	}

	res := Result{Intent: intent, FinishReason: reason, Steps: t.steps}
	metrics.ChatTurns.WithLabelValues(intent.String(), string(reason)).Inc()
	metrics.ChatSteps.Observe(float64(t.steps))

	if err := out.Emit(Event{Type: EventFinish, Finish: &res}); err != nil {
		return Result{}, err
	}

	s.log.InfoContext(ctx, "chat turn finished",
		slog.String("user_id", userID),
		slog.String("intent", intent.String()),
		slog.String("finish_reason", string(reason)),
		slog.Int("steps", t.steps),
	)
	return res, nil
}

// intentFor skips classification when the client is resuming a suspended
// note creation. A failed classification falls back to general.
func (s *Service) intentFor(ctx context.Context, t *turn) domain.IntentTag {
	if awaitingResume(t.messages) {
		return domain.IntentCreateNote
	}

	intent, err := s.classifier.Classify(ctx, t.window)
	if err != nil {
		metrics.ClassificationFallbacks.Inc()
		s.log.WarnContext(ctx, "classification failed, using general",
			slog.String("error", err.Error()),
		)
		return domain.IntentGeneral
	}
	return intent
}

// ---------------------------------------------------------------------------
// Reply paths
// ---------------------------------------------------------------------------

// groundedReply retrieves from both domains and answers in one step without
// tools. Retrieval failures degrade to an empty context.
func (s *Service) groundedReply(ctx context.Context, t *turn) (FinishReason, error) {
	var records retrieval.Records

	vec, err := s.queryEmbedding(ctx, t)
	if err == nil {
		records, err = s.retriever.Retrieve(ctx, retrieval.Query{
			Embedding: vec,
			UserID:    t.userID,
			TopK:      s.cfg.TopK,
		})
	}
	if err != nil {
		s.log.WarnContext(ctx, "answering without context", slog.String("error", err.Error()))
		records = retrieval.Records{}
	}

	return s.plainReply(ctx, t, generalPrompt(records.Notes, records.Sales))
}

func (s *Service) plainReply(ctx context.Context, t *turn, system string) (FinishReason, error) {
	step, err := s.step(ctx, t, llm.Request{System: system, Messages: toModelHistory(t.window)})
	if err != nil {
		return "", err
	}
	return stopReason(step), nil
}

// runTools drives the model for at most MaxSteps steps. Tool calls run in
// order. A declarative call ends the turn so the client can answer it.
func (s *Service) runTools(ctx context.Context, t *turn, system string, tools toolset) (FinishReason, error) {
	history := toModelHistory(t.window)
	specs := tools.specs()

	for t.steps < s.cfg.MaxSteps {
		step, err := s.step(ctx, t, llm.Request{System: system, Messages: history, Tools: specs})
		if err != nil {
			return "", err
		}
		if len(step.ToolCalls) == 0 {
			return stopReason(step), nil
		}

		var results []llm.ToolResult
		for _, call := range step.ToolCalls {
			tl, ok := tools.lookup(call.Name)
			if !ok {
				metrics.ToolCalls.WithLabelValues(metrics.UnknownTool, metrics.OutcomeError).Inc()
				results = append(results, llm.ToolResult{
					CallID:  call.ID,
					Content: fmt.Sprintf("Unknown tool %q.", call.Name),
					IsError: true,
				})
				continue
			}

			if tl.declarative() {
				metrics.ToolCalls.WithLabelValues(call.Name, metrics.OutcomeDeferred).Inc()
				inv := domain.ToolInvocation{
					ToolCallID: call.ID,
					ToolName:   call.Name,
					State:      domain.ToolStateCall,
					Args:       call.Input,
				}
				if err := t.out.Emit(Event{Type: EventToolCall, Invocation: &inv}); err != nil {
					return "", err
				}
				return FinishAwaitingClient, nil
			}

			res, err := s.execute(ctx, t, tl, call)
			if err != nil {
				return "", err
			}
			results = append(results, res)
		}

		history = append(history,
			llm.Message{Role: llm.RoleAssistant, Content: step.Text, ToolCalls: step.ToolCalls},
			llm.Message{Role: llm.RoleUser, ToolResults: results},
		)
	}

	s.log.WarnContext(ctx, "step limit reached", slog.Int("max_steps", s.cfg.MaxSteps))
	return FinishMaxSteps, nil
}

// execute runs one executable tool and streams its call and result. Handler
// errors become the tool's failure message; only emit errors are returned.
func (s *Service) execute(ctx context.Context, t *turn, tl tool, call llm.ToolCall) (llm.ToolResult, error) {
	inv := domain.ToolInvocation{
		ToolCallID: call.ID,
		ToolName:   call.Name,
		State:      domain.ToolStateCall,
		Args:       call.Input,
	}
	if err := t.out.Emit(Event{Type: EventToolCall, Invocation: &inv}); err != nil {
		return llm.ToolResult{}, err
	}

	var (
		text    string
		isError bool
		outcome = metrics.OutcomeOK
	)
	value, err := tl.run(ctx, t, call.Input)
	var ref refusal
	switch {
	case errors.As(err, &ref):
		text, outcome = string(ref), metrics.OutcomeRefused
	case err != nil:
		s.log.ErrorContext(ctx, "tool failed",
			slog.String("tool", call.Name),
			slog.String("error", fmt.Errorf("%w: %w", domain.ErrToolExecution, err).Error()),
		)
		text, isError, outcome = tl.failure, true, metrics.OutcomeError
	default:
		text = renderValue(value)
	}
	metrics.ToolCalls.WithLabelValues(call.Name, outcome).Inc()

	raw := resultJSON(value, text, err == nil)
	inv.State, inv.Result = domain.ToolStateResult, raw
	if err := t.out.Emit(Event{Type: EventToolResult, Invocation: &inv}); err != nil {
		return llm.ToolResult{}, err
	}

	return llm.ToolResult{CallID: call.ID, Content: text, IsError: isError}, nil
}

// step streams one model call, forwarding text deltas.
func (s *Service) step(ctx context.Context, t *turn, req llm.Request) (llm.Step, error) {
	t.steps++

	var emitErr error
	step, err := s.model.Stream(ctx, req, func(delta string) {
		if emitErr != nil || delta == "" {
			return
		}
		emitErr = t.out.Emit(Event{Type: EventText, Text: delta})
	})
	if emitErr != nil {
		return llm.Step{}, emitErr
	}
	if err != nil {
		return llm.Step{}, err
	}
	return step, nil
}

// queryEmbedding embeds the conversation window once per turn.
func (s *Service) queryEmbedding(ctx context.Context, t *turn) ([]float32, error) {
	if t.embedding != nil {
		return t.embedding, nil
	}
	vec, err := s.embedder.Embed(ctx, embeddingText(t.window))
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", domain.ErrRetrieval, err)
	}
	t.embedding = vec
	return vec, nil
}

func stopReason(step llm.Step) FinishReason {
	if step.StopReason == llm.StopMaxTokens {
		return FinishLength
	}
	return FinishStop
}

func renderValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// resultJSON is the invocation result sent to the client: the structured
// value on success, the message text otherwise.
func resultJSON(value any, text string, ok bool) json.RawMessage {
	var v any = text
	if ok {
		v = value
	}
	b, err := json.Marshal(v)
	if err != nil {
		b, _ = json.Marshal(text)
	}
	return b
}
