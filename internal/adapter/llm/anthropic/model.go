// Package anthropic implements llm.Model on the Anthropic Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/heartmarshall/notes-assistant-backend/internal/config"
	"github.com/heartmarshall/notes-assistant-backend/internal/domain"
	"github.com/heartmarshall/notes-assistant-backend/internal/llm"
)

const chooseToolName = "choose"

// Model talks to Claude. The chat model streams; the classifier model is
// used for Choose.
type Model struct {
	client          anthropic.Client
	model           anthropic.Model
	classifierModel anthropic.Model
	maxTokens       int64
	log             *slog.Logger
}

// New creates a Model from config. Extra request options (base URL, HTTP
// client) are appended after the API key.
func New(cfg config.LLMConfig, logger *slog.Logger, opts ...option.RequestOption) *Model {
	opts = append([]option.RequestOption{option.WithAPIKey(cfg.APIKey)}, opts...)
	return &Model{
		client:          anthropic.NewClient(opts...),
		model:           anthropic.Model(cfg.Model),
		classifierModel: anthropic.Model(cfg.ClassifierModel),
		maxTokens:       cfg.MaxTokens,
		log:             logger.With("adapter", "llm.anthropic"),
	}
}

var _ llm.Model = (*Model)(nil)

func (m *Model) Stream(ctx context.Context, req llm.Request, onText func(string)) (llm.Step, error) {
	params := anthropic.MessageNewParams{
		Model:     m.model,
		MaxTokens: m.maxTokens,
		Messages:  toMessageParams(req.Messages),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if len(req.Tools) > 0 {
		params.Tools = toToolParams(req.Tools)
	}

	stream := m.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	message := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			return llm.Step{}, fmt.Errorf("%w: accumulate stream event: %w", domain.ErrUpstreamModel, err)
		}

		switch ev := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			if delta, ok := ev.Delta.AsAny().(anthropic.TextDelta); ok && onText != nil {
				onText(delta.Text)
			}
		}
	}
	if err := stream.Err(); err != nil {
		return llm.Step{}, fmt.Errorf("%w: stream messages: %w", domain.ErrUpstreamModel, err)
	}

	return toStep(message), nil
}

func (m *Model) Choose(ctx context.Context, system, prompt string, options []string) (string, error) {
	tool := anthropic.ToolParam{
		Name:        chooseToolName,
		Description: anthropic.String("Record the single best matching label."),
		InputSchema: anthropic.ToolInputSchemaParam{
			Properties: map[string]any{
				"label": map[string]any{
					"type": "string",
					"enum": options,
				},
			},
			Required: []string{"label"},
		},
	}

	msg, err := m.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     m.classifierModel,
		MaxTokens: 256,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		Tools:      []anthropic.ToolUnionParam{{OfTool: &tool}},
		ToolChoice: anthropic.ToolChoiceUnionParam{OfTool: &anthropic.ToolChoiceToolParam{Name: chooseToolName}},
	})
	if err != nil {
		return "", fmt.Errorf("%w: classify: %w", domain.ErrUpstreamModel, err)
	}

	for _, block := range msg.Content {
		use, ok := block.AsAny().(anthropic.ToolUseBlock)
		if !ok || use.Name != chooseToolName {
			continue
		}
		var out struct {
			Label string `json:"label"`
		}
		if err := json.Unmarshal(use.Input, &out); err != nil {
			return "", fmt.Errorf("%w: decode choice: %w", domain.ErrUpstreamModel, err)
		}
		return out.Label, nil
	}

	m.log.WarnContext(ctx, "model answered without the choose tool", slog.String("stop_reason", string(msg.StopReason)))
	return "", nil
}

// ---------------------------------------------------------------------------
// Mapping
// ---------------------------------------------------------------------------

func toMessageParams(msgs []llm.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, msg := range msgs {
		var blocks []anthropic.ContentBlockParamUnion
		switch msg.Role {
		case llm.RoleAssistant:
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, call := range msg.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(call.ID, rawInput(call.Input), call.Name))
			}
			if len(blocks) > 0 {
				out = append(out, anthropic.NewAssistantMessage(blocks...))
			}
		default:
			for _, res := range msg.ToolResults {
				blocks = append(blocks, anthropic.NewToolResultBlock(res.CallID, res.Content, res.IsError))
			}
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			if len(blocks) > 0 {
				out = append(out, anthropic.NewUserMessage(blocks...))
			}
		}
	}
	return out
}

func toToolParams(specs []llm.ToolSpec) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(specs))
	for _, spec := range specs {
		props := spec.Properties
		if props == nil {
			props = map[string]any{}
		}
		tp := anthropic.ToolParam{
			Name:        spec.Name,
			Description: anthropic.String(spec.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: props,
				Required:   spec.Required,
			},
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: &tp})
	}
	return out
}

func toStep(msg anthropic.Message) llm.Step {
	var step llm.Step
	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			step.Text += b.Text
		case anthropic.ToolUseBlock:
			step.ToolCalls = append(step.ToolCalls, llm.ToolCall{
				ID:    b.ID,
				Name:  b.Name,
				Input: rawInput(b.Input),
			})
		}
	}

	switch msg.StopReason {
	case anthropic.StopReasonEndTurn:
		step.StopReason = llm.StopEndTurn
	case anthropic.StopReasonToolUse:
		step.StopReason = llm.StopToolUse
	case anthropic.StopReasonMaxTokens:
		step.StopReason = llm.StopMaxTokens
	default:
		step.StopReason = llm.StopOther
	}
	return step
}

// rawInput normalizes missing tool input to an empty object.
func rawInput(in json.RawMessage) json.RawMessage {
	if len(in) == 0 {
		return json.RawMessage(`{}`)
	}
	return in
}
