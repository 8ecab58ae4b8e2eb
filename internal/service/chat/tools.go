package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/heartmarshall/notes-assistant-backend/internal/domain"
	"github.com/heartmarshall/notes-assistant-backend/internal/llm"
	"github.com/heartmarshall/notes-assistant-backend/internal/service/retrieval"
)

const (
	toolGetNotes           = "getNotes"
	toolMakeNote           = "makeNote"
	toolAskForConfirmation = "askForConfirmation"
	toolPromptForNoteData  = "promptForNoteData"
	toolGetUserDatetime    = "getUserDatetime"
	toolGetSalesRecord     = "getSalesRecord"
)

const noteCreatedPrefix = "Note created successfully"

// isoMillis matches the timestamps browsers produce with toISOString.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// handler runs an executable tool. A refusal error is reported to the model
// verbatim; any other error is replaced by the tool's failure message.
type handler func(ctx context.Context, t *turn, args json.RawMessage) (any, error)

// tool is either executable (run set) or declarative (run nil). Declarative
// tools are answered by the client, which suspends the turn.
type tool struct {
	spec    llm.ToolSpec
	run     handler
	failure string
}

func (t tool) declarative() bool { return t.run == nil }

func isDeclarative(name string) bool {
	return name == toolAskForConfirmation || name == toolPromptForNoteData
}

type toolset []tool

func (ts toolset) lookup(name string) (tool, bool) {
	for _, t := range ts {
		if t.spec.Name == name {
			return t, true
		}
	}
	return tool{}, false
}

func (ts toolset) specs() []llm.ToolSpec {
	out := make([]llm.ToolSpec, len(ts))
	for i, t := range ts {
		out[i] = t.spec
	}
	return out
}

// refusal is a handler outcome that is not a failure: the tool declined to
// act and says why.
type refusal string

func (r refusal) Error() string { return string(r) }

// ---------------------------------------------------------------------------
// Toolsets
// ---------------------------------------------------------------------------

func (s *Service) notesTools() toolset {
	return toolset{
		{
			spec: llm.ToolSpec{
				Name:        toolGetNotes,
				Description: "Get the user's notes relevant to the conversation, optionally limited to a date range.",
				Properties:  map[string]any{"daterange": dateRangeSchema},
			},
			run:     s.getNotes,
			failure: "An error occurred while fetching the notes. Please try again.",
		},
		{
			spec: llm.ToolSpec{
				Name:        toolMakeNote,
				Description: "Create a note. Only call this after the user approved it with askForConfirmation or promptForNoteData.",
				Properties: map[string]any{
					"title":   map[string]any{"type": "string"},
					"content": map[string]any{"type": "string"},
				},
				Required: []string{"title", "content"},
			},
			run:     s.makeNote,
			failure: "An error occurred while creating the note. Please try again.",
		},
		{
			spec: llm.ToolSpec{
				Name: toolAskForConfirmation,
				Description: "Ask the user to confirm an action. The answer is \"" + ConfirmYes +
					"\" or \"" + ConfirmNo + "\".",
				Properties: map[string]any{
					"message": map[string]any{"type": "string", "description": "The question shown to the user."},
				},
				Required: []string{"message"},
			},
		},
		{
			spec: llm.ToolSpec{
				Name: toolPromptForNoteData,
				Description: "Show the user a form prefilled with a proposed note. The answer is the edited " +
					"{title, content} or \"" + CancelNoteCreate + "\".",
				Properties: map[string]any{
					"message":           map[string]any{"type": "string"},
					"title":             map[string]any{"type": "string"},
					"content":           map[string]any{"type": "string"},
					"titleLabel":        map[string]any{"type": "string"},
					"contentLabel":      map[string]any{"type": "string"},
					"createButtonLabel": map[string]any{"type": "string"},
					"cancelButtonLabel": map[string]any{"type": "string"},
				},
				Required: []string{"message", "title", "titleLabel", "contentLabel", "createButtonLabel", "cancelButtonLabel"},
			},
		},
		s.datetimeTool(),
	}
}

func (s *Service) salesTools() toolset {
	return toolset{
		{
			spec: llm.ToolSpec{
				Name:        toolGetSalesRecord,
				Description: "Get the sales records relevant to the user's query, optionally limited to a date range.",
				Properties:  map[string]any{"daterange": dateRangeSchema},
			},
			run:     s.getSalesRecord,
			failure: "An error occurred while fetching the sales records. Please try again.",
		},
		s.datetimeTool(),
	}
}

func (s *Service) datetimeTool() tool {
	return tool{
		spec: llm.ToolSpec{
			Name:        toolGetUserDatetime,
			Description: "Get the start and end of the current day in the user's timezone.",
		},
		run:     s.getUserDatetime,
		failure: "An error occurred while reading the current time.",
	}
}

var dateRangeSchema = map[string]any{
	"type":        "object",
	"description": "Inclusive range of ISO 8601 timestamps.",
	"properties": map[string]any{
		"from": map[string]any{"type": "string", "format": "date-time"},
		"to":   map[string]any{"type": "string", "format": "date-time"},
	},
	"required": []string{"from", "to"},
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

func (s *Service) getNotes(ctx context.Context, t *turn, args json.RawMessage) (any, error) {
	dr, err := parseDateRange(args)
	if err != nil {
		return nil, err
	}
	records, err := s.retrieveScoped(ctx, t, domain.IntentNotes, dr)
	if err != nil {
		return nil, err
	}
	if len(records.Notes) == 0 {
		return "No matching notes were found.", nil
	}
	return formatNotes(records.Notes), nil
}

func (s *Service) getSalesRecord(ctx context.Context, t *turn, args json.RawMessage) (any, error) {
	dr, err := parseDateRange(args)
	if err != nil {
		return nil, err
	}
	records, err := s.retrieveScoped(ctx, t, domain.IntentSales, dr)
	if err != nil {
		return nil, err
	}
	if len(records.Sales) == 0 {
		return "No matching sales records were found.", nil
	}
	return formatSales(records.Sales), nil
}

func (s *Service) retrieveScoped(ctx context.Context, t *turn, tag domain.IntentTag, dr *domain.DateRange) (retrieval.Records, error) {
	vec, err := s.queryEmbedding(ctx, t)
	if err != nil {
		return retrieval.Records{}, err
	}
	return s.retriever.Retrieve(ctx, retrieval.Query{
		Embedding: vec,
		UserID:    t.userID,
		Domain:    &tag,
		TopK:      s.cfg.TopK,
		DateRange: dr,
	})
}

func (s *Service) makeNote(ctx context.Context, t *turn, args json.RawMessage) (any, error) {
	appr, reason, ok := t.ledger.authorize()
	if !ok {
		return nil, refusal(reason)
	}

	var in struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, fmt.Errorf("decode makeNote args: %w", err)
	}
	input := domain.NoteInput{Title: in.Title, Content: &in.Content}
	// the form values are what the user approved
	if appr.draft != nil {
		input = domain.NoteInput{Title: appr.draft.Title, Content: appr.draft.Content}
	}

	n, err := s.notes.Create(ctx, input)
	if err != nil {
		return nil, err
	}
	t.ledger.consume()

	content := ""
	if n.Content != nil {
		content = *n.Content
	}
	return fmt.Sprintf("%s with title: %s and content: %s", noteCreatedPrefix, n.Title, content), nil
}

func (s *Service) getUserDatetime(_ context.Context, t *turn, _ json.RawMessage) (any, error) {
	start, end := dayBounds(s.now(), t.loc)
	return map[string]string{
		"from":     start.Format(isoMillis),
		"to":       end.Format(isoMillis),
		"timezone": t.loc.String(),
	}, nil
}

func parseDateRange(args json.RawMessage) (*domain.DateRange, error) {
	if len(args) == 0 {
		return nil, nil
	}
	var in struct {
		DateRange *struct {
			From string `json:"from"`
			To   string `json:"to"`
		} `json:"daterange"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, fmt.Errorf("decode daterange: %w", err)
	}
	if in.DateRange == nil {
		return nil, nil
	}

	var dr domain.DateRange
	for _, side := range []struct {
		raw string
		dst **time.Time
	}{{in.DateRange.From, &dr.From}, {in.DateRange.To, &dr.To}} {
		if strings.TrimSpace(side.raw) == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, side.raw)
		if err != nil {
			return nil, fmt.Errorf("parse daterange: %w", err)
		}
		*side.dst = &ts
	}
	if dr.IsEmpty() {
		return nil, nil
	}
	return &dr, nil
}
