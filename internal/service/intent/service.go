// Package intent assigns one IntentTag to a conversation turn.
package intent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/heartmarshall/notes-assistant-backend/internal/domain"
)

const systemPrompt = "You route requests for a note-taking and sales bookkeeping assistant. " +
	"Pick exactly one label for the user's latest request.\n" +
	"notes: questions about the user's notes.\n" +
	"sales: questions about products the user sold, revenue or prices.\n" +
	"createNote: the user wants to write down or save a new note.\n" +
	"createSalesRecord: the user wants to record a new sale.\n" +
	"general: anything else."

type chooser interface {
	Choose(ctx context.Context, system, prompt string, options []string) (string, error)
}

// Classifier asks a language model to label the conversation.
type Classifier struct {
	model chooser
	log   *slog.Logger
}

func NewClassifier(log *slog.Logger, model chooser) *Classifier {
	return &Classifier{
		model: model,
		log:   log.With("service", "intent"),
	}
}

// Classify labels messages, which may be a trailing window or a single
// message. Any answer outside the tag set returns domain.ErrClassification.
// No retries.
func (c *Classifier) Classify(ctx context.Context, messages []domain.ConversationMessage) (domain.IntentTag, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("%w: no messages", domain.ErrClassification)
	}

	tags := domain.IntentTags()
	options := make([]string, len(tags))
	for i, t := range tags {
		options[i] = t.String()
	}

	answer, err := c.model.Choose(ctx, systemPrompt, buildPrompt(messages), options)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrClassification, err)
	}

	tag := domain.IntentTag(strings.TrimSpace(answer))
	if !tag.IsValid() {
		c.log.WarnContext(ctx, "classifier answered outside the tag set", slog.String("answer", answer))
		return "", fmt.Errorf("%w: unexpected label %q", domain.ErrClassification, answer)
	}

	c.log.DebugContext(ctx, "query classified", slog.String("intent", tag.String()))
	return tag, nil
}

func buildPrompt(messages []domain.ConversationMessage) string {
	var b strings.Builder
	b.WriteString("Classify the user's query.\n")
	if len(messages) > 1 {
		b.WriteString("Recent conversation:\n")
		for _, m := range messages[:len(messages)-1] {
			if strings.TrimSpace(m.Content) == "" {
				continue
			}
			fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
		}
	}
	b.WriteString("User's query is as follows:\n")
	last := messages[len(messages)-1]
	if u, ok := domain.LastUserMessage(messages); ok {
		last = u
	}
	b.WriteString(last.Content)
	return b.String()
}
