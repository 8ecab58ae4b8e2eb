package note

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/notes-assistant-backend/internal/domain"
	"github.com/heartmarshall/notes-assistant-backend/pkg/ctxutil"
)

// Update rewrites a note owned by the current user and re-indexes it.
// Another user's note yields domain.ErrUnauthorized with nothing written.
func (s *Service) Update(ctx context.Context, input UpdateInput) (*domain.Note, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	input.Normalize()
	if err := input.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.owned(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	draft := &domain.Note{
		ID:      existing.ID,
		UserID:  userID,
		Title:   input.Title,
		Content: input.Content,
	}

	vec, err := s.embed(ctx, *draft)
	if err != nil {
		return nil, err
	}

	updated, err := s.writeIndexed(ctx, vec, func(ctx context.Context) (*domain.Note, error) {
		return s.notes.Update(ctx, draft)
	})
	if err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}

	s.log.InfoContext(ctx, "note updated",
		slog.String("user_id", userID),
		slog.String("note_id", updated.ID.String()),
	)
	return updated, nil
}
