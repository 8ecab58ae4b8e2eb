package note

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/notes-assistant-backend/internal/domain"
	"github.com/heartmarshall/notes-assistant-backend/pkg/ctxutil"
)

// Create stores a new note for the current user and indexes it.
func (s *Service) Create(ctx context.Context, input domain.NoteInput) (*domain.Note, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	input.Normalize()
	if err := input.Validate(); err != nil {
		return nil, err
	}

	draft := &domain.Note{
		ID:      uuid.New(),
		UserID:  userID,
		Title:   input.Title,
		Content: input.Content,
	}

	vec, err := s.embed(ctx, *draft)
	if err != nil {
		return nil, err
	}

	created, err := s.writeIndexed(ctx, vec, func(ctx context.Context) (*domain.Note, error) {
		return s.notes.Create(ctx, draft)
	})
	if err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}

	s.log.InfoContext(ctx, "note created",
		slog.String("user_id", userID),
		slog.String("note_id", created.ID.String()),
	)
	return created, nil
}
