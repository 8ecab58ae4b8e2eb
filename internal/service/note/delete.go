package note

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/notes-assistant-backend/internal/domain"
	"github.com/heartmarshall/notes-assistant-backend/internal/metrics"
	"github.com/heartmarshall/notes-assistant-backend/pkg/ctxutil"
)

// Delete removes a note owned by the current user. The index entry is
// removed afterwards; a failure there is logged and counted, not returned.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return domain.ErrUnauthorized
	}
	if id == uuid.Nil {
		return domain.NewValidationError("id", "required")
	}

	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		return s.notes.Delete(ctx, userID, id)
	})
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}

	if err := s.index.Delete(ctx, id); err != nil {
		metrics.VectorDeleteFailures.WithLabelValues(domain.IntentNotes.String()).Inc()
		s.log.ErrorContext(ctx, "note deleted but index entry remains",
			slog.String("note_id", id.String()),
			slog.String("error", fmt.Errorf("%w: %w", domain.ErrVectorDelete, err).Error()),
		)
	}

	s.log.InfoContext(ctx, "note deleted",
		slog.String("user_id", userID),
		slog.String("note_id", id.String()),
	)
	return nil
}
