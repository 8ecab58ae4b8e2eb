package sales

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/notes-assistant-backend/internal/domain"
	"github.com/heartmarshall/notes-assistant-backend/internal/metrics"
	"github.com/heartmarshall/notes-assistant-backend/pkg/ctxutil"
)

// Delete removes a sale owned by the current user, then its index entry.
// Index failures are logged and counted only.
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
		return s.records.Delete(ctx, userID, id)
	})
	if err != nil {
		return fmt.Errorf("delete sales record: %w", err)
	}

	if err := s.index.Delete(ctx, id); err != nil {
		metrics.VectorDeleteFailures.WithLabelValues(domain.IntentSales.String()).Inc()
		s.log.ErrorContext(ctx, "sales record deleted but index entry remains",
			slog.String("record_id", id.String()),
			slog.String("error", fmt.Errorf("%w: %w", domain.ErrVectorDelete, err).Error()),
		)
	}

	s.log.InfoContext(ctx, "sales record deleted",
		slog.String("user_id", userID),
		slog.String("record_id", id.String()),
	)
	return nil
}
