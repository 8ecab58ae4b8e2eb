package sales

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/notes-assistant-backend/internal/domain"
	"github.com/heartmarshall/notes-assistant-backend/pkg/ctxutil"
)

// Update rewrites a sale owned by the current user and re-indexes it.
func (s *Service) Update(ctx context.Context, input UpdateInput) (*domain.SalesRecord, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	input.Normalize()
	if err := input.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.owned(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	draft := &domain.SalesRecord{
		ID:          input.ID,
		UserID:      userID,
		ProductName: input.ProductName,
		Price:       input.Price,
		SoldAt:      input.SoldAt.UTC(),
	}

	vec, err := s.embed(ctx, *draft)
	if err != nil {
		return nil, err
	}

	updated, err := s.writeIndexed(ctx, vec, func(ctx context.Context) (*domain.SalesRecord, error) {
		return s.records.Update(ctx, draft)
	})
	if err != nil {
		return nil, fmt.Errorf("update sales record: %w", err)
	}

	s.log.InfoContext(ctx, "sales record updated",
		slog.String("user_id", userID),
		slog.String("record_id", updated.ID.String()),
	)
	return updated, nil
}
