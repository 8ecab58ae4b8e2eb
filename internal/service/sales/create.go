package sales

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/notes-assistant-backend/internal/domain"
	"github.com/heartmarshall/notes-assistant-backend/pkg/ctxutil"
)

// Create stores a sale for the current user and indexes it.
func (s *Service) Create(ctx context.Context, input domain.SalesRecordInput) (*domain.SalesRecord, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	input.Normalize()
	if err := input.Validate(); err != nil {
		return nil, err
	}

	draft := &domain.SalesRecord{
		ID:          uuid.New(),
		UserID:      userID,
		ProductName: input.ProductName,
		Price:       input.Price,
		SoldAt:      input.SoldAt.UTC(),
	}

	vec, err := s.embed(ctx, *draft)
	if err != nil {
		return nil, err
	}

	created, err := s.writeIndexed(ctx, vec, func(ctx context.Context) (*domain.SalesRecord, error) {
		return s.records.Create(ctx, draft)
	})
	if err != nil {
		return nil, fmt.Errorf("create sales record: %w", err)
	}

	s.log.InfoContext(ctx, "sales record created",
		slog.String("user_id", userID),
		slog.String("record_id", created.ID.String()),
		slog.String("product", created.ProductName),
	)
	return created, nil
}
