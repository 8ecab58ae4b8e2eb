package sales

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/heartmarshall/notes-assistant-backend/internal/domain"
	"github.com/heartmarshall/notes-assistant-backend/pkg/ctxutil"
)

// List returns a page of the current user's sales and the total count.
func (s *Service) List(ctx context.Context, input ListInput) ([]domain.SalesRecord, int, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, 0, domain.ErrUnauthorized
	}

	if err := input.Validate(); err != nil {
		return nil, 0, err
	}

	limit := input.Limit
	if limit == 0 {
		limit = DefaultLimit
	}

	records, total, err := s.records.ListByUser(ctx, userID, limit, input.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list sales records: %w", err)
	}
	return records, total, nil
}

// Get returns one of the current user's sales.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.SalesRecord, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	return s.owned(ctx, userID, id)
}
