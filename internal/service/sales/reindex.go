package sales

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/notes-assistant-backend/internal/domain"
)

const reindexPageSize = 100

// Reindex re-embeds every sale of userID (all users when empty) with at
// most workers embeddings in flight.
func (s *Service) Reindex(ctx context.Context, userID string, workers int) (int, error) {
	if workers <= 0 {
		workers = 1
	}

	total := 0
	after := uuid.Nil
	for {
		page, err := s.records.ListAfter(ctx, userID, after, reindexPageSize)
		if err != nil {
			return total, fmt.Errorf("list sales records: %w", err)
		}
		if len(page) == 0 {
			break
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for i := range page {
			rec := &page[i]
			g.Go(func() error {
				vec, err := s.embed(gctx, *rec)
				if err != nil {
					return fmt.Errorf("sales record %s: %w", rec.ID, err)
				}
				return s.index.Upsert(gctx, []domain.IndexedRecord{indexRecord(rec, vec)})
			})
		}
		if err := g.Wait(); err != nil {
			return total, fmt.Errorf("reindex sales: %w", err)
		}

		total += len(page)
		after = page[len(page)-1].ID
		s.log.InfoContext(ctx, "sales records reindexed", slog.Int("count", total))
	}
	return total, nil
}
