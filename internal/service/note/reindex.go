package note

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/notes-assistant-backend/internal/domain"
)

const reindexPageSize = 100

// Reindex re-embeds and upserts every note of userID, or of all users when
// userID is empty. It returns the number of notes indexed. Rows are not
// modified.
func (s *Service) Reindex(ctx context.Context, userID string, workers int) (int, error) {
	if workers <= 0 {
		workers = 1
	}

	total := 0
	after := uuid.Nil
	for {
		page, err := s.notes.ListAfter(ctx, userID, after, reindexPageSize)
		if err != nil {
			return total, fmt.Errorf("list notes: %w", err)
		}
		if len(page) == 0 {
			break
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for i := range page {
			n := &page[i]
			g.Go(func() error {
				vec, err := s.embed(gctx, *n)
				if err != nil {
					return fmt.Errorf("note %s: %w", n.ID, err)
				}
				return s.index.Upsert(gctx, []domain.IndexedRecord{indexRecord(n, vec)})
			})
		}
		if err := g.Wait(); err != nil {
			return total, fmt.Errorf("reindex notes: %w", err)
		}

		total += len(page)
		after = page[len(page)-1].ID
		s.log.InfoContext(ctx, "notes reindexed", slog.Int("count", total))
	}
	return total, nil
}
