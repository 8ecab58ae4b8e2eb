package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const defaultReindexWorkers = 4

type reindexer interface {
	Reindex(ctx context.Context, userID string, workers int) (int, error)
}

// ReindexStats counts records re-embedded per domain.
type ReindexStats struct {
	Notes int
	Sales int
}

// Reindex re-embeds the notes and sales records of userID (all users when
// empty) into the configured vector index.
func Reindex(ctx context.Context, userID string, workers int) (ReindexStats, error) {
	cfg, logger, err := bootstrap()
	if err != nil {
		return ReindexStats{}, err
	}

	d, err := openDeps(ctx, cfg, logger)
	if err != nil {
		return ReindexStats{}, err
	}
	defer d.Close()

	return runReindex(ctx, d.notes, d.sales, userID, workers, logger)
}

func runReindex(ctx context.Context, notes, sales reindexer, userID string, workers int, logger *slog.Logger) (ReindexStats, error) {
	if workers <= 0 {
		workers = defaultReindexWorkers
	}
	start := time.Now()

	var stats ReindexStats
	var err error
	if stats.Notes, err = notes.Reindex(ctx, userID, workers); err != nil {
		return stats, fmt.Errorf("notes: %w", err)
	}
	if stats.Sales, err = sales.Reindex(ctx, userID, workers); err != nil {
		return stats, fmt.Errorf("sales: %w", err)
	}

	logger.InfoContext(ctx, "reindex complete",
		slog.String("user_id", userID),
		slog.Int("notes", stats.Notes),
		slog.Int("sales", stats.Sales),
		slog.Duration("duration", time.Since(start)),
	)
	return stats, nil
}
