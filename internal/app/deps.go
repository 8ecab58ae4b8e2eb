package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/heartmarshall/notes-assistant-backend/internal/adapter/embedding/cache"
	"github.com/heartmarshall/notes-assistant-backend/internal/adapter/embedding/openai"
	"github.com/heartmarshall/notes-assistant-backend/internal/adapter/postgres"
	noterepo "github.com/heartmarshall/notes-assistant-backend/internal/adapter/postgres/note"
	salesrepo "github.com/heartmarshall/notes-assistant-backend/internal/adapter/postgres/sales"
	"github.com/heartmarshall/notes-assistant-backend/internal/adapter/vectorindex/memory"
	"github.com/heartmarshall/notes-assistant-backend/internal/adapter/vectorindex/pgvector"
	"github.com/heartmarshall/notes-assistant-backend/internal/config"
	"github.com/heartmarshall/notes-assistant-backend/internal/domain"
	"github.com/heartmarshall/notes-assistant-backend/internal/service/note"
	"github.com/heartmarshall/notes-assistant-backend/internal/service/sales"
)

type vectorIndex interface {
	Upsert(ctx context.Context, records []domain.IndexedRecord) error
	Query(ctx context.Context, q domain.VectorQuery) ([]domain.VectorMatch, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// deps holds the process-wide clients and the record services built on
// them. Every command that touches data opens one and closes it on exit.
type deps struct {
	pool      *pgxpool.Pool
	rdb       *redis.Client // nil when the embedding cache is disabled
	index     vectorIndex
	embedder  embedder
	noteRepo  *noterepo.Repo
	salesRepo *salesrepo.Repo
	notes     *note.Service
	sales     *sales.Service
}

func openDeps(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*deps, error) {
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	d := &deps{pool: pool}

	switch cfg.Vector.Backend {
	case config.VectorBackendMemory:
		d.index = memory.New(cfg.Vector.Dimensions)
	default:
		d.index = pgvector.New(pool, cfg.Vector.Dimensions)
	}

	d.embedder = openai.New(cfg.Embedding, cfg.Vector.Dimensions, logger)
	if cfg.Redis.Enabled() {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			d.Close()
			return nil, err
		}
		d.rdb = rdb
		d.embedder = cache.New(d.embedder, rdb, cfg.Embedding.Model, cfg.Vector.Dimensions, cfg.Embedding.CacheTTL, logger)
	}

	txm := postgres.NewTxManager(pool)
	d.noteRepo = noterepo.New(pool)
	d.salesRepo = salesrepo.New(pool)
	d.notes = note.NewService(logger, d.noteRepo, d.index, d.embedder, txm)
	d.sales = sales.NewService(logger, d.salesRepo, d.index, d.embedder, txm)

	logger.Info("dependencies ready",
		slog.String("vector_backend", cfg.Vector.Backend),
		slog.Bool("embedding_cache", d.rdb != nil),
	)
	return d, nil
}

func (d *deps) Close() {
	if d.rdb != nil {
		_ = d.rdb.Close()
	}
	d.pool.Close()
}

// pingRedis adapts the redis client to a health check.
func (d *deps) pingRedis(ctx context.Context) error {
	if err := d.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
