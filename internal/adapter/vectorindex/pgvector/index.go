// Package pgvector implements the vector index on PostgreSQL with the
// pgvector extension. Writes go through postgres.QuerierFromCtx, so an
// upsert issued inside TxManager.RunInTx commits or rolls back together
// with the relational row.
package pgvector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	postgres "github.com/heartmarshall/notes-assistant-backend/internal/adapter/postgres"
	"github.com/heartmarshall/notes-assistant-backend/internal/domain"
)

// Index stores vectors in the vector_entries table.
type Index struct {
	pool       *pgxpool.Pool
	dimensions int
}

// New creates an index that rejects vectors whose length differs from
// dimensions. Zero disables the check.
func New(pool *pgxpool.Pool, dimensions int) *Index {
	return &Index{pool: pool, dimensions: dimensions}
}

// metadata keys that live in dedicated columns
var columnForKey = map[string]string{
	domain.MetaUserID:    "user_id",
	domain.MetaDomainTag: "domain_tag",
}

const upsertSQL = `
INSERT INTO vector_entries (id, user_id, domain_tag, embedding, metadata, updated_at)
VALUES ($1, $2, $3, $4::vector, $5::jsonb, now())
ON CONFLICT (id) DO UPDATE
SET user_id    = EXCLUDED.user_id,
    domain_tag = EXCLUDED.domain_tag,
    embedding  = EXCLUDED.embedding,
    metadata   = EXCLUDED.metadata,
    updated_at = now()`

// Upsert inserts or replaces entries by id.
func (ix *Index) Upsert(ctx context.Context, records []domain.IndexedRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, rec := range records {
		if err := ix.checkDims(rec.Vector); err != nil {
			return fmt.Errorf("vector %s: %w", rec.ID, err)
		}
		userID, _ := rec.Metadata[domain.MetaUserID].(string)
		tag, _ := rec.Metadata[domain.MetaDomainTag].(string)
		if userID == "" || tag == "" {
			return fmt.Errorf("vector %s: metadata must carry %s and %s", rec.ID, domain.MetaUserID, domain.MetaDomainTag)
		}
		meta, err := json.Marshal(rec.Metadata)
		if err != nil {
			return fmt.Errorf("vector %s: encode metadata: %w", rec.ID, err)
		}
		batch.Queue(upsertSQL, rec.ID, userID, tag, pgvector.NewVector(rec.Vector).String(), string(meta))
	}

	br := postgres.QuerierFromCtx(ctx, ix.pool).SendBatch(ctx, batch)
	for _, rec := range records {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("upsert vector %s: %w", rec.ID, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("upsert vectors: %w", err)
	}
	return nil
}

// Query returns the TopK nearest entries by cosine distance that match
// every filter entry. Score is cosine similarity.
func (ix *Index) Query(ctx context.Context, q domain.VectorQuery) ([]domain.VectorMatch, error) {
	if err := ix.checkDims(q.Vector); err != nil {
		return nil, err
	}
	if q.TopK <= 0 {
		return []domain.VectorMatch{}, nil
	}

	vec := pgvector.NewVector(q.Vector).String()
	query := postgres.Builder().
		Select("id").
		Column(squirrel.Expr("1 - (embedding <=> ?::vector) AS score", vec)).
		From("vector_entries").
		OrderByClause("embedding <=> ?::vector", vec).
		Limit(uint64(q.TopK))

	for key, val := range q.Filter {
		if col, ok := columnForKey[key]; ok {
			query = query.Where(squirrel.Eq{col: val})
			continue
		}
		query = query.Where(squirrel.Expr("metadata->>? = ?", key, val))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build vector query: %w", err)
	}

	rows, err := postgres.QuerierFromCtx(ctx, ix.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query vectors: %w", err)
	}
	defer rows.Close()

	matches := make([]domain.VectorMatch, 0, q.TopK)
	for rows.Next() {
		var (
			m     domain.VectorMatch
			score float64
		)
		if err := rows.Scan(&m.ID, &score); err != nil {
			return nil, fmt.Errorf("scan vector match: %w", err)
		}
		m.Score = float32(score)
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vector matches: %w", err)
	}
	return matches, nil
}

// Delete removes one entry. Deleting a missing id is not an error.
func (ix *Index) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := postgres.QuerierFromCtx(ctx, ix.pool).Exec(ctx, `DELETE FROM vector_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete vector %s: %w", id, err)
	}
	return nil
}

// Vector reads back a stored embedding.
func (ix *Index) Vector(ctx context.Context, id uuid.UUID) ([]float32, error) {
	var raw string
	err := postgres.QuerierFromCtx(ctx, ix.pool).
		QueryRow(ctx, `SELECT embedding::text FROM vector_entries WHERE id = $1`, id).
		Scan(&raw)
	if err != nil {
		return nil, postgres.MapError(err, "vector", id)
	}

	var v pgvector.Vector
	if err := v.Scan(strings.TrimSpace(raw)); err != nil {
		return nil, fmt.Errorf("parse vector %s: %w", id, err)
	}
	return v.Slice(), nil
}

func (ix *Index) checkDims(v []float32) error {
	if len(v) == 0 {
		return fmt.Errorf("empty vector")
	}
	if ix.dimensions > 0 && len(v) != ix.dimensions {
		return fmt.Errorf("vector dimension mismatch: got %d, want %d", len(v), ix.dimensions)
	}
	return nil
}
