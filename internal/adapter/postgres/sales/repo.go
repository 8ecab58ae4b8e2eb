// Package sales implements the sales record repository using PostgreSQL.
package sales

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/notes-assistant-backend/internal/adapter/postgres"
	"github.com/heartmarshall/notes-assistant-backend/internal/domain"
)

const (
	table   = "sales_records"
	entity  = "sales_record"
	columns = "id, user_id, product_name, price, sold_at, created_at, updated_at"
)

// Repo provides sales record persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new sales record repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns a record by primary key regardless of owner.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.SalesRecord, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	row := q.QueryRow(ctx, `SELECT `+columns+` FROM sales_records WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if err != nil {
		return nil, postgres.MapError(err, entity, id)
	}
	return rec, nil
}

// ListByIDs returns the user's records among ids. With a date range, a row
// matches if any of created_at, updated_at or sold_at falls inside it.
func (r *Repo) ListByIDs(ctx context.Context, userID string, ids []uuid.UUID, dr *domain.DateRange) ([]domain.SalesRecord, error) {
	if len(ids) == 0 {
		return []domain.SalesRecord{}, nil
	}

	query := postgres.Builder().
		Select(columns).
		From(table).
		Where(squirrel.Eq{"user_id": userID}).
		Where(squirrel.Eq{"id": ids}).
		Where(postgres.DateRangeAny(dr, "created_at", "updated_at", "sold_at")).
		OrderBy("sold_at DESC")

	return r.list(ctx, query)
}

// ListByUser returns the user's records, most recent sale first, and the
// total count.
func (r *Repo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.SalesRecord, int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var total int
	if err := q.QueryRow(ctx, `SELECT count(*) FROM sales_records WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count sales_records: %w", err)
	}

	query := postgres.Builder().
		Select(columns).
		From(table).
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("sold_at DESC", "id").
		Limit(uint64(limit)).
		Offset(uint64(offset))

	recs, err := r.list(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	return recs, total, nil
}

// ListAfter pages through records in id order. An empty userID spans all users.
func (r *Repo) ListAfter(ctx context.Context, userID string, after uuid.UUID, limit int) ([]domain.SalesRecord, error) {
	query := postgres.Builder().
		Select(columns).
		From(table).
		Where(squirrel.Expr("id > ?", after)).
		OrderBy("id").
		Limit(uint64(limit))
	if userID != "" {
		query = query.Where(squirrel.Eq{"user_id": userID})
	}
	return r.list(ctx, query)
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts a record.
func (r *Repo) Create(ctx context.Context, rec *domain.SalesRecord) (*domain.SalesRecord, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	row := q.QueryRow(ctx, createSQL, rec.ID, rec.UserID, rec.ProductName, rec.Price, rec.SoldAt)
	created, err := scanRecord(row)
	if err != nil {
		return nil, postgres.MapError(err, entity, rec.ID)
	}
	return created, nil
}

// Update overwrites the user's record.
// Returns domain.ErrNotFound if no row matches id and user.
func (r *Repo) Update(ctx context.Context, rec *domain.SalesRecord) (*domain.SalesRecord, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	row := q.QueryRow(ctx, updateSQL, rec.ID, rec.UserID, rec.ProductName, rec.Price, rec.SoldAt)
	updated, err := scanRecord(row)
	if err != nil {
		return nil, postgres.MapError(err, entity, rec.ID)
	}
	return updated, nil
}

// Delete removes the user's record.
func (r *Repo) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx, `DELETE FROM sales_records WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return postgres.MapError(err, entity, id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", entity, id, domain.ErrNotFound)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

const createSQL = `
INSERT INTO sales_records (id, user_id, product_name, price, sold_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, now(), now())
RETURNING ` + columns

const updateSQL = `
UPDATE sales_records
SET product_name = $3, price = $4, sold_at = $5, updated_at = now()
WHERE id = $1 AND user_id = $2
RETURNING ` + columns

func (r *Repo) list(ctx context.Context, query squirrel.SelectBuilder) ([]domain.SalesRecord, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sales_records query: %w", err)
	}

	rows, err := postgres.QuerierFromCtx(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query sales_records: %w", err)
	}
	defer rows.Close()

	recs := make([]domain.SalesRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sales_record: %w", err)
		}
		recs = append(recs, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales_records: %w", err)
	}
	return recs, nil
}

func scanRecord(row pgx.Row) (*domain.SalesRecord, error) {
	var rec domain.SalesRecord
	err := row.Scan(&rec.ID, &rec.UserID, &rec.ProductName, &rec.Price, &rec.SoldAt, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
