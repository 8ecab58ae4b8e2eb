// Package note implements the note repository using PostgreSQL.
package note

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
	table   = "notes"
	entity  = "note"
	columns = "id, user_id, title, content, created_at, updated_at"
)

// Repo provides note persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new note repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns a note by primary key regardless of owner. Callers
// compare UserID themselves to tell a foreign note from a missing one.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Note, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	row := q.QueryRow(ctx, `SELECT `+columns+` FROM notes WHERE id = $1`, id)
	n, err := scanNote(row)
	if err != nil {
		return nil, postgres.MapError(err, entity, id)
	}
	return n, nil
}

// ListByIDs returns the user's notes among ids, optionally restricted to
// rows whose created_at or updated_at falls in dr. Foreign and missing ids
// are silently skipped.
func (r *Repo) ListByIDs(ctx context.Context, userID string, ids []uuid.UUID, dr *domain.DateRange) ([]domain.Note, error) {
	if len(ids) == 0 {
		return []domain.Note{}, nil
	}

	query := postgres.Builder().
		Select(columns).
		From(table).
		Where(squirrel.Eq{"user_id": userID}).
		Where(squirrel.Eq{"id": ids}).
		Where(postgres.DateRangeAny(dr, "created_at", "updated_at")).
		OrderBy("updated_at DESC")

	return r.list(ctx, query)
}

// ListByUser returns the user's notes, most recently updated first, and
// the total count.
func (r *Repo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Note, int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var total int
	if err := q.QueryRow(ctx, `SELECT count(*) FROM notes WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notes: %w", err)
	}

	query := postgres.Builder().
		Select(columns).
		From(table).
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("updated_at DESC", "id").
		Limit(uint64(limit)).
		Offset(uint64(offset))

	notes, err := r.list(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	return notes, total, nil
}

// ListAfter pages through notes in id order for bulk jobs. An empty userID
// spans all users.
func (r *Repo) ListAfter(ctx context.Context, userID string, after uuid.UUID, limit int) ([]domain.Note, error) {
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

// Create inserts a note. Timestamps are assigned by the database.
func (r *Repo) Create(ctx context.Context, n *domain.Note) (*domain.Note, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	row := q.QueryRow(ctx, createSQL, n.ID, n.UserID, n.Title, n.Content)
	created, err := scanNote(row)
	if err != nil {
		return nil, postgres.MapError(err, entity, n.ID)
	}
	return created, nil
}

// Update overwrites title and content of the user's note.
// Returns domain.ErrNotFound if no row matches id and user.
func (r *Repo) Update(ctx context.Context, n *domain.Note) (*domain.Note, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	row := q.QueryRow(ctx, updateSQL, n.ID, n.UserID, n.Title, n.Content)
	updated, err := scanNote(row)
	if err != nil {
		return nil, postgres.MapError(err, entity, n.ID)
	}
	return updated, nil
}

// Delete removes the user's note. Returns domain.ErrNotFound if no row
// matches id and user.
func (r *Repo) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx, `DELETE FROM notes WHERE id = $1 AND user_id = $2`, id, userID)
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
INSERT INTO notes (id, user_id, title, content, created_at, updated_at)
VALUES ($1, $2, $3, $4, now(), now())
RETURNING ` + columns

const updateSQL = `
UPDATE notes
SET title = $3, content = $4, updated_at = now()
WHERE id = $1 AND user_id = $2
RETURNING ` + columns

func (r *Repo) list(ctx context.Context, query squirrel.SelectBuilder) ([]domain.Note, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build notes query: %w", err)
	}

	rows, err := postgres.QuerierFromCtx(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	notes := make([]domain.Note, 0)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return notes, nil
}

func scanNote(row pgx.Row) (*domain.Note, error) {
	var n domain.Note
	if err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}
