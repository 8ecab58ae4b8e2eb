package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/notes-assistant-backend/internal/domain"
)

// NewUserID returns a unique identity subject so parallel tests never share rows.
func NewUserID() string {
	return "user_" + uuid.New().String()[:8]
}

// SeedNote inserts a note row directly and returns it.
func SeedNote(t *testing.T, pool *pgxpool.Pool, userID, title string) domain.Note {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	n := domain.Note{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO notes (id, user_id, title, content, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		n.ID, n.UserID, n.Title, n.Content, n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedNote: %v", err)
	}

	return n
}

// SeedSalesRecord inserts a sales record row directly and returns it.
func SeedSalesRecord(t *testing.T, pool *pgxpool.Pool, userID, product string, price float64, soldAt time.Time) domain.SalesRecord {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	r := domain.SalesRecord{
		ID:          uuid.New(),
		UserID:      userID,
		ProductName: product,
		Price:       price,
		SoldAt:      soldAt.UTC().Truncate(time.Microsecond),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO sales_records (id, user_id, product_name, price, sold_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.ID, r.UserID, r.ProductName, r.Price, r.SoldAt, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedSalesRecord: %v", err)
	}

	return r
}
