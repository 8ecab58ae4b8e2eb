// Package sales manages sales records and their vector index entries.
package sales

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/notes-assistant-backend/internal/domain"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

type salesRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.SalesRecord, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.SalesRecord, int, error)
	ListAfter(ctx context.Context, userID string, after uuid.UUID, limit int) ([]domain.SalesRecord, error)
	Create(ctx context.Context, rec *domain.SalesRecord) (*domain.SalesRecord, error)
	Update(ctx context.Context, rec *domain.SalesRecord) (*domain.SalesRecord, error)
	Delete(ctx context.Context, userID string, id uuid.UUID) error
}

type vectorIndex interface {
	Upsert(ctx context.Context, records []domain.IndexedRecord) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service provides sales record operations.
type Service struct {
	records  salesRepo
	index    vectorIndex
	embedder embedder
	tx       txManager
	log      *slog.Logger
}

func NewService(
	log *slog.Logger,
	records salesRepo,
	index vectorIndex,
	embedder embedder,
	tx txManager,
) *Service {
	return &Service{
		records:  records,
		index:    index,
		embedder: embedder,
		tx:       tx,
		log:      log.With("service", "sales"),
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *Service) writeIndexed(ctx context.Context, vec []float32, write func(ctx context.Context) (*domain.SalesRecord, error)) (*domain.SalesRecord, error) {
	var saved *domain.SalesRecord
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		rec, err := write(ctx)
		if err != nil {
			return err
		}
		if err := s.index.Upsert(ctx, []domain.IndexedRecord{indexRecord(rec, vec)}); err != nil {
			return fmt.Errorf("%w: sales record %s: %w", domain.ErrDualWrite, rec.ID, err)
		}
		saved = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *Service) owned(ctx context.Context, userID string, id uuid.UUID) (*domain.SalesRecord, error) {
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get sales record: %w", err)
	}
	if rec.UserID != userID {
		s.log.WarnContext(ctx, "sales record ownership mismatch",
			slog.String("user_id", userID),
			slog.String("record_id", id.String()),
		)
		return nil, domain.ErrUnauthorized
	}
	return rec, nil
}

func (s *Service) embed(ctx context.Context, rec domain.SalesRecord) ([]float32, error) {
	vec, err := s.embedder.Embed(ctx, rec.EmbeddingText())
	if err != nil {
		return nil, fmt.Errorf("embed sales record: %w", err)
	}
	return vec, nil
}

func indexRecord(rec *domain.SalesRecord, vec []float32) domain.IndexedRecord {
	return domain.IndexedRecord{
		ID:     rec.ID,
		Vector: vec,
		Metadata: map[string]any{
			domain.MetaUserID:    rec.UserID,
			domain.MetaDomainTag: domain.IntentSales.String(),
			"productName":        rec.ProductName,
			"price":              rec.Price,
			"soldAt":             rec.SoldAt.UTC().Format(time.RFC3339),
		},
	}
}
