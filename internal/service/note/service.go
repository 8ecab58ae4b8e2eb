// Package note manages notes and keeps the vector index in step with them.
package note

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/notes-assistant-backend/internal/domain"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

type noteRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Note, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Note, int, error)
	ListAfter(ctx context.Context, userID string, after uuid.UUID, limit int) ([]domain.Note, error)
	Create(ctx context.Context, n *domain.Note) (*domain.Note, error)
	Update(ctx context.Context, n *domain.Note) (*domain.Note, error)
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

// Service writes notes to Postgres and the vector index. Create and update
// are atomic across both stores; delete is best-effort on the index.
type Service struct {
	notes    noteRepo
	index    vectorIndex
	embedder embedder
	tx       txManager
	log      *slog.Logger
}

func NewService(
	log *slog.Logger,
	notes noteRepo,
	index vectorIndex,
	embedder embedder,
	tx txManager,
) *Service {
	return &Service{
		notes:    notes,
		index:    index,
		embedder: embedder,
		tx:       tx,
		log:      log.With("service", "note"),
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// writeIndexed runs write and upserts the resulting note's vector in one
// transaction. An index failure rolls the row back.
func (s *Service) writeIndexed(ctx context.Context, vec []float32, write func(ctx context.Context) (*domain.Note, error)) (*domain.Note, error) {
	var saved *domain.Note
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		n, err := write(ctx)
		if err != nil {
			return err
		}
		if err := s.index.Upsert(ctx, []domain.IndexedRecord{indexRecord(n, vec)}); err != nil {
			return fmt.Errorf("%w: note %s: %w", domain.ErrDualWrite, n.ID, err)
		}
		saved = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// owned loads a note and checks it belongs to userID.
func (s *Service) owned(ctx context.Context, userID string, id uuid.UUID) (*domain.Note, error) {
	n, err := s.notes.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	if n.UserID != userID {
		s.log.WarnContext(ctx, "note ownership mismatch",
			slog.String("user_id", userID),
			slog.String("note_id", id.String()),
		)
		return nil, domain.ErrUnauthorized
	}
	return n, nil
}

func (s *Service) embed(ctx context.Context, n domain.Note) ([]float32, error) {
	vec, err := s.embedder.Embed(ctx, n.EmbeddingText())
	if err != nil {
		return nil, fmt.Errorf("embed note: %w", err)
	}
	return vec, nil
}

func indexRecord(n *domain.Note, vec []float32) domain.IndexedRecord {
	return domain.IndexedRecord{
		ID:     n.ID,
		Vector: vec,
		Metadata: map[string]any{
			domain.MetaUserID:    n.UserID,
			domain.MetaDomainTag: domain.IntentNotes.String(),
		},
	}
}
