// Package retrieval finds the user's records most similar to a query
// embedding and loads them from the relational store.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/notes-assistant-backend/internal/domain"
)

const DefaultTopK = 20

type vectorIndex interface {
	Query(ctx context.Context, q domain.VectorQuery) ([]domain.VectorMatch, error)
}

type noteRepo interface {
	ListByIDs(ctx context.Context, userID string, ids []uuid.UUID, dr *domain.DateRange) ([]domain.Note, error)
}

type salesRepo interface {
	ListByIDs(ctx context.Context, userID string, ids []uuid.UUID, dr *domain.DateRange) ([]domain.SalesRecord, error)
}

// Query describes one retrieval. A nil Domain searches notes and sales.
type Query struct {
	Embedding []float32
	UserID    string
	Domain    *domain.IntentTag
	TopK      int
	DateRange *domain.DateRange
}

// Records is the retrieval result, ordered by similarity.
type Records struct {
	Notes []domain.Note
	Sales []domain.SalesRecord
}

func (r Records) Empty() bool {
	return len(r.Notes) == 0 && len(r.Sales) == 0
}

// Retriever runs vector search followed by a relational lookup.
type Retriever struct {
	index vectorIndex
	notes noteRepo
	sales salesRepo
	topK  int
	log   *slog.Logger
}

func NewRetriever(log *slog.Logger, index vectorIndex, notes noteRepo, sales salesRepo, topK int) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{
		index: index,
		notes: notes,
		sales: sales,
		topK:  topK,
		log:   log.With("service", "retrieval"),
	}
}

// Retrieve returns records owned by q.UserID. Every failure wraps
// domain.ErrRetrieval. An empty result is not an error.
func (r *Retriever) Retrieve(ctx context.Context, q Query) (Records, error) {
	if q.UserID == "" {
		return Records{}, domain.ErrUnauthorized
	}
	if q.Domain != nil && !q.Domain.IsDomain() {
		return Records{}, fmt.Errorf("%w: %q is not a record domain", domain.ErrRetrieval, *q.Domain)
	}
	if q.TopK <= 0 {
		q.TopK = r.topK
	}

	var out Records
	g, gctx := errgroup.WithContext(ctx)

	if q.Domain == nil || *q.Domain == domain.IntentNotes {
		g.Go(func() error {
			notes, err := r.retrieveNotes(gctx, q)
			out.Notes = notes
			return err
		})
	}
	if q.Domain == nil || *q.Domain == domain.IntentSales {
		g.Go(func() error {
			sales, err := r.retrieveSales(gctx, q)
			out.Sales = sales
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return Records{}, fmt.Errorf("%w: %w", domain.ErrRetrieval, err)
	}

	r.log.DebugContext(ctx, "records retrieved",
		slog.Int("notes", len(out.Notes)),
		slog.Int("sales", len(out.Sales)),
	)
	return out, nil
}

func (r *Retriever) retrieveNotes(ctx context.Context, q Query) ([]domain.Note, error) {
	ids, err := r.match(ctx, q, domain.IntentNotes)
	if err != nil || len(ids) == 0 {
		return nil, err
	}
	notes, err := r.notes.ListByIDs(ctx, q.UserID, ids, q.DateRange)
	if err != nil {
		return nil, fmt.Errorf("load notes: %w", err)
	}
	return orderByRank(notes, ids, func(n domain.Note) uuid.UUID { return n.ID }), nil
}

func (r *Retriever) retrieveSales(ctx context.Context, q Query) ([]domain.SalesRecord, error) {
	ids, err := r.match(ctx, q, domain.IntentSales)
	if err != nil || len(ids) == 0 {
		return nil, err
	}
	sales, err := r.sales.ListByIDs(ctx, q.UserID, ids, q.DateRange)
	if err != nil {
		return nil, fmt.Errorf("load sales records: %w", err)
	}
	return orderByRank(sales, ids, func(s domain.SalesRecord) uuid.UUID { return s.ID }), nil
}

func (r *Retriever) match(ctx context.Context, q Query, tag domain.IntentTag) ([]uuid.UUID, error) {
	matches, err := r.index.Query(ctx, domain.VectorQuery{
		Vector: q.Embedding,
		TopK:   q.TopK,
		Filter: map[string]string{
			domain.MetaUserID:    q.UserID,
			domain.MetaDomainTag: tag.String(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("query %s index: %w", tag, err)
	}

	ids := make([]uuid.UUID, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	return ids, nil
}

// orderByRank sorts items into the order of ids.
func orderByRank[T any](items []T, ids []uuid.UUID, id func(T) uuid.UUID) []T {
	byID := make(map[uuid.UUID]T, len(items))
	for _, it := range items {
		byID[id(it)] = it
	}
	out := make([]T, 0, len(items))
	for _, want := range ids {
		if it, ok := byID[want]; ok {
			out = append(out, it)
		}
	}
	return out
}
