package note

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/notes-assistant-backend/internal/adapter/vectorindex/memory"
	"github.com/heartmarshall/notes-assistant-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// memRepo: noteRepo backed by a map, with snapshot/restore for fakeTx.
// ---------------------------------------------------------------------------

type memRepo struct {
	mu    sync.Mutex
	notes map[uuid.UUID]domain.Note
}

func newMemRepo() *memRepo {
	return &memRepo{notes: make(map[uuid.UUID]domain.Note)}
}

func (r *memRepo) put(n domain.Note) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes[n.ID] = n
}

func (r *memRepo) get(id uuid.UUID) (domain.Note, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notes[id]
	return n, ok
}

func (r *memRepo) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notes)
}

func (r *memRepo) snapshot() map[uuid.UUID]domain.Note {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make(map[uuid.UUID]domain.Note, len(r.notes))
	for k, v := range r.notes {
		cp[k] = v
	}
	return cp
}

func (r *memRepo) restore(s map[uuid.UUID]domain.Note) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = s
}

func (r *memRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Note, error) {
	n, ok := r.get(id)
	if !ok {
		return nil, fmt.Errorf("note %s: %w", id, domain.ErrNotFound)
	}
	return &n, nil
}

func (r *memRepo) ListByIDs(_ context.Context, userID string, ids []uuid.UUID, _ *domain.DateRange) ([]domain.Note, error) {
	var out []domain.Note
	for _, id := range ids {
		if n, ok := r.get(id); ok && n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *memRepo) ListByUser(_ context.Context, userID string, limit, offset int) ([]domain.Note, int, error) {
	all := r.sorted(userID)
	total := len(all)
	if offset > total {
		offset = total
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}

func (r *memRepo) ListAfter(_ context.Context, userID string, after uuid.UUID, limit int) ([]domain.Note, error) {
	var out []domain.Note
	for _, n := range r.sorted(userID) {
		if strings.Compare(n.ID.String(), after.String()) > 0 {
			out = append(out, n)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memRepo) Create(_ context.Context, n *domain.Note) (*domain.Note, error) {
	now := time.Now().UTC()
	saved := *n
	saved.CreatedAt, saved.UpdatedAt = now, now
	r.put(saved)
	return &saved, nil
}

func (r *memRepo) Update(_ context.Context, n *domain.Note) (*domain.Note, error) {
	existing, ok := r.get(n.ID)
	if !ok || existing.UserID != n.UserID {
		return nil, fmt.Errorf("note %s: %w", n.ID, domain.ErrNotFound)
	}
	existing.Title, existing.Content, existing.UpdatedAt = n.Title, n.Content, time.Now().UTC()
	r.put(existing)
	return &existing, nil
}

func (r *memRepo) Delete(_ context.Context, userID string, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notes[id]
	if !ok || n.UserID != userID {
		return fmt.Errorf("note %s: %w", id, domain.ErrNotFound)
	}
	delete(r.notes, id)
	return nil
}

func (r *memRepo) sorted(userID string) []domain.Note {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Note
	for _, n := range r.notes {
		if userID == "" || n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

// fakeTx restores the repo when fn fails.
type fakeTx struct{ repo *memRepo }

func (tx fakeTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := tx.repo.snapshot()
	if err := fn(ctx); err != nil {
		tx.repo.restore(snap)
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Index and embedder doubles
// ---------------------------------------------------------------------------

// flakyIndex wraps a memory index and can fail writes on demand.
type flakyIndex struct {
	*memory.Index
	mu          sync.Mutex
	failUpsert  bool
	failDelete  bool
	upsertCalls int
}

func newFlakyIndex() *flakyIndex {
	return &flakyIndex{Index: memory.New(3)}
}

var errIndexDown = errors.New("index unavailable")

func (ix *flakyIndex) Upsert(ctx context.Context, records []domain.IndexedRecord) error {
	ix.mu.Lock()
	ix.upsertCalls++
	fail := ix.failUpsert
	ix.mu.Unlock()
	if fail {
		return errIndexDown
	}
	return ix.Index.Upsert(ctx, records)
}

func (ix *flakyIndex) Delete(ctx context.Context, id uuid.UUID) error {
	ix.mu.Lock()
	fail := ix.failDelete
	ix.mu.Unlock()
	if fail {
		return errIndexDown
	}
	return ix.Index.Delete(ctx, id)
}

// keywordEmbedder maps text onto three axes: hiking, cooking, and a bias.
type keywordEmbedder struct {
	mu    sync.Mutex
	calls []string
}

func (e *keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.calls = append(e.calls, text)
	e.mu.Unlock()

	lower := strings.ToLower(text)
	return []float32{
		float32(strings.Count(lower, "hik")),
		float32(strings.Count(lower, "cook")),
		0.1,
	}, nil
}

func (e *keywordEmbedder) Calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...)
}
