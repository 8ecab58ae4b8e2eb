// Package memory is an in-process vector index using brute-force cosine
// similarity. It backs tests and single-node development setups.
package memory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/heartmarshall/notes-assistant-backend/internal/domain"
)

type entry struct {
	vector   []float32
	norm     float64
	metadata map[string]string
}

// Index is safe for concurrent use.
type Index struct {
	mu         sync.RWMutex
	dimensions int
	entries    map[uuid.UUID]entry
}

// New creates an empty index. Zero dimensions disables the length check.
func New(dimensions int) *Index {
	return &Index{dimensions: dimensions, entries: make(map[uuid.UUID]entry)}
}

func (ix *Index) Upsert(_ context.Context, records []domain.IndexedRecord) error {
	for _, rec := range records {
		if err := ix.checkDims(rec.Vector); err != nil {
			return fmt.Errorf("vector %s: %w", rec.ID, err)
		}
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	for _, rec := range records {
		vec := make([]float32, len(rec.Vector))
		copy(vec, rec.Vector)
		ix.entries[rec.ID] = entry{
			vector:   vec,
			norm:     norm(vec),
			metadata: stringify(rec.Metadata),
		}
	}
	return nil
}

func (ix *Index) Query(_ context.Context, q domain.VectorQuery) ([]domain.VectorMatch, error) {
	if err := ix.checkDims(q.Vector); err != nil {
		return nil, err
	}
	if q.TopK <= 0 {
		return []domain.VectorMatch{}, nil
	}
	qn := norm(q.Vector)

	ix.mu.RLock()
	matches := make([]domain.VectorMatch, 0, len(ix.entries))
	for id, e := range ix.entries {
		if !matchesFilter(e.metadata, q.Filter) {
			continue
		}
		matches = append(matches, domain.VectorMatch{ID: id, Score: cosine(q.Vector, qn, e.vector, e.norm)})
	}
	ix.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID.String() < matches[j].ID.String()
	})
	if len(matches) > q.TopK {
		matches = matches[:q.TopK]
	}
	return matches, nil
}

func (ix *Index) Delete(_ context.Context, id uuid.UUID) error {
	ix.mu.Lock()
	delete(ix.entries, id)
	ix.mu.Unlock()
	return nil
}

// Len returns the number of stored entries.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

func (ix *Index) checkDims(v []float32) error {
	if len(v) == 0 {
		return errors.New("empty vector")
	}
	if ix.dimensions > 0 && len(v) != ix.dimensions {
		return fmt.Errorf("vector dimension mismatch: got %d, want %d", len(v), ix.dimensions)
	}
	return nil
}

func matchesFilter(meta, filter map[string]string) bool {
	for k, v := range filter {
		if meta[k] != v {
			return false
		}
	}
	return true
}

func stringify(meta map[string]any) map[string]string {
	out := make(map[string]string, len(meta))
	for k, v := range meta {
		if s, ok := v.(string); ok {
			out[k] = s
			continue
		}
		out[k] = fmt.Sprint(v)
	}
	return out
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosine(a []float32, an float64, b []float32, bn float64) float32 {
	if an == 0 || bn == 0 {
		return 0
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	return float32(dot / (an * bn))
}
