package domain

import (
	"time"

	"github.com/google/uuid"
)

// IndexedRecord is one entry of the vector index. ID is the primary key
// of the relational row it was derived from.
type IndexedRecord struct {
	ID       uuid.UUID
	Vector   []float32
	Metadata map[string]any
}

// VectorQuery is a nearest-neighbour search. Filter entries are ANDed
// equality matches on metadata keys.
type VectorQuery struct {
	Vector []float32
	TopK   int
	Filter map[string]string
}

// VectorMatch is one search hit.
type VectorMatch struct {
	ID    uuid.UUID
	Score float32
}

// DateRange bounds record timestamps. Either side may be nil.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

func (r *DateRange) IsEmpty() bool {
	return r == nil || (r.From == nil && r.To == nil)
}
