package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SalesRecord is one sale of a product, owned by a single user.
type SalesRecord struct {
	ID          uuid.UUID
	UserID      string
	ProductName string
	Price       float64
	SoldAt      time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EmbeddingText renders the record as the sentence it is indexed under.
func (r SalesRecord) EmbeddingText() string {
	return fmt.Sprintf("product %s was sold for %s WON on %s",
		r.ProductName, FormatPrice(r.Price), r.SoldAt.UTC().Format(time.RFC3339))
}

// FormatPrice prints a price without trailing zeros.
func FormatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

// SalesRecordInput carries the writable fields of a sales record.
type SalesRecordInput struct {
	ProductName string
	Price       float64
	SoldAt      time.Time
}

func (i *SalesRecordInput) Normalize() {
	i.ProductName = strings.TrimSpace(i.ProductName)
}

func (i SalesRecordInput) Validate() error {
	var errs []FieldError
	if i.ProductName == "" {
		errs = append(errs, FieldError{Field: "product_name", Message: "required"})
	}
	if len(i.ProductName) > MaxProductNameLength {
		errs = append(errs, FieldError{Field: "product_name", Message: "too long"})
	}
	if i.Price < 0 || math.IsNaN(i.Price) || math.IsInf(i.Price, 0) {
		errs = append(errs, FieldError{Field: "price", Message: "must be a non-negative number"})
	}
	if i.SoldAt.IsZero() {
		errs = append(errs, FieldError{Field: "sold_at", Message: "required"})
	}
	if len(errs) > 0 {
		return NewValidationErrors(errs)
	}
	return nil
}

const MaxProductNameLength = 300
