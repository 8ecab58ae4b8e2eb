package sales

import (
	"github.com/google/uuid"

	"github.com/heartmarshall/notes-assistant-backend/internal/domain"
)

// UpdateInput replaces every writable field of a sales record.
type UpdateInput struct {
	ID uuid.UUID
	domain.SalesRecordInput
}

func (i UpdateInput) Validate() error {
	if i.ID == uuid.Nil {
		return domain.NewValidationError("id", "required")
	}
	return i.SalesRecordInput.Validate()
}

// ListInput pages through the user's sales, most recent sale first.
type ListInput struct {
	Limit  int
	Offset int
}

func (i ListInput) Validate() error {
	var errs []domain.FieldError
	if i.Limit < 0 {
		errs = append(errs, domain.FieldError{Field: "limit", Message: "must be non-negative"})
	}
	if i.Limit > MaxLimit {
		errs = append(errs, domain.FieldError{Field: "limit", Message: "max 200"})
	}
	if i.Offset < 0 {
		errs = append(errs, domain.FieldError{Field: "offset", Message: "must be non-negative"})
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}
