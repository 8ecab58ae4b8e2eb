package note

import (
	"github.com/google/uuid"

	"github.com/heartmarshall/notes-assistant-backend/internal/domain"
)

// UpdateInput replaces the title and content of an existing note.
type UpdateInput struct {
	ID uuid.UUID
	domain.NoteInput
}

func (i UpdateInput) Validate() error {
	if i.ID == uuid.Nil {
		return domain.NewValidationError("id", "required")
	}
	return i.NoteInput.Validate()
}

// ListInput pages through the user's notes, newest first.
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
