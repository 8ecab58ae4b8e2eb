package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Note is a short free-text note owned by a single user.
type Note struct {
	ID        uuid.UUID
	UserID    string
	Title     string
	Content   *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EmbeddingText is the text the note is indexed under.
func (n Note) EmbeddingText() string {
	content := ""
	if n.Content != nil {
		content = *n.Content
	}
	return n.Title + "\n\n" + content
}

// NoteInput carries the writable fields of a note.
type NoteInput struct {
	Title   string
	Content *string
}

func (i *NoteInput) Normalize() {
	i.Title = strings.TrimSpace(i.Title)
	if i.Content != nil {
		c := strings.TrimSpace(*i.Content)
		if c == "" {
			i.Content = nil
		} else {
			i.Content = &c
		}
	}
}

func (i NoteInput) Validate() error {
	var errs []FieldError
	if i.Title == "" {
		errs = append(errs, FieldError{Field: "title", Message: "required"})
	}
	if len(i.Title) > MaxNoteTitleLength {
		errs = append(errs, FieldError{Field: "title", Message: "too long"})
	}
	if i.Content != nil && len(*i.Content) > MaxNoteContentLength {
		errs = append(errs, FieldError{Field: "content", Message: "too long"})
	}
	if len(errs) > 0 {
		return NewValidationErrors(errs)
	}
	return nil
}

const (
	MaxNoteTitleLength   = 500
	MaxNoteContentLength = 20000
)
