package domain

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Semester represents one term of the academic calendar as published by
// the campus portal. Rows are replaced wholesale on sync; a semester that
// is already referenced by a course is never touched again.
type Semester struct {
	ID    string // 32 hex characters, assigned by the portal
	Name  string
	Order int // portal sort ordinal, ascending from the oldest term
}

// Validate checks the portal id shape and the presence of a display name.
func (s Semester) Validate() error {
	err := validation.ValidateStruct(&s,
		validation.Field(&s.ID, validation.Required, validation.Length(32, 32)),
		validation.Field(&s.Name, validation.Required),
		validation.Field(&s.Order, validation.Min(0)),
	)
	if err != nil {
		return fmt.Errorf("%w: semester %q: %v", ErrInvariant, s.ID, err)
	}
	return nil
}
