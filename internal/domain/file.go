package domain

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// File represents one document stored in a course folder. RemoteDate is
// the portal's modification time; LocalDate is set once the mirror has
// downloaded the content and stays nil until then. Version counts
// remote-side changes observed since the file was first seen.
type File struct {
	ID          string // opaque portal id
	Folder      int64
	Name        string
	Extension   string // without the leading dot, empty when absent
	Author      string
	Description string
	RemoteDate  time.Time
	Copyrighted bool
	LocalDate   *time.Time
	Version     int
}

// Validate checks the fields a file row must always carry.
func (f File) Validate() error {
	err := validation.ValidateStruct(&f,
		validation.Field(&f.ID, validation.Required),
		validation.Field(&f.Folder, validation.Required),
		validation.Field(&f.Name, validation.Required),
		validation.Field(&f.RemoteDate, validation.Required),
	)
	if err != nil {
		return fmt.Errorf("%w: file %q: %v", ErrInvariant, f.ID, err)
	}
	return nil
}
