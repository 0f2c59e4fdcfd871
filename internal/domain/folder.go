package domain

import "fmt"

// Folder is one node of a course's folder tree. Exactly one shape is
// legal for the root of each tree: both Name and Parent unset. Every
// other folder carries both.
type Folder struct {
	ID     int64
	Name   *string
	Parent *int64
}

// IsRoot reports whether f has the root shape.
func (f Folder) IsRoot() bool {
	return f.Name == nil && f.Parent == nil
}

// Validate rejects the two half-set shapes that would make ancestry
// walks ambiguous.
func (f Folder) Validate() error {
	if (f.Name == nil) != (f.Parent == nil) {
		return fmt.Errorf("%w: folder name and parent must be set together", ErrInvariant)
	}
	if f.Name != nil && *f.Name == "" {
		return fmt.Errorf("%w: folder name must not be empty", ErrInvariant)
	}
	return nil
}
