package domain

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// SyncMode controls how much of a course the mirror keeps locally.
// The values are stored verbatim in the cache:
// 0: Disabled (course is listed but never synced)
// 1: Manual (synced only on explicit request)
// 2: Automatic (metadata synced on every run)
// 3: Full (metadata and file contents synced on every run)
type SyncMode int

const (
	SyncDisabled SyncMode = iota
	SyncManual
	SyncAutomatic
	SyncFull
)

// Valid reports whether m is one of the declared modes.
func (m SyncMode) Valid() bool {
	return m >= SyncDisabled && m <= SyncFull
}

func (m SyncMode) String() string {
	switch m {
	case SyncDisabled:
		return "disabled"
	case SyncManual:
		return "manual"
	case SyncAutomatic:
		return "automatic"
	case SyncFull:
		return "full"
	}
	return fmt.Sprintf("sync(%d)", int(m))
}

// ParseSyncMode maps a mode name back to its value.
func ParseSyncMode(s string) (SyncMode, error) {
	for m := SyncDisabled; m <= SyncFull; m++ {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: sync mode %q", ErrInvalidEnum, s)
}

// Course represents one course offering within a semester. Every course
// owns exactly one root folder under which its files are organized.
type Course struct {
	ID         string // opaque portal id
	Semester   string // id of the owning semester
	Number     string // catalog number shown by the portal, may be empty
	Name       string
	Abbrev     string // optional override, see EffectiveAbbrev
	Type       string // lecture, seminar and so on, portal wording
	TypeAbbrev string // optional override, see EffectiveTypeAbbrev
	Sync       SyncMode
	Root       int64 // id of the root folder, 0 until the store assigns one
}

// EffectiveAbbrev returns the stored abbreviation, or one derived from
// the course name when none was set.
func (c Course) EffectiveAbbrev() string {
	if c.Abbrev != "" {
		return c.Abbrev
	}
	return AbbreviateName(c.Name)
}

// EffectiveTypeAbbrev returns the stored type abbreviation, or one
// derived from the course type when none was set.
func (c Course) EffectiveTypeAbbrev() string {
	if c.TypeAbbrev != "" {
		return c.TypeAbbrev
	}
	return AbbreviateType(c.Type)
}

// Validate checks the fields a course row must always carry. The root
// folder is checked separately by the store because it may legitimately
// be zero before insertion.
func (c Course) Validate() error {
	if !c.Sync.Valid() {
		return fmt.Errorf("%w: sync mode %d", ErrInvalidEnum, c.Sync)
	}
	err := validation.ValidateStruct(&c,
		validation.Field(&c.ID, validation.Required),
		validation.Field(&c.Semester, validation.Required),
		validation.Field(&c.Name, validation.Required),
	)
	if err != nil {
		return fmt.Errorf("%w: course %q: %v", ErrInvariant, c.ID, err)
	}
	return nil
}
