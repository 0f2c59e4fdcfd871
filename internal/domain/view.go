package domain

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// EscapeMode selects how characters that are hostile to filesystems are
// rewritten when a file name is rendered:
// 0: Similar (replace with lookalike characters)
// 1: Typeable (replace with plain dashes and underscores)
// 2: CamelCase (drop separators, capitalize word starts)
// 3: SnakeCase (lowercase, separators become underscores)
type EscapeMode int

const (
	EscapeSimilar EscapeMode = iota
	EscapeTypeable
	EscapeCamelCase
	EscapeSnakeCase
)

// Valid reports whether m is one of the declared modes.
func (m EscapeMode) Valid() bool {
	return m >= EscapeSimilar && m <= EscapeSnakeCase
}

func (m EscapeMode) String() string {
	switch m {
	case EscapeSimilar:
		return "similar"
	case EscapeTypeable:
		return "typeable"
	case EscapeCamelCase:
		return "camelcase"
	case EscapeSnakeCase:
		return "snakecase"
	}
	return fmt.Sprintf("escape(%d)", int(m))
}

// ParseEscapeMode maps a mode name back to its value.
func ParseEscapeMode(s string) (EscapeMode, error) {
	for m := EscapeSimilar; m <= EscapeSnakeCase; m++ {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: escape mode %q", ErrInvalidEnum, s)
}

// Charset restricts the characters a rendered name may contain:
// 0: Unicode (anything goes)
// 1: ASCII (transliterate umlauts, replace the rest)
// 2: Identifier (letters, digits and underscores only)
type Charset int

const (
	CharsetUnicode Charset = iota
	CharsetASCII
	CharsetIdentifier
)

// Valid reports whether c is one of the declared charsets.
func (c Charset) Valid() bool {
	return c >= CharsetUnicode && c <= CharsetIdentifier
}

func (c Charset) String() string {
	switch c {
	case CharsetUnicode:
		return "unicode"
	case CharsetASCII:
		return "ascii"
	case CharsetIdentifier:
		return "identifier"
	}
	return fmt.Sprintf("charset(%d)", int(c))
}

// ParseCharset maps a charset name back to its value.
func ParseCharset(s string) (Charset, error) {
	for c := CharsetUnicode; c <= CharsetIdentifier; c++ {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: charset %q", ErrInvalidEnum, s)
}

// DefaultFormat is the layout template of the view created on a fresh
// cache. Tokens are documented in the render package.
const DefaultFormat = "{course}/{type}/{short-path}/{name}{ext}"

// View represents one materialization layout. Format is a template with
// {token} placeholders, Base the directory under the sync root that the
// rendered paths are joined onto. Which files a view has materialized is
// tracked per view in the checkouts table.
type View struct {
	ID      int64
	Name    string
	Format  string
	Base    string
	Escape  EscapeMode
	Charset Charset
}

// Validate checks name, base and the two enum fields. Bases that are
// empty or would resolve outside the sync root are rejected.
func (v View) Validate() error {
	switch v.Base {
	case "", ".", "..":
		return fmt.Errorf("%w: %q", ErrInvalidBase, v.Base)
	}
	if !v.Escape.Valid() {
		return fmt.Errorf("%w: escape mode %d", ErrInvalidEnum, v.Escape)
	}
	if !v.Charset.Valid() {
		return fmt.Errorf("%w: charset %d", ErrInvalidEnum, v.Charset)
	}
	err := validation.ValidateStruct(&v,
		validation.Field(&v.Name, validation.Required),
		validation.Field(&v.Format, validation.Required),
	)
	if err != nil {
		return fmt.Errorf("%w: view %q: %v", ErrInvariant, v.Name, err)
	}
	return nil
}
