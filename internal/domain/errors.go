package domain

import "errors"

// Sentinel errors returned by the store and its collaborators. Callers
// classify failures with errors.Is; the wrapped message carries the
// offending ids and values.
var (
	// ErrInvariant reports a record that violates a structural rule,
	// such as a folder with a name but no parent.
	ErrInvariant = errors.New("invariant violation")

	// ErrInvalidEnum reports a sync mode, escape mode or charset
	// outside its declared range.
	ErrInvalidEnum = errors.New("invalid enum value")

	// ErrInvalidBase reports a view base directory that is empty or
	// would escape the sync root.
	ErrInvalidBase = errors.New("invalid view base")

	// ErrReferential reports a write that would dangle a reference,
	// such as deleting a folder that still has children.
	ErrReferential = errors.New("referential integrity violation")

	// ErrCycle reports a folder that is its own ancestor. Derived
	// path and timestamp computations refuse to produce results for
	// a corrupted tree.
	ErrCycle = errors.New("folder cycle detected")

	// ErrConflict reports an insert whose id is already taken.
	ErrConflict = errors.New("record already exists")

	// ErrNotFound reports a lookup for a row that does not exist.
	ErrNotFound = errors.New("record not found")
)
