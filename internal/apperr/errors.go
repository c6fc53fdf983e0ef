// Package apperr defines sentinel errors shared across layers.
package apperr

import "errors"

var (
	// ErrNotFound is returned when a reference resolves to nothing.
	ErrNotFound = errors.New("not found")
	// ErrNotExecutable is returned when a context request resolves to a
	// node that is neither an operation nor a section.
	ErrNotExecutable = errors.New("reference is not an operation or section")
	// ErrDuplicateDoc is returned when two files normalize to the same
	// document id.
	ErrDuplicateDoc = errors.New("duplicate document id")
	// ErrExtendsCycle is returned when the inheritance graph contains a
	// cycle.
	ErrExtendsCycle = errors.New("extends cycle")
)
