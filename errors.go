package memvec

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a vector ID does not exist within the
	// queried namespace.
	ErrNotFound = errors.New("not found")

	// ErrEmptyVector is returned when an embedding has no components.
	ErrEmptyVector = errors.New("embedding cannot be empty")

	// ErrZeroVector is returned when an embedding has zero magnitude, for
	// which cosine similarity is undefined.
	ErrZeroVector = errors.New("embedding cannot have zero magnitude")

	// ErrClosed is returned when operating on a closed store.
	ErrClosed = errors.New("store is closed")
)

// DuplicateIDError indicates an insert collided with an existing vector ID
// and upsert semantics were not requested. This is a state conflict, not a
// malformed request; callers typically map it to a conflict response.
type DuplicateIDError struct {
	Namespace string
	ID        string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("vector %q already exists in namespace %q", e.ID, e.Namespace)
}

// NamespaceError indicates a namespace string failed validation.
type NamespaceError struct {
	Raw    string
	Reason string
}

func (e *NamespaceError) Error() string {
	return fmt.Sprintf("invalid namespace %q: %s", e.Raw, e.Reason)
}
