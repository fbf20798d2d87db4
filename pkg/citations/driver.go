package citations

import (
	"context"
	"fmt"
)

// Driver is the citation store contract consumed by the effects dispatcher.
// Implementations must tolerate concurrent reads and writes from independent
// decode sessions; last write wins, no transactional guarantee is required.
type Driver interface {
	// Find resolves a citation by id, searching the active library first,
	// then all libraries, then the legacy flat list. Returns NotFoundError
	// when the id is unknown anywhere.
	Find(ctx context.Context, id string) (*Citation, error)

	// BulkAdd inserts citations into the given library, creating the
	// library on first use. Existing ids are overwritten.
	BulkAdd(ctx context.Context, libraryID string, cites []Citation) error

	// Replace swaps a library's citations wholesale. Used by the reloader
	// when reconciling against backend storage.
	Replace(ctx context.Context, libraryID string, cites []Citation) error

	// SetActive marks the library searched first by Find.
	SetActive(ctx context.Context, libraryID string) error
}

// NotFoundError indicates a citation id missing from every library and the
// legacy list.
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("citation not found: %s", e.ID)
}
