// Package inmemory provides a map-backed citation store driver.
package inmemory

import (
	"context"
	"errors"
	"sync"

	"github.com/scriptoriumco/vellum/pkg/citations"
)

// Driver implements citations.Driver using in-memory maps.
type Driver struct {
	// mu guards all fields below. Decode sessions read and write
	// concurrently; last write wins.
	mu sync.RWMutex

	// libraries maps library id to its citations in insertion order.
	libraries map[string][]citations.Citation

	// activeID is the library Find searches first.
	activeID string

	// legacy is the flat citation list predating libraries.
	legacy []citations.Citation
}

// NewDriver creates an empty in-memory citation store.
func NewDriver() *Driver {
	return &Driver{
		libraries: make(map[string][]citations.Citation),
	}
}

// Find resolves id against the active library, then all libraries, then the
// legacy flat list.
func (d *Driver) Find(_ context.Context, id string) (*citations.Citation, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.activeID != "" {
		if c := findIn(d.libraries[d.activeID], id); c != nil {
			return c, nil
		}
	}

	for libID, cites := range d.libraries {
		if libID == d.activeID {
			continue
		}
		if c := findIn(cites, id); c != nil {
			return c, nil
		}
	}

	if c := findIn(d.legacy, id); c != nil {
		return c, nil
	}

	return nil, citations.NotFoundError{ID: id}
}

// BulkAdd inserts citations into a library, overwriting entries that share
// an id.
func (d *Driver) BulkAdd(_ context.Context, libraryID string, cites []citations.Citation) error {
	if libraryID == "" {
		return errors.New("library id is required")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	existing := d.libraries[libraryID]
	for _, c := range cites {
		c.LibraryID = libraryID
		if i := indexOf(existing, c.ID); i >= 0 {
			existing[i] = c
		} else {
			existing = append(existing, c)
		}
	}
	d.libraries[libraryID] = existing
	return nil
}

// Replace swaps a library's citations wholesale.
func (d *Driver) Replace(_ context.Context, libraryID string, cites []citations.Citation) error {
	if libraryID == "" {
		return errors.New("library id is required")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	fresh := make([]citations.Citation, len(cites))
	for i, c := range cites {
		c.LibraryID = libraryID
		fresh[i] = c
	}
	d.libraries[libraryID] = fresh
	return nil
}

// SetActive marks the library Find searches first.
func (d *Driver) SetActive(_ context.Context, libraryID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.activeID = libraryID
	return nil
}

// AddLegacy appends entries to the legacy flat list. Kept for data imported
// from before libraries existed.
func (d *Driver) AddLegacy(_ context.Context, cites ...citations.Citation) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.legacy = append(d.legacy, cites...)
	return nil
}

func findIn(cites []citations.Citation, id string) *citations.Citation {
	if i := indexOf(cites, id); i >= 0 {
		c := cites[i]
		return &c
	}
	return nil
}

func indexOf(cites []citations.Citation, id string) int {
	for i := range cites {
		if cites[i].ID == id {
			return i
		}
	}
	return -1
}
