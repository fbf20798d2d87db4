package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	libraryFile = "library.json"
)

// LibraryState represents the persisted citation library selection. Decode
// sessions read it to mark the active library in the citation store so
// addCitation lookups search the right library first.
type LibraryState struct {
	// ActiveLibraryID is the id of the library the user is working in.
	ActiveLibraryID string `json:"active_library_id"`

	// ProjectID is the project the active library belongs to. Used to
	// trigger backend reloads.
	ProjectID string `json:"project_id,omitempty"`

	// Libraries are the known libraries, newest first.
	Libraries []LibraryRef `json:"libraries,omitempty"`
}

// LibraryRef is a known library.
type LibraryRef struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// LoadLibraryState loads the library state from a target .vellum/library.json.
// Returns nil, nil if no state exists yet.
// If overrideDir is non-empty, it is used instead of the default location.
func (m *Manager) LoadLibraryState(overrideDir string) (*LibraryState, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return nil, nil
	}

	path := filepath.Join(dir, libraryFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading library state: %w", err)
	}

	state := &LibraryState{}
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing library state: %w", err)
	}

	return state, nil
}

// SaveLibraryState persists the library state to a target .vellum/library.json.
func (m *Manager) SaveLibraryState(state *LibraryState, overrideDir string) error {
	if state == nil {
		return errors.New("cannot save nil library state")
	}

	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}
	if dir == "" {
		return errors.New("no .vellum directory resolved")
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling library state: %w", err)
	}

	path := filepath.Join(dir, libraryFile)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing library state: %w", err)
	}

	return nil
}

// ClearLibraryState removes the library state file.
// Returns nil if the file doesn't exist (already cleared).
func (m *Manager) ClearLibraryState(overrideDir string) error {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}
	if dir == "" {
		return nil
	}

	path := filepath.Join(dir, libraryFile)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("removing library state: %w", err)
	}

	return nil
}
