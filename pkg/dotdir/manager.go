// Package dotdir manages the .vellum/ and ~/.vellum directories.
//
// Besides config.toml, the directory holds the persisted library state: the
// citation library the user has made active, which decode sessions use to
// seed the citation store before the stream starts.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// dirName is the name of the vellum directory.
	dirName = ".vellum"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the target absolute path to a .vellum/ directory.
// Order of precedence is as follows:
//  1. Provided override (created if missing)
//  2. Local ./.vellum/ dir
//  3. Home ~/.vellum/ dir
//
// When none of the three exists, Target returns an empty string; callers
// fall back to defaults and surface a clear error on writes.
func (m *Manager) Target(overrideDir string) (string, error) {
	if overrideDir != "" {
		if err := os.MkdirAll(overrideDir, 0o755); err != nil {
			return "", fmt.Errorf("creating vellum directory %s: %w", overrideDir, err)
		}
		return filepath.Abs(overrideDir)
	}

	if dir, ok := m.localDir(); ok {
		return filepath.Abs(dir)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	dir := filepath.Join(home, dirName)
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return filepath.Abs(dir)
	}

	return "", nil
}

// localDir returns the .vellum/ directory in the current working directory,
// if one exists.
func (m *Manager) localDir() (string, bool) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", false
	}

	dir := filepath.Join(cwd, dirName)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", false
	}
	return dir, true
}
