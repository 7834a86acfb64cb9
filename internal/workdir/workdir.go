// Package workdir locates the files moodtales keeps on disk: the log file
// and the library of downloaded stories.
package workdir

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const logFileName = "moodtales.log"

// Root returns the base directory for all moodtales files.
// The path is expanded at runtime to resolve to:
//
//	$HOME/Documents/MoodTales
func Root() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, "Documents", "MoodTales"), nil
}

// LibraryPath returns the library directory. override wins when non-empty.
func LibraryPath(override string) (string, error) {
	if override != "" {
		return override, nil
	}

	root, err := Root()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "library"), nil
}

// StoryPath returns the directory for one downloaded story inside library.
func StoryPath(library, storyID string) (string, error) {
	name := filepath.Base(filepath.Clean("/" + storyID))
	if name == "/" || name == "." || strings.ContainsAny(storyID, `/\`) {
		return "", fmt.Errorf("invalid story id %q", storyID)
	}
	return filepath.Join(library, name), nil
}

// LogPath returns the log file the TUI writes to.
func LogPath() (string, error) {
	root, err := Root()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, logFileName), nil
}

// Prep ensures that dir exists.
func Prep(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	return nil
}

// OpenLog creates the root directory if needed and opens the log file for
// appending.
func OpenLog() (*os.File, error) {
	path, err := LogPath()
	if err != nil {
		return nil, err
	}

	if err := Prep(filepath.Dir(path)); err != nil {
		return nil, err
	}

	//nolint:gosec // log file path is derived from the home directory
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	return f, nil
}
