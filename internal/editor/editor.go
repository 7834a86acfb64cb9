// Package editor lets the user write longer text in their own editor.
package editor

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// commentPrefix marks instruction lines that are dropped from the result.
const commentPrefix = "#"

// Command returns the user's editor, from $VISUAL, then $EDITOR, then vi.
func Command() string {
	for _, env := range []string{"VISUAL", "EDITOR"} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return v
		}
	}

	return "vi"
}

// Open opens path in the user's editor attached to the terminal.
func Open(path string) error {
	name := Command()
	slog.Debug("Opening file in editor", "editor", name, "path", path)

	// $EDITOR may carry flags, e.g. "code --wait"
	fields := strings.Fields(name)
	//nolint:gosec // the user's own editor setting
	cmd := exec.Command(fields[0], append(fields[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to run editor %q: %w", name, err)
	}

	return nil
}

// Compose opens a scratch file holding hint as comment lines and returns
// what the user wrote, without the comments and trimmed.
func Compose(hint string) (string, error) {
	f, err := os.CreateTemp("", "moodtales-*.txt")
	if err != nil {
		return "", fmt.Errorf("failed to create scratch file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	var header strings.Builder
	header.WriteString("\n")
	for line := range strings.Lines(hint) {
		header.WriteString(commentPrefix + " " + strings.TrimRight(line, "\n") + "\n")
	}
	if _, err := f.WriteString(header.String()); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write scratch file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write scratch file: %w", err)
	}

	if err := Open(path); err != nil {
		return "", err
	}

	return readWithoutComments(path)
}

func readWithoutComments(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // scratch file created by Compose
	if err != nil {
		return "", fmt.Errorf("failed to read scratch file: %w", err)
	}
	defer f.Close()

	var kept []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if strings.HasPrefix(strings.TrimSpace(sc.Text()), commentPrefix) {
			continue
		}
		kept = append(kept, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("failed to read scratch file: %w", err)
	}

	return strings.TrimSpace(strings.Join(kept, "\n")), nil
}
