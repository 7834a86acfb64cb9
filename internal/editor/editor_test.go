package editor_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alkime/moodtales/internal/editor"
)

// fakeEditor writes a script that appends text to the file it is given.
func fakeEditor(t *testing.T, text string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fake-editor")
	script := "#!/bin/sh\nprintf '%s\\n' '" + text + "' >> \"$1\"\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o700)) //nolint:gosec // executable test script

	return path
}

func TestCommand(t *testing.T) {
	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", "")
	assert.Equal(t, "vi", editor.Command())

	t.Setenv("EDITOR", "nano")
	assert.Equal(t, "nano", editor.Command())

	t.Setenv("VISUAL", "code --wait")
	assert.Equal(t, "code --wait", editor.Command())
}

func TestCompose(t *testing.T) {
	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", fakeEditor(t, "the storm finally breaks"))

	text, err := editor.Compose("What happens next?\nLines starting with # are ignored.")
	require.NoError(t, err)
	assert.Equal(t, "the storm finally breaks", text)
}

func TestCompose_NothingWritten(t *testing.T) {
	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", "true")

	text, err := editor.Compose("What happens next?")
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestCompose_EditorFails(t *testing.T) {
	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", "false")

	_, err := editor.Compose("hint")
	require.ErrorContains(t, err, `editor "false"`)
}
