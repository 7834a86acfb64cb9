package workdir_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alkime/moodtales/internal/workdir"
)

func TestPaths(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	root, err := workdir.Root()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "Documents", "MoodTales"), root)

	lib, err := workdir.LibraryPath("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "library"), lib)

	lib, err = workdir.LibraryPath("/srv/stories")
	require.NoError(t, err)
	assert.Equal(t, "/srv/stories", lib)

	logPath, err := workdir.LogPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "moodtales.log"), logPath)
}

func TestStoryPath(t *testing.T) {
	t.Parallel()

	p, err := workdir.StoryPath("/lib", "abc-123")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/lib", "abc-123"), p)

	for _, bad := range []string{"", "..", "../etc", "a/b"} {
		_, err := workdir.StoryPath("/lib", bad)
		assert.Error(t, err, bad)
	}
}

func TestOpenLog(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	f, err := workdir.OpenLog()
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	_, err = f.WriteString("hello\n")
	require.NoError(t, err)

	path, _ := workdir.LogPath()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
}
