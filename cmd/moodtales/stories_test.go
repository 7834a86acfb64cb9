package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alkime/moodtales/internal/backend"
	"github.com/alkime/moodtales/internal/emotion"
	"github.com/alkime/moodtales/internal/story"
)

type fakeFetcher struct {
	mu     sync.Mutex
	assets map[string]backend.Result[backend.Audio]
	paths  []string
}

func (f *fakeFetcher) DownloadAudio(_ context.Context, path string) backend.Result[backend.Audio] {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.paths = append(f.paths, path)
	if res, ok := f.assets[path]; ok {
		return res
	}

	return backend.Fail[backend.Audio]("not found")
}

func sampleStory() story.Story {
	return story.Story{
		ID:            "abc",
		Text:          "  Once upon a time.  ",
		Emotion:       emotion.Aggregated{Dominant: emotion.Joy, Intensity: 0.75},
		CreatedAt:     story.Timestamp{Time: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)},
		UserInput:     "a lighthouse",
		NarrationPath: "/static/audio/abc_narration.mp3",
		MusicPath:     "/static/audio/abc_music",
	}
}

func TestSaveStory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "abc")
	fetcher := &fakeFetcher{assets: map[string]backend.Result[backend.Audio]{
		"/static/audio/abc_narration.mp3": backend.Ok(backend.Audio{Data: []byte("voice"), MIMEType: "audio/mpeg"}),
		"/static/audio/abc_music":         backend.Ok(backend.Audio{Data: []byte("tune!!"), MIMEType: "audio/wav"}),
	}}

	saved, err := saveStory(t.Context(), fetcher, sampleStory(), dir)
	require.NoError(t, err)

	names := make([]string, 0, len(saved))
	for _, f := range saved {
		names = append(names, f.name)
	}
	assert.Equal(t, []string{"story.json", "story.txt", "narration.mp3", "music.wav"}, names)
	assert.ElementsMatch(t, []string{"/static/audio/abc_narration.mp3", "/static/audio/abc_music"}, fetcher.paths)

	text, err := os.ReadFile(filepath.Join(dir, "story.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Once upon a time.\n", string(text))

	raw, err := os.ReadFile(filepath.Join(dir, "story.json"))
	require.NoError(t, err)
	var back story.Story
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, "abc", back.ID)
	assert.Equal(t, emotion.Joy, back.Emotion.Dominant)

	music, err := os.ReadFile(filepath.Join(dir, "music.wav"))
	require.NoError(t, err)
	assert.Equal(t, "tune!!", string(music))
}

func TestSaveStoryFailedDownload(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "abc")
	fetcher := &fakeFetcher{assets: map[string]backend.Result[backend.Audio]{
		"/static/audio/abc_narration.mp3": backend.Ok(backend.Audio{Data: []byte("voice")}),
	}}

	_, err := saveStory(t.Context(), fetcher, sampleStory(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "music: not found")

	_, statErr := os.Stat(filepath.Join(dir, "narration.mp3"))
	assert.True(t, os.IsNotExist(statErr), "nothing written when a download fails")
}

func TestAudioExt(t *testing.T) {
	tests := []struct {
		path, mime, want string
	}{
		{"/a/narration.mp3", "", ".mp3"},
		{"/a/narration.wav?v=2", "audio/mpeg", ".wav"},
		{"/a/music", "audio/mpeg", ".mp3"},
		{"/a/music", "audio/x-wav", ".wav"},
		{"/a/music", "audio/ogg", ".ogg"},
		{"/a/music", "", ".bin"},
	}

	for _, tt := range tests {
		t.Run(tt.path+"|"+tt.mime, func(t *testing.T) {
			assert.Equal(t, tt.want, audioExt(tt.path, tt.mime))
		})
	}
}

func TestListFilters(t *testing.T) {
	cmd := ListStoriesCmd{Emotion: "Joy", From: "2025-01-01", To: "2025-02-01", Search: "dragon"}

	f, err := cmd.filters()
	require.NoError(t, err)
	assert.Equal(t, emotion.Joy, f.Emotion)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), f.DateFrom)
	assert.Equal(t, "dragon", f.Search)

	_, err = (&ListStoriesCmd{Emotion: "boredom"}).filters()
	require.Error(t, err)

	_, err = (&ListStoriesCmd{From: "01/02/2025"}).filters()
	require.ErrorContains(t, err, "--from")

	_, err = (&ListStoriesCmd{From: "2025-02-01", To: "2025-01-01"}).filters()
	require.ErrorContains(t, err, "before")
}

func TestRenderStories(t *testing.T) {
	s := sampleStory()
	out := renderStories([]story.Story{s}, s.CreatedAt.Add(3*time.Hour))

	assert.Contains(t, out, "abc")
	assert.Contains(t, out, "3 hours ago")
	assert.Contains(t, out, "Joy")
	assert.Contains(t, out, "Once upon a time.")
}

func TestFormatStory(t *testing.T) {
	out := formatStory(sampleStory(), func(p string) string { return "http://api" + p })

	assert.Contains(t, out, "Story abc\n")
	assert.Contains(t, out, "Emotion:   Joy (intensity 75%)")
	assert.Contains(t, out, "Prompt:    a lighthouse")
	assert.Contains(t, out, "Narration: http://api/static/audio/abc_narration.mp3")
	assert.NotContains(t, out, "Recording:")
	assert.Contains(t, out, "\nOnce upon a time.\n")
}
