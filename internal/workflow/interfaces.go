package workflow

import (
	"context"

	"github.com/alkime/moodtales/internal/backend"
	"github.com/alkime/moodtales/internal/media"
	"github.com/alkime/moodtales/internal/story"
)

// Backend is the subset of backend operations the creation flow uses.
type Backend interface {
	AnalyzeAudio(ctx context.Context, clip []byte, filename string) backend.Result[backend.Analysis]
	GenerateStory(ctx context.Context, req backend.StoryRequest) backend.Result[backend.Generated]
	SynthesizeSpeech(ctx context.Context, text string, params story.VoiceParams) backend.Result[backend.Audio]
	GenerateMusic(ctx context.Context, params story.MusicParams, seconds int) backend.Result[backend.Audio]
}

// Scopes hands out a fresh resource scope per run.
type Scopes interface {
	NewScope() *media.Scope
}
