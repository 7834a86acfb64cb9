package hosted

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/google/uuid"
	"github.com/openai/openai-go"

	"github.com/alkime/moodtales/internal/backend"
	"github.com/alkime/moodtales/internal/story"
)

const narrationMIMEType = "audio/mpeg"

// GenerateStory writes a story with Claude.
func (b *Backend) GenerateStory(ctx context.Context, req backend.StoryRequest) backend.Result[backend.Generated] {
	if len(req.Observations) == 0 {
		return backend.Fail[backend.Generated]("failed to generate story: no emotions")
	}

	params := anthropic.MessageNewParams{
		Model:     b.model,
		MaxTokens: 4096,
		System: []anthropic.TextBlockParam{
			{Text: StorySystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(storyPrompt(req.Observations, req.Prompt))),
		},
	}
	if t := req.Params.Temperature; t > 0 {
		params.Temperature = anthropic.Float(min(t, 1))
	}

	resp, err := b.anthropic.Messages.New(ctx, params)
	if err != nil {
		slog.Warn("hosted story generation failed", "error", err)
		return backend.Fail[backend.Generated](fmt.Sprintf("failed to generate story: %v", err))
	}

	text, err := firstText(resp.Content)
	if err != nil {
		return backend.Fail[backend.Generated](fmt.Sprintf("failed to generate story: %v", err))
	}

	return backend.Ok(backend.Generated{
		StoryID: uuid.NewString(),
		Story:   text,
	})
}

func firstText(content []anthropic.ContentBlockUnion) (string, error) {
	for _, block := range content {
		if textBlock, ok := block.AsAny().(anthropic.TextBlock); ok {
			if text := strings.TrimSpace(textBlock.Text); text != "" {
				return text, nil
			}
		}
	}

	return "", errors.New("empty response from Anthropic API")
}

var voiceByStyle = map[story.VoiceStyle]openai.AudioSpeechNewParamsVoice{
	story.VoiceNeutral: openai.AudioSpeechNewParamsVoiceAlloy,
	story.VoiceCalm:    openai.AudioSpeechNewParamsVoiceSage,
	story.VoiceJoyful:  openai.AudioSpeechNewParamsVoice("nova"),
	story.VoiceSad:     openai.AudioSpeechNewParamsVoice("fable"),
	story.VoiceAngry:   openai.AudioSpeechNewParamsVoice("onyx"),
	story.VoiceFearful: openai.AudioSpeechNewParamsVoiceShimmer,
	story.VoiceExcited: openai.AudioSpeechNewParamsVoiceCoral,
}

// SynthesizeSpeech narrates text with OpenAI text-to-speech. The voice is
// picked from the requested style.
func (b *Backend) SynthesizeSpeech(ctx context.Context, text string, params story.VoiceParams) backend.Result[backend.Audio] {
	voice, ok := voiceByStyle[params.Style]
	if !ok {
		voice = openai.AudioSpeechNewParamsVoiceAlloy
	}

	req := openai.AudioSpeechNewParams{
		Model:          openai.SpeechModelTTS1,
		Input:          text,
		Voice:          voice,
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	}
	if params.Speed > 0 {
		req.Speed = openai.Float(min(max(params.Speed, 0.25), 4))
	}

	resp, err := b.openai.Audio.Speech.New(ctx, req)
	if err != nil {
		slog.Warn("hosted speech synthesis failed", "error", err)
		return backend.Fail[backend.Audio](fmt.Sprintf("failed to synthesize speech: %v", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return backend.Fail[backend.Audio](fmt.Sprintf("failed to synthesize speech: %v", err))
	}
	if len(data) == 0 {
		return backend.Fail[backend.Audio]("failed to synthesize speech: empty audio")
	}

	return backend.Ok(backend.Audio{Data: data, MIMEType: narrationMIMEType})
}

// GenerateMusic always fails: none of the hosted services generate music.
// The creation flow treats that as a warning.
func (b *Backend) GenerateMusic(_ context.Context, _ story.MusicParams, _ int) backend.Result[backend.Audio] {
	return backend.Fail[backend.Audio]("music generation is not available in hosted mode")
}
