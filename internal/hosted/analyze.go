package hosted

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"

	"github.com/alkime/moodtales/internal/backend"
	"github.com/alkime/moodtales/internal/emotion"
)

const emotionToolName = "record_emotions"

// namedReader gives the upload a file name so Whisper can detect the format.
type namedReader struct {
	*bytes.Reader
	name string
}

func (n namedReader) Name() string { return n.name }

type emotionToolInput struct {
	Emotions []struct {
		Emotion   emotion.Category `json:"emotion"`
		Intensity float64          `json:"intensity"`
	} `json:"emotions"`
}

func emotionTool() anthropic.ToolUnionParam {
	categories := make([]string, 0, len(emotion.Categories))
	for _, c := range emotion.Categories {
		categories = append(categories, string(c))
	}

	schema := anthropic.ToolInputSchemaParam{
		Type: "object",
		Properties: map[string]interface{}{
			"emotions": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"emotion": map[string]interface{}{
							"type": "string",
							"enum": categories,
						},
						"intensity": map[string]interface{}{
							"type":    "number",
							"minimum": 0,
							"maximum": 1,
						},
					},
					"required": []string{"emotion", "intensity"},
				},
				"description": "Every emotion heard in the transcript",
			},
		},
		Required: []string{"emotions"},
	}

	tool := anthropic.ToolUnionParamOfTool(schema, emotionToolName)
	tool.OfTool.Description = anthropic.String("Record the emotions present in a transcript")

	return tool
}

// AnalyzeAudio transcribes the clip with Whisper and asks Claude for the
// emotions in the transcript.
func (b *Backend) AnalyzeAudio(ctx context.Context, clip []byte, filename string) backend.Result[backend.Analysis] {
	if len(clip) == 0 {
		return backend.Fail[backend.Analysis]("failed to analyze audio: empty clip")
	}
	if filename == "" {
		filename = "recording.mp3"
	}

	transcript, err := b.transcribe(ctx, clip, filename)
	if err != nil {
		slog.Warn("hosted transcription failed", "error", err)
		return backend.Fail[backend.Analysis](fmt.Sprintf("failed to analyze audio: %v", err))
	}

	observations, err := b.classify(ctx, transcript)
	if err != nil {
		slog.Warn("hosted emotion analysis failed", "error", err)
		return backend.Fail[backend.Analysis](fmt.Sprintf("failed to analyze audio: %v", err))
	}

	analysis := backend.Analysis{
		Observations: observations,
		Transcript:   transcript,
	}
	if agg, err := emotion.Aggregate(observations); err == nil {
		analysis.Dominant = agg.Dominant
		analysis.Aggregated = &agg
	}

	return backend.Ok(analysis)
}

func (b *Backend) transcribe(ctx context.Context, clip []byte, filename string) (string, error) {
	params := openai.AudioTranscriptionNewParams{
		File:  namedReader{Reader: bytes.NewReader(clip), name: filename},
		Model: openai.AudioModelWhisper1,
	}

	resp, err := b.openai.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to create transcription via Whisper API: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", errors.New("no speech found in recording")
	}

	return text, nil
}

func (b *Backend) classify(ctx context.Context, transcript string) ([]emotion.Observation, error) {
	params := anthropic.MessageNewParams{
		Model:     b.model,
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: EmotionSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(transcript)),
		},
		Tools:      []anthropic.ToolUnionParam{emotionTool()},
		ToolChoice: anthropic.ToolChoiceParamOfTool(emotionToolName),
	}

	resp, err := b.anthropic.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze emotions via Anthropic API: %w", err)
	}

	input, err := parseEmotionToolUse(resp.Content)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	observations := make([]emotion.Observation, 0, len(input.Emotions))
	// Claude reads the transcript, not the audio
	for _, e := range input.Emotions {
		if !e.Emotion.Valid() {
			continue
		}
		observations = append(observations, emotion.NewObservation(e.Emotion, e.Intensity, emotion.SourceText, now))
	}

	return observations, nil
}

func parseEmotionToolUse(content []anthropic.ContentBlockUnion) (*emotionToolInput, error) {
	for _, block := range content {
		if toolUse, ok := block.AsAny().(anthropic.ToolUseBlock); ok {
			var input emotionToolInput
			inputBytes, err := json.Marshal(toolUse.Input)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal tool input: %w", err)
			}
			if err := json.Unmarshal(inputBytes, &input); err != nil {
				return nil, fmt.Errorf("failed to parse tool input: %w", err)
			}

			return &input, nil
		}
	}

	return nil, errors.New("no tool use found in Anthropic API response")
}
