// Package story defines the story record and the generation parameters sent
// to the backend alongside it.
package story

import (
	"strings"

	"github.com/alkime/moodtales/internal/emotion"
)

// Story is a generated story and the emotion context it was written for.
type Story struct {
	ID            string             `json:"id"`
	Text          string             `json:"text"`
	Emotion       emotion.Aggregated `json:"emotion_context"`
	CreatedAt     Timestamp          `json:"created_at"`
	UserInput     string             `json:"user_input,omitempty"`
	AudioPath     string             `json:"audio_path,omitempty"`
	NarrationPath string             `json:"narration_path,omitempty"`
	MusicPath     string             `json:"music_path,omitempty"`
}

// Preview returns the first n runes of the text, trimmed, with an ellipsis
// when truncated.
func (s Story) Preview(n int) string {
	text := strings.Join(strings.Fields(s.Text), " ")
	runes := []rune(text)
	if n <= 0 || len(runes) <= n {
		return text
	}

	return strings.TrimSpace(string(runes[:n])) + "…"
}

// Params tunes story generation.
type Params struct {
	Temperature      float64 `json:"temperature,omitempty"`
	Creativity       float64 `json:"creativity,omitempty"`
	EmotionInfluence float64 `json:"emotion_influence,omitempty"`
}

// VoiceStyle is the narration delivery style.
type VoiceStyle string

const (
	VoiceNeutral VoiceStyle = "neutral"
	VoiceCalm    VoiceStyle = "calm"
	VoiceJoyful  VoiceStyle = "joyful"
	VoiceSad     VoiceStyle = "sad"
	VoiceAngry   VoiceStyle = "angry"
	VoiceFearful VoiceStyle = "fearful"
	VoiceExcited VoiceStyle = "excited"
)

// VoiceParams controls speech synthesis.
type VoiceParams struct {
	Style    VoiceStyle `json:"style,omitempty"`
	Speed    float64    `json:"speed,omitempty"`
	Language string     `json:"language,omitempty"`
}

// MusicParams controls background music generation.
type MusicParams struct {
	Style     string  `json:"style,omitempty"`
	Mood      string  `json:"mood,omitempty"`
	Tempo     string  `json:"tempo,omitempty"`
	Intensity float64 `json:"intensity,omitempty"`
}

var voiceByEmotion = map[emotion.Category]VoiceStyle{
	emotion.Joy:      VoiceJoyful,
	emotion.Sadness:  VoiceSad,
	emotion.Anger:    VoiceAngry,
	emotion.Fear:     VoiceFearful,
	emotion.Surprise: VoiceExcited,
	emotion.Disgust:  VoiceAngry,
	emotion.Neutral:  VoiceNeutral,
}

var moodByEmotion = map[emotion.Category]string{
	emotion.Joy:      "joyful",
	emotion.Sadness:  "melancholic",
	emotion.Anger:    "energetic",
	emotion.Fear:     "tense",
	emotion.Surprise: "energetic",
	emotion.Disgust:  "tense",
	emotion.Neutral:  "calm",
}

// VoiceFor picks narration parameters matching the aggregated emotion.
func VoiceFor(agg emotion.Aggregated, language string) VoiceParams {
	style, ok := voiceByEmotion[agg.Dominant]
	if !ok {
		style = VoiceNeutral
	}

	return VoiceParams{
		Style:    style,
		Speed:    1.0,
		Language: language,
	}
}

// MusicFor picks background music parameters matching the aggregated emotion.
func MusicFor(agg emotion.Aggregated) MusicParams {
	mood, ok := moodByEmotion[agg.Dominant]
	if !ok {
		mood = "calm"
	}

	tempo := "medium"
	switch {
	case agg.Intensity >= 0.7:
		tempo = "fast"
	case agg.Intensity < 0.3:
		tempo = "slow"
	}

	return MusicParams{
		Style:     "ambient",
		Mood:      mood,
		Tempo:     tempo,
		Intensity: agg.Intensity,
	}
}
