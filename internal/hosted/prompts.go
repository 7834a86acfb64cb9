package hosted

import (
	"fmt"
	"strings"

	"github.com/alkime/moodtales/internal/emotion"
)

// EmotionSystemPrompt asks Claude to read the emotional tone of a transcript.
const EmotionSystemPrompt = `You read the emotional tone of short spoken recordings.

You are given the transcript of what the speaker said. Record every emotion you can
hear in it with the record_emotions tool. Use only these categories: joy, sadness,
anger, fear, surprise, disgust, neutral. Intensity runs from 0 (barely present) to 1
(overwhelming). Report at least one emotion; use neutral when the tone is flat.`

// StorySystemPrompt sets up story writing.
const StorySystemPrompt = `You are a storyteller. Write one short, self-contained story
of three to five paragraphs that a narrator will read aloud.

- Let the listed emotions shape the mood, pacing and imagery.
- Follow the listener's request when there is one.
- Plain prose only: no title, no headings, no markdown.`

// storyPrompt builds the user message for story generation.
func storyPrompt(observations []emotion.Observation, prompt string) string {
	var b strings.Builder

	b.WriteString("Emotions detected in the listener:\n")
	for _, o := range observations {
		fmt.Fprintf(&b, "- %s (intensity %.2f, from %s)\n", o.Category, o.Intensity, o.Source)
	}

	if prompt = strings.TrimSpace(prompt); prompt != "" {
		fmt.Fprintf(&b, "\nListener's request: %s\n", prompt)
	} else {
		b.WriteString("\nNo specific request; choose the premise yourself.\n")
	}

	return b.String()
}
