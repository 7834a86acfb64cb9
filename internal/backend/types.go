package backend

import (
	"net/url"
	"strings"
	"time"

	"github.com/alkime/moodtales/internal/emotion"
	"github.com/alkime/moodtales/internal/story"
)

// DefaultMusicSeconds is the music duration requested when none is given.
const DefaultMusicSeconds = 30

// Health is the backend liveness report.
type Health struct {
	Status       string         `json:"status"`
	ModelsLoaded []string       `json:"models_loaded"`
	Models       map[string]any `json:"models,omitempty"`
}

// ModelsStatus reports the outcome of a model load request.
type ModelsStatus struct {
	Models      map[string]any `json:"models_status"`
	LoadingTime float64        `json:"loading_time"`
}

// Analysis is the result of emotion analysis on a clip.
type Analysis struct {
	Observations []emotion.Observation `json:"emotions"`
	// Dominant is the backend's own hint; the workflow re-aggregates locally.
	Dominant   emotion.Category    `json:"dominant_emotion,omitempty"`
	Aggregated *emotion.Aggregated `json:"aggregated_emotion,omitempty"`
	Transcript string              `json:"transcript,omitempty"`
	AudioID    string              `json:"audio_id,omitempty"`
}

// StoryRequest asks the backend for a story.
type StoryRequest struct {
	Observations []emotion.Observation `json:"emotions"`
	Prompt       string                `json:"user_prompt,omitempty"`
	Params       story.Params          `json:"params"`
}

// Generated is a freshly generated story.
type Generated struct {
	StoryID        string  `json:"story_id"`
	PlainText      string  `json:"text,omitempty"`
	Story          string  `json:"story,omitempty"`
	GenerationTime float64 `json:"generation_time,omitempty"`
}

// Text returns the story body; the backend sends it as "story", "text" or both.
func (g Generated) Text() string {
	if g.Story != "" {
		return g.Story
	}

	return g.PlainText
}

// Continuation is the next part of an existing story.
type Continuation struct {
	Continuation string `json:"continuation"`
	StoryID      string `json:"story_id"`
}

// Audio is a binary audio payload.
type Audio struct {
	Data     []byte
	MIMEType string
}

// Filters narrows a story listing. Zero fields are ignored.
type Filters struct {
	Emotion  emotion.Category
	DateFrom time.Time
	DateTo   time.Time
	Search   string
}

// Query encodes the filters as request parameters.
func (f Filters) Query() url.Values {
	q := url.Values{}
	if f.Emotion != "" {
		q.Set("emotion", string(f.Emotion))
	}
	if !f.DateFrom.IsZero() {
		q.Set("date_from", f.DateFrom.Format(time.DateOnly))
	}
	if !f.DateTo.IsZero() {
		q.Set("date_to", f.DateTo.Format(time.DateOnly))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		q.Set("search", s)
	}

	return q
}

// Match reports whether s passes the filters. Listings are filtered locally
// too since the backend may ignore the parameters.
func (f Filters) Match(s story.Story) bool {
	if f.Emotion != "" && s.Emotion.Dominant != f.Emotion {
		return false
	}

	if search := strings.TrimSpace(f.Search); search != "" &&
		!strings.Contains(strings.ToLower(s.Text), strings.ToLower(search)) {
		return false
	}

	created := s.CreatedAt.Time
	if !created.IsZero() {
		if !f.DateFrom.IsZero() && created.Before(f.DateFrom) {
			return false
		}
		// date_to is inclusive of the whole day
		if !f.DateTo.IsZero() && !created.Before(f.DateTo.AddDate(0, 0, 1)) {
			return false
		}
	}

	return true
}
