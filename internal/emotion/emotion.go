// Package emotion models emotion readings and their aggregate summary.
package emotion

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category is one of the seven recognised emotions.
type Category string

const (
	Joy      Category = "joy"
	Sadness  Category = "sadness"
	Anger    Category = "anger"
	Fear     Category = "fear"
	Surprise Category = "surprise"
	Disgust  Category = "disgust"
	Neutral  Category = "neutral"
)

// Categories lists every category in the fixed order used for tie-breaks.
var Categories = []Category{Joy, Sadness, Anger, Fear, Surprise, Disgust, Neutral}

var titleCaser = cases.Title(language.English)

// ParseCategory maps a (case-insensitive) name onto a Category.
func ParseCategory(name string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(name)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown emotion %q", name)
	}

	return c, nil
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}

	return false
}

// DisplayName returns the capitalised name, e.g. "Joy".
func (c Category) DisplayName() string {
	return titleCaser.String(string(c))
}

// UnmarshalJSON rejects unknown category names. Empty and null decode to
// the zero Category.
func (c *Category) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("emotion category: %w", err)
	}

	if raw == "" {
		*c = ""
		return nil
	}

	parsed, err := ParseCategory(raw)
	if err != nil {
		return err
	}

	*c = parsed

	return nil
}

// Source identifies where an observation came from.
type Source string

const (
	SourceAudio   Source = "audio"
	SourceText    Source = "text"
	SourceContext Source = "context"
)

// Observation is one timestamped emotion reading.
type Observation struct {
	Category   Category  `json:"emotion"`
	Intensity  float64   `json:"intensity"`
	ObservedAt time.Time `json:"timestamp"`
	Source     Source    `json:"source"`
}

// NewObservation builds an observation with the intensity clamped to [0,1].
func NewObservation(c Category, intensity float64, src Source, at time.Time) Observation {
	return Observation{
		Category:   c,
		Intensity:  clamp(intensity),
		ObservedAt: at,
		Source:     src,
	}
}

// Aggregated summarises a batch of observations.
type Aggregated struct {
	Dominant   Category             `json:"dominant_emotion"`
	Intensity  float64              `json:"intensity"`
	Confidence float64              `json:"confidence"`
	Scores     map[Category]float64 `json:"emotion_scores"`
}

// ErrNoObservations is returned when aggregating an empty batch.
var ErrNoObservations = errors.New("no emotion observations")

// Aggregate derives the summary for a non-empty batch.
//
// Scores hold the mean intensity per category with every category present.
// The dominant category has the highest score; ties go to the category that
// comes first in Categories. Intensity is the mean over the whole batch and
// Confidence is the share of observations in the dominant category.
func Aggregate(observations []Observation) (Aggregated, error) {
	if len(observations) == 0 {
		return Aggregated{}, ErrNoObservations
	}

	sums := make(map[Category]float64, len(Categories))
	counts := make(map[Category]int, len(Categories))
	total := 0.0

	for _, o := range observations {
		if !o.Category.Valid() {
			return Aggregated{}, fmt.Errorf("aggregate: unknown emotion %q", o.Category)
		}

		v := clamp(o.Intensity)
		sums[o.Category] += v
		counts[o.Category]++
		total += v
	}

	agg := Aggregated{
		Scores: EmptyScores(),
	}

	best := -1.0
	for _, c := range Categories {
		if counts[c] > 0 {
			agg.Scores[c] = sums[c] / float64(counts[c])
		}

		// strict comparison keeps the earliest category on ties
		if agg.Scores[c] > best {
			best = agg.Scores[c]
			agg.Dominant = c
		}
	}

	agg.Intensity = total / float64(len(observations))
	agg.Confidence = float64(counts[agg.Dominant]) / float64(len(observations))

	return agg, nil
}

// EmptyScores returns a score map with all categories set to zero.
func EmptyScores() map[Category]float64 {
	scores := make(map[Category]float64, len(Categories))
	for _, c := range Categories {
		scores[c] = 0
	}

	return scores
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
