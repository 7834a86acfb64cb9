package emotion_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/alkime/moodtales/internal/emotion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func obs(c emotion.Category, intensity float64) emotion.Observation {
	return emotion.NewObservation(c, intensity, emotion.SourceAudio, time.Unix(0, 0))
}

func TestAggregate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		batch      []emotion.Observation
		dominant   emotion.Category
		intensity  float64
		confidence float64
	}{
		{
			name:       "single joy reading",
			batch:      []emotion.Observation{obs(emotion.Joy, 0.8)},
			dominant:   emotion.Joy,
			intensity:  0.8,
			confidence: 1,
		},
		{
			name: "mean per category decides",
			batch: []emotion.Observation{
				obs(emotion.Fear, 0.9),
				obs(emotion.Fear, 0.1),
				obs(emotion.Sadness, 0.6),
			},
			dominant:   emotion.Sadness,
			intensity:  (0.9 + 0.1 + 0.6) / 3,
			confidence: 1.0 / 3,
		},
		{
			name: "tie goes to enumeration order",
			batch: []emotion.Observation{
				obs(emotion.Neutral, 0.5),
				obs(emotion.Anger, 0.5),
			},
			dominant:   emotion.Anger,
			intensity:  0.5,
			confidence: 0.5,
		},
		{
			name:       "all zero picks first category",
			batch:      []emotion.Observation{obs(emotion.Disgust, 0)},
			dominant:   emotion.Joy,
			intensity:  0,
			confidence: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			agg, err := emotion.Aggregate(tt.batch)
			require.NoError(t, err)

			assert.Equal(t, tt.dominant, agg.Dominant)
			assert.InDelta(t, tt.intensity, agg.Intensity, 1e-9)
			assert.InDelta(t, tt.confidence, agg.Confidence, 1e-9)

			require.Len(t, agg.Scores, len(emotion.Categories))
			for _, c := range emotion.Categories {
				score, ok := agg.Scores[c]
				require.True(t, ok, "missing score for %s", c)
				assert.GreaterOrEqual(t, score, 0.0)
			}
		})
	}
}

func TestAggregate_Empty(t *testing.T) {
	t.Parallel()

	_, err := emotion.Aggregate(nil)
	require.ErrorIs(t, err, emotion.ErrNoObservations)
}

func TestAggregate_UnknownCategory(t *testing.T) {
	t.Parallel()

	_, err := emotion.Aggregate([]emotion.Observation{{Category: "boredom", Intensity: 1}})
	require.Error(t, err)
}

func TestNewObservation_ClampsIntensity(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.0, obs(emotion.Joy, 3).Intensity, 1e-9)
	assert.InDelta(t, 0.0, obs(emotion.Joy, -1).Intensity, 1e-9)
}

func TestCategory_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	var o emotion.Observation
	require.NoError(t, json.Unmarshal([]byte(`{"emotion":"JOY","intensity":0.4,"source":"audio"}`), &o))
	assert.Equal(t, emotion.Joy, o.Category)

	err := json.Unmarshal([]byte(`{"emotion":"bored"}`), &o)
	require.Error(t, err)
}

func TestCategory_DisplayName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Surprise", emotion.Surprise.DisplayName())
}
