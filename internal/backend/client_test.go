package backend_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alkime/moodtales/internal/backend"
	"github.com/alkime/moodtales/internal/emotion"
	"github.com/alkime/moodtales/internal/story"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *backend.Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return backend.NewClient(backend.Config{BaseURL: srv.URL, Timeout: 5 * time.Second})
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, payload any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	assert.NoError(t, json.NewEncoder(w).Encode(payload))
}

func TestClient_Health(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/health", r.URL.Path)
		writeJSON(t, w, http.StatusOK, map[string]any{
			"status":        "healthy",
			"models_loaded": []string{"whisper", "llama"},
		})
	})

	res := client.Health(context.Background())
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "healthy", res.Data.Status)
	assert.Equal(t, []string{"whisper", "llama"}, res.Data.ModelsLoaded)
	assert.NoError(t, res.Err())
}

func TestClient_HealthUnreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	client := backend.NewClient(backend.Config{BaseURL: srv.URL})
	res := client.Health(context.Background())

	require.False(t, res.Success)
	assert.Contains(t, res.Error, "failed to check backend health")
	assert.Error(t, res.Err())
}

func TestClient_LoadModels(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/load-models", r.URL.Path)
		writeJSON(t, w, http.StatusOK, map[string]any{
			"models_status": map[string]any{"whisper": "loaded"},
			"loading_time":  12.5,
		})
	})

	res := client.LoadModels(context.Background())
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "loaded", res.Data.Models["whisper"])
	assert.InDelta(t, 12.5, res.Data.LoadingTime, 1e-9)
}

func TestClient_AnalyzeAudio(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/analyze-audio", r.URL.Path)

		file, header, err := r.FormFile("audio")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()

		data, _ := io.ReadAll(file)
		assert.Equal(t, "clip.mp3", header.Filename)
		assert.Equal(t, []byte("mp3-bytes"), data)

		writeJSON(t, w, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{
				"emotions": []map[string]any{
					{"emotion": "joy", "intensity": 0.8, "timestamp": "2025-01-02T03:04:05.123456", "source": "audio"},
					{"emotion": "fear", "intensity": 1.7, "source": "text"},
				},
				"dominant_emotion": "joy",
				"transcript":       "once upon a time",
				"audio_id":         "a1",
			},
		})
	})

	res := client.AnalyzeAudio(context.Background(), []byte("mp3-bytes"), "clip.mp3")
	require.True(t, res.Success, res.Error)

	obs := res.Data.Observations
	require.Len(t, obs, 2)
	assert.Equal(t, emotion.Joy, obs[0].Category)
	assert.InDelta(t, 0.8, obs[0].Intensity, 1e-9)
	assert.Equal(t, 2025, obs[0].ObservedAt.Year())
	assert.Equal(t, emotion.SourceAudio, obs[0].Source)
	assert.InDelta(t, 1.0, obs[1].Intensity, 1e-9, "intensity is clamped")
	assert.False(t, obs[1].ObservedAt.IsZero(), "missing timestamp is stamped on receipt")
	assert.Equal(t, emotion.Joy, res.Data.Dominant)
	assert.Equal(t, "once upon a time", res.Data.Transcript)
}

func TestClient_AnalyzeAudioFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		payload any
		wantErr string
	}{
		{
			name:    "fastapi detail",
			status:  http.StatusUnprocessableEntity,
			payload: map[string]any{"detail": "audio too short"},
			wantErr: "audio too short",
		},
		{
			name:    "validation detail list",
			status:  http.StatusUnprocessableEntity,
			payload: map[string]any{"detail": []map[string]any{{"msg": "field required"}}},
			wantErr: "field required",
		},
		{
			name:    "no detail",
			status:  http.StatusInternalServerError,
			payload: map[string]any{},
			wantErr: "failed to analyze audio: http 500",
		},
		{
			name:    "envelope failure",
			status:  http.StatusOK,
			payload: map[string]any{"success": false, "error": "model not loaded"},
			wantErr: "model not loaded",
		},
		{
			name:    "success without data",
			status:  http.StatusOK,
			payload: map[string]any{"success": true},
			wantErr: "failed to analyze audio: no data in response",
		},
		{
			name:    "unknown emotion",
			status:  http.StatusOK,
			payload: map[string]any{"success": true, "data": map[string]any{"emotions": []map[string]any{{"emotion": "bored"}}}},
			wantErr: "unknown emotion",
		},
		{
			name:    "emotions without a name",
			status:  http.StatusOK,
			payload: map[string]any{"success": true, "data": map[string]any{"emotions": []map[string]any{{"intensity": 0.7, "source": "audio"}}}},
			wantErr: "failed to analyze audio: emotions in response have no name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(t, w, tt.status, tt.payload)
			})

			res := client.AnalyzeAudio(context.Background(), []byte("x"), "")
			require.False(t, res.Success)
			assert.Contains(t, res.Error, tt.wantErr)
		})
	}
}

func TestClient_AnalyzeAudioSkipsUnnamedEmotions(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{
				"emotions": []map[string]any{
					{"intensity": 0.7, "source": "audio"},
					{"emotion": "", "intensity": 0.2},
					{"emotion": "sadness", "intensity": 0.4},
				},
			},
		})
	})

	res := client.AnalyzeAudio(context.Background(), []byte("x"), "")
	require.True(t, res.Success, res.Error)
	require.Len(t, res.Data.Observations, 1)
	assert.Equal(t, emotion.Sadness, res.Data.Observations[0].Category)
}

func TestClient_AnalyzeAudioEmptyClip(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected")
	})

	res := client.AnalyzeAudio(context.Background(), nil, "")
	require.False(t, res.Success)
}

func TestClient_GenerateStory(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate-story", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body struct {
			Emotions []struct {
				Emotion   string  `json:"emotion"`
				Intensity float64 `json:"intensity"`
				Source    string  `json:"source"`
			} `json:"emotions"`
			UserPrompt string         `json:"user_prompt"`
			Params     map[string]any `json:"params"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Len(t, body.Emotions, 1)
		assert.Equal(t, "neutral", body.Emotions[0].Emotion)
		assert.Equal(t, "text", body.Emotions[0].Source)
		assert.Equal(t, "a lighthouse", body.UserPrompt)
		assert.InDelta(t, 0.8, body.Params["temperature"], 1e-9)

		writeJSON(t, w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"story_id": "abc", "text": "plain", "story": "preferred"},
		})
	})

	res := client.GenerateStory(context.Background(), backend.StoryRequest{
		Observations: []emotion.Observation{emotion.NewObservation(emotion.Neutral, 1, emotion.SourceText, at)},
		Prompt:       "a lighthouse",
		Params:       story.Params{Temperature: 0.8},
	})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "abc", res.Data.StoryID)
	assert.Equal(t, "preferred", res.Data.Text())
}

func TestClient_GenerateStoryEmptyText(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"story_id": "abc"}})
	})

	res := client.GenerateStory(context.Background(), backend.StoryRequest{})
	require.False(t, res.Success)
	assert.Contains(t, res.Error, "failed to generate story")
}

func TestGenerated_Text(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "s", backend.Generated{Story: "s", PlainText: "t"}.Text())
	assert.Equal(t, "t", backend.Generated{PlainText: "t"}.Text())
	assert.Empty(t, backend.Generated{}.Text())
}

func TestClient_SynthesizeSpeech(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/synthesize-speech", r.URL.Path)

		var body struct {
			Text   string            `json:"text"`
			Params story.VoiceParams `json:"params"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "once", body.Text)
		assert.Equal(t, story.VoiceJoyful, body.Params.Style)

		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("narration"))
	})

	res := client.SynthesizeSpeech(context.Background(), "once", story.VoiceParams{Style: story.VoiceJoyful, Speed: 1})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, []byte("narration"), res.Data.Data)
	assert.Equal(t, "audio/mpeg", res.Data.MIMEType)
}

func TestClient_GenerateMusicDefaultDuration(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Duration int `json:"duration"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, backend.DefaultMusicSeconds, body.Duration)

		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte("music"))
	})

	res := client.GenerateMusic(context.Background(), story.MusicParams{Mood: "calm"}, 0)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "audio/wav", res.Data.MIMEType)
}

func TestClient_GenerateMusicEmptyBody(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	res := client.GenerateMusic(context.Background(), story.MusicParams{}, 10)
	require.False(t, res.Success)
	assert.Contains(t, res.Error, "failed to generate music")
}

func TestClient_ListStories(t *testing.T) {
	t.Parallel()

	stories := []map[string]any{
		{"id": "1", "text": "A quiet lighthouse", "created_at": "2025-03-01T10:00:00", "emotion_context": map[string]any{"dominant_emotion": "joy"}},
		{"id": "2", "text": "A storm", "created_at": "2025-03-02T10:00:00", "emotion_context": map[string]any{"dominant_emotion": "fear"}},
		{"id": "3", "text": "Another lighthouse", "created_at": "2025-03-03T10:00:00", "emotion_context": map[string]any{"dominant_emotion": "fear"}},
	}

	tests := []struct {
		name    string
		payload any
		filters backend.Filters
		wantIDs []string
	}{
		{name: "bare array", payload: stories, wantIDs: []string{"1", "2", "3"}},
		{name: "wrapped", payload: map[string]any{"stories": stories}, wantIDs: []string{"1", "2", "3"}},
		{name: "envelope", payload: map[string]any{"success": true, "data": stories}, wantIDs: []string{"1", "2", "3"}},
		{name: "emotion filter", payload: stories, filters: backend.Filters{Emotion: emotion.Fear}, wantIDs: []string{"2", "3"}},
		{name: "search filter", payload: stories, filters: backend.Filters{Search: "LIGHTHOUSE"}, wantIDs: []string{"1", "3"}},
		{
			name:    "date range",
			payload: stories,
			filters: backend.Filters{
				DateFrom: time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
				DateTo:   time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
			},
			wantIDs: []string{"2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/stories", r.URL.Path)
				assert.Equal(t, tt.filters.Query().Encode(), r.URL.RawQuery)
				writeJSON(t, w, http.StatusOK, tt.payload)
			})

			res := client.ListStories(context.Background(), tt.filters)
			require.True(t, res.Success, res.Error)

			ids := make([]string, 0, len(res.Data))
			for _, s := range res.Data {
				ids = append(ids, s.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestClient_GetAndDeleteStory(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/stories/abc", r.URL.Path)

		switch r.Method {
		case http.MethodGet:
			writeJSON(t, w, http.StatusOK, map[string]any{"id": "abc", "text": "hello", "narration_path": "/audio/n.wav"})
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	})

	got := client.GetStory(context.Background(), "abc")
	require.True(t, got.Success, got.Error)
	assert.Equal(t, "hello", got.Data.Text)
	assert.Equal(t, "/audio/n.wav", got.Data.NarrationPath)

	del := client.DeleteStory(context.Background(), "abc")
	assert.True(t, del.Success, del.Error)
}

func TestClient_DeleteStoryNotFound(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusNotFound, map[string]any{"detail": "Story not found"})
	})

	res := client.DeleteStory(context.Background(), "missing")
	require.False(t, res.Success)
	assert.Equal(t, "Story not found", res.Error)
}

func TestClient_ContinueStory(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/stories/abc/continue", r.URL.Path)

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "and then?", body["user_input"])

		writeJSON(t, w, http.StatusOK, map[string]any{"continuation": "the tide rose", "story_id": "abc"})
	})

	res := client.ContinueStory(context.Background(), "abc", "and then?", emotion.Aggregated{Dominant: emotion.Joy})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "the tide rose", res.Data.Continuation)
}

func TestClient_DownloadAudio(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/static/audio/n.mp3", r.URL.Path)
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("id3"))
	})

	res := client.DownloadAudio(context.Background(), "/static/audio/n.mp3")
	require.True(t, res.Success, res.Error)
	assert.Equal(t, []byte("id3"), res.Data.Data)
}

func TestClient_AudioURL(t *testing.T) {
	t.Parallel()

	client := backend.NewClient(backend.Config{BaseURL: "http://api.local:8000/"})

	assert.Equal(t, "http://api.local:8000/static/a.wav", client.AudioURL("/static/a.wav"))
	assert.Equal(t, "http://api.local:8000/static/a.wav", client.AudioURL("static/a.wav"))
	assert.Equal(t, "https://cdn.example/a.wav", client.AudioURL("https://cdn.example/a.wav"))
	assert.Empty(t, client.AudioURL(""))
}

func TestNewClient_DefaultBaseURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, backend.DefaultBaseURL, backend.NewClient(backend.Config{}).BaseURL())
}

func TestResult(t *testing.T) {
	t.Parallel()

	ok := backend.Ok(3)
	assert.True(t, ok.Success)
	require.NoError(t, ok.Err())

	failed := backend.Fail[int]("nope")
	assert.False(t, failed.Success)
	require.EqualError(t, failed.Err(), "nope")

	require.Error(t, backend.Result[int]{}.Err())
}
