package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alkime/moodtales/internal/emotion"
	"github.com/alkime/moodtales/internal/story"
	"github.com/alkime/moodtales/pkg/collections"
)

const (
	// DefaultBaseURL is used when no base URL is configured.
	DefaultBaseURL = "http://localhost:8000"
	// model loading and synthesis can take minutes
	defaultTimeout   = 5 * time.Minute
	defaultAudioType = "audio/wav"
	maxErrorBody     = 64 << 10
)

// Config captures the settings needed to reach the backend.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the storytelling backend. It is stateless; every method
// returns a Result and never an error.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger overrides the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient constructs a backend client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the backend root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Health reports backend status and which models are loaded.
func (c *Client) Health(ctx context.Context) Result[Health] {
	return getJSON[Health](ctx, c, "/health", "failed to check backend health")
}

// LoadModels asks the backend to load all of its models.
func (c *Client) LoadModels(ctx context.Context) Result[ModelsStatus] {
	const op = "failed to load models"

	body, _, err := c.send(ctx, http.MethodPost, "/api/load-models", nil, "")
	if err != nil {
		return fail[ModelsStatus](op, err)
	}

	return decode[ModelsStatus](unwrap(body), op)
}

// AnalyzeAudio uploads a clip for emotion analysis.
func (c *Client) AnalyzeAudio(ctx context.Context, clip []byte, filename string) Result[Analysis] {
	const op = "failed to analyze audio"

	if len(clip) == 0 {
		return Fail[Analysis](op + ": empty clip")
	}
	if filename == "" {
		filename = "recording.mp3"
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("audio", filename)
	if err == nil {
		_, err = part.Write(clip)
	}
	if err == nil {
		err = form.Close()
	}
	if err != nil {
		return fail[Analysis](op, fmt.Errorf("build form: %w", err))
	}

	body, _, err := c.send(ctx, http.MethodPost, "/api/analyze-audio", &buf, form.FormDataContentType())
	if err != nil {
		return fail[Analysis](op, err)
	}

	wire := decodeEnvelope[analysisWire](body, op)
	if !wire.Success {
		return Fail[Analysis](wire.Error)
	}

	analysis := wire.Data.analysis(time.Now().UTC())
	if len(analysis.Observations) == 0 && len(wire.Data.Emotions) > 0 {
		return Fail[Analysis](op + ": emotions in response have no name")
	}

	return Ok(analysis)
}

// GenerateStory asks the backend to write a story for the observations.
func (c *Client) GenerateStory(ctx context.Context, req StoryRequest) Result[Generated] {
	const op = "failed to generate story"

	if req.Observations == nil {
		req.Observations = []emotion.Observation{}
	}

	body, _, err := c.sendJSON(ctx, http.MethodPost, "/api/generate-story", req)
	if err != nil {
		return fail[Generated](op, err)
	}

	res := decodeEnvelope[Generated](body, op)
	if res.Success && strings.TrimSpace(res.Data.Text()) == "" {
		return Fail[Generated](op + ": empty story")
	}

	return res
}

// ContinueStory extends an existing story with the user's input.
func (c *Client) ContinueStory(ctx context.Context, id, input string, ctxEmotion emotion.Aggregated) Result[Continuation] {
	const op = "failed to continue story"

	payload := struct {
		UserInput string             `json:"user_input"`
		Emotion   emotion.Aggregated `json:"emotion_context"`
	}{input, ctxEmotion}

	body, _, err := c.sendJSON(ctx, http.MethodPost, "/api/stories/"+url.PathEscape(id)+"/continue", payload)
	if err != nil {
		return fail[Continuation](op, err)
	}

	return decode[Continuation](unwrap(body), op)
}

// SynthesizeSpeech narrates text.
func (c *Client) SynthesizeSpeech(ctx context.Context, text string, params story.VoiceParams) Result[Audio] {
	payload := struct {
		Text   string            `json:"text"`
		Params story.VoiceParams `json:"params"`
	}{text, params}

	return c.postAudio(ctx, "/api/synthesize-speech", payload, "failed to synthesize speech")
}

// GenerateMusic produces background music; seconds <= 0 means DefaultMusicSeconds.
func (c *Client) GenerateMusic(ctx context.Context, params story.MusicParams, seconds int) Result[Audio] {
	if seconds <= 0 {
		seconds = DefaultMusicSeconds
	}

	payload := struct {
		Params   story.MusicParams `json:"params"`
		Duration int               `json:"duration"`
	}{params, seconds}

	return c.postAudio(ctx, "/api/generate-music", payload, "failed to generate music")
}

// ListStories fetches persisted stories matching the filters.
func (c *Client) ListStories(ctx context.Context, filters Filters) Result[[]story.Story] {
	const op = "failed to fetch stories"

	path := "/api/stories"
	if q := filters.Query(); len(q) > 0 {
		path += "?" + q.Encode()
	}

	body, _, err := c.send(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return fail[[]story.Story](op, err)
	}

	raw := unwrap(body)

	// either a bare array or {"stories": [...]}
	var listed struct {
		Stories []story.Story `json:"stories"`
	}
	if len(bytes.TrimSpace(raw)) > 0 && bytes.TrimSpace(raw)[0] == '[' {
		if err := json.Unmarshal(raw, &listed.Stories); err != nil {
			return fail[[]story.Story](op, fmt.Errorf("decode: %w", err))
		}
	} else if err := json.Unmarshal(raw, &listed); err != nil {
		return fail[[]story.Story](op, fmt.Errorf("decode: %w", err))
	}

	// older backends ignore some of the query parameters
	return Ok(collections.Filter(listed.Stories, filters.Match))
}

// GetStory fetches one story.
func (c *Client) GetStory(ctx context.Context, id string) Result[story.Story] {
	const op = "failed to fetch story"

	body, _, err := c.send(ctx, http.MethodGet, "/api/stories/"+url.PathEscape(id), nil, "")
	if err != nil {
		return fail[story.Story](op, err)
	}

	return decode[story.Story](unwrap(body), op)
}

// DeleteStory removes a persisted story.
func (c *Client) DeleteStory(ctx context.Context, id string) Result[struct{}] {
	if _, _, err := c.send(ctx, http.MethodDelete, "/api/stories/"+url.PathEscape(id), nil, ""); err != nil {
		return fail[struct{}]("failed to delete story", err)
	}

	return Ok(struct{}{})
}

// DownloadAudio fetches a static audio asset by its backend path.
func (c *Client) DownloadAudio(ctx context.Context, path string) Result[Audio] {
	const op = "failed to download audio"

	body, header, err := c.send(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return fail[Audio](op, err)
	}

	return audioResult(body, header, op)
}

// AudioURL resolves a backend-relative asset path to an absolute URL.
func (c *Client) AudioURL(path string) string {
	if path == "" {
		return ""
	}

	if isAbsolute(path) {
		return path
	}

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return c.baseURL + path
}

func (c *Client) postAudio(ctx context.Context, path string, payload any, op string) Result[Audio] {
	body, header, err := c.sendJSON(ctx, http.MethodPost, path, payload)
	if err != nil {
		return fail[Audio](op, err)
	}

	return audioResult(body, header, op)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, payload any) ([]byte, http.Header, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("encode request: %w", err)
	}

	return c.send(ctx, method, path, bytes.NewReader(data), "application/json")
}

// send performs one request. Non-2xx responses become *StatusError.
func (c *Client) send(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, http.Header, error) {
	target := c.AudioURL(path)

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("backend request failed", "method", method, "path", path, "error", err)
		return nil, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	c.logger.Debug("backend response",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"bytes", len(data),
		"elapsed", time.Since(start),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(data) > maxErrorBody {
			data = data[:maxErrorBody]
		}

		return nil, nil, &StatusError{StatusCode: resp.StatusCode, Detail: detail(data)}
	}

	return data, resp.Header, nil
}

// StatusError is a non-2xx backend response.
type StatusError struct {
	StatusCode int
	// Detail is the FastAPI "detail" message, if any.
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("http %d: %s", e.StatusCode, e.Detail)
	}

	return fmt.Sprintf("http %d", e.StatusCode)
}

// fail prefers the backend's own detail message and falls back to op.
func fail[T any](op string, err error) Result[T] {
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Detail != "" {
		return Fail[T](statusErr.Detail)
	}

	return Fail[T](fmt.Sprintf("%s: %v", op, err))
}

// detail extracts FastAPI's error detail, which is a string or a list of
// validation errors.
func detail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}

	var msg string
	if err := json.Unmarshal(payload.Detail, &msg); err == nil {
		return msg
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}

		return strings.Join(msgs, "; ")
	}

	return string(payload.Detail)
}

// unwrap returns the data member when body is a {success, data} envelope and
// the body itself otherwise.
func unwrap(body []byte) []byte {
	var env struct {
		Success *bool           `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil || env.Success == nil || len(env.Data) == 0 {
		return body
	}

	return env.Data
}

func getJSON[T any](ctx context.Context, c *Client, path, op string) Result[T] {
	body, _, err := c.send(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return fail[T](op, err)
	}

	return decode[T](body, op)
}

func decode[T any](body []byte, op string) Result[T] {
	if len(bytes.TrimSpace(body)) == 0 || string(bytes.TrimSpace(body)) == "null" {
		return Fail[T](op + ": empty response")
	}

	var data T
	if err := json.Unmarshal(body, &data); err != nil {
		return Fail[T](fmt.Sprintf("%s: decode: %v", op, err))
	}

	return Ok(data)
}

// decodeEnvelope handles endpoints that already answer with
// {success, data, error}. Success without data counts as failure.
func decodeEnvelope[T any](body []byte, op string) Result[T] {
	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return Fail[T](fmt.Sprintf("%s: decode: %v", op, err))
	}

	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = env.Message
		}
		if msg == "" {
			msg = op
		}

		return Fail[T](msg)
	}

	if len(env.Data) == 0 || string(env.Data) == "null" {
		return Fail[T](op + ": no data in response")
	}

	return decode[T](env.Data, op)
}

func audioResult(body []byte, header http.Header, op string) Result[Audio] {
	if len(body) == 0 {
		return Fail[Audio](op + ": empty audio")
	}

	mimeType := header.Get("Content-Type")
	if mimeType == "" || strings.HasPrefix(mimeType, "application/octet-stream") {
		mimeType = defaultAudioType
	}

	return Ok(Audio{Data: body, MIMEType: mimeType})
}

func isAbsolute(path string) bool {
	u, err := url.Parse(path)

	return err == nil && u.Scheme != "" && u.Host != ""
}

// analysisWire tolerates the looser timestamp layouts the backend emits.
type analysisWire struct {
	Emotions []struct {
		Emotion   emotion.Category `json:"emotion"`
		Intensity float64          `json:"intensity"`
		Timestamp story.Timestamp  `json:"timestamp"`
		Source    emotion.Source   `json:"source"`
	} `json:"emotions"`
	Dominant   emotion.Category    `json:"dominant_emotion"`
	Aggregated *emotion.Aggregated `json:"aggregated_emotion"`
	Transcript string              `json:"transcript"`
	AudioID    string              `json:"audio_id"`
}

// analysis converts the wire payload, dropping entries without an emotion
// name.
func (w analysisWire) analysis(now time.Time) Analysis {
	obs := make([]emotion.Observation, 0, len(w.Emotions))
	for _, e := range w.Emotions {
		if !e.Emotion.Valid() {
			continue
		}

		at := e.Timestamp.Time
		if at.IsZero() {
			at = now
		}

		src := e.Source
		if src == "" {
			src = emotion.SourceAudio
		}

		obs = append(obs, emotion.NewObservation(e.Emotion, e.Intensity, src, at))
	}

	return Analysis{
		Observations: obs,
		Dominant:     w.Dominant,
		Aggregated:   w.Aggregated,
		Transcript:   w.Transcript,
		AudioID:      w.AudioID,
	}
}
