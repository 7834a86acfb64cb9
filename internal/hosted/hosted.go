// Package hosted runs the creation flow against hosted model APIs instead of
// the storytelling backend: Whisper for transcription, Claude for emotion
// analysis and story writing, and OpenAI text-to-speech for narration.
//
// Results use the same envelope as the backend client.
package hosted

import (
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/openai/openai-go"
	openaiopt "github.com/openai/openai-go/option"
)

// Config holds the API keys for the hosted services.
type Config struct {
	OpenAIKey    string
	AnthropicKey string
}

// Option customizes the hosted backend.
type Option func(*Backend)

// WithOpenAIOptions appends request options to the OpenAI client.
func WithOpenAIOptions(opts ...openaiopt.RequestOption) Option {
	return func(b *Backend) {
		b.openaiOpts = append(b.openaiOpts, opts...)
	}
}

// WithAnthropicOptions appends request options to the Anthropic client.
func WithAnthropicOptions(opts ...anthropicopt.RequestOption) Option {
	return func(b *Backend) {
		b.anthropicOpts = append(b.anthropicOpts, opts...)
	}
}

// WithModel overrides the Claude model.
func WithModel(model anthropic.Model) Option {
	return func(b *Backend) {
		b.model = model
	}
}

// Backend implements the creation flow operations on hosted APIs.
type Backend struct {
	openai    openai.Client
	anthropic anthropic.Client
	model     anthropic.Model

	openaiOpts    []openaiopt.RequestOption
	anthropicOpts []anthropicopt.RequestOption
}

// New creates a hosted backend. Both keys are required.
func New(cfg Config, opts ...Option) (*Backend, error) {
	if cfg.OpenAIKey == "" {
		return nil, errors.New("API key required: set OPENAI_API_KEY or run `moodtales config set-key openai`")
	}
	if cfg.AnthropicKey == "" {
		return nil, errors.New("API key required: set ANTHROPIC_API_KEY or run `moodtales config set-key anthropic`")
	}

	b := &Backend{
		model:         anthropic.ModelClaudeSonnet4_5_20250929,
		openaiOpts:    []openaiopt.RequestOption{openaiopt.WithAPIKey(cfg.OpenAIKey)},
		anthropicOpts: []anthropicopt.RequestOption{anthropicopt.WithAPIKey(cfg.AnthropicKey)},
	}
	for _, opt := range opts {
		opt(b)
	}

	b.openai = openai.NewClient(b.openaiOpts...)
	b.anthropic = anthropic.NewClient(b.anthropicOpts...)

	return b, nil
}
