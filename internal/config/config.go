package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvProduction represents the production environment.
	EnvProduction = "production"
	// EnvDevelopment represents the development environment.
	EnvDevelopment = "development"
)

// Config holds all application configuration.
type Config struct {
	Env string `envconfig:"ENV" default:"development"`

	// Backend settings
	APIURL         string        `envconfig:"MOODTALES_API_URL" default:"http://localhost:8000"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"5m"`

	// Media server settings. Port is used by the standalone library server,
	// MediaAddr by the server the TUI starts for playable URLs.
	Port      string        `envconfig:"PORT" default:"8090"`
	MediaAddr string        `envconfig:"MEDIA_ADDR" default:"127.0.0.1:0"`
	MediaTTL  time.Duration `envconfig:"MEDIA_TTL" default:"0"`
	// LibraryDir holds downloaded stories; empty means ~/Documents/MoodTales/library.
	LibraryDir string `envconfig:"LIBRARY_DIR"`

	// Security settings
	HSTSMaxAge int    `envconfig:"HSTS_MAX_AGE" default:"31536000"`
	CSPMode    string `envconfig:"CSP_MODE" default:"relaxed"`

	// Story settings
	NarrationLanguage     string  `envconfig:"NARRATION_LANGUAGE" default:"EN"`
	MusicSeconds          int     `envconfig:"MUSIC_SECONDS" default:"30"`
	StoryTemperature      float64 `envconfig:"STORY_TEMPERATURE" default:"0.8"`
	StoryCreativity       float64 `envconfig:"STORY_CREATIVITY" default:"0.7"`
	StoryEmotionInfluence float64 `envconfig:"STORY_EMOTION_INFLUENCE" default:"0.8"`

	// Hosted mode keys; the keychain is consulted when these are empty.
	OpenAIKey    string `envconfig:"OPENAI_API_KEY"`
	AnthropicKey string `envconfig:"ANTHROPIC_API_KEY"`

	// Logging settings
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadConfig loads configuration from .env file and environment variables.
func LoadConfig() (*Config, error) {
	// Try to load .env file (optional)
	if err := godotenv.Load(); err != nil {
		// Not an error if file doesn't exist
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	}

	// Parse environment variables into config struct
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks value ranges envconfig cannot express.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIURL) == "" {
		return fmt.Errorf("MOODTALES_API_URL must not be empty")
	}
	if c.MusicSeconds <= 0 {
		return fmt.Errorf("MUSIC_SECONDS must be positive, got %d", c.MusicSeconds)
	}
	if c.StoryTemperature < 0 || c.StoryTemperature > 2 {
		return fmt.Errorf("STORY_TEMPERATURE must be within [0, 2], got %g", c.StoryTemperature)
	}
	if c.MediaTTL < 0 {
		return fmt.Errorf("MEDIA_TTL must not be negative")
	}

	return nil
}

// BuildCSP constructs Content Security Policy based on mode. The server only
// hands out audio and the library listing.
func BuildCSP(mode string) string {
	if mode == "strict" {
		return "default-src 'none'; " +
			"media-src 'self'; " +
			"style-src 'self'; " +
			"object-src 'none'; " +
			"base-uri 'none'; " +
			"form-action 'none'"
	}

	// relaxed CSP
	return "default-src 'self'; " +
		"media-src 'self' blob: data:; " +
		"style-src 'self' 'unsafe-inline'"
}
