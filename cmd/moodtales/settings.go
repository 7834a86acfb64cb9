package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/alkime/moodtales/internal/config"
	"github.com/alkime/moodtales/internal/keyring"
	"github.com/alkime/moodtales/internal/workdir"
)

// ConfigCmd groups configuration-related subcommands.
type ConfigCmd struct {
	Show      ShowConfigCmd `cmd:"" help:"Print the effective configuration"`
	SetKey    SetKeyCmd     `cmd:"" help:"Store an API key in system keychain"`
	ListKeys  ListKeysCmd   `cmd:"" name:"list-keys" help:"Show which API keys are configured"`
	DeleteKey DeleteKeyCmd  `cmd:"" name:"delete-key" help:"Remove an API key from system keychain"`
}

// ShowConfigCmd prints the effective configuration. Secrets are never shown.
type ShowConfigCmd struct{}

// Run executes the config show command.
func (c *ShowConfigCmd) Run(cfg *config.Config) error {
	library, err := workdir.LibraryPath(cfg.LibraryDir)
	if err != nil {
		return err
	}
	logPath, err := workdir.LogPath()
	if err != nil {
		return err
	}

	rows := [][]string{
		{"MOODTALES_API_URL", cfg.APIURL},
		{"REQUEST_TIMEOUT", cfg.RequestTimeout.String()},
		{"MEDIA_ADDR", cfg.MediaAddr},
		{"LIBRARY_DIR", library},
		{"NARRATION_LANGUAGE", cfg.NarrationLanguage},
		{"MUSIC_SECONDS", fmt.Sprint(cfg.MusicSeconds)},
		{"STORY_TEMPERATURE", fmt.Sprint(cfg.StoryTemperature)},
		{"STORY_CREATIVITY", fmt.Sprint(cfg.StoryCreativity)},
		{"STORY_EMOTION_INFLUENCE", fmt.Sprint(cfg.StoryEmotionInfluence)},
		{"LOG_LEVEL", cfg.LogLevel},
		{"log file", logPath},
	}
	fmt.Println(renderTable([]string{"Setting", "Value"}, rows, nil))

	return nil
}

// SetKeyCmd stores an API key in the system keychain.
type SetKeyCmd struct {
	Service string `arg:"" enum:"openai,anthropic" help:"Service name (openai or anthropic)"`
	Secret  string `arg:"" help:"API key value"`
}

// Run executes the set-key command.
func (c *SetKeyCmd) Run() error {
	if strings.TrimSpace(c.Secret) == "" {
		return errors.New("API key cannot be empty")
	}

	apiKey, err := keyring.APIKeyFromServiceName(c.Service)
	if err != nil {
		return fmt.Errorf("invalid service: %w", err)
	}

	if err := keyring.Set(apiKey, c.Secret); err != nil {
		return fmt.Errorf("failed to store API key: %w", err)
	}

	fmt.Printf("%s API key stored in keychain\n", c.Service)

	return nil
}

// DeleteKeyCmd removes an API key from the system keychain.
type DeleteKeyCmd struct {
	Service string `arg:"" enum:"openai,anthropic" help:"Service name (openai or anthropic)"`
}

// Run executes the delete-key command.
func (c *DeleteKeyCmd) Run() error {
	apiKey, err := keyring.APIKeyFromServiceName(c.Service)
	if err != nil {
		return fmt.Errorf("invalid service: %w", err)
	}

	if err := keyring.Delete(apiKey); err != nil {
		return fmt.Errorf("failed to delete API key: %w", err)
	}

	fmt.Printf("%s API key removed from keychain\n", c.Service)

	return nil
}

// ListKeysCmd shows which API keys are configured and where they come from.
type ListKeysCmd struct{}

// Run executes the list-keys command.
//
//nolint:unparam // error return required by Kong interface
func (c *ListKeysCmd) Run() error {
	allSet := true
	rows := make([][]string, 0, len(keyring.AllAPIKeys()))

	for _, apiKey := range keyring.AllAPIKeys() {
		source := "not set"
		switch {
		case os.Getenv(apiKey.EnvVar()) != "":
			source = "environment (" + apiKey.EnvVar() + ")"
		case keyring.IsSet(apiKey):
			source = "keychain"
		default:
			allSet = false
		}
		rows = append(rows, []string{apiKey.DisplayName(), source})
	}

	fmt.Println(renderTable([]string{"Service", "Source"}, rows, nil))

	if !allSet {
		fmt.Println("\nRun 'moodtales config set-key <service> <key>' to configure.")
	}

	return nil
}
