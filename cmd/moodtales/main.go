// Command moodtales records how you feel and turns it into a narrated story
// with music.
package main

import (
	"log"
	"os"

	"github.com/alecthomas/kong"

	"github.com/alkime/moodtales/internal/backend"
	"github.com/alkime/moodtales/internal/config"
	"github.com/alkime/moodtales/internal/logger"
)

// CLI defines the moodtales command structure.
type CLI struct {
	APIURL string `name:"api-url" help:"Story backend URL (overrides MOODTALES_API_URL)"`

	// Default TUI command (runs when no subcommand given)
	TUI TUICmd `cmd:"" default:"withargs" help:"Launch the story creation UI"`

	// Subcommands
	Devices DevicesCmd `cmd:"" help:"List available audio capture devices"`
	Health  HealthCmd  `cmd:"" help:"Check that the story backend is up"`
	Models  ModelsCmd  `cmd:"" help:"Manage backend models"`
	Stories StoriesCmd `cmd:"" help:"Browse, download and continue saved stories"`
	Config  ConfigCmd  `cmd:"" help:"Manage configuration"`
}

// AfterApply applies global flags to the loaded configuration.
func (c *CLI) AfterApply(cfg *config.Config) error {
	if c.APIURL != "" {
		cfg.APIURL = c.APIURL
	}

	return nil
}

// newClient builds the backend client every subcommand shares.
func newClient(cfg *config.Config) *backend.Client {
	return backend.NewClient(backend.Config{
		BaseURL: cfg.APIURL,
		Timeout: cfg.RequestTimeout,
	})
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// CLI output goes to stdout; logs stay on stderr
	logger.SetupLogger(cfg, os.Stderr)

	cli := &CLI{} //nolint:exhaustruct // Kong fills in command fields
	ctx := kong.Parse(cli,
		kong.Name("moodtales"),
		kong.Description("Speak, and get a story that matches your mood."),
		kong.UsageOnError(),
		kong.Bind(cfg),
	)
	err = ctx.Run()
	ctx.FatalIfErrorf(err)
	os.Exit(0)
}
