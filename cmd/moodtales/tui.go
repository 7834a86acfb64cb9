package main

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alkime/moodtales/internal/audio"
	"github.com/alkime/moodtales/internal/config"
	"github.com/alkime/moodtales/internal/hosted"
	"github.com/alkime/moodtales/internal/keyring"
	"github.com/alkime/moodtales/internal/logger"
	"github.com/alkime/moodtales/internal/media"
	"github.com/alkime/moodtales/internal/server"
	"github.com/alkime/moodtales/internal/story"
	"github.com/alkime/moodtales/internal/tui"
	"github.com/alkime/moodtales/internal/workdir"
	"github.com/alkime/moodtales/internal/workflow"
	"github.com/alkime/moodtales/pkg/channels"
)

// TUICmd is the default command that runs the TUI.
type TUICmd struct {
	Hosted          bool   `flag:"" help:"Call OpenAI and Anthropic directly instead of the story backend"`
	OpenAIAPIKey    string `flag:"" name:"openai-api-key" help:"OpenAI API key for hosted mode"`
	AnthropicAPIKey string `flag:"" name:"anthropic-api-key" help:"Anthropic API key for hosted mode"`
}

// Run executes the TUI command.
//
//nolint:funlen // CLI command with multiple setup steps
func (c *TUICmd) Run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wg := sync.WaitGroup{}

	// the TUI owns the terminal, so logs go to a file
	logFile, err := workdir.OpenLog()
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()

	lg := logger.SetupLogger(cfg, logFile)

	flowBackend, err := c.backend(cfg)
	if err != nil {
		return err
	}

	// Media server for playable URLs
	ln, err := net.Listen("tcp", cfg.MediaAddr)
	if err != nil {
		return fmt.Errorf("failed to start media server: %w", err)
	}

	reg := media.NewRegistry(media.RegistryConfig{
		BaseURL:   "http://" + ln.Addr().String(),
		OrphanTTL: cfg.MediaTTL,
	})

	library, err := workdir.LibraryPath(cfg.LibraryDir)
	if err != nil {
		return fmt.Errorf("failed to locate library: %w", err)
	}

	srv := server.New(cfg, reg, library, lg)
	wg.Go(func() {
		if err := srv.Serve(ctx, ln); err != nil {
			lg.Error("Media server error", "error", err)
		}
	})

	// Workflow events fan out to the UI and the log
	uiEvents := make(chan workflow.Event, 32)
	logEvents := make(chan workflow.Event, 32)

	// the UI resyncs from the snapshot, so it can afford a short wait at most
	events := channels.NewBroadcaster[workflow.Event]()
	if err := events.SubscribeWithTimeout("ui", uiEvents, 100*time.Millisecond); err != nil {
		return err
	}
	if err := events.Subscribe("log", logEvents); err != nil {
		return err
	}

	input, err := events.Run(ctx)
	if err != nil {
		return fmt.Errorf("failed to start event broadcaster: %w", err)
	}

	wg.Go(func() {
		logWorkflowEvents(ctx, lg, logEvents)
	})

	machine := workflow.New(flowBackend, reg, workflow.Config{
		Params: story.Params{
			Temperature:      cfg.StoryTemperature,
			Creativity:       cfg.StoryCreativity,
			EmotionInfluence: cfg.StoryEmotionInfluence,
		},
		Language:     cfg.NarrationLanguage,
		MusicSeconds: cfg.MusicSeconds,
	}, workflow.WithEvents(input))
	defer machine.Close()

	// Microphone
	rec := audio.NewRecorder(audio.NewMicrophone(audio.DefaultDeviceConfig()), reg)
	defer rec.Reset()

	lg.Info("Starting moodtales",
		"env", cfg.Env,
		"hosted", c.Hosted,
		"api_url", cfg.APIURL,
		"media", reg.URLFor(""),
	)

	p := tea.NewProgram(tui.New(tui.Config{
		Context:  ctx,
		Cancel:   cancel,
		Flow:     machine,
		Recorder: rec,
		Events:   uiEvents,
	}), tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to start TUI: %w", err)
	}

	cancel()
	wg.Wait()
	events.Wait()

	for _, st := range events.Stats() {
		if st.Dropped > 0 {
			lg.Warn("workflow events dropped", "subscriber", st.Name, "dropped", st.Dropped)
		}
	}

	fmt.Println("\nfinished. bye!")

	return nil
}

// backend picks the story backend, or the hosted APIs with --hosted.
func (c *TUICmd) backend(cfg *config.Config) (workflow.Backend, error) {
	if !c.Hosted {
		return newClient(cfg), nil
	}

	// flags win over the environment, then the keychain
	openaiKey, err := keyring.Resolve(keyring.OpenAI, cmp.Or(c.OpenAIAPIKey, cfg.OpenAIKey))
	if err != nil {
		return nil, err
	}

	anthropicKey, err := keyring.Resolve(keyring.Anthropic, cmp.Or(c.AnthropicAPIKey, cfg.AnthropicKey))
	if err != nil {
		return nil, err
	}

	b, err := hosted.New(hosted.Config{OpenAIKey: openaiKey, AnthropicKey: anthropicKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create hosted backend: %w", err)
	}

	return b, nil
}

func logWorkflowEvents(ctx context.Context, lg *slog.Logger, ch <-chan workflow.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-ch:
			lg.Debug("workflow event",
				"kind", ev.Kind.String(),
				"run", ev.RunID,
				"event", ev.String(),
			)
		}
	}
}
