package main

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/alkime/moodtales/internal/config"
)

// HealthCmd checks that the story backend is up.
type HealthCmd struct{}

// Run executes the health command.
func (c *HealthCmd) Run(cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res := newClient(cfg).Health(ctx)
	if err := res.Err(); err != nil {
		return fmt.Errorf("backend at %s is not healthy: %w", cfg.APIURL, err)
	}

	fmt.Printf("%s: %s\n", cfg.APIURL, res.Data.Status)
	if len(res.Data.ModelsLoaded) > 0 {
		fmt.Printf("models loaded: %s\n", strings.Join(res.Data.ModelsLoaded, ", "))
	}
	if len(res.Data.Models) > 0 {
		fmt.Println(renderModels(res.Data.Models))
	}

	return nil
}

// ModelsCmd groups model management subcommands.
type ModelsCmd struct {
	Load LoadModelsCmd `cmd:"" help:"Ask the backend to load its AI models"`
}

// LoadModelsCmd asks the backend to load its models.
type LoadModelsCmd struct{}

// Run executes the models load command. Loading can take minutes, so it uses
// the configured request timeout instead of a short one.
func (c *LoadModelsCmd) Run(cfg *config.Config) error {
	fmt.Println("Loading models, this can take a while...")

	res := newClient(cfg).LoadModels(context.Background())
	if err := res.Err(); err != nil {
		return fmt.Errorf("failed to load models: %w", err)
	}

	fmt.Println(renderModels(res.Data.Models))
	fmt.Printf("loaded in %s\n", time.Duration(res.Data.LoadingTime*float64(time.Second)).Round(time.Millisecond))

	return nil
}

func renderModels(models map[string]any) string {
	rows := make([][]string, 0, len(models))
	for _, name := range slices.Sorted(maps.Keys(models)) {
		rows = append(rows, []string{name, fmt.Sprint(models[name])})
	}

	return renderTable([]string{"Model", "Status"}, rows, nil)
}
