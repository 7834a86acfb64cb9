package main

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/alkime/moodtales/internal/backend"
	"github.com/alkime/moodtales/internal/config"
	"github.com/alkime/moodtales/internal/editor"
	"github.com/alkime/moodtales/internal/emotion"
	"github.com/alkime/moodtales/internal/story"
	"github.com/alkime/moodtales/internal/workdir"
)

const previewRunes = 60

// StoriesCmd groups the saved story subcommands.
type StoriesCmd struct {
	List     ListStoriesCmd   `cmd:"" default:"withargs" help:"List saved stories"`
	Show     ShowStoryCmd     `cmd:"" help:"Print one story"`
	Delete   DeleteStoryCmd   `cmd:"" help:"Delete a story from the backend"`
	Download DownloadStoryCmd `cmd:"" help:"Save a story and its audio to the library"`
	Continue ContinueStoryCmd `cmd:"" help:"Ask the backend to continue a story"`
}

// ListStoriesCmd lists saved stories.
type ListStoriesCmd struct {
	Emotion string `flag:"" help:"Only stories whose dominant emotion is this (joy, sadness, ...)"`
	From    string `flag:"" help:"Only stories created on or after this date (YYYY-MM-DD)"`
	To      string `flag:"" help:"Only stories created on or before this date (YYYY-MM-DD)"`
	Search  string `flag:"" short:"s" help:"Only stories containing this text"`
}

// Run executes the stories list command.
func (c *ListStoriesCmd) Run(cfg *config.Config) error {
	filters, err := c.filters()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()

	res := newClient(cfg).ListStories(ctx, filters)
	if err := res.Err(); err != nil {
		return err
	}

	if len(res.Data) == 0 {
		fmt.Println("no stories found")
		return nil
	}

	fmt.Println(renderStories(res.Data, time.Now()))

	return nil
}

func (c *ListStoriesCmd) filters() (backend.Filters, error) {
	f := backend.Filters{Search: c.Search}

	if c.Emotion != "" {
		cat, err := emotion.ParseCategory(c.Emotion)
		if err != nil {
			return backend.Filters{}, err
		}
		f.Emotion = cat
	}

	var err error
	if f.DateFrom, err = parseDate(c.From); err != nil {
		return backend.Filters{}, fmt.Errorf("invalid --from: %w", err)
	}
	if f.DateTo, err = parseDate(c.To); err != nil {
		return backend.Filters{}, fmt.Errorf("invalid --to: %w", err)
	}
	if !f.DateFrom.IsZero() && !f.DateTo.IsZero() && f.DateTo.Before(f.DateFrom) {
		return backend.Filters{}, errors.New("--to is before --from")
	}

	return f, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}

	return time.Parse(time.DateOnly, s)
}

func renderStories(stories []story.Story, now time.Time) string {
	rows := make([][]string, 0, len(stories))
	for _, s := range stories {
		created := ""
		if !s.CreatedAt.IsZero() {
			created = humanize.RelTime(s.CreatedAt.Time, now, "ago", "from now")
		}
		mood := ""
		if s.Emotion.Dominant != "" {
			mood = s.Emotion.Dominant.DisplayName()
		}
		rows = append(rows, []string{s.ID, created, mood, s.Preview(previewRunes)})
	}

	return renderTable(
		[]string{"ID", "Created", "Emotion", "Story"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft},
	)
}

// ShowStoryCmd prints one story.
type ShowStoryCmd struct {
	ID string `arg:"" help:"Story ID"`
}

// Run executes the stories show command.
func (c *ShowStoryCmd) Run(cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()

	client := newClient(cfg)
	res := client.GetStory(ctx, c.ID)
	if err := res.Err(); err != nil {
		return err
	}

	fmt.Print(formatStory(res.Data, client.AudioURL))

	return nil
}

// formatStory renders the story header, body and audio links as plain text.
func formatStory(s story.Story, audioURL func(string) string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Story %s\n", s.ID)
	if !s.CreatedAt.IsZero() {
		fmt.Fprintf(&sb, "Created:   %s\n", s.CreatedAt.Format(time.RFC1123))
	}
	if s.Emotion.Dominant != "" {
		fmt.Fprintf(&sb, "Emotion:   %s (intensity %.0f%%)\n", s.Emotion.Dominant.DisplayName(), s.Emotion.Intensity*100)
	}
	if s.UserInput != "" {
		fmt.Fprintf(&sb, "Prompt:    %s\n", s.UserInput)
	}
	for _, track := range []struct{ label, path string }{
		{"Narration", s.NarrationPath},
		{"Music", s.MusicPath},
		{"Recording", s.AudioPath},
	} {
		if track.path != "" {
			fmt.Fprintf(&sb, "%-10s %s\n", track.label+":", audioURL(track.path))
		}
	}
	sb.WriteString("\n")
	sb.WriteString(strings.TrimSpace(s.Text))
	sb.WriteString("\n")

	return sb.String()
}

// DeleteStoryCmd deletes a story from the backend.
type DeleteStoryCmd struct {
	ID string `arg:"" help:"Story ID"`
}

// Run executes the stories delete command.
func (c *DeleteStoryCmd) Run(cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()

	if err := newClient(cfg).DeleteStory(ctx, c.ID).Err(); err != nil {
		return err
	}

	fmt.Printf("deleted %s\n", c.ID)

	return nil
}

// DownloadStoryCmd saves a story and its audio into the library.
type DownloadStoryCmd struct {
	ID  string `arg:"" help:"Story ID"`
	Dir string `flag:"" help:"Library directory (overrides LIBRARY_DIR)"`
}

// Run executes the stories download command.
func (c *DownloadStoryCmd) Run(cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()

	library, err := workdir.LibraryPath(cmp.Or(c.Dir, cfg.LibraryDir))
	if err != nil {
		return err
	}
	dir, err := workdir.StoryPath(library, c.ID)
	if err != nil {
		return err
	}

	client := newClient(cfg)
	res := client.GetStory(ctx, c.ID)
	if err := res.Err(); err != nil {
		return err
	}

	saved, err := saveStory(ctx, client, res.Data, dir)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(saved))
	for _, f := range saved {
		rows = append(rows, []string{f.name, humanize.Bytes(uint64(f.size))}) //nolint:gosec // sizes are non-negative
	}
	fmt.Println(renderTable([]string{"File", "Size"}, rows, []columnAlignment{alignLeft, alignRight}))
	fmt.Printf("saved to %s\n", dir)

	return nil
}

// audioFetcher downloads backend audio assets.
type audioFetcher interface {
	DownloadAudio(ctx context.Context, path string) backend.Result[backend.Audio]
}

type outFile struct {
	name string
	data []byte
}

type savedFile struct {
	name string
	size int
}

// saveStory writes story.json, story.txt and whatever audio the story has
// into dir. Audio downloads run concurrently; a failed download fails the
// whole save.
func saveStory(ctx context.Context, fetcher audioFetcher, s story.Story, dir string) ([]savedFile, error) {
	if err := workdir.Prep(dir); err != nil {
		return nil, err
	}

	meta, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode story: %w", err)
	}

	files := []outFile{
		{"story.json", meta},
		{"story.txt", []byte(strings.TrimSpace(s.Text) + "\n")},
	}

	tracks := []struct{ name, path string }{
		{"narration", s.NarrationPath},
		{"music", s.MusicPath},
		{"recording", s.AudioPath},
	}
	audio := make([]backend.Audio, len(tracks))

	g, gctx := errgroup.WithContext(ctx)
	for i, t := range tracks {
		if t.path == "" {
			continue
		}
		g.Go(func() error {
			res := fetcher.DownloadAudio(gctx, t.path)
			if err := res.Err(); err != nil {
				return fmt.Errorf("%s: %w", t.name, err)
			}
			audio[i] = res.Data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, t := range tracks {
		if len(audio[i].Data) == 0 {
			continue
		}
		files = append(files, outFile{t.name + audioExt(t.path, audio[i].MIMEType), audio[i].Data})
	}

	saved := make([]savedFile, 0, len(files))
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f.name), f.data, 0o600); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", f.name, err)
		}
		saved = append(saved, savedFile{name: f.name, size: len(f.data)})
	}

	return saved, nil
}

// audioExt picks a file extension from the asset path, then the MIME type.
func audioExt(assetPath, mimeType string) string {
	if ext := path.Ext(strings.SplitN(assetPath, "?", 2)[0]); ext != "" && len(ext) <= 5 {
		return ext
	}

	switch {
	case strings.Contains(mimeType, "mpeg"), strings.Contains(mimeType, "mp3"):
		return ".mp3"
	case strings.Contains(mimeType, "wav"):
		return ".wav"
	case strings.Contains(mimeType, "ogg"):
		return ".ogg"
	default:
		return ".bin"
	}
}

// ContinueStoryCmd asks the backend to continue a story.
type ContinueStoryCmd struct {
	ID    string   `arg:"" help:"Story ID"`
	Input []string `arg:"" optional:"" help:"What should happen next; opens $EDITOR when omitted"`
}

// Run executes the stories continue command.
func (c *ContinueStoryCmd) Run(cfg *config.Config) error {
	input := strings.TrimSpace(strings.Join(c.Input, " "))
	if input == "" {
		var err error
		input, err = editor.Compose("What should happen next in story " + c.ID + "?\nSave and quit when done. Lines starting with # are ignored.")
		if err != nil {
			return err
		}
	}
	if input == "" {
		return errors.New("tell the story what happens next")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()

	client := newClient(cfg)

	// continue in the mood the story was written in
	orig := client.GetStory(ctx, c.ID)
	if err := orig.Err(); err != nil {
		return err
	}

	res := client.ContinueStory(ctx, c.ID, input, orig.Data.Emotion)
	if err := res.Err(); err != nil {
		return err
	}

	fmt.Println(strings.TrimSpace(res.Data.Continuation))

	return nil
}
