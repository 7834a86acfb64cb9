// Package workflow sequences one story creation: Record, Analyze, Generate,
// Narrate and Complete, with a reset edge back to Record.
//
// A Machine owns everything a run produces. Each run has its own context and
// media scope; Reset cancels the context and closes the scope, so in-flight
// requests are aborted, their late results are dropped with ErrAbandoned and
// every playable URL of the run is released.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/alkime/moodtales/internal/audio"
	"github.com/alkime/moodtales/internal/backend"
	"github.com/alkime/moodtales/internal/emotion"
	"github.com/alkime/moodtales/internal/media"
	"github.com/alkime/moodtales/internal/story"
	"github.com/alkime/moodtales/pkg/channels"
)

const clipFilename = "recording.mp3"

// Config tunes what the machine asks the backend for.
type Config struct {
	Params       story.Params
	Language     string
	MusicSeconds int
}

// Option customizes a Machine.
type Option func(*Machine)

// WithEvents publishes events to ch without blocking; events are dropped when
// ch is full.
func WithEvents(ch chan<- Event) Option {
	return func(m *Machine) {
		m.events = ch
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		m.now = now
	}
}

// Machine is the creation flow state machine. It is safe for concurrent use;
// backend calls run without holding the lock.
type Machine struct {
	backend Backend
	scopes  Scopes
	cfg     Config
	events  chan<- Event
	now     func() time.Time

	mu      sync.Mutex
	run     *run
	state   State
	step    Step
	busy    bool
	lastErr error
	closed  bool
}

// run is one pass from Record to Complete.
type run struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	scope  *media.Scope
}

// bind derives a request context that is cancelled with either ctx or the run.
func (r *run) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	reqCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(r.ctx, cancel)

	return reqCtx, func() {
		stop()
		cancel()
	}
}

// New creates a machine in Record.
func New(b Backend, scopes Scopes, cfg Config, opts ...Option) *Machine {
	m := &Machine{
		backend: b,
		scopes:  scopes,
		cfg:     cfg,
		now:     time.Now,
		state:   Record,
		step:    RecordStep{},
	}
	for _, opt := range opts {
		opt(m)
	}

	m.run = m.newRun()

	return m
}

// Snapshot is a copy of the machine for renderers.
type Snapshot struct {
	RunID string
	State State
	Step  Step
	// Busy is true while a backend request is in flight.
	Busy bool
	Err  error
}

// Snapshot returns a copy of the current state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		RunID: m.run.id,
		State: m.state,
		Step:  m.step.clone(),
		Busy:  m.busy,
		Err:   m.lastErr,
	}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state
}

// SubmitClip moves Record to Analyze and asks the backend for emotions. The
// clip's playable URL becomes owned by the run. With at least one observation
// the machine moves on to Generate; otherwise it returns to Record with the
// error and an empty observation batch.
func (m *Machine) SubmitClip(ctx context.Context, clip *audio.Clip) error {
	if clip == nil || len(clip.Audio) == 0 {
		return fmt.Errorf("submit clip: %w", audio.ErrNoAudio)
	}

	m.mu.Lock()
	if err := m.checkLocked("submit clip", Record); err != nil {
		m.mu.Unlock()
		return err
	}

	r := m.run
	r.scope.Adopt(clip.Playable)
	clipURL := clip.URL()

	m.busy = true
	m.lastErr = nil
	m.transitionLocked(AnalyzeStep{ClipURL: clipURL, Source: emotion.SourceAudio})
	m.mu.Unlock()

	reqCtx, cancel := r.bind(ctx)
	res := m.backend.AnalyzeAudio(reqCtx, clip.Audio, clipFilename)
	cancel()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.run != r {
		slog.Debug("dropping analysis for abandoned run", "run", r.id)
		return ErrAbandoned
	}

	m.busy = false

	if msg, ok := analysisFailure(res); !ok {
		err := &StepError{State: Analyze, Message: msg}
		m.lastErr = err
		m.transitionLocked(RecordStep{ClipURL: clipURL})
		m.publishLocked(EventError, msg)

		return err
	}

	m.transitionLocked(GenerateStep{
		ClipURL:      clipURL,
		Observations: slices.Clone(res.Data.Observations),
		Dominant:     res.Data.Dominant,
		Transcript:   res.Data.Transcript,
	})

	return nil
}

// analysisFailure reports why an analysis cannot feed story generation.
// Every observation must name a known category.
func analysisFailure(res backend.Result[backend.Analysis]) (string, bool) {
	if !res.Success {
		return res.Error, false
	}
	if len(res.Data.Observations) == 0 {
		return "no emotions detected", false
	}
	for _, o := range res.Data.Observations {
		if !o.Category.Valid() {
			return fmt.Sprintf("analysis returned an unknown emotion %q", o.Category), false
		}
	}

	return "", true
}

// SubmitText bypasses analysis: it moves Record through Analyze to Generate
// with a single neutral observation of full intensity, and keeps text as the
// story prompt.
func (m *Machine) SubmitText(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errors.New("submit text: prompt is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkLocked("submit text", Record); err != nil {
		return err
	}

	m.lastErr = nil
	m.transitionLocked(AnalyzeStep{Source: emotion.SourceText})
	m.transitionLocked(GenerateStep{
		Observations: []emotion.Observation{
			emotion.NewObservation(emotion.Neutral, 1.0, emotion.SourceText, m.now()),
		},
		Dominant: emotion.Neutral,
		Prompt:   text,
	})

	return nil
}

// Generate asks for a story using the current observations. prompt overrides
// the prompt kept from SubmitText when non-empty. The observations are
// aggregated before the backend is asked; a batch that cannot be aggregated
// never reaches it. On failure the machine stays in Generate. On success it
// builds the story, enters Narrate and returns once narration settles in
// Complete.
func (m *Machine) Generate(ctx context.Context, prompt string) (story.Story, error) {
	m.mu.Lock()
	if err := m.checkLocked("generate", Generate); err != nil {
		m.mu.Unlock()
		return story.Story{}, err
	}

	step, _ := m.step.(GenerateStep)
	if len(step.Observations) == 0 {
		m.mu.Unlock()
		return story.Story{}, fmt.Errorf("generate: %w", emotion.ErrNoObservations)
	}

	if p := strings.TrimSpace(prompt); p != "" {
		step.Prompt = p
		m.step = step
	}

	observations := slices.Clone(step.Observations)
	agg, err := emotion.Aggregate(observations)
	if err != nil {
		m.lastErr = &StepError{State: Generate, Message: err.Error()}
		m.publishLocked(EventError, err.Error())
		m.mu.Unlock()

		return story.Story{}, fmt.Errorf("generate: %w", err)
	}

	r := m.run
	m.busy = true
	m.lastErr = nil
	m.mu.Unlock()

	reqCtx, cancel := r.bind(ctx)
	defer cancel()

	res := m.backend.GenerateStory(reqCtx, backend.StoryRequest{
		Observations: observations,
		Prompt:       step.Prompt,
		Params:       m.cfg.Params,
	})

	m.mu.Lock()
	if m.run != r {
		m.mu.Unlock()
		slog.Debug("dropping story for abandoned run", "run", r.id)

		return story.Story{}, ErrAbandoned
	}

	if !res.Success {
		err := &StepError{State: Generate, Message: res.Error}
		m.busy = false
		m.lastErr = err
		m.publishLocked(EventError, res.Error)
		m.mu.Unlock()

		return story.Story{}, err
	}

	st := story.Story{
		ID:        res.Data.StoryID,
		Text:      res.Data.Text(),
		Emotion:   agg,
		CreatedAt: story.Timestamp{Time: m.now().UTC()},
		UserInput: step.Prompt,
	}
	if st.ID == "" {
		st.ID = uuid.NewString()
	}

	m.transitionLocked(NarrateStep{ClipURL: step.ClipURL, Story: st})
	m.mu.Unlock()

	if err := m.narrate(reqCtx, r, step.ClipURL, st); err != nil {
		return story.Story{}, err
	}

	return st, nil
}

// narrate produces narration and music concurrently and moves to Complete
// once both have settled, whatever their outcome.
func (m *Machine) narrate(ctx context.Context, r *run, clipURL string, st story.Story) error {
	var (
		g                      errgroup.Group
		narration, music       *media.Handle
		narrationErr, musicErr error
	)

	g.Go(func() error {
		res := m.backend.SynthesizeSpeech(ctx, st.Text, story.VoiceFor(st.Emotion, m.cfg.Language))
		narration, narrationErr = mint(r.scope, res, "narration")
		return nil
	})
	g.Go(func() error {
		res := m.backend.GenerateMusic(ctx, story.MusicFor(st.Emotion), m.cfg.MusicSeconds)
		music, musicErr = mint(r.scope, res, "music")
		return nil
	})
	_ = g.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.run != r {
		// the scope is closed already, which released anything minted
		slog.Debug("dropping narration for abandoned run", "run", r.id)
		return ErrAbandoned
	}

	done := CompleteStep{
		ClipURL:      clipURL,
		Story:        st,
		NarrationURL: narration.URL(),
		MusicURL:     music.URL(),
	}

	for _, err := range []error{narrationErr, musicErr} {
		if err != nil {
			done.Warnings = append(done.Warnings, err.Error())
		}
	}

	m.busy = false
	m.transitionLocked(done)

	for _, w := range done.Warnings {
		m.publishLocked(EventWarning, w)
	}

	return nil
}

func mint(scope *media.Scope, res backend.Result[backend.Audio], label string) (*media.Handle, error) {
	if !res.Success {
		return nil, fmt.Errorf("%s unavailable: %s", label, res.Error)
	}

	h, err := scope.Mint(media.Asset{Data: res.Data.Data, MIMEType: res.Data.MIMEType, Label: label})
	if err != nil {
		return nil, fmt.Errorf("%s unavailable: %w", label, err)
	}

	return h, nil
}

// Reset abandons the current run from any state: in-flight requests are
// cancelled, every playable URL of the run is released and the machine
// returns to an empty Record.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}

	from := m.state
	m.endRunLocked()
	m.run = m.newRun()
	m.state = Record
	m.step = RecordStep{}
	m.busy = false
	m.lastErr = nil

	slog.Info("workflow reset", "run", m.run.id, "from", from)
	m.publish(Event{Kind: EventReset, RunID: m.run.id, From: from, To: Record, At: m.now()})
}

// Close abandons the current run and releases its resources. Any later
// operation returns ErrClosed.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}

	m.closed = true
	m.endRunLocked()
}

func (m *Machine) newRun() *run {
	ctx, cancel := context.WithCancel(context.Background())

	return &run{
		id:     uuid.NewString(),
		ctx:    ctx,
		cancel: cancel,
		scope:  m.scopes.NewScope(),
	}
}

func (m *Machine) endRunLocked() {
	m.run.cancel()
	m.run.scope.Close()
}

func (m *Machine) checkLocked(op string, want State) error {
	switch {
	case m.closed:
		return ErrClosed
	case m.state != want:
		return invalid(op, m.state)
	case m.busy:
		return fmt.Errorf("%s: %w", op, ErrBusy)
	}

	return nil
}

func (m *Machine) transitionLocked(step Step) {
	from := m.state
	m.state = step.State()
	m.step = step

	slog.Info("workflow transition", "run", m.run.id, "from", from, "to", m.state)
	m.publish(Event{Kind: EventTransition, RunID: m.run.id, From: from, To: m.state, At: m.now()})
}

func (m *Machine) publishLocked(kind EventKind, msg string) {
	if kind == EventError {
		slog.Warn("workflow error", "run", m.run.id, "state", m.state, "error", msg)
	} else {
		slog.Warn("workflow warning", "run", m.run.id, "state", m.state, "warning", msg)
	}

	m.publish(Event{Kind: kind, RunID: m.run.id, From: m.state, To: m.state, Message: msg, At: m.now()})
}

func (m *Machine) publish(ev Event) {
	if m.events == nil {
		return
	}

	if err := channels.SendNonBlock(m.events, ev); err != nil {
		slog.Debug("workflow event dropped", "event", ev.String(), "error", err)
	}
}
