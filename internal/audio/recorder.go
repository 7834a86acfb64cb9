package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alkime/moodtales/internal/media"
)

// Clip is a finalized recording.
type Clip struct {
	Audio    []byte
	MIMEType string
	Seconds  int
	// Playable is the URL handle minted for the clip; nil when no minter is configured.
	Playable *media.Handle
}

// URL returns the playable URL, or "" when none was minted.
func (c *Clip) URL() string {
	if c == nil {
		return ""
	}

	return c.Playable.URL()
}

// Session is a snapshot of the recorder state.
type Session struct {
	Active  bool
	Elapsed int
	Bytes   int64
	Clip    *Clip
}

// Ticker drives the elapsed-seconds counter.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	*time.Ticker
}

func (t timeTicker) C() <-chan time.Time {
	return t.Ticker.C
}

// RecorderOption customizes a Recorder.
type RecorderOption func(*Recorder)

// WithTicker overrides how the one-second counter ticker is created (useful for tests).
func WithTicker(newTicker func(time.Duration) Ticker) RecorderOption {
	return func(r *Recorder) {
		r.newTicker = newTicker
	}
}

// WithClipConfig overrides the PCM layout used when encoding clips.
func WithClipConfig(conf ClipConfig) RecorderOption {
	return func(r *Recorder) {
		r.clipConf = conf.WithDefaults()
	}
}

// Recorder runs the recording lifecycle on top of a Microphone.
//
// Start acquires the device, Stop finalizes the take into a Clip with a
// playable URL, Reset discards everything and releases that URL. The device
// is closed on Stop and on Reset.
type Recorder struct {
	mic       Microphone
	minter    media.Minter
	clipConf  ClipConfig
	levels    *LevelMeter
	newTicker func(time.Duration) Ticker

	mu      sync.Mutex
	current *take
	takeID  int
	session Session
	// opening is set while mic.Open runs outside the lock
	opening bool
}

// take is one start..stop span.
type take struct {
	id      int
	stream  Stream
	stop    chan struct{}
	wg      sync.WaitGroup
	pcm     []byte
	bytes   atomic.Int64
	elapsed atomic.Int64
	once    sync.Once
	err     error
}

// NewRecorder creates a recorder. minter may be nil, in which case clips carry no URL.
func NewRecorder(mic Microphone, minter media.Minter, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		mic:      mic,
		minter:   minter,
		clipConf: ClipConfig{}.WithDefaults(),
		levels:   NewLevelMeter(DefaultSampleRate), // one second of history
		newTicker: func(d time.Duration) Ticker {
			return timeTicker{time.NewTicker(d)}
		},
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Start acquires the microphone and begins a new take. It is a no-op while
// already recording. A previous clip is discarded and its URL released.
//
// The device is opened without the recorder lock held. A Reset while it
// opens wins: the stream is closed and Start returns nil.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.current != nil || r.opening {
		r.mu.Unlock()
		return nil
	}
	r.opening = true
	gen := r.takeID
	r.mu.Unlock()

	stream, err := r.mic.Open(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.opening = false

	if err != nil {
		var permErr *PermissionError
		if !errors.As(err, &permErr) {
			err = &PermissionError{Err: err}
		}

		slog.Warn("microphone unavailable", "error", err)

		return err
	}

	if r.takeID != gen {
		slog.Debug("recorder reset while opening microphone")
		if err := stream.Close(); err != nil {
			slog.Warn("failed to release microphone cleanly", "error", err)
		}

		return nil
	}

	r.discardClipLocked()
	r.levels.Reset()
	r.takeID++

	t := &take{
		id:     r.takeID,
		stream: stream,
		stop:   make(chan struct{}),
	}
	ticker := r.newTicker(time.Second)

	t.wg.Go(func() {
		r.collect(t)
	})
	t.wg.Go(func() {
		count(t, ticker)
	})

	r.current = t
	r.session = Session{Active: true}

	slog.Info("recording started", "take", t.id)

	return nil
}

// Stop finalizes the current take. Without an active take it returns (nil, nil).
func (r *Recorder) Stop() (*Clip, error) {
	r.mu.Lock()
	t := r.current
	if t == nil {
		r.mu.Unlock()
		return nil, nil
	}

	r.current = nil
	r.session.Active = false
	r.mu.Unlock()

	if err := t.halt(); err != nil {
		slog.Warn("failed to release microphone cleanly", "error", err)
	}

	seconds := int(t.elapsed.Load())

	audio, err := EncodeMP3(t.pcm, r.clipConf)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.takeID != t.id {
		// reset while we were finalizing
		return nil, nil
	}

	r.session.Elapsed = seconds
	r.session.Bytes = t.bytes.Load()

	if err != nil {
		return nil, fmt.Errorf("failed to finalize recording: %w", err)
	}

	clip := &Clip{
		Audio:    audio,
		MIMEType: ClipMIMEType,
		Seconds:  seconds,
	}

	if r.minter != nil {
		h, mintErr := r.minter.Mint(media.Asset{Data: audio, MIMEType: ClipMIMEType, Label: "recording"})
		if mintErr != nil {
			slog.Warn("failed to mint recording URL", "error", mintErr)
		} else {
			clip.Playable = h
		}
	}

	r.session.Clip = clip

	slog.Info("recording stopped", "take", t.id, "seconds", seconds, "bytes", len(audio))

	return clip, nil
}

// Reset stops any active take without finalizing it, releases the clip URL
// and returns to the empty session. Safe to call at any time.
func (r *Recorder) Reset() {
	r.mu.Lock()
	t := r.current
	r.current = nil
	r.takeID++
	r.discardClipLocked()
	r.session = Session{}
	r.mu.Unlock()

	if t != nil {
		if err := t.halt(); err != nil {
			slog.Warn("failed to release microphone cleanly", "error", err)
		}
	}
}

// Session returns a snapshot of the current state.
func (r *Recorder) Session() Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.session
	if r.current != nil {
		s.Elapsed = int(r.current.elapsed.Load())
		s.Bytes = r.current.bytes.Load()
	}

	return s
}

// IsRecording reports whether a take is in progress.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.current != nil
}

// ReadSamples returns up to n of the most recent samples for level meters.
func (r *Recorder) ReadSamples(n int) []int16 {
	return r.levels.Recent(n)
}

func (r *Recorder) discardClipLocked() {
	if r.session.Clip != nil {
		r.session.Clip.Playable.Release()
	}
	r.session.Clip = nil
}

func (r *Recorder) collect(t *take) {
	for pkt := range t.stream.Packets() {
		t.pcm = append(t.pcm, pkt...)
		t.bytes.Add(int64(len(pkt)))
		r.levels.WritePCM(pkt)
	}
}

func count(t *take, ticker Ticker) {
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C():
			t.elapsed.Add(1)
		case <-t.stop:
			return
		}
	}
}

// halt stops the counter, releases the device and waits for both goroutines.
func (t *take) halt() error {
	t.once.Do(func() {
		close(t.stop)
		t.err = t.stream.Close()
		t.wg.Wait()
	})

	return t.err
}
