package workflow

import (
	"slices"

	"github.com/alkime/moodtales/internal/emotion"
	"github.com/alkime/moodtales/internal/story"
)

// State is the step of the creation flow currently shown.
type State int

const (
	Record State = iota
	Analyze
	Generate
	Narrate
	Complete
)

// States lists every state in flow order.
var States = []State{Record, Analyze, Generate, Narrate, Complete}

func (s State) String() string {
	switch s {
	case Record:
		return "record"
	case Analyze:
		return "analyze"
	case Generate:
		return "generate"
	case Narrate:
		return "narrate"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// Step is the payload of the current state. The concrete type always matches
// State(): RecordStep, AnalyzeStep, GenerateStep, NarrateStep or CompleteStep.
type Step interface {
	State() State
	clone() Step
}

// RecordStep waits for a clip or text. ClipURL is set when a previous
// analysis failed and the clip can be resubmitted.
type RecordStep struct {
	ClipURL string
}

// AnalyzeStep is in flight while the backend analyses the input.
type AnalyzeStep struct {
	ClipURL string
	Source  emotion.Source
}

// GenerateStep holds the observation batch the story will be written for.
type GenerateStep struct {
	ClipURL      string
	Observations []emotion.Observation
	// Dominant is the backend's hint; the story uses the local aggregate.
	Dominant   emotion.Category
	Transcript string
	Prompt     string
}

// NarrateStep is in flight while narration and music are produced.
type NarrateStep struct {
	ClipURL string
	Story   story.Story
}

// CompleteStep is the finished story. Either URL is empty when producing
// that audio failed.
type CompleteStep struct {
	ClipURL      string
	Story        story.Story
	NarrationURL string
	MusicURL     string
	Warnings     []string
}

func (RecordStep) State() State   { return Record }
func (AnalyzeStep) State() State  { return Analyze }
func (GenerateStep) State() State { return Generate }
func (NarrateStep) State() State  { return Narrate }
func (CompleteStep) State() State { return Complete }

func (s RecordStep) clone() Step  { return s }
func (s AnalyzeStep) clone() Step { return s }
func (s NarrateStep) clone() Step { return s }

func (s GenerateStep) clone() Step {
	s.Observations = slices.Clone(s.Observations)
	return s
}

func (s CompleteStep) clone() Step {
	s.Warnings = slices.Clone(s.Warnings)
	return s
}
