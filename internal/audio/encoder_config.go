package audio

import "errors"

const (
	// DefaultSampleRate is 16kHz, which the analysis models expect.
	DefaultSampleRate = 16000
	// DefaultChannels is mono (1 channel).
	DefaultChannels = 1
	// ClipMIMEType is the content type of encoded clips.
	ClipMIMEType = "audio/mpeg"
)

// ClipConfig describes the PCM layout fed to the clip encoder.
type ClipConfig struct {
	// SampleRate is the audio sample rate in Hz.
	SampleRate int

	// Channels is the number of interleaved channels in the PCM input.
	// Mono input is widened to stereo for shine-mp3.
	Channels int
}

// Validate returns an error if the config is invalid.
func (c ClipConfig) Validate() error {
	if c.SampleRate <= 0 {
		return errors.New("sample rate must be positive")
	}

	if c.Channels != 1 && c.Channels != 2 {
		return errors.New("only mono or stereo is supported")
	}

	return nil
}

// WithDefaults returns a config with default values applied to zero fields.
func (c ClipConfig) WithDefaults() ClipConfig {
	if c.SampleRate == 0 {
		c.SampleRate = DefaultSampleRate
	}

	if c.Channels == 0 {
		c.Channels = DefaultChannels
	}

	return c
}
