package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log/slog"

	mp3encoder "github.com/braheezy/shine-mp3/pkg/mp3"
)

// EncodeMP3 encodes S16LE PCM into a single MP3 clip.
func EncodeMP3(pcm []byte, config ClipConfig) ([]byte, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid clip config: %w", err)
	}

	numSamples := len(pcm) / 2 // 2 bytes per int16 sample
	if numSamples == 0 {
		return nil, ErrNoAudio
	}

	samples := make([]int16, numSamples)
	if err := binary.Read(bytes.NewReader(pcm[:numSamples*2]), binary.LittleEndian, samples); err != nil {
		return nil, fmt.Errorf("failed to read PCM samples: %w", err)
	}

	channels := config.Channels
	if channels == 1 {
		// shine-mp3 mishandles mono input, so duplicate into L=R stereo
		samples = monoToStereo(samples)
		channels = 2
	}

	slog.Debug("encoding clip",
		"samples", numSamples,
		"sampleRate", config.SampleRate,
		"channels", channels)

	var out bytes.Buffer

	encoder := mp3encoder.NewEncoder(config.SampleRate, channels)
	if err := encoder.Write(&out, samples); err != nil {
		return nil, fmt.Errorf("failed to encode MP3: %w", err)
	}

	return out.Bytes(), nil
}

func monoToStereo(mono []int16) []int16 {
	stereo := make([]int16, len(mono)*2)
	for i, sample := range mono {
		stereo[i*2] = sample
		stereo[i*2+1] = sample
	}

	return stereo
}
