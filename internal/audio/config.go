package audio

import (
	"github.com/gen2brain/malgo"
)

// DeviceConfig selects the capture format of the microphone.
type DeviceConfig struct {
	Format          malgo.FormatType
	CaptureChannels int
	SampleRate      int
}

// DefaultDeviceConfig is 16kHz mono S16LE, matching DefaultClipConfig.
func DefaultDeviceConfig() DeviceConfig {
	return DeviceConfig{
		Format:          malgo.FormatS16,
		CaptureChannels: DefaultChannels,
		SampleRate:      DefaultSampleRate,
	}
}
