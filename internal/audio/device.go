package audio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alkime/moodtales/pkg/channels"
	"github.com/alkime/moodtales/pkg/collections"
	"github.com/gen2brain/malgo"
)

// DataPacket is one buffer of raw S16LE samples.
type DataPacket = []byte

// Microphone opens capture streams on an input device.
type Microphone interface {
	// Open acquires the input device and starts delivering packets.
	// Failing to acquire the device yields a *PermissionError.
	Open(ctx context.Context) (Stream, error)

	// Devices lists available capture devices.
	Devices(ctx context.Context) ([]Info, error)
}

// Stream is an open capture session. Close releases the device and closes
// the packet channel; it is safe to call more than once.
type Stream interface {
	Packets() <-chan DataPacket
	Close() error
}

// MalgoMicrophone captures from the default input device via miniaudio.
type MalgoMicrophone struct {
	conf DeviceConfig
}

// NewMicrophone creates a malgo-backed microphone.
func NewMicrophone(conf DeviceConfig) *MalgoMicrophone {
	return &MalgoMicrophone{conf: conf}
}

// Devices lists available capture devices.
func (m *MalgoMicrophone) Devices(ctx context.Context) ([]Info, error) {
	// An empty context is fine for just enumerating devices.
	devCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	defer uninitializeContext(devCtx)

	captureDevices, err := devCtx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("failed to get capture devices: %w", err)
	}

	return collections.Apply(captureDevices, malgoDeviceInfoToDeviceInfo), nil
}

// Open allocates and starts a capture device.
func (m *MalgoMicrophone) Open(ctx context.Context) (Stream, error) {
	dataC := make(chan DataPacket, 64)

	mgCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, &PermissionError{Err: fmt.Errorf("failed to initialize malgo context: %w", err)}
	}

	devCnf := malgo.DefaultDeviceConfig(malgo.Capture)
	devCnf.Capture.Format = m.conf.Format
	devCnf.Capture.Channels = uint32(m.conf.CaptureChannels) //nolint:gosec // small positive config value
	devCnf.SampleRate = uint32(m.conf.SampleRate)            //nolint:gosec // small positive config value

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, samples []byte, _ uint32) {
			// samples points at miniaudio's buffer and is only valid during the callback
			pkt := make([]byte, len(samples))
			copy(pkt, samples)

			// never block the audio thread; drop when the consumer lags
			_ = channels.SendNonBlock(dataC, pkt)
		},
	}

	mgDevice, err := malgo.InitDevice(mgCtx.Context, devCnf, callbacks)
	if err != nil {
		uninitializeContext(mgCtx)
		return nil, &PermissionError{Err: fmt.Errorf("failed to initialize capture device: %w", err)}
	}

	if err := mgDevice.Start(); err != nil {
		mgDevice.Uninit()
		uninitializeContext(mgCtx)

		return nil, &PermissionError{Err: fmt.Errorf("failed to start capture device: %w", err)}
	}

	slog.Debug("microphone opened",
		"sampleRate", m.conf.SampleRate,
		"channels", m.conf.CaptureChannels)

	return &malgoStream{
		mgCtx:    mgCtx,
		mgDevice: mgDevice,
		dataC:    dataC,
	}, nil
}

type malgoStream struct {
	mgCtx    *malgo.AllocatedContext
	mgDevice *malgo.Device
	dataC    chan DataPacket

	once sync.Once
	err  error
}

func (s *malgoStream) Packets() <-chan DataPacket {
	return s.dataC
}

func (s *malgoStream) Close() error {
	s.once.Do(func() {
		if err := s.mgDevice.Stop(); err != nil {
			s.err = fmt.Errorf("failed to stop malgo device: %w", err)
		}

		// Uninit waits for in-flight callbacks, so closing dataC afterwards is safe.
		s.mgDevice.Uninit()
		uninitializeContext(s.mgCtx)
		close(s.dataC)

		slog.Debug("microphone released")
	})

	return s.err
}

// Info describes a capture device.
type Info struct {
	Name        string
	IsDefault   bool
	FormatCount int
	Formats     []string
}

func malgoDeviceInfoToDeviceInfo(mdi malgo.DeviceInfo) Info {
	formats := make([]string, len(mdi.Formats))
	for i, mf := range mdi.Formats {
		formats[i] = fmt.Sprintf("(SampleSizeBytes: %d, Channels: %d, SampleRate: %d)",
			malgo.SampleSizeInBytes(mf.Format),
			mf.Channels, mf.SampleRate)
	}

	return Info{
		Name:        mdi.Name(),
		IsDefault:   mdi.IsDefault != 0,
		FormatCount: int(mdi.FormatCount),
		Formats:     formats,
	}
}

func uninitializeContext(deviceCtx *malgo.AllocatedContext) {
	if deviceCtx == nil {
		return
	}

	if err := deviceCtx.Uninit(); err != nil {
		slog.Error("failed to uninitialize malgo context", "error", err)
	}
	deviceCtx.Free()
}
