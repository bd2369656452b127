// Package audio captures microphone input and turns it into in-memory
// clips ready for upload to the transcription service.
package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alkime/intake/pkg/collections"
	"github.com/gen2brain/malgo"
)

// ErrDeviceUnavailable is returned when no capture device can be acquired,
// either because none exists or the OS denied access. The workflow treats
// this as terminal for the current attempt: the operator stays in setup.
var ErrDeviceUnavailable = errors.New("audio capture device unavailable")

type Device interface {
	// EnumerateDevices lists available capture devices.
	EnumerateDevices(ctx context.Context) ([]Info, error)

	// CaptureInto initializes the underlying device so that, once Start()
	// is called, packets of sampled bytes are written into dataC.
	CaptureInto(ctx context.Context, dataC chan DataPacket) error

	// Start starts the audio device. Fails with ErrDeviceUnavailable when
	// the device cannot be acquired.
	Start(ctx context.Context) error

	// Stop stops the audio device. No-op if already deallocated.
	Stop(ctx context.Context) error

	// IsStarted returns whether the device is currently capturing.
	IsStarted() bool

	// Dealloc releases the underlying device and frees resources.
	Dealloc(ctx context.Context)
}

// DataPacket is a chunk of raw S16LE PCM bytes from the capture callback.
type DataPacket = []byte

type device struct {
	conf *DeviceConfig

	mgCtx    *malgo.AllocatedContext
	mgDevice *malgo.Device
}

func NewDevice(conf *DeviceConfig) Device {
	if conf == nil {
		conf = DefaultDeviceConfig()
	}

	return &device{conf: conf}
}

func (d *device) EnumerateDevices(ctx context.Context) ([]Info, error) {
	devCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	defer uninitializeContext(devCtx)

	captureDevices, err := devCtx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("failed to get capture devices: %w", err)
	}

	return collections.Apply(captureDevices, malgoDeviceInfoToInfo), nil
}

func (d *device) CaptureInto(ctx context.Context, dataC chan DataPacket) error {
	if dataC == nil {
		return errors.New("data channel is nil. unable to allocate device")
	}

	mgCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to initialize malgo context: %w", ErrDeviceUnavailable, err)
	}

	devCnf := malgo.DefaultDeviceConfig(malgo.Capture)
	devCnf.Capture.Format = d.conf.Format
	devCnf.Capture.Channels = uint32(d.conf.CaptureChannels)
	devCnf.SampleRate = uint32(d.conf.SampleRate)

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, samples []byte, framecount uint32) {
			dataC <- samples
		},
	}

	mgDevice, err := malgo.InitDevice(mgCtx.Context, devCnf, callbacks)
	if err != nil {
		uninitializeContext(mgCtx)
		return fmt.Errorf("%w: failed to initialize capture device: %w", ErrDeviceUnavailable, err)
	}

	d.mgCtx = mgCtx
	d.mgDevice = mgDevice

	return nil
}

func (d *device) Start(ctx context.Context) error {
	if d.mgDevice == nil {
		return fmt.Errorf("%w: device not allocated, call CaptureInto first", ErrDeviceUnavailable)
	}

	if d.mgDevice.IsStarted() {
		// noop
		return nil
	}

	if err := d.mgDevice.Start(); err != nil {
		return fmt.Errorf("%w: failed to start capture: %w", ErrDeviceUnavailable, err)
	}

	return nil
}

func (d *device) Stop(ctx context.Context) error {
	if d.mgDevice == nil {
		// noop
		return nil
	}

	if err := d.mgDevice.Stop(); err != nil {
		return fmt.Errorf("failed to stop capture device: %w", err)
	}

	return nil
}

func (d *device) IsStarted() bool {
	if d.mgDevice == nil {
		return false
	}

	return d.mgDevice.IsStarted()
}

func (d *device) Dealloc(ctx context.Context) {
	if d.mgDevice == nil {
		return
	}

	d.mgDevice.Uninit()
	d.mgCtx.Free()
	d.mgDevice = nil
	d.mgCtx = nil
}

// Info describes one capture device for the devices subcommand.
type Info struct {
	Name        string
	IsDefault   bool
	FormatCount int
	Formats     []string
}

func malgoDeviceInfoToInfo(mdi malgo.DeviceInfo) Info {
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
