package audio

import (
	"errors"

	"github.com/gen2brain/malgo"
)

// DeviceConfig describes the capture device parameters.
type DeviceConfig struct {
	Format          malgo.FormatType
	SampleRate      int
	CaptureChannels int
}

// DefaultDeviceConfig returns the capture settings used for intake
// recordings: 16kHz mono S16LE, which is what the transcription service
// expects.
func DefaultDeviceConfig() *DeviceConfig {
	return &DeviceConfig{
		Format:          malgo.FormatS16,
		SampleRate:      16_000,
		CaptureChannels: 1,
	}
}

// Validate checks the configuration for usable values.
func (c *DeviceConfig) Validate() error {
	if c.SampleRate <= 0 {
		return errors.New("sample rate must be positive")
	}

	if c.CaptureChannels <= 0 {
		return errors.New("capture channels must be positive")
	}

	return nil
}
