package audio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDevice feeds canned PCM packets into the capture channel.
type fakeDevice struct {
	dataC    chan DataPacket
	packets  []DataPacket
	started  bool
	startErr error
	deallocs int
}

func (f *fakeDevice) EnumerateDevices(_ context.Context) ([]Info, error) {
	return nil, nil
}

func (f *fakeDevice) CaptureInto(_ context.Context, dataC chan DataPacket) error {
	f.dataC = dataC

	return nil
}

func (f *fakeDevice) Start(_ context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.started = true

	for _, p := range f.packets {
		f.dataC <- p
	}

	return nil
}

func (f *fakeDevice) Stop(_ context.Context) error {
	f.started = false

	return nil
}

func (f *fakeDevice) IsStarted() bool { return f.started }

func (f *fakeDevice) Dealloc(_ context.Context) { f.deallocs++ }

func pcmPacket(n int, value int16) DataPacket {
	p := make([]byte, n*2)
	for i := 0; i < n; i++ {
		p[i*2] = byte(value)
		p[i*2+1] = byte(value >> 8)
	}

	return p
}

func TestRecorder_StartStop(t *testing.T) {
	dev := &fakeDevice{packets: []DataPacket{
		pcmPacket(1152, 1000),
		pcmPacket(1152, -1000),
	}}

	rec, err := NewRecorder(DefaultDeviceConfig(), dev, 0)
	require.NoError(t, err)

	require.NoError(t, rec.Start(context.Background()))
	assert.True(t, rec.IsRecording())

	clip, err := rec.Stop(context.Background())
	require.NoError(t, err)
	require.NotNil(t, clip)
	assert.Equal(t, "audio/mpeg", clip.MIMEType)
	assert.NotEmpty(t, clip.Data)
	assert.False(t, clip.Empty())
	assert.Equal(t, 1, dev.deallocs)
	assert.False(t, rec.IsRecording())
}

func TestRecorder_StartFailureDeallocs(t *testing.T) {
	dev := &fakeDevice{startErr: ErrDeviceUnavailable}

	rec, err := NewRecorder(DefaultDeviceConfig(), dev, 0)
	require.NoError(t, err)

	err = rec.Start(context.Background())
	require.ErrorIs(t, err, ErrDeviceUnavailable)
	assert.Equal(t, 1, dev.deallocs, "failed start must release the device")
}

func TestRecorder_DoubleStartRejected(t *testing.T) {
	dev := &fakeDevice{}

	rec, err := NewRecorder(DefaultDeviceConfig(), dev, 0)
	require.NoError(t, err)

	require.NoError(t, rec.Start(context.Background()))
	require.Error(t, rec.Start(context.Background()), "microphone is held exclusively")

	_, err = rec.Stop(context.Background())
	require.NoError(t, err)
}

func TestRecorder_StopWithoutStart(t *testing.T) {
	rec, err := NewRecorder(DefaultDeviceConfig(), &fakeDevice{}, 0)
	require.NoError(t, err)

	_, err = rec.Stop(context.Background())
	require.Error(t, err)
}

func TestRecorder_MaxBytesCapsBuffer(t *testing.T) {
	dev := &fakeDevice{packets: []DataPacket{
		pcmPacket(1152, 500),
		pcmPacket(1152, 500),
		pcmPacket(1152, 500),
	}}

	// Only the first packet fits.
	rec, err := NewRecorder(DefaultDeviceConfig(), dev, 1152*2+10)
	require.NoError(t, err)

	require.NoError(t, rec.Start(context.Background()))

	clip, err := rec.Stop(context.Background())
	require.NoError(t, err)
	require.NotNil(t, clip)
	assert.True(t, rec.Capped())
}

func TestRecorder_RestartAfterStop(t *testing.T) {
	dev := &fakeDevice{packets: []DataPacket{pcmPacket(1152, 200)}}

	rec, err := NewRecorder(DefaultDeviceConfig(), dev, 0)
	require.NoError(t, err)

	require.NoError(t, rec.Start(context.Background()))
	_, err = rec.Stop(context.Background())
	require.NoError(t, err)

	// A re-record starts a fresh buffer on the same recorder.
	require.NoError(t, rec.Start(context.Background()))
	_, err = rec.Stop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1152*2), rec.BytesBuffered(), "buffer resets between takes")
}

func TestRecorder_DiscardReleasesDevice(t *testing.T) {
	dev := &fakeDevice{packets: []DataPacket{pcmPacket(1152, 300)}}

	rec, err := NewRecorder(DefaultDeviceConfig(), dev, 0)
	require.NoError(t, err)

	require.NoError(t, rec.Start(context.Background()))
	require.NoError(t, rec.Discard(context.Background()))

	assert.False(t, rec.IsRecording())
	assert.Equal(t, 1, dev.deallocs, "discard must release the device")
	assert.Equal(t, int64(0), rec.BytesBuffered(), "discarded audio is dropped")

	// The device is free for a fresh take.
	require.NoError(t, rec.Start(context.Background()))
	clip, err := rec.Stop(context.Background())
	require.NoError(t, err)
	assert.False(t, clip.Empty())
}

func TestRecorder_DiscardWhenIdleIsNoOp(t *testing.T) {
	dev := &fakeDevice{}

	rec, err := NewRecorder(DefaultDeviceConfig(), dev, 0)
	require.NoError(t, err)

	require.NoError(t, rec.Discard(context.Background()))
	assert.Equal(t, 0, dev.deallocs)
}

func TestRecorder_Levels(t *testing.T) {
	dev := &fakeDevice{packets: []DataPacket{pcmPacket(64, 1234)}}

	rec, err := NewRecorder(DefaultDeviceConfig(), dev, 0)
	require.NoError(t, err)

	require.NoError(t, rec.Start(context.Background()))
	_, err = rec.Stop(context.Background())
	require.NoError(t, err)

	levels := rec.Levels(10)
	require.NotEmpty(t, levels)
	assert.Equal(t, int16(1234), levels[len(levels)-1])
}
