package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSampleRing_WriteAndRecent(t *testing.T) {
	ring := NewSampleRing(4)

	ring.Write([]int16{1, 2, 3})
	assert.Equal(t, 3, ring.Count())
	assert.Equal(t, []int16{1, 2, 3}, ring.Recent(3))
	assert.Equal(t, []int16{2, 3}, ring.Recent(2))
}

func TestSampleRing_OverwritesOldest(t *testing.T) {
	ring := NewSampleRing(3)

	ring.Write([]int16{1, 2, 3, 4, 5})
	assert.Equal(t, 3, ring.Count())
	assert.Equal(t, []int16{3, 4, 5}, ring.Recent(3))

	// Asking for more than the capacity returns what is buffered.
	assert.Equal(t, []int16{3, 4, 5}, ring.Recent(10))
}

func TestSampleRing_EmptyReads(t *testing.T) {
	ring := NewSampleRing(4)

	assert.Nil(t, ring.Recent(2))
	assert.Nil(t, ring.Recent(0))
	assert.Equal(t, 0, ring.Count())
}

func TestPCMToSamples(t *testing.T) {
	// S16LE: 0x0100 = 1, 0xFFFF = -1
	data := []byte{0x01, 0x00, 0xFF, 0xFF}
	assert.Equal(t, []int16{1, -1}, PCMToSamples(data))

	assert.Nil(t, PCMToSamples(nil))
	assert.Nil(t, PCMToSamples([]byte{0x01}))
}

func TestPCMDuration(t *testing.T) {
	// 16000 samples at 16kHz = 1 second = 32000 bytes.
	assert.Equal(t, "1s", pcmDuration(32_000, 16_000).String())
	assert.Equal(t, "0s", pcmDuration(32_000, 0).String())
}
