package audio

import (
	"encoding/binary"
	"sync"
)

// SampleRing is a thread-safe circular buffer over int16 samples. The
// recording UI reads the most recent samples from it for level display
// while the capture goroutine keeps writing.
type SampleRing struct {
	samples []int16
	head    int // next write position
	count   int // valid samples, up to capacity
	mu      sync.RWMutex
}

// NewSampleRing creates a ring buffer holding up to capacity samples.
func NewSampleRing(capacity int) *SampleRing {
	return &SampleRing{
		samples: make([]int16, capacity),
	}
}

// Write appends samples, overwriting the oldest once full. Single writer.
func (b *SampleRing) Write(samples []int16) {
	if len(samples) == 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	capacity := len(b.samples)
	for _, sample := range samples {
		b.samples[b.head] = sample
		b.head = (b.head + 1) % capacity

		if b.count < capacity {
			b.count++
		}
	}
}

// Recent returns up to n of the most recent samples in chronological
// order, fewer if the buffer holds less. Safe for concurrent readers.
func (b *SampleRing) Recent(n int) []int16 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.count == 0 || n <= 0 {
		return nil
	}

	if n > b.count {
		n = b.count
	}

	result := make([]int16, n)
	capacity := len(b.samples)
	start := (b.head - n + capacity) % capacity

	for i := range n {
		result[i] = b.samples[(start+i)%capacity]
	}

	return result
}

// Count returns the number of valid samples buffered.
func (b *SampleRing) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.count
}

// PCMToSamples converts S16LE bytes into int16 samples.
func PCMToSamples(data []byte) []int16 {
	numSamples := len(data) / 2
	if numSamples == 0 {
		return nil
	}

	samples := make([]int16, numSamples)
	for i := range numSamples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}

	return samples
}
