package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Recorder acquires the capture device, buffers PCM in memory, and
// finalizes the capture into a Clip. The microphone is held exclusively
// between Start and Stop; no retry logic lives here, a failed Start is
// surfaced immediately and the caller stays in its pre-recording stage.
type Recorder struct {
	conf     *DeviceConfig
	dev      Device
	maxBytes int64

	mu       sync.Mutex
	pcm      []byte
	capped   bool
	dataC    chan DataPacket
	done     chan struct{}
	ring     *SampleRing
	started  bool
}

// levelRingCapacity holds roughly one second of samples at 16kHz for the
// recording UI's level display.
const levelRingCapacity = 16_000

// NewRecorder creates a recorder around the given capture device.
// maxBytes caps the PCM buffer; zero means unlimited.
func NewRecorder(conf *DeviceConfig, dev Device, maxBytes int64) (*Recorder, error) {
	if conf == nil {
		conf = DefaultDeviceConfig()
	}

	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid recorder config: %w", err)
	}

	if dev == nil {
		return nil, errors.New("capture device cannot be nil")
	}

	return &Recorder{
		conf:     conf,
		dev:      dev,
		maxBytes: maxBytes,
		ring:     NewSampleRing(levelRingCapacity),
	}, nil
}

// Start acquires the device and begins buffering audio. Returns an error
// wrapping ErrDeviceUnavailable when the device cannot be acquired.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return errors.New("recorder already started")
	}

	dataC := make(chan DataPacket, 64)
	if err := r.dev.CaptureInto(ctx, dataC); err != nil {
		return err
	}

	if err := r.dev.Start(ctx); err != nil {
		r.dev.Dealloc(ctx)
		return err
	}

	r.dataC = dataC
	r.done = make(chan struct{})
	r.pcm = r.pcm[:0]
	r.capped = false
	r.started = true

	go r.consume(ctx, dataC, r.done)

	return nil
}

func (r *Recorder) consume(ctx context.Context, dataC <-chan DataPacket, done chan<- struct{}) {
	defer close(done)

	for {
		select {
		case data, ok := <-dataC:
			if !ok {
				return
			}

			r.ring.Write(PCMToSamples(data))

			r.mu.Lock()
			if r.maxBytes > 0 && int64(len(r.pcm))+int64(len(data)) > r.maxBytes {
				r.capped = true
			} else {
				r.pcm = append(r.pcm, data...)
			}
			r.mu.Unlock()

		case <-ctx.Done():
			return
		}
	}
}

// Stop releases the device and finalizes the buffered PCM into an MP3
// clip. The clip is retained by the caller for replay or re-submission;
// the recorder can be started again afterwards.
func (r *Recorder) Stop(ctx context.Context) (*Clip, error) {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return nil, errors.New("recorder not started")
	}
	dataC := r.dataC
	done := r.done
	r.mu.Unlock()

	if err := r.dev.Stop(ctx); err != nil {
		return nil, err
	}

	close(dataC)
	<-done

	r.dev.Dealloc(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.started = false
	r.dataC = nil
	r.done = nil

	data, err := encodeMP3(r.pcm, r.conf.SampleRate)
	if err != nil {
		return nil, err
	}

	return &Clip{
		Data:     data,
		MIMEType: "audio/mpeg",
		Duration: pcmDuration(int64(len(r.pcm)), r.conf.SampleRate),
	}, nil
}

// Discard stops capture and releases the device without producing a
// clip. Used when the take is thrown away (re-record, abandon); no-op
// when the recorder is idle. The recorder can be started again
// afterwards.
func (r *Recorder) Discard(ctx context.Context) error {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return nil
	}
	dataC := r.dataC
	done := r.done
	r.mu.Unlock()

	if err := r.dev.Stop(ctx); err != nil {
		return err
	}

	close(dataC)
	<-done

	r.dev.Dealloc(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.started = false
	r.dataC = nil
	r.done = nil
	r.pcm = r.pcm[:0]
	r.capped = false

	return nil
}

// IsRecording reports whether the device is currently capturing.
func (r *Recorder) IsRecording() bool {
	return r.dev.IsStarted()
}

// BytesBuffered returns how much raw PCM has been captured so far.
func (r *Recorder) BytesBuffered() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return int64(len(r.pcm))
}

// Capped reports whether capture hit the configured size limit.
func (r *Recorder) Capped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.capped
}

// Levels returns up to n recent samples for level display.
func (r *Recorder) Levels(n int) []int16 {
	return r.ring.Recent(n)
}
