package audio

import (
	"bytes"
	"fmt"
	"time"

	mp3encoder "github.com/braheezy/shine-mp3/pkg/mp3"
)

// Clip is a finalized audio capture: encoded bytes plus the metadata the
// gateway needs to upload it. A session owns at most one clip at a time;
// re-recording replaces it.
type Clip struct {
	Data     []byte
	MIMEType string
	Duration time.Duration
}

// Empty reports whether the clip carries no audio.
func (c *Clip) Empty() bool {
	return c == nil || len(c.Data) == 0
}

// encodeMP3 converts raw mono S16LE PCM into an MP3 clip.
//
// shine-mp3's Write() miscounts sample positions for mono input, so the
// samples are duplicated into stereo before encoding.
func encodeMP3(pcm []byte, sampleRate int) ([]byte, error) {
	monoSamples := PCMToSamples(pcm)

	stereoSamples := make([]int16, len(monoSamples)*2)
	for i, sample := range monoSamples {
		stereoSamples[i*2] = sample   // Left
		stereoSamples[i*2+1] = sample // Right (duplicate)
	}

	encoder := mp3encoder.NewEncoder(sampleRate, 2)

	var buf bytes.Buffer
	if err := encoder.Write(&buf, stereoSamples); err != nil {
		return nil, fmt.Errorf("failed to encode clip to MP3: %w", err)
	}

	return buf.Bytes(), nil
}

// pcmDuration computes the play time of raw mono S16LE PCM.
func pcmDuration(pcmBytes int64, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}

	numSamples := pcmBytes / 2

	return time.Duration(numSamples) * time.Second / time.Duration(sampleRate)
}
