package audio

// BufferDial exposes the recorder's buffered byte count to the UI as a
// capped dial.
type BufferDial struct {
	rec      *Recorder
	maxBytes int64
}

// NewBufferDial creates a dial over the recorder's PCM buffer.
func NewBufferDial(rec *Recorder, maxBytes int64) *BufferDial {
	return &BufferDial{rec: rec, maxBytes: maxBytes}
}

func (d *BufferDial) Read() int64 {
	return d.rec.BytesBuffered()
}

func (d *BufferDial) Cap() (int64, int64) {
	return d.rec.BytesBuffered(), d.maxBytes
}

// LevelSource exposes recent capture samples to the UI level meter.
type LevelSource struct {
	rec *Recorder
	n   int
}

// NewLevelSource creates a level source returning up to n recent samples.
func NewLevelSource(rec *Recorder, n int) *LevelSource {
	return &LevelSource{rec: rec, n: n}
}

func (l *LevelSource) Read() []int16 {
	return l.rec.Levels(l.n)
}
