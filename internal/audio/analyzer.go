package audio

import "sync"

const DefaultFrameSize = 2048

// Analyzer holds the most recent FrameSize samples of a mono stream. The
// capture side writes blocks as they arrive; the tick side takes a copy.
type Analyzer struct {
	mu     sync.Mutex
	buf    []float64
	filled int
	rate   float64
}

func NewAnalyzer(frameSize int, sampleRate float64) *Analyzer {
	if frameSize <= 0 {
		frameSize = DefaultFrameSize
	}
	return &Analyzer{buf: make([]float64, frameSize), rate: sampleRate}
}

func (a *Analyzer) SampleRate() float64 { return a.rate }
func (a *Analyzer) FrameSize() int      { return len(a.buf) }

// Write appends samples, discarding the oldest ones.
func (a *Analyzer) Write(samples []float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := len(a.buf)
	if len(samples) >= n {
		copy(a.buf, samples[len(samples)-n:])
	} else {
		copy(a.buf, a.buf[len(samples):])
		copy(a.buf[n-len(samples):], samples)
	}
	a.filled = min(n, a.filled+len(samples))
}

// WriteFloat32 is Write for capture buffers.
func (a *Analyzer) WriteFloat32(samples []float32) {
	conv := make([]float64, len(samples))
	for i, v := range samples {
		conv[i] = float64(v)
	}
	a.Write(conv)
}

// Frame returns a copy of the current window, or nil before the window has
// been filled once.
func (a *Analyzer) Frame() []float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.filled < len(a.buf) {
		return nil
	}
	out := make([]float64, len(a.buf))
	copy(out, a.buf)
	return out
}

// Reset empties the window.
func (a *Analyzer) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	clear(a.buf)
	a.filled = 0
}
