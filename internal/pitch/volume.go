package pitch

import (
	"math"
	"time"
)

// SilenceHold is how long the signal must stay under the volume threshold
// before the gate reports silence.
const SilenceHold = 500 * time.Millisecond

// Level is the result of gating one frame.
type Level struct {
	HasVolume bool
	Amplitude float64 // RMS of the frame
}

// Gate decides whether a frame is loud enough to analyse and tracks how long
// the input has been quiet. The zero value is ready to use.
type Gate struct {
	lastSound time.Time
	silent    bool
}

// Check gates one frame against threshold. A loud frame refreshes the
// last-sound timestamp and clears the silence flag; a quiet frame sets the
// flag once SilenceHold has passed since the last loud one.
func (g *Gate) Check(frame []float64, threshold float64, now time.Time) Level {
	amp := RMS(frame)
	if amp >= threshold {
		g.lastSound = now
		g.silent = false
		return Level{HasVolume: true, Amplitude: amp}
	}
	if now.Sub(g.lastSound) > SilenceHold {
		g.silent = true
	}
	return Level{HasVolume: false, Amplitude: amp}
}

// Silent reports whether the most recent Check saw sustained silence.
func (g *Gate) Silent() bool { return g.silent }

// Reset forgets the last loud frame.
func (g *Gate) Reset() {
	g.lastSound = time.Time{}
	g.silent = false
}

// RMS returns the root-mean-square of samples, 0 for an empty slice.
func RMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, v := range samples {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}
