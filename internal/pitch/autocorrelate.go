package pitch

import "math"

// -------------------- Tunables --------------------

const (
	// MinSignalRMS is the level below which no periodicity is searched for.
	MinSignalRMS = 0.01

	// edgeThreshold marks a "quiet" sample when trimming the window edges.
	edgeThreshold = 0.2

	MinFrequency         = 75.0
	MaxFrequency         = 1000.0
	MaxExtendedFrequency = 2000.0
)

// Estimate finds the fundamental frequency of frame by autocorrelation.
// It returns false when the frame is too quiet or no usable peak exists.
func Estimate(frame []float64, sampleRate float64) (float64, bool) {
	if sampleRate <= 0 || RMS(frame) < MinSignalRMS {
		return 0, false
	}

	win := trimEdges(frame)
	n := len(win)
	if n < 3 {
		return 0, false
	}

	c := make([]float64, n)
	for lag := 0; lag < n; lag++ {
		var sum float64
		for j := 0; j < n-lag; j++ {
			sum += win[j] * win[j+lag]
		}
		c[lag] = sum
	}

	// Walk off the zero-lag peak.
	d := 0
	for d < n-1 && c[d] > c[d+1] {
		d++
	}

	t0 := -1
	best := math.Inf(-1)
	for i := d; i < n; i++ {
		if c[i] > best {
			best = c[i]
			t0 = i
		}
	}
	if t0 <= 0 {
		return 0, false
	}

	period := float64(t0)
	if t0+1 < n {
		x1, x2, x3 := c[t0-1], c[t0], c[t0+1]
		a := (x1 + x3 - 2*x2) / 2
		b := (x3 - x1) / 2
		if a != 0 {
			period -= b / (2 * a)
		}
	}
	if period <= 0 {
		return 0, false
	}

	hz := sampleRate / period
	if math.IsNaN(hz) || math.IsInf(hz, 0) {
		return 0, false
	}
	return hz, true
}

// InRange reports whether hz is a plausible guitar fundamental.
func InRange(hz float64, extended bool) bool {
	upper := MaxFrequency
	if extended {
		upper = MaxExtendedFrequency
	}
	return hz >= MinFrequency && hz <= upper
}

// trimEdges drops the attack at each end of the frame: the window starts at
// the first quiet sample in the leading half and ends before the first quiet
// sample found walking back from the end.
func trimEdges(frame []float64) []float64 {
	size := len(frame)
	r1, r2 := 0, size-1
	for i := 0; i < size/2; i++ {
		if math.Abs(frame[i]) < edgeThreshold {
			r1 = i
			break
		}
	}
	for i := 1; i < size/2; i++ {
		if math.Abs(frame[size-i]) < edgeThreshold {
			r2 = size - i
			break
		}
	}
	if r2 <= r1 {
		return nil
	}
	return frame[r1:r2]
}
