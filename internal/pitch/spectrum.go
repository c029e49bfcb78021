package pitch

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// SpectralPeak returns the frequency of the strongest Hann-windowed FFT bin
// between MinFrequency and the Nyquist limit. It is a display aid only; note
// classification always uses Estimate.
func SpectralPeak(frame []float64, sampleRate float64) float64 {
	if len(frame) < 2 || sampleRate <= 0 {
		return 0
	}
	buf := make([]float64, len(frame))
	copy(buf, frame)
	window.Apply(buf, window.Hann)

	spec := fft.FFTReal(buf)
	binHz := sampleRate / float64(len(buf))
	lo := int(MinFrequency / binHz)
	if lo < 1 {
		lo = 1
	}

	peakBin, peakMag := 0, 0.0
	for k := lo; k < len(spec)/2; k++ {
		if m := cmplx.Abs(spec[k]); m > peakMag {
			peakMag = m
			peakBin = k
		}
	}
	return float64(peakBin) * binHz
}
