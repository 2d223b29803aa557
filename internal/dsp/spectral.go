// Package dsp turns one acquisition window into the two numbers a node
// reports per channel: the dominant frequency and a logarithmic loudness.
package dsp

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"

	"acoustic-telemetry/internal/models"
)

// DominantFrequency returns the strongest spectral component of w in Hz.
//
// The real part is Hamming-windowed, transformed, and the largest local
// maximum among bins 1..N/2 is refined by parabolic interpolation. Bin 0
// never qualifies, which keeps the ADC's DC offset out of the result. A
// window with no local maximum (silence, pure DC) yields 0.
func DominantFrequency(w models.SampleWindow) float64 {
	n := w.Len()
	if n < 4 || w.Rate <= 0 {
		return 0
	}

	spectrum := Spectrum(w)
	// bin N/2 competes too; its right neighbour is the mirror of N/2-1
	mag := append(MagnitudeSpectrum(spectrum), cmplx.Abs(spectrum[n/2+1]))
	k, ok := majorPeakBin(mag)
	if !ok {
		return 0
	}

	return (float64(k) + parabolicOffset(mag[k-1], mag[k], mag[k+1])) * w.Rate / float64(n)
}

// Spectrum windows a copy of the samples and returns the forward transform.
// The window itself is left untouched.
func Spectrum(w models.SampleWindow) []complex128 {
	n := w.Len()
	re := make([]float64, n)
	copy(re, w.Real)
	window.Apply(re, window.Hamming)

	x := make([]complex128, n)
	for i := range x {
		im := 0.0
		if i < len(w.Imag) {
			im = w.Imag[i]
		}
		x[i] = complex(re[i], im)
	}

	return fft.FFT(x)
}

// MagnitudeSpectrum returns |X[k]| for k = 0..N/2 inclusive
func MagnitudeSpectrum(spectrum []complex128) []float64 {
	half := len(spectrum) / 2
	if len(spectrum) == 0 {
		return nil
	}
	mag := make([]float64, half+1)
	for i := range mag {
		mag[i] = cmplx.Abs(spectrum[i])
	}
	return mag
}

// majorPeakBin finds the largest strict local maximum, excluding the first
// and last entries so both neighbours exist.
func majorPeakBin(mag []float64) (int, bool) {
	best, bestIdx := 0.0, 0
	for i := 1; i < len(mag)-1; i++ {
		if mag[i-1] < mag[i] && mag[i] > mag[i+1] && mag[i] > best {
			best = mag[i]
			bestIdx = i
		}
	}
	return bestIdx, bestIdx != 0
}

// parabolicOffset fits a parabola through three magnitudes and returns the
// vertex position relative to the centre bin, in (-0.5, 0.5) for a real peak.
func parabolicOffset(left, centre, right float64) float64 {
	denom := left - 2*centre + right
	if denom == 0 {
		return 0
	}
	return 0.5 * (left - right) / denom
}
