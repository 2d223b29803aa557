package dsp

import "math"

// LoudnessEpsilon keeps the logarithm finite for an all-zero window
const LoudnessEpsilon = 1e-6

// RMS returns sqrt(sumSquares/n), or 0 for an empty window
func RMS(sumSquares float64, n int) float64 {
	if n <= 0 || sumSquares <= 0 {
		return 0
	}
	return math.Sqrt(sumSquares / float64(n))
}

// Loudness converts a window's energy to 20*log10(rms + epsilon).
// The score is uncalibrated: only comparable between channels of the same
// device in the same cycle.
func Loudness(sumSquares float64, n int) float64 {
	return 20.0 * math.Log10(RMS(sumSquares, n)+LoudnessEpsilon)
}
