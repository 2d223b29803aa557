package sampler

import (
	"errors"
	"fmt"
	"time"

	"acoustic-telemetry/internal/clock"
	"acoustic-telemetry/internal/models"
)

var (
	ErrWindowSize = errors.New("window size must be a power of two")
	ErrRate       = errors.New("sampling frequency must be positive")
)

// Source is a channel input, one amplitude reading per call
type Source interface {
	Read(channel int) float64
}

// Sampler acquires fixed-size, fixed-rate windows from a Source
type Sampler struct {
	src      Source
	clk      clock.Clock
	rate     float64
	size     int
	interval time.Duration
}

// New creates a sampler producing windows of size readings at rate Hz
func New(src Source, clk clock.Clock, rate float64, size int) (*Sampler, error) {
	if size < 2 || size&(size-1) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrWindowSize, size)
	}
	if rate <= 0 {
		return nil, fmt.Errorf("%w: %g", ErrRate, rate)
	}

	return &Sampler{
		src:      src,
		clk:      clk,
		rate:     rate,
		size:     size,
		interval: time.Duration(float64(time.Second) / rate),
	}, nil
}

// Interval returns the spacing between read starts
func (s *Sampler) Interval() time.Duration {
	return s.interval
}

// Size returns the number of samples per window
func (s *Sampler) Size() int {
	return s.size
}

// Rate returns the sampling frequency in Hz
func (s *Sampler) Rate() float64 {
	return s.rate
}

// Acquire blocks for the full window (size/rate) and returns a new window.
// Each read start is paced one interval after the previous read start; a
// read that overruns the interval is not made up for.
func (s *Sampler) Acquire(channel int) models.SampleWindow {
	w := models.SampleWindow{
		Real: make([]float64, s.size),
		Imag: make([]float64, s.size),
		Rate: s.rate,
	}

	for i := 0; i < s.size; i++ {
		start := s.clk.Now()
		v := s.src.Read(channel)
		w.SumSquares += v * v
		w.Real[i] = v
		s.clk.SleepUntil(start.Add(s.interval))
	}

	return w
}
