package sampler

import (
	"errors"
	"testing"
	"time"

	"acoustic-telemetry/internal/clock"
)

// recordingSource remembers when each read started and optionally burns
// virtual time to simulate a slow ADC.
type recordingSource struct {
	clk      *clock.Manual
	readCost time.Duration
	starts   []time.Time
	channels []int
	next     float64
}

func (r *recordingSource) Read(channel int) float64 {
	r.starts = append(r.starts, r.clk.Now())
	r.channels = append(r.channels, channel)
	r.clk.Advance(r.readCost)
	r.next++
	return r.next
}

func TestNewRejectsInvalidParameters(t *testing.T) {
	clk := clock.NewManual()
	src := &recordingSource{clk: clk}

	tests := []struct {
		name string
		rate float64
		size int
		want error
	}{
		{"not power of two", 8000, 500, ErrWindowSize},
		{"zero size", 8000, 0, ErrWindowSize},
		{"one sample", 8000, 1, ErrWindowSize},
		{"zero rate", 0, 512, ErrRate},
		{"negative rate", -1, 512, ErrRate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(src, clk, tt.rate, tt.size)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestAcquireWindowShape(t *testing.T) {
	clk := clock.NewManual()
	src := &recordingSource{clk: clk}
	s, err := New(src, clk, 8000, 64)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	w := s.Acquire(2)

	if w.Len() != 64 || len(w.Imag) != 64 {
		t.Fatalf("Expected 64 real and imaginary samples, got %d/%d", len(w.Real), len(w.Imag))
	}
	if w.Rate != 8000 {
		t.Errorf("Expected rate 8000, got %f", w.Rate)
	}

	var sumSq float64
	for i, v := range w.Real {
		if v != float64(i+1) {
			t.Fatalf("Sample %d out of order: %f", i, v)
		}
		if w.Imag[i] != 0 {
			t.Errorf("Imaginary sample %d not zero", i)
		}
		sumSq += v * v
	}
	if w.SumSquares != sumSq {
		t.Errorf("Expected sum of squares %f, got %f", sumSq, w.SumSquares)
	}

	for _, ch := range src.channels {
		if ch != 2 {
			t.Fatalf("Read wrong channel %d", ch)
		}
	}
}

func TestAcquireCadence(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := clock.NewManualAt(start)
	src := &recordingSource{clk: clk, readCost: 20 * time.Microsecond}
	s, err := New(src, clk, 8000, 512)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if s.Interval() != 125*time.Microsecond {
		t.Fatalf("Expected 125µs interval, got %v", s.Interval())
	}

	s.Acquire(0)

	for i := 1; i < len(src.starts); i++ {
		if gap := src.starts[i].Sub(src.starts[i-1]); gap != s.Interval() {
			t.Fatalf("Read %d started %v after previous, expected %v", i, gap, s.Interval())
		}
	}

	// The whole window blocks for N/F seconds
	if elapsed := clk.Now().Sub(start); elapsed != 512*125*time.Microsecond {
		t.Errorf("Expected window duration 64ms, got %v", elapsed)
	}
}

func TestAcquireSlowReadNotCompensated(t *testing.T) {
	clk := clock.NewManual()
	src := &recordingSource{clk: clk, readCost: 200 * time.Microsecond}
	s, err := New(src, clk, 8000, 16)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	s.Acquire(0)

	for i := 1; i < len(src.starts); i++ {
		if gap := src.starts[i].Sub(src.starts[i-1]); gap != 200*time.Microsecond {
			t.Fatalf("Expected gap equal to read cost, got %v", gap)
		}
	}
}
