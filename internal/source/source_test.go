package source

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"acoustic-telemetry/internal/clock"
)

func TestToneFollowsClock(t *testing.T) {
	clk := clock.NewManualAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	tone := NewTone(clk, []ToneChannel{{Frequency: 1000, Amplitude: 500}})

	if v := tone.Read(0); math.Abs(v-2048) > 1e-9 {
		t.Errorf("Expected offset at t=0, got %f", v)
	}

	// Quarter period of 1kHz is the positive peak
	clk.Advance(250 * time.Microsecond)
	if v := tone.Read(0); math.Abs(v-2548) > 1e-6 {
		t.Errorf("Expected peak 2548, got %f", v)
	}

	clk.Advance(500 * time.Microsecond)
	if v := tone.Read(0); math.Abs(v-1548) > 1e-6 {
		t.Errorf("Expected trough 1548, got %f", v)
	}
}

func TestToneClampsAndUnknownChannel(t *testing.T) {
	clk := clock.NewManual()
	tone := NewTone(clk, []ToneChannel{{Frequency: 1000, Amplitude: 5000}})

	clk.Advance(250 * time.Microsecond)
	if v := tone.Read(0); v != ADCMax {
		t.Errorf("Expected clamp to %d, got %f", ADCMax, v)
	}

	if v := tone.Read(3); v != tone.Offset {
		t.Errorf("Unknown channel should read offset, got %f", v)
	}
}

func writeTestWAV(t *testing.T, numChans int, data []int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Creating wav: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, 8000, 16, numChans, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: numChans, SampleRate: 8000},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("Writing wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Closing encoder: %v", err)
	}
	return path
}

func TestWAVReadsInterleavedChannels(t *testing.T) {
	// two frames of stereo: (10, -10), (20, -20)
	path := writeTestWAV(t, 2, []int{10, -10, 20, -20})

	src, err := OpenWAV(path)
	if err != nil {
		t.Fatalf("OpenWAV failed: %v", err)
	}
	if src.NumChannels() != 2 || src.SampleRate() != 8000 {
		t.Fatalf("Unexpected format: %d channels @ %d Hz", src.NumChannels(), src.SampleRate())
	}

	want := []float64{10, 20, 10}
	for i, w := range want {
		if got := src.Read(0); got != w {
			t.Errorf("channel 0 read %d: expected %f, got %f", i, w, got)
		}
	}

	if got := src.Read(1); got != -10 {
		t.Errorf("channel 1 first read: expected -10, got %f", got)
	}

	// channel 2 wraps onto file channel 0 with its own cursor
	if got := src.Read(2); got != 10 {
		t.Errorf("channel 2 first read: expected 10, got %f", got)
	}
}

func TestOpenWAVInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.wav")
	if err := os.WriteFile(path, []byte("definitely not riff"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := OpenWAV(path); !errors.Is(err, ErrInvalidWAV) {
		t.Errorf("Expected ErrInvalidWAV, got %v", err)
	}

	if _, err := OpenWAV(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Error("Expected error for missing file")
	}
}
