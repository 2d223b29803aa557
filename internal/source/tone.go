// Package source provides channel inputs for the sampler on hosts without
// an ADC: synthetic tones tied to the clock, and multi-channel WAV files.
package source

import (
	"math"
	"time"

	"acoustic-telemetry/internal/clock"
)

// ADCMax is the full-scale reading of the 12-bit converter the node mimics
const ADCMax = 4095

// ToneChannel describes one synthetic microphone
type ToneChannel struct {
	Frequency float64 // Hz
	Amplitude float64 // peak deviation from Offset
}

// Tone generates offset + amplitude*sin(2*pi*f*t) per channel, with t taken
// from the clock at the moment of the read, relative to when the source was
// created.
type Tone struct {
	clk      clock.Clock
	epoch    time.Time
	channels []ToneChannel
	Offset   float64
	Clamp    bool // clip to 0..ADCMax like a real converter
}

// NewTone creates a tone source around mid-scale of the ADC
func NewTone(clk clock.Clock, channels []ToneChannel) *Tone {
	return &Tone{
		clk:      clk,
		epoch:    clk.Now(),
		channels: channels,
		Offset:   (ADCMax + 1) / 2,
		Clamp:    true,
	}
}

// Read returns the instantaneous value of the channel. Unknown channels
// read as the DC offset.
func (t *Tone) Read(channel int) float64 {
	v := t.Offset
	if channel >= 0 && channel < len(t.channels) {
		ch := t.channels[channel]
		secs := t.clk.Now().Sub(t.epoch).Seconds()
		v += ch.Amplitude * math.Sin(2*math.Pi*ch.Frequency*secs)
	}

	if t.Clamp {
		if v < 0 {
			v = 0
		}
		if v > ADCMax {
			v = ADCMax
		}
	}
	return v
}
