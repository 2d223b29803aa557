// Package indicator drives the discrete output lines: the four channel
// indicators on the receiver and the status line on a node.
package indicator

import (
	"log"
	"sync/atomic"

	"acoustic-telemetry/internal/models"
)

// Output levels, as PWM duty on an 8-bit line
const (
	Off uint8 = 0
	On  uint8 = 255
)

// Line is one output that can be set to a level
type Line interface {
	SetLevel(level uint8)
}

// Pin is a Line that records its level. Writes are atomic, so two
// goroutines may drive the same pin without a lock.
type Pin struct {
	name  string
	level atomic.Uint32
}

// NewPin creates a named pin, initially Off
func NewPin(name string) *Pin {
	return &Pin{name: name}
}

// SetLevel stores level and logs when it changes
func (p *Pin) SetLevel(level uint8) {
	prev := p.level.Swap(uint32(level))
	if prev != uint32(level) {
		log.Printf("Indicator: %s %d -> %d", p.name, prev, level)
	}
}

// Level returns the last level written
func (p *Pin) Level() uint8 {
	return uint8(p.level.Load())
}

// Name returns the pin name
func (p *Pin) Name() string {
	return p.name
}

// Bank is the receiver's set of per-channel indicators
type Bank struct {
	lines [models.Channels]Line
}

// NewBank creates a bank from one line per channel, in channel order
func NewBank(lines [models.Channels]Line) *Bank {
	return &Bank{lines: lines}
}

// NewPinBank creates a bank of pins named channel-1 .. channel-4
func NewPinBank() (*Bank, [models.Channels]*Pin) {
	var pins [models.Channels]*Pin
	var lines [models.Channels]Line
	for i := range pins {
		pins[i] = NewPin("channel-" + string(rune('1'+i)))
		lines[i] = pins[i]
	}
	return NewBank(lines), pins
}

// Drive sets exactly the line for state On and every other line Off.
// IndicatorNone turns all lines Off.
func (b *Bank) Drive(state models.IndicatorState) {
	active, ok := state.Channel()
	for i, l := range b.lines {
		if l == nil {
			continue
		}
		if ok && i == active {
			l.SetLevel(On)
		} else {
			l.SetLevel(Off)
		}
	}
}
