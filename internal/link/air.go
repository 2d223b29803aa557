package link

import (
	"errors"
	"fmt"
	"sync"
)

// DefaultInboxSize bounds each station's undelivered frames
const DefaultInboxSize = 16

// Air is an in-process shared medium. Every station attached with Radio
// can reach every other open station by address; a transmission to an
// address nobody has opened fails, like an unacknowledged unicast.
type Air struct {
	mu       sync.RWMutex
	stations map[Addr]*AirRadio
}

// NewAir creates an empty medium
func NewAir() *Air {
	return &Air{stations: make(map[Addr]*AirRadio)}
}

// Radio returns a new, unopened station on this medium
func (a *Air) Radio() *AirRadio {
	return &AirRadio{air: a, frames: make(chan Frame, DefaultInboxSize)}
}

func (a *Air) station(addr Addr) (*AirRadio, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s, ok := a.stations[addr]
	return s, ok
}

// AirRadio is one station on an Air medium
type AirRadio struct {
	air    *Air
	self   Addr
	frames chan Frame

	mu     sync.Mutex
	open   bool
	closed bool
}

func (r *AirRadio) Open(self Addr) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if r.open {
		return errors.New("radio already open")
	}

	r.air.mu.Lock()
	defer r.air.mu.Unlock()
	if _, taken := r.air.stations[self]; taken {
		return fmt.Errorf("address %s already in use", self)
	}
	r.air.stations[self] = r
	r.self = self
	r.open = true
	return nil
}

func (r *AirRadio) AddPeer(peer Addr) error {
	if peer.IsZero() {
		return errors.New("zero peer address")
	}
	return nil
}

func (r *AirRadio) Transmit(dst Addr, payload []byte) error {
	r.mu.Lock()
	open, self := r.open && !r.closed, r.self
	r.mu.Unlock()
	if !open {
		return ErrClosed
	}

	target, ok := r.air.station(dst)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoRoute, dst)
	}
	target.deliver(Frame{Src: self, Payload: append([]byte(nil), payload...)})
	return nil
}

// deliver never blocks; a full inbox drops the frame
func (r *AirRadio) deliver(f Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	select {
	case r.frames <- f:
	default:
	}
}

func (r *AirRadio) Frames() <-chan Frame {
	return r.frames
}

func (r *AirRadio) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	if r.open {
		r.air.mu.Lock()
		delete(r.air.stations, r.self)
		r.air.mu.Unlock()
	}
	close(r.frames)
	return nil
}
