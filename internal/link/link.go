// Package link is the connectionless datagram link between sensor nodes and
// the receiver. A Transmitter sends one payload at a time to its single
// registered peer and reports each outcome asynchronously; a Receiver hands
// every inbound payload, from any sender, to a handler.
//
// The physical transport is a Medium: UDP, MQTT or the in-process Air.
package link

import (
	"errors"
	"sync/atomic"
)

// MaxPayload is the largest payload a frame may carry (the ESP-NOW limit)
const MaxPayload = 250

var (
	ErrRadioInit        = errors.New("radio initialization failed")
	ErrPeerRegistration = errors.New("peer registration failed")
	ErrNotReady         = errors.New("link not ready")
	ErrUnknownPeer      = errors.New("peer not registered")
	ErrPayloadTooLarge  = errors.New("payload exceeds frame limit")
	ErrBusy             = errors.New("send slot occupied")
	ErrNoRoute          = errors.New("no route to station")
	ErrClosed           = errors.New("medium closed")
)

// Frame is one inbound datagram
type Frame struct {
	Src     Addr
	Payload []byte
}

// Medium is the raw datagram transport underneath a Transmitter or Receiver
type Medium interface {
	// Open brings the radio up as station self and starts inbound delivery
	Open(self Addr) error
	AddPeer(peer Addr) error
	// Transmit blocks until the medium accepted or refused the datagram
	Transmit(dst Addr, payload []byte) error
	// Frames delivers inbound datagrams; a full channel drops frames
	Frames() <-chan Frame
	Close() error
}

// SendStatus is the per-message outcome reported to the transmitter
type SendStatus int

const (
	SendSuccess SendStatus = iota
	SendFailure
)

func (s SendStatus) String() string {
	if s == SendSuccess {
		return "success"
	}
	return "failure"
}

// State is the link lifecycle: Uninitialized -> Ready, or -> Faulted on
// any setup failure. Faulted is terminal until restart.
type State int32

const (
	StateUninitialized State = iota
	StateReady
	StateFaulted
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}

type stateCell struct {
	v atomic.Int32
}

func (c *stateCell) load() State {
	return State(c.v.Load())
}

// fault moves to Faulted from any state
func (c *stateCell) fault() {
	c.v.Store(int32(StateFaulted))
}

// ready moves Uninitialized -> Ready; a faulted link stays faulted
func (c *stateCell) ready() bool {
	return c.v.CompareAndSwap(int32(StateUninitialized), int32(StateReady))
}
