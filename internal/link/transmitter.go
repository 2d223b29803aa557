package link

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// SentHandler receives the outcome of one Send. It runs on the
// transmitter's delivery goroutine, not on the caller of Send.
type SentHandler func(peer Addr, status SendStatus)

type outbound struct {
	peer    Addr
	payload []byte
}

// Transmitter delivers payloads to one statically registered peer
type Transmitter struct {
	medium Medium
	self   Addr
	state  stateCell

	mu      sync.RWMutex
	radioUp bool
	peer    Addr
	hasPeer bool
	onSent  SentHandler

	// single-slot outbound buffer; Send never waits on it
	slot chan outbound
}

// NewTransmitter creates a transmitter for station self over medium
func NewTransmitter(medium Medium, self Addr) *Transmitter {
	return &Transmitter{
		medium: medium,
		self:   self,
		slot:   make(chan outbound, 1),
	}
}

// OnSent registers the send-result notification
func (t *Transmitter) OnSent(fn SentHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSent = fn
}

// State returns the current lifecycle state
func (t *Transmitter) State() State {
	return t.state.load()
}

// Init opens the radio and starts the delivery goroutine, which stops when
// ctx is done. The link becomes Ready only after AddPeer succeeds.
func (t *Transmitter) Init(ctx context.Context) error {
	if err := t.medium.Open(t.self); err != nil {
		t.state.fault()
		log.Printf("Link: Error initializing radio: %v", err)
		return fmt.Errorf("%w: %v", ErrRadioInit, err)
	}

	t.mu.Lock()
	t.radioUp = true
	t.mu.Unlock()

	go t.deliver(ctx)

	log.Printf("Link: Transmitter radio up as %s", t.self)
	return nil
}

// AddPeer registers the single destination. Registering a second peer, or
// registering before the radio is up, is a registration failure.
func (t *Transmitter) AddPeer(peer Addr) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.radioUp {
		t.state.fault()
		return fmt.Errorf("%w: radio not initialized", ErrPeerRegistration)
	}
	if t.hasPeer {
		t.state.fault()
		return fmt.Errorf("%w: peer %s already registered", ErrPeerRegistration, t.peer)
	}
	if err := t.medium.AddPeer(peer); err != nil {
		t.state.fault()
		log.Printf("Link: Failed to add peer %s: %v", peer, err)
		return fmt.Errorf("%w: %v", ErrPeerRegistration, err)
	}

	t.peer = peer
	t.hasPeer = true
	if !t.state.ready() {
		return fmt.Errorf("%w: link is %s", ErrPeerRegistration, t.state.load())
	}

	log.Printf("Link: Peer %s registered", peer)
	return nil
}

// Send hands payload to the delivery goroutine and returns immediately.
// A nil error means only that the payload was accepted; the outcome
// arrives through the OnSent handler. The payload is copied.
func (t *Transmitter) Send(peer Addr, payload []byte) error {
	if s := t.state.load(); s != StateReady {
		return fmt.Errorf("%w: link is %s", ErrNotReady, s)
	}

	t.mu.RLock()
	registered := t.peer
	t.mu.RUnlock()

	if peer != registered {
		return fmt.Errorf("%w: %s", ErrUnknownPeer, peer)
	}
	if len(payload) > MaxPayload {
		return fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}

	out := outbound{peer: peer, payload: append([]byte(nil), payload...)}
	select {
	case t.slot <- out:
		return nil
	default:
		return ErrBusy
	}
}

func (t *Transmitter) deliver(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case out := <-t.slot:
			status := SendSuccess
			if err := t.medium.Transmit(out.peer, out.payload); err != nil {
				status = SendFailure
			}

			t.mu.RLock()
			fn := t.onSent
			t.mu.RUnlock()
			if fn != nil {
				fn(out.peer, status)
			}
		}
	}
}

// Close releases the medium
func (t *Transmitter) Close() error {
	return t.medium.Close()
}
