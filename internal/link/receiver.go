package link

import (
	"context"
	"fmt"
	"log"
)

// ReceiveHandler is called once per inbound datagram on the receive
// goroutine. It must return quickly and must not retain payload.
type ReceiveHandler func(src Addr, payload []byte)

// Receiver accepts datagrams from any sender
type Receiver struct {
	medium  Medium
	self    Addr
	state   stateCell
	handler ReceiveHandler
	done    chan struct{}
}

// NewReceiver creates a receiver for station self over medium
func NewReceiver(medium Medium, self Addr) *Receiver {
	return &Receiver{
		medium: medium,
		self:   self,
		done:   make(chan struct{}),
	}
}

// OnReceive registers the datagram handler; call before Init
func (r *Receiver) OnReceive(fn ReceiveHandler) {
	r.handler = fn
}

// State returns the current lifecycle state
func (r *Receiver) State() State {
	return r.state.load()
}

// Init opens the radio and starts dispatching inbound frames until ctx is
// done or the medium closes its frame channel.
func (r *Receiver) Init(ctx context.Context) error {
	if err := r.medium.Open(r.self); err != nil {
		r.state.fault()
		log.Printf("Link: Error initializing radio: %v", err)
		return fmt.Errorf("%w: %v", ErrRadioInit, err)
	}
	r.state.ready()

	go r.dispatch(ctx)

	log.Printf("Link: Receiver ready as %s, accepting any peer", r.self)
	return nil
}

// Done is closed when the dispatch goroutine exits
func (r *Receiver) Done() <-chan struct{} {
	return r.done
}

func (r *Receiver) dispatch(ctx context.Context) {
	defer close(r.done)
	frames := r.medium.Frames()
	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-frames:
			if !ok {
				log.Println("Link: Frame channel closed, receiver stopping")
				return
			}
			if r.handler != nil {
				r.handler(f.Src, f.Payload)
			}
		}
	}
}

// Close releases the medium
func (r *Receiver) Close() error {
	return r.medium.Close()
}
