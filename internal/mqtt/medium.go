package mqtt

import (
	"errors"
	"fmt"
	"sync"

	"acoustic-telemetry/internal/link"
)

// Medium carries link frames through an MQTT broker. A station receives on
// <prefix>/<self>/+ and transmits to <prefix>/<dst>/<self>.
type Medium struct {
	config ClientConfig
	prefix string
	dial   func(ClientConfig) (*Client, error)

	mu     sync.Mutex
	client *Client
	pub    *Publisher
	sub    *Subscriber
	self   link.Addr
	closed bool

	frames chan link.Frame
}

// NewMedium creates a medium that connects to the broker on Open
func NewMedium(config ClientConfig, prefix string) *Medium {
	return &Medium{
		config: config,
		prefix: prefix,
		dial:   NewClient,
		frames: make(chan link.Frame, link.DefaultInboxSize),
	}
}

func (m *Medium) Open(self link.Addr) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return link.ErrClosed
	}
	if m.client != nil {
		return errors.New("mqtt medium already open")
	}

	client, err := m.dial(m.config)
	if err != nil {
		return err
	}

	sub := NewSubscriber(client.GetNativeClient(), m.prefix, self, m.frames)
	if err := sub.Subscribe(); err != nil {
		client.Close()
		return err
	}

	m.client = client
	m.pub = NewPublisher(client.GetNativeClient(), m.prefix)
	m.sub = sub
	m.self = self
	return nil
}

// AddPeer accepts any non-zero address; the broker does the routing
func (m *Medium) AddPeer(peer link.Addr) error {
	if peer.IsZero() {
		return errors.New("zero peer address")
	}
	return nil
}

func (m *Medium) Transmit(dst link.Addr, payload []byte) error {
	m.mu.Lock()
	pub, self, closed := m.pub, m.self, m.closed
	m.mu.Unlock()
	if pub == nil || closed {
		return link.ErrClosed
	}
	if err := pub.Publish(self, dst, payload); err != nil {
		return fmt.Errorf("mqtt transmit to %s: %w", dst, err)
	}
	return nil
}

func (m *Medium) Frames() <-chan link.Frame {
	return m.frames
}

func (m *Medium) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true

	if m.sub == nil {
		close(m.frames)
		return nil
	}
	m.sub.Close()
	m.client.Close()
	return nil
}
