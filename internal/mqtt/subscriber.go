package mqtt

import (
	"fmt"
	"log"
	"strings"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"acoustic-telemetry/internal/link"
)

// Subscriber receives frames addressed to one station and writes them to
// a bounded channel
type Subscriber struct {
	client mqtt.Client
	prefix string
	self   link.Addr

	mu     sync.Mutex
	closed bool

	// Output channel (written by subscriber, read by the link receiver)
	FrameChan chan link.Frame
}

// NewSubscriber creates a subscriber for station self writing to frameChan
func NewSubscriber(client mqtt.Client, prefix string, self link.Addr, frameChan chan link.Frame) *Subscriber {
	return &Subscriber{
		client:    client,
		prefix:    strings.Trim(prefix, "/"),
		self:      self,
		FrameChan: frameChan,
	}
}

// Subscribe registers the inbox topic
func (s *Subscriber) Subscribe() error {
	topic := inboxTopic(s.prefix, s.self)
	token := s.client.Subscribe(topic, frameQoS, s.handleFrame)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, token.Error())
	}
	log.Printf("MQTT Subscriber: Subscribed to %s", topic)
	return nil
}

func (s *Subscriber) handleFrame(client mqtt.Client, msg mqtt.Message) {
	src, err := sourceFromTopic(msg.Topic())
	if err != nil {
		log.Printf("MQTT Subscriber: Dropping message: %v", err)
		return
	}
	if len(msg.Payload()) > link.MaxPayload {
		log.Printf("MQTT Subscriber: Dropping oversized frame from %s (%d bytes)", src, len(msg.Payload()))
		return
	}

	f := link.Frame{Src: src, Payload: append([]byte(nil), msg.Payload()...)}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.FrameChan <- f:
	default:
		log.Printf("MQTT Subscriber: Frame channel full, dropping frame from %s", src)
	}
}

// Close unsubscribes and closes FrameChan
func (s *Subscriber) Close() {
	topic := inboxTopic(s.prefix, s.self)
	if token := s.client.Unsubscribe(topic); token.Wait() && token.Error() != nil {
		log.Printf("MQTT Subscriber: Error unsubscribing from %s: %v", topic, token.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.FrameChan)
	}
}
