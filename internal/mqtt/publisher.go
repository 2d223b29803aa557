package mqtt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"acoustic-telemetry/internal/link"
)

// QoS 0 matches the link's at-most-once delivery
const frameQoS = 0

// DefaultPublishTimeout bounds how long one Publish waits for the client
const DefaultPublishTimeout = 5 * time.Second

var errPublishTimeout = errors.New("publish timed out")

// Publisher sends link frames as MQTT messages
type Publisher struct {
	client  mqtt.Client
	prefix  string
	timeout time.Duration
}

// NewPublisher creates a publisher writing under prefix, e.g. "espnow"
func NewPublisher(client mqtt.Client, prefix string) *Publisher {
	return &Publisher{
		client:  client,
		prefix:  strings.Trim(prefix, "/"),
		timeout: DefaultPublishTimeout,
	}
}

// Publish sends payload from src to dst and waits for the client to accept it
func (p *Publisher) Publish(src, dst link.Addr, payload []byte) error {
	topic := frameTopic(p.prefix, dst, src)

	token := p.client.Publish(topic, frameQoS, false, payload)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("%s: %w", topic, errPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish frame to %s: %w", topic, err)
	}
	return nil
}

// frameTopic builds "<prefix>/<dst>/<src>"
func frameTopic(prefix string, dst, src link.Addr) string {
	return prefix + "/" + dst.String() + "/" + src.String()
}

// inboxTopic is the subscription filter for frames addressed to self
func inboxTopic(prefix string, self link.Addr) string {
	return prefix + "/" + self.String() + "/+"
}

// sourceFromTopic extracts the sender from "<prefix>/<dst>/<src>"
func sourceFromTopic(topic string) (link.Addr, error) {
	i := strings.LastIndexByte(topic, '/')
	if i < 0 {
		return link.Addr{}, fmt.Errorf("topic %q has no source segment", topic)
	}
	return link.ParseAddr(topic[i+1:])
}
