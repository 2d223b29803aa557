package mqtt

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"acoustic-telemetry/internal/link"
)

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Error() error                   { return t.err }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type fakeMessage struct {
	mqtt.Message
	topic   string
	payload []byte
}

func (m *fakeMessage) Topic() string   { return m.topic }
func (m *fakeMessage) Payload() []byte { return m.payload }

// fakeBroker routes publishes to matching subscriptions synchronously
type fakeBroker struct {
	mu         sync.Mutex
	subs       map[string]mqtt.MessageHandler
	publishErr error
	published  []string
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{subs: make(map[string]mqtt.MessageHandler)}
}

func topicMatches(filter, topic string) bool {
	f, t := strings.Split(filter, "/"), strings.Split(topic, "/")
	if len(f) != len(t) {
		return false
	}
	for i := range f {
		if f[i] != "+" && f[i] != t[i] {
			return false
		}
	}
	return true
}

// fakeClient implements only the paho methods the medium uses
type fakeClient struct {
	mqtt.Client
	broker       *fakeBroker
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.broker.mu.Lock()
	if err := c.broker.publishErr; err != nil {
		c.broker.mu.Unlock()
		return &fakeToken{err: err}
	}
	c.broker.published = append(c.broker.published, topic)
	var handlers []mqtt.MessageHandler
	for filter, h := range c.broker.subs {
		if topicMatches(filter, topic) {
			handlers = append(handlers, h)
		}
	}
	c.broker.mu.Unlock()

	msg := &fakeMessage{topic: topic, payload: payload.([]byte)}
	for _, h := range handlers {
		h(c, msg)
	}
	return &fakeToken{}
}

func (c *fakeClient) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	c.broker.mu.Lock()
	defer c.broker.mu.Unlock()
	c.broker.subs[topic] = callback
	return &fakeToken{}
}

func (c *fakeClient) Unsubscribe(topics ...string) mqtt.Token {
	c.broker.mu.Lock()
	defer c.broker.mu.Unlock()
	for _, t := range topics {
		delete(c.broker.subs, t)
	}
	return &fakeToken{}
}

func (c *fakeClient) Disconnect(quiesce uint) {
	c.disconnected = true
}

func newTestMedium(broker *fakeBroker) *Medium {
	m := NewMedium(ClientConfig{Broker: "tcp://fake:1883"}, "espnow")
	m.dial = func(ClientConfig) (*Client, error) {
		return &Client{client: &fakeClient{broker: broker}}, nil
	}
	return m
}

var (
	nodeAddr = link.MustParseAddr("24:0a:c4:00:00:01")
	baseAddr = link.MustParseAddr("c4:d8:d5:3c:a6:52")
)

func TestMediumRoundTrip(t *testing.T) {
	broker := newFakeBroker()
	rx := newTestMedium(broker)
	tx := newTestMedium(broker)

	if err := rx.Open(baseAddr); err != nil {
		t.Fatalf("Open receiver: %v", err)
	}
	defer rx.Close()
	if err := tx.Open(nodeAddr); err != nil {
		t.Fatalf("Open transmitter: %v", err)
	}
	defer tx.Close()

	if err := tx.Transmit(baseAddr, []byte{1, 2, 3}); err != nil {
		t.Fatalf("Transmit failed: %v", err)
	}

	want := "espnow/C4:D8:D5:3C:A6:52/24:0A:C4:00:00:01"
	if len(broker.published) != 1 || broker.published[0] != want {
		t.Errorf("Expected publish to %s, got %v", want, broker.published)
	}

	select {
	case f := <-rx.Frames():
		if f.Src != nodeAddr {
			t.Errorf("Expected source %s, got %s", nodeAddr, f.Src)
		}
		if string(f.Payload) != "\x01\x02\x03" {
			t.Errorf("Unexpected payload % x", f.Payload)
		}
	default:
		t.Fatal("Frame not delivered")
	}

	// the transmitter is not subscribed to its own outbound topic
	select {
	case f := <-tx.Frames():
		t.Errorf("Transmitter received its own frame: %+v", f)
	default:
	}
}

func TestMediumPublishFailure(t *testing.T) {
	broker := newFakeBroker()
	tx := newTestMedium(broker)
	if err := tx.Open(nodeAddr); err != nil {
		t.Fatal(err)
	}
	defer tx.Close()

	broker.publishErr = errors.New("not connected")
	if err := tx.Transmit(baseAddr, []byte{1}); err == nil {
		t.Error("Expected transmit error when publish fails")
	}
}

func TestMediumOpenFailure(t *testing.T) {
	m := NewMedium(ClientConfig{}, "espnow")
	m.dial = func(ClientConfig) (*Client, error) {
		return nil, errors.New("connection refused")
	}
	if err := m.Open(nodeAddr); err == nil {
		t.Fatal("Expected Open to fail")
	}
	if err := m.Transmit(baseAddr, []byte{1}); !errors.Is(err, link.ErrClosed) {
		t.Errorf("Expected ErrClosed before a successful open, got %v", err)
	}

	// closing an unopened medium closes its frame channel
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
	if _, ok := <-m.Frames(); ok {
		t.Error("Expected closed frame channel")
	}
}

func TestMediumWithLinkEndpoints(t *testing.T) {
	broker := newFakeBroker()

	got := make(chan link.Addr, 1)
	rx := link.NewReceiver(newTestMedium(broker), baseAddr)
	rx.OnReceive(func(src link.Addr, payload []byte) { got <- src })

	statuses := make(chan link.SendStatus, 1)
	tx := link.NewTransmitter(newTestMedium(broker), nodeAddr)
	tx.OnSent(func(peer link.Addr, status link.SendStatus) { statuses <- status })

	ctx := testContext(t)
	if err := rx.Init(ctx); err != nil {
		t.Fatal(err)
	}
	if err := tx.Init(ctx); err != nil {
		t.Fatal(err)
	}
	if err := tx.AddPeer(baseAddr); err != nil {
		t.Fatal(err)
	}
	if err := tx.Send(baseAddr, []byte("x")); err != nil {
		t.Fatal(err)
	}

	select {
	case s := <-statuses:
		if s != link.SendSuccess {
			t.Errorf("Expected success, got %s", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("No send notification")
	}
	select {
	case src := <-got:
		if src != nodeAddr {
			t.Errorf("Expected %s, got %s", nodeAddr, src)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("No datagram received")
	}
}

func TestSourceFromTopic(t *testing.T) {
	src, err := sourceFromTopic("espnow/C4:D8:D5:3C:A6:52/24:0A:C4:00:00:01")
	if err != nil || src != nodeAddr {
		t.Errorf("Got %s, %v", src, err)
	}
	for _, bad := range []string{"nodelimiter", "espnow/C4:D8:D5:3C:A6:52/garbage"} {
		if _, err := sourceFromTopic(bad); err == nil {
			t.Errorf("Expected error for %q", bad)
		}
	}
}

// testContext mirrors testing.T.Context (Go 1.24+) for older toolchains:
// the context is canceled when the test finishes.
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
