package mqtt

import (
	"errors"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	DefaultConnectTimeout = 10 * time.Second
	DefaultKeepAlive      = 60 * time.Second
	disconnectQuiesceMs   = 250
)

// Client owns one station's broker connection. Frames are carried by
// Publisher and Subscriber on top of it.
type Client struct {
	client mqtt.Client
	config ClientConfig
}

// ClientConfig holds the broker connection settings of a station
type ClientConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string

	// Zero values fall back to DefaultConnectTimeout and DefaultKeepAlive
	ConnectTimeout time.Duration
	KeepAlive      time.Duration
}

func (c ClientConfig) connectTimeout() time.Duration {
	if c.ConnectTimeout > 0 {
		return c.ConnectTimeout
	}
	return DefaultConnectTimeout
}

func (c ClientConfig) keepAlive() time.Duration {
	if c.KeepAlive > 0 {
		return c.KeepAlive
	}
	return DefaultKeepAlive
}

// clientOptions maps a station config onto paho options. Frames are QoS 0
// and a station resubscribes on Open, so no session is kept.
func clientOptions(config ClientConfig) *mqtt.ClientOptions {
	keepAlive := config.keepAlive()

	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.Broker)
	opts.SetClientID(config.ClientID)
	opts.SetUsername(config.Username)
	opts.SetPassword(config.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(keepAlive)
	opts.SetPingTimeout(keepAlive / 6)
	opts.SetConnectTimeout(config.connectTimeout())

	id := config.ClientID
	opts.SetDefaultPublishHandler(func(_ mqtt.Client, msg mqtt.Message) {
		log.Printf("MQTT %s: Unrouted message on topic: %s", id, msg.Topic())
	})
	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		log.Printf("MQTT %s: Connection established", id)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Printf("MQTT %s: Connection lost: %v", id, err)
	})
	return opts
}

// NewClient connects to the broker, giving up after the connect timeout
func NewClient(config ClientConfig) (*Client, error) {
	client := mqtt.NewClient(clientOptions(config))

	token := client.Connect()
	if !token.WaitTimeout(config.connectTimeout()) {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", config.Broker, errConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", config.Broker, err)
	}

	log.Printf("MQTT %s: Connected to broker: %s", config.ClientID, config.Broker)

	return &Client{
		client: client,
		config: config,
	}, nil
}

var errConnectTimeout = errors.New("connect timed out")

// GetNativeClient returns the underlying paho MQTT client
func (c *Client) GetNativeClient() mqtt.Client {
	return c.client
}

func (c *Client) IsConnected() bool {
	return c.client.IsConnected()
}

// Close disconnects after letting in-flight work drain briefly
func (c *Client) Close() {
	c.client.Disconnect(disconnectQuiesceMs)
	log.Printf("MQTT %s: Disconnected", c.config.ClientID)
}
