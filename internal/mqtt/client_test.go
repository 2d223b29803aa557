package mqtt

import (
	"testing"
	"time"
)

func TestClientOptionsDefaults(t *testing.T) {
	opts := clientOptions(ClientConfig{Broker: "tcp://localhost:1883", ClientID: "station-node"})

	if opts.ConnectTimeout != DefaultConnectTimeout {
		t.Errorf("Expected connect timeout %v, got %v", DefaultConnectTimeout, opts.ConnectTimeout)
	}
	if opts.KeepAlive != int64(DefaultKeepAlive/time.Second) {
		t.Errorf("Expected keepalive %ds, got %ds", int64(DefaultKeepAlive/time.Second), opts.KeepAlive)
	}
	if opts.PingTimeout != 10*time.Second {
		t.Errorf("Expected ping timeout 10s, got %v", opts.PingTimeout)
	}
	if !opts.AutoReconnect || !opts.CleanSession {
		t.Error("Expected auto reconnect with a clean session")
	}
	if opts.ClientID != "station-node" || len(opts.Servers) != 1 || opts.Servers[0].Host != "localhost:1883" {
		t.Errorf("Unexpected identity or broker: %q %v", opts.ClientID, opts.Servers)
	}
}

func TestClientOptionsFromConfig(t *testing.T) {
	opts := clientOptions(ClientConfig{
		Broker:         "tcp://broker:1883",
		ClientID:       "station-receiver",
		ConnectTimeout: 3 * time.Second,
		KeepAlive:      30 * time.Second,
	})

	if opts.ConnectTimeout != 3*time.Second {
		t.Errorf("Expected connect timeout 3s, got %v", opts.ConnectTimeout)
	}
	if opts.KeepAlive != 30 {
		t.Errorf("Expected keepalive 30s, got %ds", opts.KeepAlive)
	}
	if opts.PingTimeout != 5*time.Second {
		t.Errorf("Expected ping timeout 5s, got %v", opts.PingTimeout)
	}
}
