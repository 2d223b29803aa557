package models

import "time"

// Device represents a sensor node seen by the receiver
type Device struct {
	DeviceID     int32     `json:"device_id"`
	Address      string    `json:"address"` // sender hardware address
	RegisteredAt time.Time `json:"registered_at"`
	LastSeen     time.Time `json:"last_seen"`
	IsActive     bool      `json:"is_active"`
}
