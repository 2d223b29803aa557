package models

import "time"

// Channels is the number of microphone channels carried per record
const Channels = 4

// SampleWindow holds one acquisition pass of a single channel
type SampleWindow struct {
	Real       []float64 // raw amplitude readings, len N
	Imag       []float64 // all zero, len N
	SumSquares float64   // running sum of Real[i]^2 taken while sampling
	Rate       float64   // sampling frequency in Hz
}

// Len returns the number of samples in the window
func (w SampleWindow) Len() int {
	return len(w.Real)
}

// ChannelReading is one channel's estimate within a record
type ChannelReading struct {
	Frequency float64 `json:"frequency"` // Hz
	Loudness  float32 `json:"loudness"`  // uncalibrated dB-like score
}

// TelemetryRecord is the payload a node sends once per cycle
type TelemetryRecord struct {
	DeviceID int32                    `json:"device_id"`
	Channels [Channels]ChannelReading `json:"channels"`
}

// Loudness returns the four loudness scores in channel order
func (r TelemetryRecord) Loudness() [Channels]float32 {
	var out [Channels]float32
	for i, ch := range r.Channels {
		out[i] = ch.Loudness
	}
	return out
}

// Reading is a decoded record as seen by the receiver
type Reading struct {
	ReceivedAt time.Time       `json:"received_at"`
	Source     string          `json:"source"` // sender hardware address
	Record     TelemetryRecord `json:"record"`
	Loudest    IndicatorState  `json:"loudest"`
}
