// Package node is the sensor node's main flow: acquire every channel,
// estimate, encode, send, repeat.
package node

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"acoustic-telemetry/internal/clock"
	"acoustic-telemetry/internal/codec"
	"acoustic-telemetry/internal/display"
	"acoustic-telemetry/internal/dsp"
	"acoustic-telemetry/internal/indicator"
	"acoustic-telemetry/internal/link"
	"acoustic-telemetry/internal/metrics"
	"acoustic-telemetry/internal/models"
	"acoustic-telemetry/internal/sampler"
)

// DefaultGap is the pause between cycles
const DefaultGap = 50 * time.Millisecond

// Sender is the transmit side of the link
type Sender interface {
	Send(peer link.Addr, payload []byte) error
}

// Config holds the node's collaborators. Status and Grid are optional.
type Config struct {
	DeviceID int32
	Peer     link.Addr
	Layout   codec.Layout
	Gap      time.Duration
	Sampler  *sampler.Sampler
	Link     Sender
	Status   indicator.Line
	Grid     *display.Grid
	Clock    clock.Clock
}

// Node runs the acquisition cycle
type Node struct {
	cfg Config
	buf []byte
}

// New creates a node
func New(cfg Config) *Node {
	if cfg.Gap <= 0 {
		cfg.Gap = DefaultGap
	}
	if cfg.Layout.Size == 0 {
		cfg.Layout = codec.Packed
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.NewReal()
	}
	return &Node{cfg: cfg, buf: make([]byte, 0, cfg.Layout.Size)}
}

// Run repeats Cycle with the configured gap until ctx is done
func (n *Node) Run(ctx context.Context) {
	log.Printf("Node: Device %d sending to %s, %v between cycles", n.cfg.DeviceID, n.cfg.Peer, n.cfg.Gap)
	for {
		select {
		case <-ctx.Done():
			log.Println("Node: Context cancelled, stopping...")
			return
		default:
		}

		n.Cycle()
		n.cfg.Clock.Sleep(n.cfg.Gap)
	}
}

// Cycle acquires and estimates all four channels, shows the frequencies and
// sends one record. The returned error is the immediate send error, if any;
// the delivery outcome arrives later through HandleSent.
func (n *Node) Cycle() (models.TelemetryRecord, error) {
	started := n.cfg.Clock.Now()

	rec := models.TelemetryRecord{DeviceID: n.cfg.DeviceID}
	for c := range rec.Channels {
		w := n.cfg.Sampler.Acquire(c)
		rec.Channels[c] = models.ChannelReading{
			Frequency: dsp.DominantFrequency(w),
			Loudness:  float32(dsp.Loudness(w.SumSquares, w.Len())),
		}
	}

	n.render(rec)

	n.buf = n.cfg.Layout.AppendEncode(n.buf[:0], rec)
	err := n.cfg.Link.Send(n.cfg.Peer, n.buf)
	if err != nil {
		log.Printf("Node: Error sending data: %v", err)
		metrics.SendRejections.WithLabelValues(rejectionReason(err)).Inc()
		n.setStatus(indicator.Off)
	}

	metrics.CycleDuration.Observe(n.cfg.Clock.Now().Sub(started).Seconds())
	return rec, err
}

// HandleSent is the link send callback
func (n *Node) HandleSent(peer link.Addr, status link.SendStatus) {
	metrics.SendsTotal.WithLabelValues(status.String()).Inc()
	if status == link.SendSuccess {
		n.setStatus(indicator.On)
	} else {
		n.setStatus(indicator.Off)
	}
}

func (n *Node) setStatus(level uint8) {
	if n.cfg.Status != nil {
		n.cfg.Status.SetLevel(level)
	}
}

func (n *Node) render(rec models.TelemetryRecord) {
	if n.cfg.Grid == nil {
		return
	}
	for i, c := range rec.Channels {
		n.cfg.Grid.PrintRow(i, "M"+strconv.Itoa(i+1)+":"+strconv.FormatFloat(c.Frequency, 'f', 1, 64)+"Hz")
	}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, link.ErrNotReady):
		return "not_ready"
	case errors.Is(err, link.ErrBusy):
		return "busy"
	case errors.Is(err, link.ErrUnknownPeer):
		return "unknown_peer"
	case errors.Is(err, link.ErrPayloadTooLarge):
		return "too_large"
	default:
		return "other"
	}
}
