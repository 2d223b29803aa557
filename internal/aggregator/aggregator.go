package aggregator

import (
	"fmt"
	"log"
	"strconv"

	"acoustic-telemetry/internal/clock"
	"acoustic-telemetry/internal/codec"
	"acoustic-telemetry/internal/display"
	"acoustic-telemetry/internal/indicator"
	"acoustic-telemetry/internal/link"
	"acoustic-telemetry/internal/metrics"
	"acoustic-telemetry/internal/models"
)

// Config wires an Aggregator to its outputs. Archive is optional.
type Config struct {
	Layout  codec.Layout
	Bank    *indicator.Bank
	Grid    *display.Grid
	Clock   clock.Clock
	Archive chan<- *models.Reading
}

// Aggregator turns each inbound record into an indicator decision. It keeps
// no state between records.
type Aggregator struct {
	layout  codec.Layout
	bank    *indicator.Bank
	grid    *display.Grid
	clock   clock.Clock
	archive chan<- *models.Reading
}

// New creates an aggregator
func New(cfg Config) *Aggregator {
	if cfg.Clock == nil {
		cfg.Clock = clock.NewReal()
	}
	if cfg.Layout.Size == 0 {
		cfg.Layout = codec.Packed
	}
	return &Aggregator{
		layout:  cfg.Layout,
		bank:    cfg.Bank,
		grid:    cfg.Grid,
		clock:   cfg.Clock,
		archive: cfg.Archive,
	}
}

// Loudest returns the channel whose loudness strictly exceeds every other
// channel, or IndicatorNone when the maximum is shared
func Loudest(rec models.TelemetryRecord) models.IndicatorState {
	l := rec.Loudness()
	for i := range l {
		strict := true
		for j := range l {
			if i != j && !(l[i] > l[j]) {
				strict = false
				break
			}
		}
		if strict {
			return models.IndicatorForChannel(i)
		}
	}
	return models.IndicatorNone
}

// HandleDatagram is the link receive handler
func (a *Aggregator) HandleDatagram(src link.Addr, payload []byte) {
	if _, err := a.Process(src, payload); err != nil {
		log.Printf("Aggregator: Discarding datagram from %s: %v", src, err)
	}
}

// Process decodes one datagram and drives the indicators, display and
// archive from it. A payload that fails to decode changes nothing.
func (a *Aggregator) Process(src link.Addr, payload []byte) (models.IndicatorState, error) {
	rec, err := a.layout.Decode(payload)
	if err != nil {
		metrics.DecodeErrors.Inc()
		return models.IndicatorNone, fmt.Errorf("decode: %w", err)
	}

	state := Loudest(rec)
	if a.bank != nil {
		a.bank.Drive(state)
	}
	a.render(rec)
	a.logRecord(src, rec)

	metrics.RecordsReceived.WithLabelValues(src.String()).Inc()
	if ch, ok := state.Channel(); ok {
		metrics.LoudestChannel.Set(float64(ch + 1))
	} else {
		metrics.LoudestChannel.Set(0)
	}
	for i, c := range rec.Channels {
		metrics.ChannelLoudness.WithLabelValues(strconv.Itoa(i + 1)).Set(float64(c.Loudness))
	}

	if a.archive != nil {
		a.offer(&models.Reading{
			ReceivedAt: a.clock.Now(),
			Source:     src.String(),
			Record:     rec,
			Loudest:    state,
		})
	}

	return state, nil
}

// render writes the device id and the first three channels; the grid has
// one row too few for channel 4, which is only logged
func (a *Aggregator) render(rec models.TelemetryRecord) {
	if a.grid == nil {
		return
	}
	a.grid.Clear()
	a.grid.SetCursor(0, 0)
	a.grid.Print("Device: " + strconv.Itoa(int(rec.DeviceID)))
	for i := 0; i < display.Rows-1; i++ {
		c := rec.Channels[i]
		a.grid.SetCursor(0, i+1)
		a.grid.Print("M" + strconv.Itoa(i+1) + ":")
		a.grid.PrintFloat(float64(c.Loudness), 1)
		a.grid.Print(",")
		a.grid.PrintFloat(c.Frequency, 1)
	}
}

func (a *Aggregator) logRecord(src link.Addr, rec models.TelemetryRecord) {
	c := rec.Channels
	log.Printf("Aggregator: %d,%s || Mic_1 Freq: %.2f,%.2f || Mic_2 Freq: %.2f,%.2f || Mic_3 Freq: %.2f,%.2f || Mic_4 Freq: %.2f,%.2f",
		rec.DeviceID, src,
		c[0].Frequency, c[0].Loudness,
		c[1].Frequency, c[1].Loudness,
		c[2].Frequency, c[2].Loudness,
		c[3].Frequency, c[3].Loudness)
}

// offer never blocks the receive path
func (a *Aggregator) offer(r *models.Reading) {
	if a.archive == nil {
		return
	}
	select {
	case a.archive <- r:
	default:
		metrics.ArchiveDropped.Inc()
		log.Printf("Aggregator: Archive channel full, dropping reading from %s", r.Source)
	}
}
