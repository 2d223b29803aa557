// Command sim runs several sensor nodes and one receiver in a single
// process over the in-process medium and prints the receiver's display.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"acoustic-telemetry/internal/aggregator"
	"acoustic-telemetry/internal/clock"
	"acoustic-telemetry/internal/codec"
	"acoustic-telemetry/internal/display"
	"acoustic-telemetry/internal/indicator"
	"acoustic-telemetry/internal/link"
	"acoustic-telemetry/internal/node"
	"acoustic-telemetry/internal/sampler"
	"acoustic-telemetry/internal/source"
	"acoustic-telemetry/internal/wiring"
	"acoustic-telemetry/pkg/config"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.SimNodes < 1 {
		log.Fatalf("SIM_NODES must be at least 1, got %d", cfg.SimNodes)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.SimDuration > 0 {
		ctx, cancel = context.WithTimeout(ctx, cfg.SimDuration)
		defer cancel()
	}

	wiring.ServeMetrics(ctx, cfg.MetricsAddr)

	air := link.NewAir()
	clk := clock.NewReal()
	layout, _ := codec.ByName(cfg.WireLayout)
	base := link.MustParseAddr(cfg.ReceiverAddr)

	// === Receiver ===
	grid := display.NewGrid()
	bank, pins := indicator.NewPinBank()
	agg := aggregator.New(aggregator.Config{Layout: layout, Bank: bank, Grid: grid, Clock: clk})

	rx := link.NewReceiver(air.Radio(), base)
	rx.OnReceive(agg.HandleDatagram)
	if err := rx.Init(ctx); err != nil {
		log.Fatalf("Error initializing receiver: %v", err)
	}
	defer rx.Close()

	// === Nodes ===
	first := link.MustParseAddr(cfg.NodeAddr)
	for i := 0; i < cfg.SimNodes; i++ {
		self := first
		self[5] += byte(i)

		n, tx, err := newSimNode(ctx, cfg, clk, air, layout, self, base, i)
		if err != nil {
			log.Fatalf("Failed to start node %d: %v", i+1, err)
		}
		defer tx.Close()
		go n.Run(ctx)
	}

	log.Printf("Simulating %d node(s) -> %s, %s layout", cfg.SimNodes, base, layout.Name)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-sigChan:
			log.Println("Shutdown signal received, stopping simulation...")
			return
		case <-ctx.Done():
			log.Println("Simulation finished")
			return
		case <-ticker.C:
			grid.WriteTo(os.Stdout)
			fmt.Printf("LEDs: %d %d %d %d\n", pins[0].Level(), pins[1].Level(), pins[2].Level(), pins[3].Level())
		}
	}
}

// newSimNode builds node idx with its tone amplitudes rotated by idx, so
// each node has a different loudest channel
func newSimNode(ctx context.Context, cfg *config.Config, clk clock.Clock, air *link.Air, layout codec.Layout,
	self, peer link.Addr, idx int) (*node.Node, *link.Transmitter, error) {

	tones := make([]source.ToneChannel, len(cfg.ToneFrequencies))
	for c := range tones {
		tones[c] = source.ToneChannel{
			Frequency: cfg.ToneFrequencies[c],
			Amplitude: cfg.ToneAmplitudes[(c+idx)%len(cfg.ToneAmplitudes)],
		}
	}
	tone := source.NewTone(clk, tones)
	tone.Offset = cfg.ToneOffset
	tone.Clamp = cfg.ToneClamp

	smp, err := sampler.New(tone, clk, cfg.SamplingFrequency, cfg.Samples)
	if err != nil {
		return nil, nil, err
	}

	tx := link.NewTransmitter(air.Radio(), self)
	n := node.New(node.Config{
		DeviceID: cfg.DeviceID + int32(idx),
		Peer:     peer,
		Layout:   layout,
		Gap:      cfg.CycleGap,
		Sampler:  smp,
		Link:     tx,
		Status:   indicator.NewPin(fmt.Sprintf("status-%d", idx+1)),
		Clock:    clk,
	})
	tx.OnSent(n.HandleSent)

	if err := tx.Init(ctx); err != nil {
		return nil, nil, err
	}
	if err := tx.AddPeer(peer); err != nil {
		return nil, nil, err
	}
	return n, tx, nil
}
