package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"acoustic-telemetry/internal/clock"
	"acoustic-telemetry/internal/codec"
	"acoustic-telemetry/internal/diag"
	"acoustic-telemetry/internal/display"
	"acoustic-telemetry/internal/indicator"
	"acoustic-telemetry/internal/link"
	"acoustic-telemetry/internal/node"
	"acoustic-telemetry/internal/sampler"
	"acoustic-telemetry/internal/wiring"
	"acoustic-telemetry/pkg/config"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logs, err := diag.Setup(diag.Config{
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		SerialPort: cfg.LogSerialPort,
		SerialBaud: cfg.LogSerialBaud,
	})
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logs.Close()

	log.Println("Starting acoustic sensor node...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wiring.ServeMetrics(ctx, cfg.MetricsAddr)

	grid := display.NewGrid()
	grid.PrintRow(0, "Audio Freq Monitor")

	self := link.MustParseAddr(cfg.NodeAddr)
	peer := link.MustParseAddr(cfg.PeerAddr)
	layout, _ := codec.ByName(cfg.WireLayout)

	clk := clock.NewReal()
	src, err := wiring.Source(cfg, clk)
	if err != nil {
		log.Fatalf("Failed to open channel source: %v", err)
	}
	smp, err := sampler.New(src, clk, cfg.SamplingFrequency, cfg.Samples)
	if err != nil {
		log.Fatalf("Failed to create sampler: %v", err)
	}

	medium, err := wiring.Medium(cfg, "node")
	if err != nil {
		log.Fatalf("Failed to create link medium: %v", err)
	}

	status := indicator.NewPin("status")
	tx := link.NewTransmitter(medium, self)
	n := node.New(node.Config{
		DeviceID: cfg.DeviceID,
		Peer:     peer,
		Layout:   layout,
		Gap:      cfg.CycleGap,
		Sampler:  smp,
		Link:     tx,
		Status:   status,
		Grid:     grid,
		Clock:    clk,
	})
	tx.OnSent(n.HandleSent)

	// Setup failures leave the link faulted; the node keeps cycling and
	// every send is rejected, as on the device.
	if err := tx.Init(ctx); err != nil {
		log.Printf("Error initializing ESP-NOW: %v", err)
		grid.PrintRow(1, "ESP-NOW Init Fail")
	} else if err := tx.AddPeer(peer); err != nil {
		log.Printf("Failed to add peer: %v", err)
		grid.PrintRow(2, "Failed to add peer")
	}
	defer tx.Close()

	log.Printf("Node %d (%s) -> %s over %s, %s layout, %d samples @ %.0f Hz",
		cfg.DeviceID, self, peer, cfg.LinkTransport, layout.Name, cfg.Samples, cfg.SamplingFrequency)

	done := make(chan struct{})
	go func() {
		n.Run(ctx)
		close(done)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutdown signal received, stopping node...")
	cancel()
	<-done

	grid.WriteTo(os.Stdout)
	log.Println("Shutdown complete. Goodbye!")
}
