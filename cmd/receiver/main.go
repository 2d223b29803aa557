package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"acoustic-telemetry/internal/aggregator"
	"acoustic-telemetry/internal/clock"
	"acoustic-telemetry/internal/codec"
	"acoustic-telemetry/internal/database"
	"acoustic-telemetry/internal/diag"
	"acoustic-telemetry/internal/display"
	"acoustic-telemetry/internal/indicator"
	"acoustic-telemetry/internal/link"
	"acoustic-telemetry/internal/models"
	"acoustic-telemetry/internal/services"
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

	log.Println("Starting acoustic telemetry receiver...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wiring.ServeMetrics(ctx, cfg.MetricsAddr)

	grid := display.NewGrid()
	grid.PrintRow(0, "ESP-NOW Receiver")

	self := link.MustParseAddr(cfg.ReceiverAddr)
	layout, _ := codec.ByName(cfg.WireLayout)
	bank, _ := indicator.NewPinBank()

	// === Optional reading archive ===
	var archive chan<- *models.Reading
	if cfg.ArchiveEnabled() {
		db, err := database.NewClickHouseDB(
			cfg.ClickHouseAddr,
			cfg.ClickHouseDB,
			cfg.ClickHouseUser,
			cfg.ClickHousePass,
		)
		if err != nil {
			log.Fatalf("Failed to initialize ClickHouse: %v", err)
		}
		defer db.Close()

		archiveConfig := services.DefaultArchiveServiceConfig()
		archiveConfig.ChannelSize = cfg.ArchiveBuffer
		archiveService := services.NewArchiveService(db, archiveConfig)
		archive = archiveService.ReadingChan

		go archiveService.Start(ctx)
	}

	agg := aggregator.New(aggregator.Config{
		Layout:  layout,
		Bank:    bank,
		Grid:    grid,
		Clock:   clock.NewReal(),
		Archive: archive,
	})

	medium, err := wiring.Medium(cfg, "receiver")
	if err != nil {
		log.Fatalf("Failed to create link medium: %v", err)
	}

	rx := link.NewReceiver(medium, self)
	rx.OnReceive(agg.HandleDatagram)
	if err := rx.Init(ctx); err != nil {
		grid.PrintRow(1, "ESP-NOW Init Fail")
		grid.WriteTo(os.Stdout)
		log.Fatalf("Error initializing ESP-NOW: %v", err)
	}
	defer rx.Close()

	grid.PrintRow(1, "ESP-NOW Ready")
	time.Sleep(time.Second)
	grid.Clear()

	log.Printf("Receiver %s listening over %s, %s layout, archive enabled: %t",
		self, cfg.LinkTransport, layout.Name, archive != nil)
	log.Println("Press Ctrl+C to exit...")

	// All work happens in the receive handler; main only waits
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigChan:
		log.Println("Shutdown signal received, stopping receiver...")
	case <-rx.Done():
		log.Println("Link closed, stopping receiver...")
	}
	cancel()

	grid.WriteTo(os.Stdout)
	log.Println("Shutdown complete. Goodbye!")
}
