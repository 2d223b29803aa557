package services

import (
	"context"
	"log"
	"time"

	"acoustic-telemetry/internal/metrics"
	"acoustic-telemetry/internal/models"
)

// RecordStore persists readings and the sender registry
type RecordStore interface {
	SaveReading(ctx context.Context, reading *models.Reading) error
	UpsertDevice(ctx context.Context, device *models.Device) error
}

// ArchiveService writes readings forked off the receive path to a store
type ArchiveService struct {
	store RecordStore

	// Input channel (written by the aggregator, read by this service)
	ReadingChan chan *models.Reading

	registryRefresh time.Duration
	writeTimeout    time.Duration

	// sender address -> registry entry, owned by the Start goroutine
	devices map[string]*registryEntry
}

type registryEntry struct {
	device   models.Device
	upserted time.Time
}

// ArchiveServiceConfig holds configuration for the archive service
type ArchiveServiceConfig struct {
	ChannelSize     int
	RegistryRefresh time.Duration // how often last_seen is rewritten per sender
	WriteTimeout    time.Duration
}

// DefaultArchiveServiceConfig returns default configuration
func DefaultArchiveServiceConfig() ArchiveServiceConfig {
	return ArchiveServiceConfig{
		ChannelSize:     64,
		RegistryRefresh: time.Minute,
		WriteTimeout:    5 * time.Second,
	}
}

// NewArchiveService creates a new archive service
func NewArchiveService(store RecordStore, config ArchiveServiceConfig) *ArchiveService {
	if config.ChannelSize <= 0 {
		config.ChannelSize = DefaultArchiveServiceConfig().ChannelSize
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = DefaultArchiveServiceConfig().WriteTimeout
	}
	return &ArchiveService{
		store:           store,
		ReadingChan:     make(chan *models.Reading, config.ChannelSize),
		registryRefresh: config.RegistryRefresh,
		writeTimeout:    config.WriteTimeout,
		devices:         make(map[string]*registryEntry),
	}
}

// Start processes readings until ctx is cancelled or ReadingChan is closed
func (s *ArchiveService) Start(ctx context.Context) {
	log.Println("ArchiveService: Starting...")

	for {
		select {
		case <-ctx.Done():
			log.Println("ArchiveService: Shutting down...")
			return
		case reading, ok := <-s.ReadingChan:
			if !ok {
				log.Println("ArchiveService: Reading channel closed, shutting down...")
				return
			}
			s.processReading(ctx, reading)
		}
	}
}

// processReading stores a reading and keeps the registry current. Errors
// are logged only.
func (s *ArchiveService) processReading(ctx context.Context, reading *models.Reading) {
	wctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()

	if err := s.store.SaveReading(wctx, reading); err != nil {
		metrics.ArchiveOperations.WithLabelValues("save_reading", "error").Inc()
		log.Printf("ArchiveService: Error saving reading from %s: %v", reading.Source, err)
	} else {
		metrics.ArchiveOperations.WithLabelValues("save_reading", "ok").Inc()
	}

	entry, known := s.devices[reading.Source]
	if !known {
		entry = &registryEntry{device: models.Device{
			Address:      reading.Source,
			DeviceID:     reading.Record.DeviceID,
			RegisteredAt: reading.ReceivedAt,
		}}
		s.devices[reading.Source] = entry
		log.Printf("ArchiveService: New sender %s (device %d)", reading.Source, reading.Record.DeviceID)
	}

	changed := entry.device.DeviceID != reading.Record.DeviceID
	stale := reading.ReceivedAt.Sub(entry.upserted) >= s.registryRefresh
	if known && !changed && !stale {
		return
	}

	entry.device.DeviceID = reading.Record.DeviceID
	entry.device.LastSeen = reading.ReceivedAt
	entry.device.IsActive = true

	if err := s.store.UpsertDevice(wctx, &entry.device); err != nil {
		metrics.ArchiveOperations.WithLabelValues("upsert_device", "error").Inc()
		log.Printf("ArchiveService: Error upserting device %s: %v", reading.Source, err)
		return
	}
	metrics.ArchiveOperations.WithLabelValues("upsert_device", "ok").Inc()
	entry.upserted = reading.ReceivedAt
}
