// Package wiring builds the runtime collaborators shared by the binaries
// from a loaded configuration.
package wiring

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"acoustic-telemetry/internal/clock"
	"acoustic-telemetry/internal/link"
	"acoustic-telemetry/internal/metrics"
	"acoustic-telemetry/internal/mqtt"
	"acoustic-telemetry/internal/sampler"
	"acoustic-telemetry/internal/source"
	"acoustic-telemetry/pkg/config"
)

// Medium returns the configured datagram transport. role distinguishes the
// MQTT client id of stations sharing one configuration.
func Medium(cfg *config.Config, role string) (link.Medium, error) {
	switch cfg.LinkTransport {
	case "udp":
		routes, err := link.ParseRoutes(cfg.LinkRoutes)
		if err != nil {
			return nil, err
		}
		return link.NewUDPMedium(cfg.UDPListen, routes), nil
	case "mqtt":
		return mqtt.NewMedium(mqtt.ClientConfig{
			Broker:   cfg.MQTTBroker,
			ClientID: cfg.MQTTClientID + "-" + role,
			Username: cfg.MQTTUsername,
			Password: cfg.MQTTPassword,

			ConnectTimeout: cfg.MQTTConnectTimeout,
			KeepAlive:      cfg.MQTTKeepAlive,
		}, cfg.MQTTTopicPrefix), nil
	default:
		return nil, fmt.Errorf("unknown link transport %q", cfg.LinkTransport)
	}
}

// Source returns the configured channel input
func Source(cfg *config.Config, clk clock.Clock) (sampler.Source, error) {
	switch cfg.Source {
	case "tone":
		if len(cfg.ToneFrequencies) != len(cfg.ToneAmplitudes) {
			return nil, errors.New("tone frequencies and amplitudes differ in length")
		}
		channels := make([]source.ToneChannel, len(cfg.ToneFrequencies))
		for i := range channels {
			channels[i] = source.ToneChannel{Frequency: cfg.ToneFrequencies[i], Amplitude: cfg.ToneAmplitudes[i]}
		}
		tone := source.NewTone(clk, channels)
		tone.Offset = cfg.ToneOffset
		tone.Clamp = cfg.ToneClamp
		return tone, nil
	case "wav":
		w, err := source.OpenWAV(cfg.WAVPath)
		if err != nil {
			return nil, err
		}
		if float64(w.SampleRate()) != cfg.SamplingFrequency {
			log.Printf("Warning: %s is %d Hz but sampling at %.0f Hz; frequencies will be scaled",
				cfg.WAVPath, w.SampleRate(), cfg.SamplingFrequency)
		}
		return w, nil
	default:
		return nil, fmt.Errorf("unknown source %q", cfg.Source)
	}
}

// ServeMetrics exposes /metrics on addr until ctx is done. An empty addr
// disables it.
func ServeMetrics(ctx context.Context, addr string) {
	if addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Metrics: Listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Metrics: Server error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Metrics: Shutdown error: %v", err)
		}
	}()
}
