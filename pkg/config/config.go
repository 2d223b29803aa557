package config

import (
	"errors"
	"fmt"
	"log"
	"math/bits"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"acoustic-telemetry/internal/codec"
	"acoustic-telemetry/internal/link"
)

type Config struct {
	// Identity
	DeviceID     int32
	NodeAddr     string
	PeerAddr     string
	ReceiverAddr string

	// Link Configuration
	LinkTransport string // udp | mqtt
	UDPListen     string
	LinkRoutes    string // mac=host:port,...
	WireLayout    string // packed | aligned

	// MQTT Configuration
	MQTTBroker         string
	MQTTClientID       string
	MQTTUsername       string
	MQTTPassword       string
	MQTTTopicPrefix    string
	MQTTConnectTimeout time.Duration
	MQTTKeepAlive      time.Duration

	// Acquisition
	Samples           int
	SamplingFrequency float64
	CycleGap          time.Duration

	// Channel inputs
	Source          string // tone | wav
	WAVPath         string
	ToneFrequencies []float64
	ToneAmplitudes  []float64
	ToneOffset      float64
	ToneClamp       bool

	// ClickHouse Configuration (empty address disables the archive)
	ClickHouseAddr string
	ClickHouseDB   string
	ClickHouseUser string
	ClickHousePass string
	ArchiveBuffer  int

	// Diagnostics
	MetricsAddr   string
	LogFile       string
	LogMaxSizeMB  int
	LogSerialPort string
	LogSerialBaud int

	// Simulator
	SimNodes    int
	SimDuration time.Duration // zero runs until interrupted
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	peer := getEnv("PEER_ADDR", "c4:d8:d5:3c:a6:52")

	return &Config{
		DeviceID:     int32(getEnvInt("DEVICE_ID", 1)),
		NodeAddr:     getEnv("NODE_ADDR", "24:0a:c4:00:00:01"),
		PeerAddr:     peer,
		ReceiverAddr: getEnv("RECEIVER_ADDR", peer),

		LinkTransport: getEnv("LINK_TRANSPORT", "udp"),
		UDPListen:     getEnv("UDP_LISTEN", ":4210"),
		LinkRoutes:    getEnv("LINK_ROUTES", ""),
		WireLayout:    getEnv("WIRE_LAYOUT", codec.Packed.Name),

		MQTTBroker:         getEnv("MQTT_BROKER", "tcp://localhost:1883"),
		MQTTClientID:       getEnv("MQTT_CLIENT_ID", "acoustic-telemetry"),
		MQTTUsername:       getEnv("MQTT_USERNAME", ""),
		MQTTPassword:       getEnv("MQTT_PASSWORD", ""),
		MQTTTopicPrefix:    getEnv("MQTT_TOPIC_PREFIX", "espnow"),
		MQTTConnectTimeout: time.Duration(getEnvInt("MQTT_CONNECT_TIMEOUT_S", 10)) * time.Second,
		MQTTKeepAlive:      time.Duration(getEnvInt("MQTT_KEEPALIVE_S", 60)) * time.Second,

		Samples:           getEnvInt("SAMPLES", 512),
		SamplingFrequency: getEnvFloat("SAMPLING_FREQUENCY", 8000),
		CycleGap:          time.Duration(getEnvInt("CYCLE_GAP_MS", 50)) * time.Millisecond,

		Source:          getEnv("SOURCE", "tone"),
		WAVPath:         getEnv("WAV_PATH", ""),
		ToneFrequencies: getEnvFloatList("TONE_FREQUENCIES", []float64{500, 1000, 1500, 2000}),
		ToneAmplitudes:  getEnvFloatList("TONE_AMPLITUDES", []float64{400, 800, 600, 200}),
		ToneOffset:      getEnvFloat("TONE_OFFSET", 2048),
		ToneClamp:       getEnvBool("TONE_CLAMP", true),

		ClickHouseAddr: getEnv("CLICKHOUSE_ADDR", ""),
		ClickHouseDB:   getEnv("CLICKHOUSE_DB", "telemetry"),
		ClickHouseUser: getEnv("CLICKHOUSE_USER", "default"),
		ClickHousePass: getEnv("CLICKHOUSE_PASS", ""),
		ArchiveBuffer:  getEnvInt("ARCHIVE_BUFFER", 64),

		MetricsAddr:   getEnv("METRICS_ADDR", ""),
		LogFile:       getEnv("LOG_FILE", ""),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 10),
		LogSerialPort: getEnv("LOG_SERIAL_PORT", ""),
		LogSerialBaud: getEnvInt("LOG_SERIAL_BAUD", 115200),

		SimNodes:    getEnvInt("SIM_NODES", 2),
		SimDuration: time.Duration(getEnvInt("SIM_DURATION_S", 0)) * time.Second,
	}
}

// Validate reports every setting that cannot be used
func (c *Config) Validate() error {
	var errs []error

	for key, addr := range map[string]string{
		"NODE_ADDR":     c.NodeAddr,
		"PEER_ADDR":     c.PeerAddr,
		"RECEIVER_ADDR": c.ReceiverAddr,
	} {
		if _, err := link.ParseAddr(addr); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}

	switch c.LinkTransport {
	case "udp":
		if _, err := link.ParseRoutes(c.LinkRoutes); err != nil {
			errs = append(errs, fmt.Errorf("LINK_ROUTES: %w", err))
		}
	case "mqtt":
		if c.MQTTBroker == "" {
			errs = append(errs, errors.New("MQTT_BROKER: required for mqtt transport"))
		}
	default:
		errs = append(errs, fmt.Errorf("LINK_TRANSPORT: unknown transport %q", c.LinkTransport))
	}

	if _, err := codec.ByName(c.WireLayout); err != nil {
		errs = append(errs, fmt.Errorf("WIRE_LAYOUT: %w", err))
	}

	if c.Samples < 2 || bits.OnesCount(uint(c.Samples)) != 1 {
		errs = append(errs, fmt.Errorf("SAMPLES: %d is not a power of two", c.Samples))
	}
	if c.SamplingFrequency <= 0 {
		errs = append(errs, fmt.Errorf("SAMPLING_FREQUENCY: must be positive, got %g", c.SamplingFrequency))
	}
	if c.CycleGap < 0 {
		errs = append(errs, errors.New("CYCLE_GAP_MS: must not be negative"))
	}

	switch c.Source {
	case "tone":
		if len(c.ToneFrequencies) != len(c.ToneAmplitudes) {
			errs = append(errs, fmt.Errorf("TONE_AMPLITUDES: %d values for %d frequencies",
				len(c.ToneAmplitudes), len(c.ToneFrequencies)))
		}
	case "wav":
		if c.WAVPath == "" {
			errs = append(errs, errors.New("WAV_PATH: required for wav source"))
		}
	default:
		errs = append(errs, fmt.Errorf("SOURCE: unknown source %q", c.Source))
	}

	return errors.Join(errs...)
}

// ArchiveEnabled reports whether readings should be written to ClickHouse
func (c *Config) ArchiveEnabled() bool {
	return c.ClickHouseAddr != ""
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: failed to parse %s as int, using default: %v", key, err)
		return defaultValue
	}
	return intValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("Warning: failed to parse %s as float, using default: %v", key, err)
		return defaultValue
	}
	return floatValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Warning: failed to parse %s as bool, using default: %v", key, err)
		return defaultValue
	}
	return boolValue
}

// getEnvFloatList parses a comma separated list; any bad element falls
// back to the whole default
func getEnvFloatList(key string, defaultValue []float64) []float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []float64
	for _, part := range strings.Split(value, ",") {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			log.Printf("Warning: failed to parse %s as float list, using default: %v", key, err)
			return defaultValue
		}
		out = append(out, f)
	}
	return out
}
