// Package diag routes the standard logger to the node's diagnostic sinks:
// stdout, an optional rotating file and an optional serial port.
package diag

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/natefinch/lumberjack"
	"github.com/tarm/serial"
)

// Config selects the log sinks. Empty names disable a sink.
type Config struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
	SerialPort string
	SerialBaud int
}

type closers []io.Closer

func (c closers) Close() error {
	var errs []error
	for _, cl := range c {
		if err := cl.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Setup points the standard logger at stdout plus the configured sinks and
// returns a closer releasing them
func Setup(cfg Config) (io.Closer, error) {
	writers := []io.Writer{os.Stdout}
	var open closers

	if cfg.File != "" {
		maxSize := cfg.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 10
		}
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    maxSize,
			MaxBackups: cfg.MaxBackups,
		}
		writers = append(writers, lj)
		open = append(open, lj)
	}

	if cfg.SerialPort != "" {
		baud := cfg.SerialBaud
		if baud <= 0 {
			baud = 115200
		}
		port, err := serial.OpenPort(&serial.Config{Name: cfg.SerialPort, Baud: baud})
		if err != nil {
			open.Close()
			return nil, fmt.Errorf("failed to open serial log port %s: %w", cfg.SerialPort, err)
		}
		writers = append(writers, port)
		open = append(open, port)
	}

	log.SetOutput(io.MultiWriter(writers...))
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	return open, nil
}
