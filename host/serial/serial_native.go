//go:build !wasm

package serial

import (
	"errors"
	"fmt"
	"time"

	"github.com/tarm/serial"
)

// NativePort wraps the tarm/serial implementation
type NativePort struct {
	port *serial.Port
	cfg  *Config
}

// Open opens a native serial port
func Open(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.Device == "" {
		return nil, errors.New("no serial device given")
	}

	baud := cfg.Baud
	if baud == 0 {
		baud = DefaultBaud
	}
	serialConfig := &serial.Config{
		Name:        cfg.Device,
		Baud:        baud,
		ReadTimeout: time.Duration(cfg.ReadTimeout) * time.Millisecond,
	}

	port, err := serial.OpenPort(serialConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}

	return &NativePort{
		port: port,
		cfg:  cfg,
	}, nil
}

// Device returns the path the port was opened with
func (p *NativePort) Device() string {
	return p.cfg.Device
}

// Read reads data from the serial port
func (p *NativePort) Read(b []byte) (int, error) {
	return p.port.Read(b)
}

// Write writes data to the serial port
func (p *NativePort) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

// Close closes the serial port
func (p *NativePort) Close() error {
	if p.port != nil {
		return p.port.Close()
	}
	return nil
}

// Flush discards unread input so a reconnect starts on a fresh line
func (p *NativePort) Flush() error {
	return p.port.Flush()
}
