package serial

import (
	"io"
)

// Port represents a serial port interface
// This abstraction allows for different implementations:
// - Native serial (using github.com/tarm/serial)
// - In-memory pipes (for testing)
type Port interface {
	io.ReadWriteCloser

	// Flush discards data received but not yet read
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate (the board's USB CDC port ignores it, but the driver needs one)
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultBaud matches the board's log UART settings
const DefaultBaud = 115200

// DefaultConfig returns a default configuration for the board's log port
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        DefaultBaud,
		ReadTimeout: 100, // 100ms read timeout
	}
}
