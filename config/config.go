// Package config holds the JSON configuration of the simulated board
// runner.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"jaffx/extmem"
)

// Known firmware variants.
const (
	VariantAdcRead = "adcread"
	VariantAccel   = "accel"
)

// InputConfig selects what the codec input hears. With neither WAV nor
// SineFreq set the input is silent.
type InputConfig struct {
	WAV           string  // Path of a PCM WAV file, mixed down to mono
	SineFreq      float64 // Test tone frequency (Hz)
	SineAmplitude float64 // Test tone peak (0.0-1.0)
}

// BoardConfig is the complete configuration of a simulated run
type BoardConfig struct {
	Variant          string     // Firmware variant to run
	Debug            bool       // Serial log, load metering and load report
	SDRAMSize        int        // External memory window (bytes)
	LoopIntervalMs   int        // Variant loop period, 0 for the variant default
	ReportIntervalMs int        // Pause after each load report
	ADC              []float64  // Voltage on each ADC channel, by index
	Accel            [3]float64 // Acceleration seen by the ADXL345 (g)
	Input            InputConfig
	OutputWAV        string // Record the stereo output here
	Realtime         bool   // Pace blocks at the block rate instead of rendering offline
	DurationMs       int    // Run length; bounds an offline sine, 0 runs a realtime run until interrupted
	LogLevel         string // zerolog level name
}

// LoadConfig parses a JSON configuration string and returns a BoardConfig
func LoadConfig(jsonData []byte) (*BoardConfig, error) {
	var config BoardConfig

	err := json.Unmarshal(jsonData, &config)
	if err != nil {
		return nil, err
	}

	// Apply defaults
	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadConfigFile reads and parses the configuration file at path
func LoadConfigFile(path string) (*BoardConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	config, err := LoadConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return config, nil
}

// applyDefaults fills in missing configuration values with sensible defaults
func applyDefaults(config *BoardConfig) {
	if config.Variant == "" {
		config.Variant = VariantAdcRead
	}
	if config.SDRAMSize == 0 {
		config.SDRAMSize = extmem.SDRAMSize
	}
	if config.ReportIntervalMs == 0 {
		config.ReportIntervalMs = 1000
	}
	if config.Accel == [3]float64{} {
		config.Accel = [3]float64{0, 0, 1} // lying flat
	}
	if config.Input.SineFreq != 0 && config.Input.SineAmplitude == 0 {
		config.Input.SineAmplitude = 0.5
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
}

// Validate reports the first inconsistent setting
func (c *BoardConfig) Validate() error {
	switch c.Variant {
	case VariantAdcRead, VariantAccel:
	default:
		return fmt.Errorf("unknown variant %q", c.Variant)
	}
	if c.SDRAMSize < 0 {
		return errors.New("SDRAMSize must be positive")
	}
	if c.Input.WAV != "" && c.Input.SineFreq != 0 {
		return errors.New("Input: WAV and SineFreq are exclusive")
	}
	if c.Input.SineFreq < 0 || c.Input.SineAmplitude < 0 || c.Input.SineAmplitude > 1 {
		return errors.New("Input: sine frequency and amplitude out of range")
	}
	if c.LoopIntervalMs < 0 || c.ReportIntervalMs < 0 || c.DurationMs < 0 {
		return errors.New("intervals must not be negative")
	}
	return nil
}

// LoopInterval is LoopIntervalMs as a duration
func (c *BoardConfig) LoopInterval() time.Duration {
	return time.Duration(c.LoopIntervalMs) * time.Millisecond
}

// ReportInterval is ReportIntervalMs as a duration
func (c *BoardConfig) ReportInterval() time.Duration {
	return time.Duration(c.ReportIntervalMs) * time.Millisecond
}

// Duration is DurationMs as a duration
func (c *BoardConfig) Duration() time.Duration {
	return time.Duration(c.DurationMs) * time.Millisecond
}

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() *BoardConfig {
	return &BoardConfig{
		Variant:          VariantAdcRead,
		Debug:            true,
		SDRAMSize:        extmem.SDRAMSize,
		ReportIntervalMs: 1000,
		ADC:              []float64{0.654, 2.872, 2.871},
		Accel:            [3]float64{0, 0, 1},
		Realtime:         true,
		LogLevel:         "info",
	}
}
