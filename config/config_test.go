package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jaffx/extmem"
)

func TestLoadConfigDefaults(t *testing.T) {
	c, err := LoadConfig([]byte(`{}`))
	require.NoError(t, err)

	assert.Equal(t, VariantAdcRead, c.Variant)
	assert.Equal(t, extmem.SDRAMSize, c.SDRAMSize)
	assert.Equal(t, time.Second, c.ReportInterval())
	assert.Equal(t, [3]float64{0, 0, 1}, c.Accel)
	assert.Equal(t, "info", c.LogLevel)
	assert.Zero(t, c.LoopInterval())
}

func TestLoadConfig(t *testing.T) {
	c, err := LoadConfig([]byte(`{
		"Variant": "accel",
		"Debug": true,
		"SDRAMSize": 65536,
		"LoopIntervalMs": 50,
		"Accel": [0.5, 0, 1],
		"Input": {"SineFreq": 440},
		"OutputWAV": "out.wav",
		"Realtime": true,
		"DurationMs": 2000
	}`))
	require.NoError(t, err)

	assert.Equal(t, VariantAccel, c.Variant)
	assert.True(t, c.Debug)
	assert.Equal(t, 65536, c.SDRAMSize)
	assert.Equal(t, 50*time.Millisecond, c.LoopInterval())
	assert.Equal(t, [3]float64{0.5, 0, 1}, c.Accel)
	assert.Equal(t, 0.5, c.Input.SineAmplitude, "amplitude defaulted")
	assert.Equal(t, 2*time.Second, c.Duration())
}

func TestLoadConfigErrors(t *testing.T) {
	for name, data := range map[string]string{
		"syntax":    `{"Variant":`,
		"variant":   `{"Variant": "reverb"}`,
		"inputs":    `{"Input": {"WAV": "in.wav", "SineFreq": 440}}`,
		"amplitude": `{"Input": {"SineFreq": 440, "SineAmplitude": 2}}`,
		"negative":  `{"DurationMs": -1}`,
	} {
		_, err := LoadConfig([]byte(data))
		assert.Error(t, err, name)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"ADC": [1.65, 3.3]}`), 0o644))

	c, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.65, 3.3}, c.ADC)

	_, err = LoadConfigFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestDefaultConfigIsValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}
