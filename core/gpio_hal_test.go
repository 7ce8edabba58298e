package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubGPIO struct {
	outputs []GPIOPin
	pins    map[GPIOPin]bool
	sets    int
	failSet bool
}

func (g *stubGPIO) ConfigureOutput(pin GPIOPin) error {
	g.outputs = append(g.outputs, pin)
	return nil
}

func (g *stubGPIO) SetPin(pin GPIOPin, value bool) error {
	if g.failSet {
		return errors.New("pin busy")
	}
	if g.pins == nil {
		g.pins = make(map[GPIOPin]bool)
	}
	g.pins[pin] = value
	g.sets++
	return nil
}

func (g *stubGPIO) GetPin(pin GPIOPin) (bool, error) {
	return g.pins[pin], nil
}

func TestHeartbeatTogglesLED(t *testing.T) {
	resetFirmwareState(t)
	g := &stubGPIO{}
	SetGPIODriver(g)

	var hb Heartbeat
	hb.Toggle()
	assert.True(t, g.pins[LEDPin])
	hb.Toggle()
	assert.False(t, g.pins[LEDPin])
	hb.Toggle()

	assert.Equal(t, []GPIOPin{LEDPin}, g.outputs, "pin configured once")
	assert.Equal(t, 3, g.sets)
}

func TestHeartbeatFailedWriteKeepsState(t *testing.T) {
	resetFirmwareState(t)
	g := &stubGPIO{failSet: true}
	SetGPIODriver(g)

	var hb Heartbeat
	hb.Toggle()
	hb.Toggle()
	assert.Zero(t, g.sets)

	g.failSet = false
	hb.Toggle()
	assert.True(t, g.pins[LEDPin], "first successful write turns the LED on")
	assert.Equal(t, 1, g.sets)
}

func TestHeartbeatWithoutGPIO(t *testing.T) {
	resetFirmwareState(t)
	var hb Heartbeat
	assert.NotPanics(t, hb.Toggle)
	assert.PanicsWithValue(t, "GPIO driver not configured", func() { MustGPIO() })
	assert.PanicsWithValue(t, "I2C driver not configured", func() { MustI2C() })
}
