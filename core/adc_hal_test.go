package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubADC struct {
	raw map[ADCChannelID]ADCValue
	err error
}

func (a *stubADC) Init(ADCConfig) error                { return nil }
func (a *stubADC) ConfigureChannel(ADCChannelID) error { return nil }

func (a *stubADC) ReadRaw(ch ADCChannelID) (ADCValue, error) {
	if a.err != nil {
		return 0, a.err
	}
	return a.raw[ch], nil
}

func TestMustADCPanicsWhenUnset(t *testing.T) {
	resetFirmwareState(t)
	assert.PanicsWithValue(t, "ADC driver not configured", func() { MustADC() })
}

func TestReadFloatScales(t *testing.T) {
	resetFirmwareState(t)
	SetADCDriver(&stubADC{raw: map[ADCChannelID]ADCValue{0: 0, 1: ADCMax, 2: 0x8000}})

	v, err := ReadFloat(0)
	require.NoError(t, err)
	assert.Zero(t, v)

	v, err = ReadFloat(1)
	require.NoError(t, err)
	assert.Equal(t, float32(1), v)

	v, err = ReadFloat(2)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, v, 1e-4)
}

func TestReadFloatPropagatesErrors(t *testing.T) {
	resetFirmwareState(t)
	boom := errors.New("conversion timeout")
	SetADCDriver(&stubADC{err: boom})

	_, err := ReadFloat(0)
	assert.ErrorIs(t, err, boom)
}
