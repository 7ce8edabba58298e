// Package adcread samples three analog inputs and prints them on the
// serial log twice a second.
package adcread

import (
	"time"

	"jaffx/core"
)

// VRef is the full-scale input voltage.
const VRef = 3.3

// Channels wired to A0..A2.
const (
	ChannelZ core.ADCChannelID = iota
	ChannelY
	ChannelX
)

// DefaultInterval keeps the serial log readable.
const DefaultInterval = 500 * time.Millisecond

// AdcRead keeps the default audio hooks; all of its work happens in Loop.
type AdcRead struct {
	core.Base

	Interval time.Duration

	hb core.Heartbeat
}

func New() *AdcRead {
	return &AdcRead{Interval: DefaultInterval}
}

func (a *AdcRead) Init() {
	adc := core.MustADC()
	if err := adc.Init(core.ADCConfig{}); err != nil {
		core.DebugPrintln("adc init: " + err.Error())
	}
	for _, ch := range []core.ADCChannelID{ChannelZ, ChannelY, ChannelX} {
		if err := adc.ConfigureChannel(ch); err != nil {
			core.DebugPrintln("adc channel: " + err.Error())
		}
	}
	core.MustHardware().StartLog()
}

func (a *AdcRead) Loop() {
	x := volts(ChannelX)
	y := volts(ChannelY)
	z := volts(ChannelZ)
	core.MustHardware().PrintLine(core.FormatXYZ(x, y, z))
	a.hb.Toggle()

	d := a.Interval
	if d <= 0 {
		d = DefaultInterval
	}
	core.Sleep(d)
}

// volts reads a channel in volts. Failed conversions read as zero.
func volts(ch core.ADCChannelID) float32 {
	v, err := core.ReadFloat(ch)
	if err != nil {
		return 0
	}
	return v * VRef
}
