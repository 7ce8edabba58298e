// Package accel reads an ADXL345 over I2C, prints the acceleration on the
// serial log and lets the X-axis tilt set the output volume.
package accel

import (
	"errors"
	"math"
	"strconv"
	"sync/atomic"
	"time"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/adxl345"

	"jaffx/core"
	"jaffx/extmem"
)

const (
	DefaultBus      core.I2CBusID = 0
	DefaultAddress                = 0x53 // SDO low
	DefaultBusFreq                = 400000
	DefaultInterval               = 100 * time.Millisecond

	// HistoryLen is how many tilt readings are averaged.
	HistoryLen = 8

	lsbPerG = 256 // ±2 g range

	regDevID = 0x00
	devID    = 0xE5
)

// Accel maps tilt to gain. The gain target is written by Loop and ramped
// toward across each block so changes never click.
type Accel struct {
	core.Base

	Mem      extmem.Allocator // nil selects extmem.Default()
	Bus      core.I2CBusID
	Address  uint16
	Interval time.Duration

	sensor adxl345.Device
	ready  bool

	history []float32 // X readings in g, from external memory
	next    int
	filled  int

	ramp   []float32 // per-sample gain for the current block
	gain   float32   // audio context only
	target atomic.Uint32
	warned bool // audio context only

	hb core.Heartbeat
}

func New() *Accel {
	return &Accel{
		Bus:      DefaultBus,
		Address:  DefaultAddress,
		Interval: DefaultInterval,
	}
}

func (a *Accel) Init() {
	hw := core.MustHardware()
	hw.StartLog()

	mem := a.Mem
	if mem == nil {
		mem = extmem.Default()
	}
	a.history = extmem.MakeSlice[float32](mem, HistoryLen)
	a.ramp = extmem.MakeSlice[float32](mem, core.BlockSize)
	a.setTarget(1)
	a.gain = 1

	bus, err := a.openBus()
	if err != nil {
		hw.PrintLine("accel: " + err.Error())
		return
	}
	a.sensor = adxl345.New(bus)
	if a.Address != 0 {
		a.sensor.Address = a.Address
	}
	if err := probe(bus, a.sensor.Address); err != nil {
		hw.PrintLine("accel: " + err.Error())
		return
	}
	a.sensor.Configure()
	a.sensor.SetRange(adxl345.RANGE_2G)
	a.ready = true
}

func (a *Accel) openBus() (drivers.I2C, error) {
	i2c := core.MustI2C()
	if err := i2c.ConfigureBus(a.Bus, DefaultBusFreq); err != nil {
		return nil, err
	}
	return i2c.Bus(a.Bus)
}

// probe checks that an ADXL345 answers at addr. The driver drops bus
// errors, so a missing part would otherwise read as 0 g.
func probe(bus drivers.I2C, addr uint16) error {
	id := []byte{0}
	if err := bus.Tx(addr, []byte{regDevID}, id); err != nil {
		return errors.New("no ADXL345 at 0x" + strconv.FormatUint(uint64(addr), 16) + ": " + err.Error())
	}
	if id[0] != devID {
		return errors.New("unexpected device id 0x" + strconv.FormatUint(uint64(id[0]), 16) +
			" at 0x" + strconv.FormatUint(uint64(addr), 16))
	}
	return nil
}

// Close returns the buffers to the pool and puts the sensor in standby.
func (a *Accel) Close() {
	if a.ready {
		a.sensor.Halt()
		a.ready = false
	}
	mem := a.Mem
	if mem == nil {
		mem = extmem.Default()
	}
	extmem.FreeSlice(mem, a.history)
	extmem.FreeSlice(mem, a.ramp)
	a.history, a.ramp = nil, nil
}

// Reading returns the acceleration in g.
func (a *Accel) Reading() (x, y, z float32) {
	rx, ry, rz := a.sensor.ReadRawAcceleration()
	return float32(rx) / lsbPerG, float32(ry) / lsbPerG, float32(rz) / lsbPerG
}

func (a *Accel) Loop() {
	if a.ready {
		x, y, z := a.Reading()
		core.MustHardware().PrintLine(core.FormatXYZ(x, y, z))
		a.setTarget(TiltGain(a.push(x)))
		a.hb.Toggle()
	}

	d := a.Interval
	if d <= 0 {
		d = DefaultInterval
	}
	core.Sleep(d)
}

// push records x and returns the mean of the history.
func (a *Accel) push(x float32) float32 {
	if len(a.history) == 0 {
		return x
	}
	a.history[a.next] = x
	a.next = (a.next + 1) % len(a.history)
	if a.filled < len(a.history) {
		a.filled++
	}
	var sum float32
	for _, v := range a.history[:a.filled] {
		sum += v
	}
	return sum / float32(a.filled)
}

// TiltGain maps X acceleration to gain: -1 g is silent, level is half
// volume and +1 g is full volume.
func TiltGain(x float32) float32 {
	g := (x + 1) / 2
	switch {
	case g != g, g < 0:
		return 0
	case g > 1:
		return 1
	}
	return g
}

// Gain returns the current target gain.
func (a *Accel) Gain() float32 {
	return math.Float32frombits(a.target.Load())
}

func (a *Accel) setTarget(g float32) {
	a.target.Store(math.Float32bits(g))
}

// BlockStart spreads the step to the latest target over the block.
func (a *Accel) BlockStart() {
	target := a.Gain()
	if len(a.ramp) == 0 {
		a.gain = target
		return
	}
	step := (target - a.gain) / float32(len(a.ramp))
	for i := range a.ramp {
		a.ramp[i] = a.gain + step*float32(i+1)
	}
	a.gain = target
}

func (a *Accel) ProcessBuffer(in, out []float32, size int) {
	n := len(a.ramp)
	if n == 0 {
		for i := 0; i < size; i++ {
			out[i] = in[i] * a.gain
		}
		return
	}
	if size > n && !a.warned {
		a.warned = true
		core.DebugAsync("accel: block longer than gain ramp")
	}
	for i := 0; i < size; i++ {
		j := i
		if j >= n {
			j = n - 1
		}
		out[i] = in[i] * a.ramp[j]
	}
}
