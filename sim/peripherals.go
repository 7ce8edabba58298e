package sim

import (
	"errors"
	"fmt"
	"sync"

	"tinygo.org/x/drivers"

	"jaffx/core"
)

// ADCChannels is the number of analog inputs broken out on the header.
const ADCChannels = 12

// ADC implements core.ADCDriver with voltages set by the test or runner.
type ADC struct {
	mu            sync.Mutex
	arefMilliVolt uint32
	initialized   bool
	configured    map[core.ADCChannelID]bool
	volts         map[core.ADCChannelID]float32
}

func NewADC() *ADC {
	return &ADC{
		arefMilliVolt: 3300,
		configured:    make(map[core.ADCChannelID]bool),
		volts:         make(map[core.ADCChannelID]float32),
	}
}

func (a *ADC) Init(cfg core.ADCConfig) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if cfg.Reference != 0 {
		a.arefMilliVolt = cfg.Reference
	}
	a.initialized = true
	return nil
}

func (a *ADC) ConfigureChannel(ch core.ADCChannelID) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if int(ch) >= ADCChannels {
		return fmt.Errorf("sim: unsupported ADC channel %d", ch)
	}
	a.configured[ch] = true
	return nil
}

// SetVoltage drives a channel's input pin. Values outside the reference
// range clip like the real converter.
func (a *ADC) SetVoltage(ch core.ADCChannelID, v float32) {
	a.mu.Lock()
	a.volts[ch] = v
	a.mu.Unlock()
}

// ReadRaw returns the channel's voltage scaled to 16 bits.
func (a *ADC) ReadRaw(ch core.ADCChannelID) (core.ADCValue, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.initialized {
		return 0, errors.New("sim: ADC not initialized")
	}
	if !a.configured[ch] {
		return 0, fmt.Errorf("sim: ADC channel %d not configured", ch)
	}

	ratio := a.volts[ch] * 1000 / float32(a.arefMilliVolt)
	switch {
	case ratio <= 0:
		return 0, nil
	case ratio >= 1:
		return core.ADCMax, nil
	}
	return core.ADCValue(ratio*core.ADCMax + 0.5), nil
}

// GPIO implements core.GPIODriver as a set of latched pins.
type GPIO struct {
	mu      sync.Mutex
	outputs map[core.GPIOPin]bool
	levels  map[core.GPIOPin]bool
	edges   map[core.GPIOPin]int
}

func NewGPIO() *GPIO {
	return &GPIO{
		outputs: make(map[core.GPIOPin]bool),
		levels:  make(map[core.GPIOPin]bool),
		edges:   make(map[core.GPIOPin]int),
	}
}

func (g *GPIO) ConfigureOutput(pin core.GPIOPin) error {
	g.mu.Lock()
	g.outputs[pin] = true
	g.mu.Unlock()
	return nil
}

func (g *GPIO) SetPin(pin core.GPIOPin, value bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.outputs[pin] {
		return fmt.Errorf("sim: pin %d is not an output", pin)
	}
	if g.levels[pin] != value {
		g.edges[pin]++
	}
	g.levels[pin] = value
	return nil
}

func (g *GPIO) GetPin(pin core.GPIOPin) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.levels[pin], nil
}

// Edges returns how many times a pin changed level.
func (g *GPIO) Edges(pin core.GPIOPin) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.edges[pin]
}

// I2C implements core.I2CDriver. Devices are attached per bus and address.
type I2C struct {
	mu         sync.Mutex
	configured map[core.I2CBusID]uint32
	buses      map[core.I2CBusID]*Bus
}

func NewI2C() *I2C {
	return &I2C{
		configured: make(map[core.I2CBusID]uint32),
		buses:      make(map[core.I2CBusID]*Bus),
	}
}

// Attach places dev at addr on bus, creating the bus if needed.
func (d *I2C) Attach(bus core.I2CBusID, addr uint16, dev Device) {
	d.mu.Lock()
	defer d.mu.Unlock()

	b, ok := d.buses[bus]
	if !ok {
		b = &Bus{devices: make(map[uint16]Device)}
		d.buses[bus] = b
	}
	b.mu.Lock()
	b.devices[addr] = dev
	b.mu.Unlock()
}

func (d *I2C) ConfigureBus(bus core.I2CBusID, frequencyHz uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if bus > 3 {
		return errors.New("sim: unsupported I2C bus ID")
	}
	if frequencyHz == 0 || frequencyHz > 1000000 {
		return fmt.Errorf("sim: unsupported I2C frequency %d", frequencyHz)
	}
	if _, ok := d.buses[bus]; !ok {
		d.buses[bus] = &Bus{devices: make(map[uint16]Device)}
	}
	d.configured[bus] = frequencyHz
	return nil
}

func (d *I2C) Bus(bus core.I2CBusID) (drivers.I2C, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.configured[bus]; !ok {
		return nil, fmt.Errorf("sim: I2C bus %d not configured", bus)
	}
	return d.buses[bus], nil
}

// ErrNoDevice is returned when nothing acknowledges an address.
var ErrNoDevice = errors.New("sim: I2C address not acknowledged")

// Device is a register-addressed I2C peripheral.
type Device interface {
	ReadRegister(reg uint8, buf []byte)
	WriteRegister(reg uint8, data []byte)
}

// Bus is one I2C bus. It implements drivers.I2C: a write selects a
// register and any further written bytes are stored from there on; a
// read continues from the selected register.
type Bus struct {
	mu      sync.Mutex
	devices map[uint16]Device
}

func (b *Bus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	dev, ok := b.devices[addr]
	if !ok {
		return ErrNoDevice
	}
	if len(w) == 0 {
		if len(r) > 0 {
			dev.ReadRegister(0, r)
		}
		return nil
	}
	if len(w) > 1 {
		dev.WriteRegister(w[0], w[1:])
	}
	if len(r) > 0 {
		dev.ReadRegister(w[0], r)
	}
	return nil
}

func (b *Bus) ReadRegister(addr uint8, reg uint8, buf []byte) error {
	return b.Tx(uint16(addr), []byte{reg}, buf)
}

func (b *Bus) WriteRegister(addr uint8, reg uint8, buf []byte) error {
	return b.Tx(uint16(addr), append([]byte{reg}, buf...), nil)
}
