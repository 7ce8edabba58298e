package sim

import (
	"math"
	"sync"
)

// ADXL345 registers used by the driver.
const (
	adxlDevID      = 0x00
	adxlBWRate     = 0x2C
	adxlPowerCtl   = 0x2D
	adxlDataFormat = 0x31
	adxlDataX0     = 0x32

	adxlMeasure = 0x08 // POWER_CTL
	adxlFullRes = 0x08 // DATA_FORMAT

	// ADXL345Address is the address with SDO tied low.
	ADXL345Address = 0x53
)

// ADXL345 is a register-level model of the accelerometer. Acceleration
// is set in g and encoded according to the DATA_FORMAT register.
type ADXL345 struct {
	mu   sync.Mutex
	regs [64]byte
	g    [3]float64
}

func NewADXL345() *ADXL345 {
	a := &ADXL345{}
	a.regs[adxlDevID] = 0xE5
	a.regs[adxlBWRate] = 0x0A
	return a
}

// SetAcceleration sets the acceleration seen by the sensor, in g.
func (a *ADXL345) SetAcceleration(x, y, z float64) {
	a.mu.Lock()
	a.g = [3]float64{x, y, z}
	a.mu.Unlock()
}

// Measuring reports whether the driver has taken the part out of standby.
func (a *ADXL345) Measuring() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.regs[adxlPowerCtl]&adxlMeasure != 0
}

// Register returns the raw value of a register.
func (a *ADXL345) Register(reg uint8) byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.regs[reg&0x3F]
}

func (a *ADXL345) WriteRegister(reg uint8, data []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i, v := range data {
		r := (int(reg) + i) & 0x3F
		if r == adxlDevID || (r >= adxlDataX0 && r < adxlDataX0+6) {
			continue // read-only
		}
		a.regs[r] = v
	}
}

func (a *ADXL345) ReadRegister(reg uint8, buf []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.latch()
	for i := range buf {
		buf[i] = a.regs[(int(reg)+i)&0x3F]
	}
}

// latch encodes the current acceleration into DATAX0..DATAZ1.
func (a *ADXL345) latch() {
	var raw [3]int16
	if a.regs[adxlPowerCtl]&adxlMeasure != 0 {
		format := a.regs[adxlDataFormat]
		rng := format & 0x03
		lsbPerG := 256.0
		limit := 512.0 // 10-bit
		if format&adxlFullRes != 0 {
			limit *= float64(int(1) << rng)
		} else {
			lsbPerG /= float64(int(1) << rng)
		}
		for i, g := range a.g {
			v := math.Round(g * lsbPerG)
			raw[i] = int16(math.Max(-limit, math.Min(limit-1, v)))
		}
	}
	for i, v := range raw {
		a.regs[adxlDataX0+2*i] = byte(uint16(v))
		a.regs[adxlDataX0+2*i+1] = byte(uint16(v) >> 8)
	}
}
