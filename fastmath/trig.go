// Package fastmath provides bounded-latency single-precision trigonometry
// for per-sample audio code.
//
// Sin and Cos use a 512-point table over one period with linear
// interpolation, the same scheme as the Cortex-M DSP library routines they
// stand in for. Absolute error stays below 1e-4 for finite inputs.
// NaN and ±Inf inputs return NaN.
package fastmath

import "math"

const (
	tableSize = 512
	tableMask = tableSize - 1

	twoPi    = 2 * math.Pi
	invTwoPi = 1 / twoPi
)

// sinTable holds sin over [0, 2π] with a guard entry for interpolation.
var sinTable [tableSize + 1]float32

func init() {
	for i := range sinTable {
		sinTable[i] = float32(math.Sin(float64(i) * twoPi / tableSize))
	}
}

// Sin returns the sine of x radians.
func Sin(x float32) float32 {
	// NaN compares false against everything; Inf-Inf below yields NaN
	if x != x || x > math.MaxFloat32 || x < -math.MaxFloat32 {
		return float32(math.NaN())
	}

	// normalise to [0, 1) periods
	in := float64(x) * invTwoPi
	in -= math.Floor(in)

	pos := float32(in) * tableSize
	idx := int(pos)
	frac := pos - float32(idx)
	idx &= tableMask

	a := sinTable[idx]
	b := sinTable[idx+1]
	return a + (b-a)*frac
}

// Cos returns the cosine of x radians.
func Cos(x float32) float32 {
	return Sin(x + math.Pi/2)
}

// Trig is the math provider handed to components that need trigonometry.
type Trig interface {
	Sin(x float32) float32
	Cos(x float32) float32
}

// Fast is the table-driven provider.
type Fast struct{}

func (Fast) Sin(x float32) float32 { return Sin(x) }
func (Fast) Cos(x float32) float32 { return Cos(x) }

// Std is the reference provider backed by the math package.
type Std struct{}

func (Std) Sin(x float32) float32 { return float32(math.Sin(float64(x))) }
func (Std) Cos(x float32) float32 { return float32(math.Cos(float64(x))) }
