package diag

import "math"

// Thresholds are absolute voltage limits for steering a brush with the
// analog accelerometer. A reading past a limit moves the brush while it
// stays there.
type Thresholds struct {
	XLeft, XRight float64
	YDown, YUp    float64
	ZThin, ZThick float64
}

// DefaultThresholds are three-sigma limits measured on a resting sensor.
var DefaultThresholds = Thresholds{
	XLeft:  0.420,
	XRight: 0.552,
	YDown:  1.087,
	YUp:    1.513,
	ZThin:  0.900,
	ZThick: 1.594,
}

// Brush sizes picked by the Z axis.
const (
	SizeDefault = 4
	SizeThin    = 2
	SizeMedium  = 6
	SizeThick   = 18
)

// DefaultSpeed is the brush speed in pixels per second.
const DefaultSpeed = 300

// Brush integrates steering readings into a position on a canvas. Y grows
// downward.
type Brush struct {
	Width, Height float64
	Speed         float64
	Limits        Thresholds

	X, Y float64
	Size float64

	x, y, z float64
	have    Axis
}

// NewBrush returns a brush centred on a w by h canvas.
func NewBrush(w, h float64) *Brush {
	b := &Brush{Width: w, Height: h, Speed: DefaultSpeed, Limits: DefaultThresholds, Size: SizeDefault}
	b.Recenter()
	return b
}

// Recenter moves the brush back to the middle of the canvas.
func (b *Brush) Recenter() {
	b.X, b.Y = b.Width/2, b.Height/2
}

// Observe keeps the latest value of every axis present in r.
func (b *Brush) Observe(r Reading) {
	if r.Present&AxisX != 0 {
		b.x = r.X
	}
	if r.Present&AxisY != 0 {
		b.y = r.Y
	}
	if r.Present&AxisZ != 0 {
		b.z = r.Z
	}
	b.have |= r.Present
}

// Direction returns the unit steering direction from the latest readings.
func (b *Brush) Direction() (dx, dy int) {
	if b.have&AxisX != 0 {
		switch {
		case b.x < b.Limits.XLeft:
			dx = -1
		case b.x > b.Limits.XRight:
			dx = 1
		}
	}
	if b.have&AxisY != 0 {
		switch {
		case b.y < b.Limits.YDown:
			dy = 1
		case b.y > b.Limits.YUp:
			dy = -1
		}
	}
	return dx, dy
}

// Step advances the brush by dt seconds and updates its size. It returns
// whether the brush moved.
func (b *Brush) Step(dt float64) bool {
	if b.have == 0 {
		return false
	}

	dx, dy := b.Direction()
	b.X = clamp(b.X+float64(dx)*b.Speed*dt, 0, b.Width)
	b.Y = clamp(b.Y+float64(dy)*b.Speed*dt, 0, b.Height)

	b.Size = SizeDefault
	if b.have&AxisZ != 0 {
		switch {
		case b.z < b.Limits.ZThin:
			b.Size = SizeThin
		case b.z > b.Limits.ZThick:
			b.Size = SizeThick
		default:
			b.Size = SizeMedium
		}
	}
	return dx != 0 || dy != 0
}

// Hue maps the direction of travel to a colour wheel angle in [0, 360].
// Right is 180; the boolean is false when the brush is still.
func (b *Brush) Hue() (float64, bool) {
	dx, dy := b.Direction()
	if dx == 0 && dy == 0 {
		return 0, false
	}
	angle := math.Atan2(float64(dy), float64(dx))
	return (angle + math.Pi) / (2 * math.Pi) * 360, true
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
