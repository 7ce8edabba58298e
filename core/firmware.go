package core

// Firmware is the hook set a firmware image implements. Exactly one value
// is bound per process.
type Firmware interface {
	// Init runs once after hardware configuration and before audio starts.
	// It may configure extra peripherals but must not block indefinitely.
	Init()

	// ProcessAudio transforms a single sample.
	ProcessAudio(in float32) float32

	// ProcessBuffer fills out[:size] from in[:size]. It runs in interrupt
	// context and must finish within BlockPeriod.
	ProcessBuffer(in, out []float32, size int)

	// BlockStart and BlockEnd bracket every audio callback.
	BlockStart()
	BlockEnd()

	// Loop is called repeatedly from the foreground context.
	Loop()
}

// Base provides no-op defaults for every hook. Variants embed it and
// override what they need.
type Base struct{}

func (Base) Init()                                     {}
func (Base) ProcessAudio(in float32) float32           { return in }
func (Base) ProcessBuffer(in, out []float32, size int) {}
func (Base) BlockStart()                               {}
func (Base) BlockEnd()                                 {}
func (Base) Loop()                                     {}

// SampleProcessor is the per-sample subset of Firmware.
type SampleProcessor interface {
	ProcessAudio(in float32) float32
}

// ProcessSamples runs a block through the per-sample hook. Variants that
// think in samples call it from ProcessBuffer.
func ProcessSamples(p SampleProcessor, in, out []float32, size int) {
	in, out = in[:size], out[:size]
	for i, s := range in {
		out[i] = p.ProcessAudio(s)
	}
}
