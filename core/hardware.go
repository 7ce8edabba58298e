package core

import "time"

// Fixed per-image audio configuration.
const (
	SampleRate = 48000 // Hz
	BlockSize  = 128   // samples per channel per callback

	// BlockRate is the audio interrupt frequency (375 Hz).
	BlockRate = SampleRate / BlockSize

	// BlockPeriod is the deadline for one audio callback (~2.67 ms).
	BlockPeriod = time.Duration(BlockSize) * time.Second / SampleRate

	// Channels is the number of codec channels delivered to the callback.
	Channels = 2
)

// InputBuffer holds one slice of samples per input channel.
type InputBuffer [][]float32

// OutputBuffer holds one slice of samples per output channel.
type OutputBuffer [][]float32

// AudioCallback is the shape of the function the audio engine invokes once
// per block. It carries no receiver or context pointer.
type AudioCallback func(in InputBuffer, out OutputBuffer, size int)

// Hardware is the board driver the core relies on. Everything behind it
// (codec, clocks, memory controller, serial transport) is board specific.
type Hardware interface {
	// Init brings up clocks, the memory controller and the codec.
	Init() error

	// SetAudioBlockSize sets the number of samples per callback.
	SetAudioBlockSize(size int) error

	// SetAudioSampleRate sets the codec sample rate in Hz.
	SetAudioSampleRate(rate int) error

	// AudioSampleRate returns the configured sample rate in Hz.
	AudioSampleRate() float32

	// AudioBlockSize returns the configured block size.
	AudioBlockSize() int

	// StartAudio arms the audio interrupt with cb.
	StartAudio(cb AudioCallback) error

	// ExternalMemory returns the SDRAM window. Only valid after Init.
	ExternalMemory() []byte

	// StartLog opens the serial diagnostic channel.
	StartLog()

	// PrintLine writes one line to the diagnostic channel.
	PrintLine(line string)

	// Ticks returns a free-running counter incrementing at TickFreq.
	Ticks() uint32

	// TickFreq returns the Ticks rate in Hz.
	TickFreq() uint32
}

// Global singleton used by core code.
var hardware Hardware

// SetHardware is called by target-specific code to register its board.
func SetHardware(h Hardware) {
	hardware = h
}

// MustHardware returns the registered board or panics if missing.
func MustHardware() Hardware {
	if hardware == nil {
		panic("hardware not configured")
	}
	return hardware
}
