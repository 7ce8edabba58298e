// Package sim is a host-side stand-in for the Daisy Seed board: codec,
// SDRAM window, serial log, ADC, I2C and the user LED.
package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"jaffx/core"
	"jaffx/extmem"
)

var (
	ErrNotInitialized     = errors.New("sim: board not initialized")
	ErrAlreadyInitialized = errors.New("sim: board already initialized")
	ErrAudioRunning       = errors.New("sim: audio already running")
	ErrAudioStopped       = errors.New("sim: audio not started")
	ErrSampleRate         = errors.New("sim: unsupported sample rate")
	ErrBlockSize          = errors.New("sim: unsupported block size")
)

// MaxBlockSize is the largest block the SAI DMA buffers hold.
const MaxBlockSize = 256

// Defaults applied by Init, matching the board support package.
const (
	DefaultSampleRate = 48000
	DefaultBlockSize  = 48
	DefaultTickFreq   = 1000000
)

var sampleRates = map[int]bool{8000: true, 16000: true, 32000: true, 48000: true, 96000: true}

// Options configures a Board.
type Options struct {
	// SDRAMSize is the external memory window in bytes (default extmem.SDRAMSize).
	SDRAMSize int
	// Clock returns the tick counter; TickFreq is its rate in Hz. Both
	// default to a 1 MHz counter derived from the wall clock.
	Clock    func() uint32
	TickFreq uint32
	// Log receives every PrintLine once logging has started.
	Log io.Writer
	// Logger records board events.
	Logger zerolog.Logger
}

// Board implements core.Hardware.
type Board struct {
	mu          sync.Mutex
	opts        Options
	initialized bool
	rate        int
	blockSize   int
	cb          core.AudioCallback
	mem         []byte
	logging     bool
	lines       []string
	blocks      uint64
	epoch       time.Time
	log         zerolog.Logger

	ADC   *ADC
	I2C   *I2C
	GPIO  *GPIO
	Accel *ADXL345 // on I2C bus 0 at ADXL345Address
}

// NewBoard returns an uninitialized board with its peripherals attached.
func NewBoard(opts Options) *Board {
	if opts.SDRAMSize <= 0 {
		opts.SDRAMSize = extmem.SDRAMSize
	}
	b := &Board{
		opts:  opts,
		epoch: time.Now(),
		log:   opts.Logger.With().Str("component", "sim").Logger(),
		ADC:   NewADC(),
		I2C:   NewI2C(),
		GPIO:  NewGPIO(),
		Accel: NewADXL345(),
	}
	b.I2C.Attach(0, ADXL345Address, b.Accel)
	if b.opts.Clock == nil {
		b.opts.Clock = b.wallTicks
		b.opts.TickFreq = DefaultTickFreq
	} else if b.opts.TickFreq == 0 {
		b.opts.TickFreq = DefaultTickFreq
	}
	return b
}

// Register installs the board and its peripherals as the process-wide HAL.
func (b *Board) Register() {
	core.SetHardware(b)
	core.SetADCDriver(b.ADC)
	core.SetI2CDriver(b.I2C)
	core.SetGPIODriver(b.GPIO)
}

func (b *Board) wallTicks() uint32 {
	return uint32(time.Since(b.epoch).Microseconds())
}

// Init brings up clocks, codec and SDRAM.
func (b *Board) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.initialized {
		return ErrAlreadyInitialized
	}
	b.mem = extmem.NewRegion(b.opts.SDRAMSize)
	b.rate = DefaultSampleRate
	b.blockSize = DefaultBlockSize
	b.initialized = true
	b.log.Debug().Int("sdram", len(b.mem)).Msg("board initialized")
	return nil
}

func (b *Board) SetAudioSampleRate(rate int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case !b.initialized:
		return ErrNotInitialized
	case b.cb != nil:
		return ErrAudioRunning
	case !sampleRates[rate]:
		return fmt.Errorf("%w: %d", ErrSampleRate, rate)
	}
	b.rate = rate
	return nil
}

func (b *Board) SetAudioBlockSize(size int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case !b.initialized:
		return ErrNotInitialized
	case b.cb != nil:
		return ErrAudioRunning
	case size < 1 || size > MaxBlockSize:
		return fmt.Errorf("%w: %d", ErrBlockSize, size)
	}
	b.blockSize = size
	return nil
}

func (b *Board) AudioSampleRate() float32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return float32(b.rate)
}

func (b *Board) AudioBlockSize() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.blockSize
}

// StartAudio registers the block callback. Blocks are delivered by Block,
// Render or Run.
func (b *Board) StartAudio(cb core.AudioCallback) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case !b.initialized:
		return ErrNotInitialized
	case b.cb != nil:
		return ErrAudioRunning
	case cb == nil:
		return errors.New("sim: nil audio callback")
	}
	b.cb = cb
	b.log.Debug().Int("rate", b.rate).Int("block", b.blockSize).Msg("audio started")
	return nil
}

// ExternalMemory returns the SDRAM window, or nil before Init.
func (b *Board) ExternalMemory() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mem
}

func (b *Board) StartLog() {
	b.mu.Lock()
	b.logging = true
	b.mu.Unlock()
}

// PrintLine appends a line to the serial log. Lines printed before
// StartLog are lost, as on the USB CDC port.
func (b *Board) PrintLine(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.logging {
		return
	}
	b.lines = append(b.lines, line)
	if b.opts.Log != nil {
		io.WriteString(b.opts.Log, line+"\n")
	}
}

// Lines returns everything printed so far.
func (b *Board) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.lines...)
}

func (b *Board) Ticks() uint32    { return b.opts.Clock() }
func (b *Board) TickFreq() uint32 { return b.opts.TickFreq }

// Blocks returns the number of blocks delivered.
func (b *Board) Blocks() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.blocks
}

// Block delivers one block of input to the callback and returns copies of
// the left and right outputs. The input is truncated or zero-padded to the
// configured block size and fed to both input channels.
func (b *Board) Block(input []float32) (left, right []float32, err error) {
	b.mu.Lock()
	cb, size := b.cb, b.blockSize
	if cb != nil {
		b.blocks++
	}
	b.mu.Unlock()

	if cb == nil {
		return nil, nil, ErrAudioStopped
	}

	in := core.InputBuffer{make([]float32, size), make([]float32, size)}
	copy(in[0], input)
	copy(in[1], input)
	out := core.OutputBuffer{make([]float32, size), make([]float32, size)}

	cb(in, out, size)
	return out[0], out[1], nil
}

// Render feeds src through the callback as fast as possible until src is
// exhausted, writing each block to sink.
func (b *Board) Render(src Source, sink Sink) error {
	buf := make([]float32, b.AudioBlockSize())
	for {
		n := src.Fill(buf)
		if n == 0 {
			return nil
		}
		left, right, err := b.Block(buf[:n])
		if err != nil {
			return err
		}
		if sink != nil {
			if err := sink.Write(left[:n], right[:n]); err != nil {
				return fmt.Errorf("sink: %w", err)
			}
		}
	}
}

// Run delivers blocks at the configured block rate until ctx is done or
// src is exhausted. A nil src plays silence.
func (b *Board) Run(ctx context.Context, src Source, sink Sink) error {
	if src == nil {
		src = Silence{}
	}
	size := b.AudioBlockSize()
	period := time.Duration(float64(time.Second) * float64(size) / float64(b.AudioSampleRate()))

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	buf := make([]float32, size)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		n := src.Fill(buf)
		if n == 0 {
			return nil
		}
		left, right, err := b.Block(buf[:n])
		if err != nil {
			return err
		}
		if sink != nil {
			if err := sink.Write(left[:n], right[:n]); err != nil {
				return fmt.Errorf("sink: %w", err)
			}
		}
	}
}
