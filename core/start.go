package core

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"jaffx/extmem"
)

// State is the process lifecycle stage.
type State uint32

const (
	StateUninitialized State = iota
	StateHardwareConfigured
	StateAudioArmed
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateHardwareConfigured:
		return "hardware-configured"
	case StateAudioArmed:
		return "audio-armed"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// ReportInterval rate-limits the debug load report.
const ReportInterval = time.Second

var (
	state    atomic.Uint32
	starting atomic.Bool
)

// CurrentState returns the lifecycle stage of the process.
func CurrentState() State {
	return State(state.Load())
}

func setState(s State) {
	state.Store(uint32(s))
	logger.Debug().Stringer("state", s).Msg("lifecycle transition")
}

// Config holds the settings fixed before Start.
type Config struct {
	// Debug enables the serial log, load metering and the load report.
	Debug bool

	// Memory is the external memory pool to initialize. Nil selects
	// extmem.Default().
	Memory *extmem.Pool

	// ReportInterval overrides the pause after each load report.
	ReportInterval time.Duration
}

// Start configures the registered hardware, binds fw as the active
// instance, starts audio and then runs the foreground loop until ctx is
// cancelled. Production images pass context.Background and never return.
//
// Start may be called once per process; later calls return
// ErrAlreadyStarted without touching the hardware or the bound instance.
// A failed hw.Init leaves the board untouched and may be retried; any
// later failure uses up the call.
func Start(ctx context.Context, fw Firmware, cfg Config) error {
	hw := MustHardware()
	if !starting.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	if err := hw.Init(); err != nil {
		starting.Store(false)
		return fmt.Errorf("hardware init: %w", err)
	}
	if err := hw.SetAudioSampleRate(SampleRate); err != nil {
		return fmt.Errorf("set sample rate: %w", err)
	}
	if err := hw.SetAudioBlockSize(BlockSize); err != nil {
		return fmt.Errorf("set block size: %w", err)
	}
	setState(StateHardwareConfigured)

	// SDRAM is not addressable before the memory controller is up.
	mem := cfg.Memory
	if mem == nil {
		mem = extmem.Default()
	}
	mem.Init(hw.ExternalMemory())

	b := &binding{fw: fw, debug: cfg.Debug}
	if cfg.Debug {
		b.meter = &LoadMeter{}
	}
	if err := bind(b); err != nil {
		return err
	}
	fw.Init()
	if cfg.Debug {
		initDebug(hw, b.meter)
	}
	setState(StateAudioArmed)

	if err := hw.StartAudio(audioCallback); err != nil {
		return fmt.Errorf("start audio: %w", err)
	}
	setState(StateRunning)
	logger.Info().
		Int("sample_rate", SampleRate).
		Int("block_size", BlockSize).
		Bool("debug", cfg.Debug).
		Msg("audio running")

	interval := cfg.ReportInterval
	if interval <= 0 {
		interval = ReportInterval
	}
	return run(ctx, b, interval)
}

// run is the foreground service loop.
func run(ctx context.Context, b *binding, interval time.Duration) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		enterTask()
		b.fw.Loop()
		exitTask()

		if b.debug {
			enterTask()
			reportLoad(b.meter)
			exitTask()
			wait(ctx, interval)
		}
	}
}

// wait pauses the foreground for d or until ctx ends.
func wait(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
