package core

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"jaffx/extmem"
)

// fakeBoard records every driver call.
type fakeBoard struct {
	mu      sync.Mutex
	calls   []string
	lines   []string
	cb      AudioCallback
	rate    float32
	block   int
	mem     []byte
	initErr error
	ticks   atomic.Uint32
}

func newFakeBoard() *fakeBoard {
	return &fakeBoard{mem: extmem.NewRegion(4096)}
}

func (b *fakeBoard) record(call string) {
	b.mu.Lock()
	b.calls = append(b.calls, call)
	b.mu.Unlock()
}

func (b *fakeBoard) Init() error {
	b.record("init")
	return b.initErr
}

func (b *fakeBoard) SetAudioSampleRate(rate int) error {
	b.record("sample_rate:" + itoa(rate))
	b.mu.Lock()
	b.rate = float32(rate)
	b.mu.Unlock()
	return nil
}

func (b *fakeBoard) SetAudioBlockSize(size int) error {
	b.record("block_size:" + itoa(size))
	b.mu.Lock()
	b.block = size
	b.mu.Unlock()
	return nil
}

func (b *fakeBoard) AudioSampleRate() float32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rate
}

func (b *fakeBoard) AudioBlockSize() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.block
}

func (b *fakeBoard) StartAudio(cb AudioCallback) error {
	b.record("start_audio")
	b.mu.Lock()
	b.cb = cb
	b.mu.Unlock()
	return nil
}

func (b *fakeBoard) ExternalMemory() []byte { return b.mem }
func (b *fakeBoard) StartLog()              { b.record("start_log") }
func (b *fakeBoard) Ticks() uint32          { return b.ticks.Load() }
func (b *fakeBoard) TickFreq() uint32       { return 1000000 }

func (b *fakeBoard) PrintLine(line string) {
	b.mu.Lock()
	b.lines = append(b.lines, line)
	b.mu.Unlock()
}

func (b *fakeBoard) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

func (b *fakeBoard) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.lines...)
}

// fire runs one block through the registered callback.
func (b *fakeBoard) fire(input []float32) OutputBuffer {
	b.mu.Lock()
	cb := b.cb
	b.mu.Unlock()

	size := len(input)
	in := InputBuffer{input, make([]float32, size)}
	out := OutputBuffer{make([]float32, size), make([]float32, size)}
	cb(in, out, size)
	return out
}

// resetFirmwareState clears process-wide state between tests.
func resetFirmwareState(t *testing.T) {
	t.Helper()
	active.Store(nil)
	starting.Store(false)
	state.Store(uint32(StateUninitialized))
	hardware = nil
	adcDriver = nil
	i2cDriver = nil
	gpioDriver = nil
	debugPrintln = func(string) {}
	debugEnabled = false
	debugChan = nil
	ClearTimingRing()
}

// startAsync runs Start in a goroutine and waits for the Running state.
// The returned function cancels the foreground loop and returns Start's
// result.
func startAsync(t *testing.T, fw Firmware, cfg Config) func() error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- Start(ctx, fw, cfg) }()

	require.Eventually(t, func() bool {
		return CurrentState() == StateRunning
	}, time.Second, time.Millisecond)

	return func() error {
		cancel()
		select {
		case err := <-errc:
			return err
		case <-time.After(2 * time.Second):
			t.Fatal("foreground loop did not stop")
			return nil
		}
	}
}

// eventLog is a goroutine-safe trace of hook invocations.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(e string) {
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()
}

func (l *eventLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}
