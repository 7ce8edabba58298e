package accel

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jaffx/core"
	"jaffx/extmem"
	"jaffx/sim"
)

func setup(t *testing.T) (*sim.Board, *Accel, *extmem.Pool) {
	t.Helper()
	b := sim.NewBoard(sim.Options{SDRAMSize: 1024})
	b.Register()
	require.NoError(t, b.Init())

	pool := &extmem.Pool{}
	pool.Init(extmem.NewRegion(4096))

	a := New()
	a.Mem = pool
	a.Interval = time.Millisecond
	return b, a, pool
}

func ones(n int) []float32 {
	s := make([]float32, n)
	for i := range s {
		s[i] = 1
	}
	return s
}

func TestInitConfiguresSensor(t *testing.T) {
	b, a, pool := setup(t)
	a.Init()

	assert.True(t, b.Accel.Measuring())
	assert.Equal(t, float32(1), a.Gain())
	assert.Equal(t, 2, pool.Stats().Allocations, "history and ramp live in external memory")

	a.Close()
	assert.False(t, b.Accel.Measuring())
	assert.Zero(t, pool.Stats().Allocations)
}

func TestLoopPrintsAcceleration(t *testing.T) {
	b, a, _ := setup(t)
	a.Init()

	b.Accel.SetAcceleration(1, 0, -1)
	a.Loop()
	b.Accel.SetAcceleration(-0.5, 0.25, 1)
	a.Loop()

	assert.Equal(t, []string{
		"X: 1.000, Y: 0.000, Z: -1.000",
		"X: -0.500, Y: 0.250, Z: 1.000",
	}, b.Lines())
	assert.Equal(t, 2, b.GPIO.Edges(core.LEDPin))
}

func TestGainFollowsAveragedTilt(t *testing.T) {
	b, a, _ := setup(t)
	a.Init()

	b.Accel.SetAcceleration(1, 0, 0)
	a.Loop()
	assert.Equal(t, float32(1), a.Gain())

	b.Accel.SetAcceleration(-1, 0, 0)
	a.Loop()
	assert.Equal(t, float32(0.5), a.Gain(), "mean of +1 g and -1 g is level")

	for i := 0; i < HistoryLen; i++ {
		a.Loop()
	}
	assert.Zero(t, a.Gain(), "history fully replaced")
}

func TestBlockRampsToTarget(t *testing.T) {
	_, a, _ := setup(t)
	a.Init()

	a.setTarget(0.5)
	a.BlockStart()
	out := make([]float32, core.BlockSize)
	a.ProcessBuffer(ones(core.BlockSize), out, core.BlockSize)

	assert.InDelta(t, 1-0.5/core.BlockSize, out[0], 1e-6)
	assert.InDelta(t, 0.5, out[core.BlockSize-1], 1e-6)
	for i := 1; i < len(out); i++ {
		require.Less(t, out[i], out[i-1])
	}

	// steady state: flat gain
	a.BlockStart()
	a.ProcessBuffer(ones(4), out, 4)
	assert.Equal(t, []float32{0.5, 0.5, 0.5, 0.5}, out[:4])
}

func TestUnconfiguredBus(t *testing.T) {
	b, a, _ := setup(t)
	a.Bus = 7
	a.Init()

	a.Loop()
	require.Len(t, b.Lines(), 1)
	assert.Contains(t, b.Lines()[0], "accel: ")
	assert.False(t, b.Accel.Measuring())

	// audio still passes at unity
	a.BlockStart()
	out := make([]float32, 2)
	a.ProcessBuffer([]float32{0.25, -0.25}, out, 2)
	assert.Equal(t, []float32{0.25, -0.25}, out)
}

// wrongPart answers every register read with zeros.
type wrongPart struct{}

func (wrongPart) ReadRegister(reg uint8, buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}

func (wrongPart) WriteRegister(reg uint8, data []byte) {}

func TestMissingSensor(t *testing.T) {
	tests := []struct {
		name   string
		attach bool
		want   string
	}{
		{"no ack", false, "accel: no ADXL345 at 0x1d: "},
		{"wrong id", true, "accel: unexpected device id 0x0 at 0x1d"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, a, _ := setup(t)
			if tt.attach {
				b.I2C.Attach(DefaultBus, 0x1D, wrongPart{})
			}
			a.Address = 0x1D
			a.Init()

			require.Len(t, b.Lines(), 1)
			assert.Contains(t, b.Lines()[0], tt.want)
			assert.False(t, b.Accel.Measuring())

			a.Loop()
			assert.Len(t, b.Lines(), 1, "no readings without a sensor")
			assert.Equal(t, float32(1), a.Gain())
		})
	}
}

func TestLongBlockWarnsOnce(t *testing.T) {
	_, a, _ := setup(t)
	a.Init()

	var (
		mu    sync.Mutex
		lines []string
	)
	core.SetDebugWriter(func(s string) {
		mu.Lock()
		lines = append(lines, s)
		mu.Unlock()
	})
	core.SetDebugEnabled(true)
	core.InitAsyncDebug()
	t.Cleanup(func() {
		core.SetDebugEnabled(false)
		core.SetDebugWriter(func(string) {})
	})

	size := 2 * core.BlockSize
	out := make([]float32, size)
	a.BlockStart()
	a.ProcessBuffer(ones(size), out, size)
	a.ProcessBuffer(ones(size), out, size)
	assert.Equal(t, float32(1), out[size-1], "tail holds the last ramp value")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(lines) > 0
	}, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"accel: block longer than gain ramp"}, lines)
}

func TestExhaustedPool(t *testing.T) {
	b := sim.NewBoard(sim.Options{SDRAMSize: 1024})
	b.Register()
	require.NoError(t, b.Init())

	pool := &extmem.Pool{}
	pool.Init(extmem.NewRegion(64))
	a := &Accel{Mem: pool, Interval: time.Millisecond, Address: DefaultAddress}
	a.Init()

	b.Accel.SetAcceleration(0, 0, 1)
	a.Loop()
	a.BlockStart()
	out := make([]float32, 2)
	a.ProcessBuffer([]float32{1, 1}, out, 2)
	assert.Equal(t, []float32{0.5, 0.5}, out)
}

func TestTiltGain(t *testing.T) {
	tests := []struct {
		x, want float32
	}{
		{-2, 0},
		{-1, 0},
		{0, 0.5},
		{0.5, 0.75},
		{1, 1},
		{3, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TiltGain(tt.x), "x=%v", tt.x)
	}
}
