package core

// LoadMeter measures how much of each block period the audio callback
// uses. Loads are fractions: 1.0 means the callback took exactly one block
// period.
//
// OnBlockStart and OnBlockEnd run in interrupt context; the accessors
// read with interrupts masked and may be called from either context.
type LoadMeter struct {
	ticks    func() uint32
	maxTicks float32
	coeff    float32

	blockStart uint32
	first      bool

	min, avg, max float32
	blocks        uint32
	overruns      uint32
}

// LoadStats is a consistent snapshot of a LoadMeter.
type LoadStats struct {
	Min, Avg, Max float32
	Blocks        uint32
	Overruns      uint32
}

// DefaultSmoothingCutoff is the corner frequency of the average filter.
const DefaultSmoothingCutoff = 1.0 // Hz

// Init prepares the meter for blocks of blockSize samples at sampleRate,
// timed with ticks running at tickFreq.
func (m *LoadMeter) Init(sampleRate float32, blockSize int, ticks func() uint32, tickFreq uint32) {
	m.InitWithCutoff(sampleRate, blockSize, ticks, tickFreq, DefaultSmoothingCutoff)
}

// InitWithCutoff is Init with an explicit smoothing corner frequency.
func (m *LoadMeter) InitWithCutoff(sampleRate float32, blockSize int, ticks func() uint32, tickFreq uint32, cutoffHz float32) {
	secondsPerBlock := float32(blockSize) / sampleRate
	m.ticks = ticks
	m.maxTicks = secondsPerBlock * float32(tickFreq)

	// one-pole lowpass evaluated at the block rate
	m.coeff = cutoffHz * secondsPerBlock
	if m.coeff <= 0 || m.coeff > 1 {
		m.coeff = 1
	}
	m.reset()
}

// OnBlockStart marks the beginning of an audio block.
func (m *LoadMeter) OnBlockStart() {
	m.blockStart = m.ticks()
}

// OnBlockEnd marks the end of an audio block and folds its load into the
// statistics.
func (m *LoadMeter) OnBlockEnd() {
	end := m.ticks()
	elapsed := end - m.blockStart // wraps correctly
	load := float32(elapsed) / m.maxTicks

	m.blocks++
	if load > 1 {
		m.overruns++
		RecordTiming(EvtBlockOverrun, 0, end, elapsed, uint32(m.maxTicks))
	}

	if m.first {
		m.min, m.avg, m.max = load, load, load
		m.first = false
		return
	}
	if load < m.min {
		m.min = load
	}
	if load > m.max {
		m.max = load
	}
	m.avg += (load - m.avg) * m.coeff
}

// Reset discards all measurements.
func (m *LoadMeter) Reset() {
	state := disableInterrupts()
	m.reset()
	restoreInterrupts(state)
}

func (m *LoadMeter) reset() {
	m.first = true
	m.min, m.avg, m.max = 0, 0, 0
	m.blocks, m.overruns = 0, 0
}

// Stats returns a snapshot of the current measurements.
func (m *LoadMeter) Stats() LoadStats {
	state := disableInterrupts()
	s := LoadStats{
		Min:      m.min,
		Avg:      m.avg,
		Max:      m.max,
		Blocks:   m.blocks,
		Overruns: m.overruns,
	}
	restoreInterrupts(state)
	return s
}

// MinLoad returns the smallest observed load.
func (m *LoadMeter) MinLoad() float32 { return m.Stats().Min }

// AvgLoad returns the smoothed average load.
func (m *LoadMeter) AvgLoad() float32 { return m.Stats().Avg }

// MaxLoad returns the largest observed load.
func (m *LoadMeter) MaxLoad() float32 { return m.Stats().Max }

// Overruns returns the number of blocks that exceeded their period.
func (m *LoadMeter) Overruns() uint32 { return m.Stats().Overruns }
