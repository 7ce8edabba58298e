package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TimingEvent captures a timing-critical event for post-mortem analysis
type TimingEvent struct {
	EventType uint8  // Event type code
	Channel   uint8  // Audio channel or 0
	Clock     uint32 // Tick count at event
	Value1    uint32 // Context-dependent value
	Value2    uint32 // Context-dependent value
}

// Event type codes
const (
	EvtBlockOverrun = 1 // Block exceeded its period (v1=elapsed, v2=budget)
	EvtAudioStart   = 2 // Audio engine armed (v1=sample rate, v2=block size)
)

const (
	TimingRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (set by Start when
	// debug is enabled)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	// Timing capture ring buffer (non-blocking, safe from the audio callback)
	timingRing     [TimingRingSize]TimingEvent
	timingRingHead uint8

	// Async debug output channel
	debugChan chan string
)

// SetDebugWriter sets the platform-specific debug output function
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// InitAsyncDebug starts the goroutine draining DebugAsync messages
func InitAsyncDebug() {
	debugChan = make(chan string, 16)
	go debugOutputWorker(debugChan)
}

func debugOutputWorker(ch chan string) {
	for msg := range ch {
		DebugPrintln(msg)
	}
}

// DebugPrintln writes a debug message using the platform-specific writer.
// It blocks on the transport; never call it from the audio callback.
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// DebugAsync queues a message for the foreground writer. It never blocks,
// so hooks may use it from the audio callback; when the queue is full the
// message is dropped.
func DebugAsync(msg string) {
	if debugChan != nil {
		select {
		case debugChan <- msg:
		default:
		}
	}
}

// initDebug opens the diagnostic channel and arms the load meter.
func initDebug(hw Hardware, m *LoadMeter) {
	hw.StartLog()
	SetDebugWriter(hw.PrintLine)
	SetDebugEnabled(true)
	InitAsyncDebug()

	m.Init(hw.AudioSampleRate(), hw.AudioBlockSize(), hw.Ticks, hw.TickFreq())
	RecordTiming(EvtAudioStart, 0, hw.Ticks(), uint32(hw.AudioSampleRate()), uint32(hw.AudioBlockSize()))
}

// reportLoad prints the load statistics as percentages.
func reportLoad(m *LoadMeter) {
	s := m.Stats()
	DebugPrintln("Processing Load:")
	DebugPrintln("Max: " + ftoa3(s.Max*100) + "%")
	DebugPrintln("Avg: " + ftoa3(s.Avg*100) + "%")
	DebugPrintln("Min: " + ftoa3(s.Min*100) + "%")
	if s.Overruns > 0 {
		DebugPrintln("Overruns: " + itoa(int(s.Overruns)))
	}
}

// RecordTiming captures a timing event in the ring buffer
// This is always non-blocking and very fast
func RecordTiming(eventType, channel uint8, clock, value1, value2 uint32) {
	idx := timingRingHead
	timingRing[idx] = TimingEvent{
		EventType: eventType,
		Channel:   channel,
		Clock:     clock,
		Value1:    value1,
		Value2:    value2,
	}
	timingRingHead = (idx + 1) % TimingRingSize
}

// TimingEvents returns the recorded events, oldest first.
func TimingEvents() []TimingEvent {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	events := make([]TimingEvent, 0, TimingRingSize)
	start := timingRingHead
	for i := uint8(0); i < TimingRingSize; i++ {
		evt := timingRing[(start+i)%TimingRingSize]
		if evt.EventType == 0 {
			continue // Empty slot
		}
		events = append(events, evt)
	}
	return events
}

// DumpTimingRing outputs the timing ring buffer
// Call from the foreground, never from the audio callback
func DumpTimingRing() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[TIMING] === Timing Ring Dump ===")
	for _, evt := range TimingEvents() {
		var name string
		switch evt.EventType {
		case EvtBlockOverrun:
			name = "OVERRUN!"
		case EvtAudioStart:
			name = "AUDIO_START"
		default:
			name = "UNKNOWN"
		}

		debugPrintln("[TIMING] " + name +
			" ch=" + itoa(int(evt.Channel)) +
			" clock=" + itoa(int(evt.Clock)) +
			" v1=" + itoa(int(evt.Value1)) +
			" v2=" + itoa(int(evt.Value2)))
	}
	debugPrintln("[TIMING] === End Dump ===")
}

// ClearTimingRing clears the timing buffer
func ClearTimingRing() {
	state := disableInterrupts()
	for i := range timingRing {
		timingRing[i] = TimingEvent{}
	}
	timingRingHead = 0
	restoreInterrupts(state)
}
