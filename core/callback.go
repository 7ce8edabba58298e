package core

// audioCallback is registered with the audio engine by Start. It processes
// channel 0 through the bound variant and mirrors the result to channel 1:
// boards built on this core are mono sources with dual-mono output.
//
// The callback runs in interrupt context. Foreground hooks never execute
// while a block is in progress.
func audioCallback(in InputBuffer, out OutputBuffer, size int) {
	b := active.Load()
	if b == nil {
		return
	}

	enterISR()

	if b.debug {
		b.meter.OnBlockStart()
	}
	b.fw.BlockStart()

	b.fw.ProcessBuffer(in[0], out[0], size)
	copy(out[1][:size], out[0][:size])

	b.fw.BlockEnd()
	if b.debug {
		b.meter.OnBlockEnd()
	}

	exitISR()
}
