//go:build tinygo

package core

import "runtime/interrupt"

type irqState = interrupt.State

// disableInterrupts disables interrupts and returns the previous state
func disableInterrupts() irqState {
	return interrupt.Disable()
}

// restoreInterrupts restores the interrupt state
func restoreInterrupts(state irqState) {
	interrupt.Restore(state)
}

// The hardware already serializes the audio interrupt against the
// foreground, so entering either context needs no bookkeeping.
func enterISR()  {}
func exitISR()   {}
func enterTask() {}
func exitTask()  {}
