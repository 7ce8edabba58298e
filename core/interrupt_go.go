//go:build !tinygo

package core

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// A host has no interrupt controller. cpu stands in for the single core:
// the audio callback and the foreground hooks hold it while they run, so a
// block is never interleaved with foreground work.
var (
	cpu      sync.Mutex
	taskHeld atomic.Bool
	isrHeld  atomic.Bool
)

// irqState records whether disableInterrupts took the cpu lock
type irqState uintptr

// disableInterrupts excludes the audio callback. Inside a foreground hook
// or the callback itself the cpu is already held, so it nests like
// interrupt.Disable. Only the foreground loop and the callback touch the
// guarded state while audio runs, so a set flag means the caller holds
// the cpu.
func disableInterrupts() irqState {
	if taskHeld.Load() || isrHeld.Load() {
		return 0
	}
	cpu.Lock()
	return 1
}

// restoreInterrupts undoes disableInterrupts
func restoreInterrupts(state irqState) {
	if state != 0 {
		cpu.Unlock()
	}
}

func enterISR() {
	cpu.Lock()
	isrHeld.Store(true)
}

func exitISR() {
	isrHeld.Store(false)
	cpu.Unlock()
}

func enterTask() {
	cpu.Lock()
	taskHeld.Store(true)
}

func exitTask() {
	taskHeld.Store(false)
	cpu.Unlock()
	runtime.Gosched()
}
