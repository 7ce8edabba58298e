//go:build tinygo

package extmem

import "runtime/interrupt"

// poolLock masks interrupts around pool operations. A mutex would
// deadlock when the audio interrupt allocates while the foreground it
// preempted holds the pool.
type poolLock struct{}

type lockState = interrupt.State

func (*poolLock) lock() lockState {
	return interrupt.Disable()
}

func (*poolLock) unlock(s lockState) {
	interrupt.Restore(s)
}
