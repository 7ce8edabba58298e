//go:build !tinygo

package core

import "time"

// Sleep pauses the foreground for d. Called from a foreground hook it
// releases the simulated core so audio blocks keep running.
func Sleep(d time.Duration) {
	if taskHeld.Load() {
		exitTask()
		defer enterTask()
	}
	time.Sleep(d)
}
