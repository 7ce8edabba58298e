//go:build tinygo

package core

import "time"

// Sleep pauses the foreground for d; the audio interrupt keeps firing.
func Sleep(d time.Duration) {
	time.Sleep(d)
}
