//go:build !tinygo

package extmem

import "sync"

// poolLock serializes pool operations across goroutines on a host.
type poolLock struct {
	mu sync.Mutex
}

type lockState struct{}

func (l *poolLock) lock() lockState {
	l.mu.Lock()
	return lockState{}
}

func (l *poolLock) unlock(lockState) {
	l.mu.Unlock()
}
