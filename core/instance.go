package core

import (
	"errors"
	"sync/atomic"
)

// ErrAlreadyStarted is returned by Start once a firmware instance is bound.
var ErrAlreadyStarted = errors.New("firmware already started")

// binding is what the audio interrupt needs to reach the running variant.
type binding struct {
	fw    Firmware
	debug bool
	meter *LoadMeter
}

// active is written once by Start and only read afterwards. The audio
// callback registration takes no context pointer, so the callback finds
// the variant through here.
var active atomic.Pointer[binding]

// bind installs b as the active instance. It fails if one is already bound.
func bind(b *binding) error {
	if !active.CompareAndSwap(nil, b) {
		return ErrAlreadyStarted
	}
	return nil
}

// Active returns the bound firmware instance, or nil before Start.
func Active() Firmware {
	if b := active.Load(); b != nil {
		return b.fw
	}
	return nil
}

// Meter returns the load meter of the running instance, or nil when debug
// metering is disabled or nothing is bound.
func Meter() *LoadMeter {
	if b := active.Load(); b != nil {
		return b.meter
	}
	return nil
}
