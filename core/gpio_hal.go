package core

// GPIOPin identifies a hardware GPIO pin number
type GPIOPin uint32

// LEDPin is the user LED next to the USB connector.
const LEDPin GPIOPin = 7 // PC7

// GPIODriver is the abstract GPIO interface that core code uses.
type GPIODriver interface {
	// ConfigureOutput configures a pin as a push-pull output
	ConfigureOutput(pin GPIOPin) error

	// SetPin sets the pin to high (true) or low (false)
	SetPin(pin GPIOPin, value bool) error

	// GetPin reads back the current pin state
	GetPin(pin GPIOPin) (bool, error)
}

// Global singleton used by core code.
var gpioDriver GPIODriver

// SetGPIODriver is called by target-specific code to register its driver.
func SetGPIODriver(d GPIODriver) {
	gpioDriver = d
}

// MustGPIO returns the configured driver or panics if missing.
func MustGPIO() GPIODriver {
	if gpioDriver == nil {
		panic("GPIO driver not configured")
	}
	return gpioDriver
}

// Heartbeat toggles a pin once per call. The zero value drives LEDPin.
type Heartbeat struct {
	Pin        GPIOPin
	configured bool
	on         bool
}

// Toggle flips the pin, configuring it on first use. Boards without a
// GPIO driver are skipped silently; a failed write leaves the state as it
// was.
func (h *Heartbeat) Toggle() {
	if gpioDriver == nil {
		return
	}
	pin := h.Pin
	if pin == 0 {
		pin = LEDPin
	}
	if !h.configured {
		if err := gpioDriver.ConfigureOutput(pin); err != nil {
			return
		}
		h.configured = true
	}
	if err := gpioDriver.SetPin(pin, !h.on); err != nil {
		return
	}
	h.on = !h.on
}
