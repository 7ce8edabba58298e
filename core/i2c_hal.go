package core

import "tinygo.org/x/drivers"

// I2CBusID identifies a specific I2C bus (e.g., I2C1, I2C4).
type I2CBusID uint8

// I2CDriver is the abstract I2C interface that firmware variants use.
type I2CDriver interface {
	// ConfigureBus initializes a specific I2C bus with the given frequency.
	// Returns error if bus ID is invalid or configuration fails.
	ConfigureBus(bus I2CBusID, frequencyHz uint32) error

	// Bus returns a configured bus in the form the TinyGo drivers expect.
	Bus(bus I2CBusID) (drivers.I2C, error)
}

// Global singleton used by core code.
var i2cDriver I2CDriver

// SetI2CDriver is called by target-specific code to register its driver.
func SetI2CDriver(d I2CDriver) {
	i2cDriver = d
}

// MustI2C returns the configured driver or panics if missing.
func MustI2C() I2CDriver {
	if i2cDriver == nil {
		panic("I2C driver not configured")
	}
	return i2cDriver
}
