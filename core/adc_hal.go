package core

// ADCChannelID identifies a logical ADC channel.
type ADCChannelID uint8

// ADCValue is the "raw" ADC reading as seen by the rest of the firmware.
// Convention here: 16-bit value, even if underlying hardware is 12 bits.
type ADCValue uint16

// ADCMax is the full-scale ADCValue.
const ADCMax = 0xFFFF

// ADCConfig is the high-level config the core cares about.
type ADCConfig struct {
	Reference uint32 // reference voltage in millivolts, 0 for the board default
}

// ADCDriver is the abstract ADC interface that firmware variants use.
type ADCDriver interface {
	// Init powers up and configures the ADC peripheral.
	Init(cfg ADCConfig) error

	// ConfigureChannel prepares a channel for analog input.
	ConfigureChannel(ch ADCChannelID) error

	// ReadRaw returns the latest sample of a channel, scaled to 16 bits.
	ReadRaw(ch ADCChannelID) (ADCValue, error)
}

// Global singleton used by core code.
var adcDriver ADCDriver

// SetADCDriver is called by target-specific code to register its driver.
func SetADCDriver(d ADCDriver) {
	adcDriver = d
}

// MustADC returns the configured driver or panics if missing.
func MustADC() ADCDriver {
	if adcDriver == nil {
		panic("ADC driver not configured")
	}
	return adcDriver
}

// ReadFloat returns a channel reading normalised to [0, 1].
func ReadFloat(ch ADCChannelID) (float32, error) {
	v, err := MustADC().ReadRaw(ch)
	if err != nil {
		return 0, err
	}
	return float32(v) / ADCMax, nil
}
