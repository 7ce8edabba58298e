package core

// itoa converts an integer to a string without using fmt package
// This is a lightweight alternative for embedded systems
func itoa(n int) string {
	if n == 0 {
		return "0"
	}

	negative := n < 0
	if negative {
		n = -n
	}

	// Count digits
	temp := n
	digits := 0
	for temp > 0 {
		digits++
		temp /= 10
	}

	// Add space for negative sign
	if negative {
		digits++
	}

	// Build string from right to left
	buf := make([]byte, digits)
	pos := digits - 1

	for n > 0 {
		buf[pos] = byte('0' + n%10)
		n /= 10
		pos--
	}

	if negative {
		buf[0] = '-'
	}

	return string(buf)
}

// ftoa3 renders v with three decimals, rounding half away from zero.
func ftoa3(v float32) string {
	if v != v {
		return "nan"
	}

	negative := v < 0
	if negative {
		v = -v
	}
	if v > 2e6 {
		v = 2e6 // keep the scaled value inside int32
	}

	scaled := int(v*1000 + 0.5)
	frac := scaled % 1000
	s := itoa(scaled/1000) + "." + string([]byte{
		byte('0' + frac/100),
		byte('0' + frac/10%10),
		byte('0' + frac%10),
	})

	if negative && scaled != 0 {
		s = "-" + s
	}
	return s
}

// FormatXYZ renders a three-axis reading the way the demo variants print
// it on the serial log.
func FormatXYZ(x, y, z float32) string {
	return "X: " + ftoa3(x) + ", Y: " + ftoa3(y) + ", Z: " + ftoa3(z)
}
