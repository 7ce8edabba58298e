package core

import "github.com/rs/zerolog"

// logger carries lifecycle events. It is separate from the diagnostic
// channel, which only ever sees plain lines.
var logger = zerolog.Nop()

// SetLogger replaces the lifecycle logger.
func SetLogger(l zerolog.Logger) {
	logger = l.With().Str("component", "firmware").Logger()
}
