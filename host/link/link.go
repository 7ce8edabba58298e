// Package link keeps a connection to the board's serial log and turns
// what it prints into diag events.
package link

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"jaffx/host/diag"
	"jaffx/host/serial"
)

// DefaultRetryDelay is the pause between reconnect attempts.
const DefaultRetryDelay = time.Second

// Link represents a connection to a board
type Link struct {
	// Open opens the serial port; serial.Open unless replaced
	Open func(cfg *serial.Config) (serial.Port, error)

	// RetryDelay is the pause before reconnecting after a failure
	RetryDelay time.Duration

	mu        sync.Mutex
	cfg       *serial.Config
	port      serial.Port
	connected bool
	log       zerolog.Logger
}

// NewLink creates a new Link for device (not yet connected)
func NewLink(cfg *serial.Config, logger zerolog.Logger) *Link {
	return &Link{
		Open:       serial.Open,
		RetryDelay: DefaultRetryDelay,
		cfg:        cfg,
		log:        logger.With().Str("component", "link").Str("device", cfg.Device).Logger(),
	}
}

// Connect opens the serial port and drops whatever the board printed
// before we were listening
func (l *Link) Connect() error {
	port, err := l.Open(l.cfg)
	if err != nil {
		return err
	}
	if err := port.Flush(); err != nil {
		port.Close()
		return fmt.Errorf("flush: %w", err)
	}

	l.mu.Lock()
	l.port = port
	l.connected = true
	l.mu.Unlock()

	l.log.Info().Msg("connected")
	return nil
}

// Close closes the connection to the board
func (l *Link) Close() error {
	l.mu.Lock()
	port := l.port
	l.port = nil
	l.connected = false
	l.mu.Unlock()

	if port == nil {
		return nil
	}
	return port.Close()
}

// IsConnected returns whether the board is connected
func (l *Link) IsConnected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.connected
}

// Run delivers events to handle until ctx is cancelled, reconnecting
// whenever the port fails or the board goes away.
func (l *Link) Run(ctx context.Context, handle func(diag.Event)) error {
	for {
		if !l.IsConnected() {
			if err := l.Connect(); err != nil {
				l.log.Warn().Err(err).Dur("retry", l.RetryDelay).Msg("connect failed")
				if !pause(ctx, l.RetryDelay) {
					return ctx.Err()
				}
				continue
			}
		}

		err := l.read(ctx, handle)
		l.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.log.Warn().Err(err).Msg("device disconnected")
		if !pause(ctx, l.RetryDelay) {
			return ctx.Err()
		}
	}
}

func (l *Link) read(ctx context.Context, handle func(diag.Event)) error {
	l.mu.Lock()
	port := l.port
	l.mu.Unlock()
	if port == nil {
		return errors.New("not connected")
	}

	// closing the port is the only way to interrupt a blocking read
	stop := context.AfterFunc(ctx, func() { port.Close() })
	defer stop()

	r := diag.NewReader(port)
	for {
		ev, err := r.Next()
		if err != nil {
			return err
		}
		handle(ev)
	}
}

// pause waits for d and reports false if ctx ended first.
func pause(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
