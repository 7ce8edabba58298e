package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"

	"jaffx/host/diag"
	"jaffx/host/link"
	"jaffx/host/serial"
)

var (
	device  = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud    = flag.Int("baud", serial.DefaultBaud, "Baud rate (ignored for USB CDC)")
	retry   = flag.Duration("retry", link.DefaultRetryDelay, "Delay between reconnect attempts")
	jsonOut = flag.Bool("json", false, "Log JSON instead of console output")
	verbose = flag.Bool("verbose", false, "Log every line, including raw text")
	brush   = flag.Bool("brush", false, "Steer a virtual brush with analog accelerometer readings")
	width   = flag.Float64("width", 800, "Brush canvas width")
	height  = flag.Float64("height", 400, "Brush canvas height")
)

func main() {
	flag.Parse()

	logger := newLogger(*jsonOut, *verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud
	cfg.ReadTimeout = 0 // blocking; Run closes the port to stop

	l := link.NewLink(cfg, logger)
	l.RetryDelay = *retry

	m := &monitor{log: logger.With().Str("component", "monitor").Logger()}
	if *brush {
		m.brush = diag.NewBrush(*width, *height)
	}

	logger.Info().Str("device", *device).Msg("monitoring board log")
	err := l.Run(ctx, m.handle)
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(jsonOut, verbose bool) zerolog.Logger {
	var logger zerolog.Logger
	if jsonOut {
		logger = zerolog.New(os.Stderr)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	}
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return logger.Level(level).With().Timestamp().Logger()
}

// monitor logs what the board prints.
type monitor struct {
	log   zerolog.Logger
	brush *diag.Brush
	last  time.Time
}

func (m *monitor) handle(ev diag.Event) {
	switch ev := ev.(type) {
	case diag.Reading:
		m.log.Info().
			Float64("x", ev.X).
			Float64("y", ev.Y).
			Float64("z", ev.Z).
			Msg("reading")
		m.steer(ev)

	case diag.LoadReport:
		e := m.log.Info()
		if ev.Max > 90 {
			e = m.log.Warn()
		}
		e.Float64("max_pct", ev.Max).
			Float64("avg_pct", ev.Avg).
			Float64("min_pct", ev.Min).
			Msg("processing load")

	case diag.Overruns:
		m.log.Warn().Int("count", ev.Count).Msg("audio deadline missed")

	case diag.Text:
		m.log.Debug().Str("line", ev.Line).Msg("board")
	}
}

// steer advances the brush by the time since the previous reading.
func (m *monitor) steer(r diag.Reading) {
	if m.brush == nil {
		return
	}
	m.brush.Observe(r)

	dt := 0.0
	if !m.last.IsZero() {
		dt = r.At.Sub(m.last).Seconds()
	}
	m.last = r.At

	moved := m.brush.Step(dt)
	e := m.log.Debug()
	if moved {
		e = m.log.Info()
	}
	hue, _ := m.brush.Hue()
	e.Float64("x", m.brush.X).
		Float64("y", m.brush.Y).
		Float64("size", m.brush.Size).
		Float64("hue", hue).
		Bool("moving", moved).
		Msg("brush")
}
