// Command sim runs a firmware variant on the simulated board. The board's
// serial log goes to stdout; diagnostics go to stderr.
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

	"jaffx/config"
)

var (
	configPath = flag.String("config", "", "JSON board configuration (defaults when empty)")
	variant    = flag.String("variant", "", "Firmware variant, overrides the configuration")
	debug      = flag.Bool("debug", false, "Enable load metering, overrides the configuration")
	duration   = flag.Duration("duration", 0, "Stop after this long, overrides the configuration")
	jsonOut    = flag.Bool("json", false, "Log JSON instead of console output")
)

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	logger, err := newLogger(cfg.LogLevel, *jsonOut)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := runSim(ctx, cfg, logger, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("simulation failed")
		os.Exit(1)
	}
}

func loadConfig() (*config.BoardConfig, error) {
	cfg := config.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadConfigFile(*configPath); err != nil {
			return nil, err
		}
	}

	if *variant != "" {
		cfg.Variant = *variant
	}
	if *debug {
		cfg.Debug = true
	}
	if *duration > 0 {
		cfg.DurationMs = int(*duration / time.Millisecond)
	}
	return cfg, cfg.Validate()
}

func newLogger(levelName string, jsonOut bool) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(levelName)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level: %w", err)
	}

	var logger zerolog.Logger
	if jsonOut {
		logger = zerolog.New(os.Stderr)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	}
	return logger.Level(level).With().Timestamp().Logger(), nil
}
