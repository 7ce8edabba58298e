package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"jaffx/config"
	"jaffx/core"
	"jaffx/firmware/accel"
	"jaffx/firmware/adcread"
	"jaffx/sim"
)

// runSim wires the board, starts the variant and feeds it audio until the
// input ends, the configured duration passes or ctx is cancelled.
func runSim(ctx context.Context, cfg *config.BoardConfig, logger zerolog.Logger, serialOut io.Writer) error {
	board := sim.NewBoard(sim.Options{
		SDRAMSize: cfg.SDRAMSize,
		Log:       serialOut,
		Logger:    logger,
	})
	board.Register()
	core.SetLogger(logger)

	for ch, v := range cfg.ADC {
		board.ADC.SetVoltage(core.ADCChannelID(ch), float32(v))
	}
	board.Accel.SetAcceleration(cfg.Accel[0], cfg.Accel[1], cfg.Accel[2])

	fw, err := newVariant(cfg)
	if err != nil {
		return err
	}
	src, closeSrc, err := openSource(cfg, logger)
	if err != nil {
		return err
	}
	defer closeSrc()
	sink, closeSink, err := openSink(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	started := make(chan error, 1)
	go func() {
		started <- core.Start(ctx, fw, core.Config{
			Debug:          cfg.Debug,
			ReportInterval: cfg.ReportInterval(),
		})
	}()
	if err := waitRunning(ctx, started); err != nil {
		closeSink()
		return err
	}

	begin := time.Now()
	runErr := feed(ctx, cfg, board, src, sink)
	cancel()
	if err := <-started; err != nil && !errors.Is(err, context.Canceled) && runErr == nil {
		runErr = err
	}
	if c, ok := fw.(interface{ Close() }); ok {
		c.Close()
	}
	if err := closeSink(); err != nil && runErr == nil {
		runErr = fmt.Errorf("close output: %w", err)
	}

	if cfg.Debug {
		core.DumpTimingRing()
		if m := core.Meter(); m != nil {
			s := m.Stats()
			logger.Info().
				Float32("max_load", s.Max).
				Float32("avg_load", s.Avg).
				Float32("min_load", s.Min).
				Uint32("overruns", s.Overruns).
				Msg("processing load")
		}
	}
	logger.Info().
		Uint64("blocks", board.Blocks()).
		Dur("elapsed", time.Since(begin)).
		Msg("simulation finished")
	return runErr
}

func feed(ctx context.Context, cfg *config.BoardConfig, board *sim.Board, src sim.Source, sink sim.Sink) error {
	if !cfg.Realtime {
		return board.Render(src, sink)
	}
	if d := cfg.Duration(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	err := board.Run(ctx, src, sink)
	if errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// waitRunning blocks until the foreground loop is up or Start failed.
func waitRunning(ctx context.Context, started <-chan error) error {
	tick := time.NewTicker(time.Millisecond)
	defer tick.Stop()
	for core.CurrentState() != core.StateRunning {
		select {
		case err := <-started:
			return fmt.Errorf("start firmware: %w", err)
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
	}
	return nil
}

func newVariant(cfg *config.BoardConfig) (core.Firmware, error) {
	switch cfg.Variant {
	case config.VariantAdcRead:
		fw := adcread.New()
		if d := cfg.LoopInterval(); d > 0 {
			fw.Interval = d
		}
		return fw, nil
	case config.VariantAccel:
		fw := accel.New()
		if d := cfg.LoopInterval(); d > 0 {
			fw.Interval = d
		}
		return fw, nil
	}
	return nil, fmt.Errorf("unknown variant %q", cfg.Variant)
}

func openSource(cfg *config.BoardConfig, logger zerolog.Logger) (sim.Source, func(), error) {
	in := cfg.Input
	switch {
	case in.WAV != "":
		f, err := os.Open(in.WAV)
		if err != nil {
			return nil, nil, err
		}
		src, err := sim.NewWAVSource(f)
		if err != nil {
			f.Close()
			return nil, nil, fmt.Errorf("%s: %w", in.WAV, err)
		}
		if src.SampleRate() != core.SampleRate {
			logger.Warn().
				Int("file_rate", src.SampleRate()).
				Int("codec_rate", core.SampleRate).
				Msg("input is played without resampling")
		}
		return src, func() { f.Close() }, nil

	case in.SineFreq > 0:
		src := sim.NewSineSource(float32(in.SineFreq), float32(in.SineAmplitude), core.SampleRate)
		src.Samples = int(cfg.Duration().Seconds() * core.SampleRate)
		if src.Samples == 0 && !cfg.Realtime {
			return nil, nil, errors.New("offline render of a sine needs DurationMs")
		}
		return src, func() {}, nil
	}

	if !cfg.Realtime {
		return nil, nil, errors.New("offline render needs a WAV or sine input")
	}
	return sim.Silence{}, func() {}, nil
}

func openSink(cfg *config.BoardConfig) (sim.Sink, func() error, error) {
	if cfg.OutputWAV == "" {
		return nil, func() error { return nil }, nil
	}
	f, err := os.Create(cfg.OutputWAV)
	if err != nil {
		return nil, nil, err
	}
	rec := sim.NewWAVRecorder(f, core.SampleRate)
	return rec, func() error {
		if err := rec.Close(); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}, nil
}
