package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/chase3718/lou-fretcoach/internal/audio"
	"github.com/chase3718/lou-fretcoach/internal/config"
	"github.com/chase3718/lou-fretcoach/internal/console"
	"github.com/chase3718/lou-fretcoach/internal/feedback"
	"github.com/chase3718/lou-fretcoach/internal/logging"
	"github.com/chase3718/lou-fretcoach/internal/midiout"
	"github.com/chase3718/lou-fretcoach/internal/trainer"
)

// framesPerBuffer is the capture block size, about 12 ms at 44.1 kHz.
const framesPerBuffer = 512

func main() {
	cfg, err := config.Load(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logging.Init(cfg.Debug, nil)
	slog.Info("fretcoach starting",
		"sensitivity", cfg.Sensitivity,
		"extended_range", cfg.ExtendedRange,
		"detector", cfg.DetectorMode,
		"max_errors", cfg.MaxErrors,
		"target", cfg.TargetNote,
		"strings", cfg.Strings.String(),
		"tick", cfg.Tick,
		"frame", cfg.FrameSize,
		"rate", cfg.SampleRate,
		"debug", cfg.Debug,
	)

	if err := run(cfg); err != nil {
		slog.Error("fretcoach: exiting", logging.Err(err))
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	settings := trainer.NewSettings(cfg.Sensitivity, cfg.ExtendedRange, cfg.DetectorMode)
	coach := trainer.NewCoach(trainer.NewSession(settings), nil, trainer.CoachConfig{
		MaxErrors: cfg.MaxErrors,
		Target:    cfg.TargetNote,
		Strings:   cfg.Strings,
	})

	printer := console.NewPrinter(nil)
	printer.ShowLive = cfg.DetectorMode
	sinks := []trainer.Sink{printer}

	if patterns := cfg.MIDIPatterns(); len(patterns) > 0 {
		var player *midiout.Player
		watcher, err := midiout.NewWatcher(patterns, func() {
			slog.Warn("midi: output lost, forgetting sounding note")
			player.Forget()
		})
		if err != nil {
			return err
		}
		player = midiout.NewPlayer(watcher.Send, midiout.DefaultChannel)
		defer func() {
			player.Release()
			watcher.Close()
		}()
		rescan := trainer.SinkFunc(func(r trainer.Result) { watcher.Tick(r.Snapshot.At) })
		sinks = append(sinks, rescan, player)
	}

	if cfg.Serial != "" {
		port, err := feedback.OpenSerial(cfg.Serial, cfg.Baud)
		if err != nil {
			if ports, lerr := feedback.SerialPorts(); lerr == nil {
				slog.Info("serial: available ports", "ports", ports)
			}
			return err
		}
		slog.Info("serial: port opened", "device", cfg.Serial, "baud", cfg.Baud)
		defer func() {
			slog.Info("serial: closing port")
			_ = port.Close()
		}()
		sinks = append(sinks, feedback.NewBoard(port, cfg.MaxErrors))
	}

	actx, err := audio.OpenContext()
	if err != nil {
		return err
	}
	defer actx.Close()

	analyzer := audio.NewAnalyzer(cfg.FrameSize, cfg.SampleRate)
	capture, err := actx.OpenInput(cfg.Device, framesPerBuffer, analyzer)
	if err != nil {
		return err
	}
	defer capture.Close()

	captureErr := make(chan error, 1)
	go func() {
		err := capture.Run(ctx)
		if err != nil {
			cancel()
		}
		captureErr <- err
	}()

	driver := trainer.NewDriver(analyzer, coach, cfg.Tick, sinks...)
	if err := driver.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if err := <-captureErr; err != nil {
		return err
	}

	console.Summary(nil, coach.Stats())
	slog.Info("fretcoach: done", "stats", coach.Stats(), "ticks", driver.Ticks(), "dropped", driver.Dropped())
	return nil
}
