package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/chase3718/lou-fretcoach/internal/audio"
	"github.com/chase3718/lou-fretcoach/internal/config"
	"github.com/chase3718/lou-fretcoach/internal/console"
	"github.com/chase3718/lou-fretcoach/internal/detect"
	"github.com/chase3718/lou-fretcoach/internal/logging"
	"github.com/chase3718/lou-fretcoach/internal/trainer"
)

func main() {
	fset := flag.NewFlagSet("replay", flag.ExitOnError)
	wavPath := fset.String("wav", "", "WAV file to replay (or first argument)")
	coach := fset.Bool("coach", false, "run timed challenges instead of a single one")
	cfg, err := config.Load(fset, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *wavPath == "" {
		*wavPath = fset.Arg(0)
	}
	if *wavPath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay [flags] file.wav")
		fset.PrintDefaults()
		os.Exit(2)
	}

	logging.Init(cfg.Debug, nil)
	if _, err := run(cfg, *wavPath, *coach); err != nil {
		slog.Error("replay: failed", "file", *wavPath, logging.Err(err))
		os.Exit(1)
	}
}

// run feeds the file through the pipeline one tick-sized hop at a time on a
// simulated clock, so results do not depend on machine speed. It returns the
// final challenge state.
func run(cfg config.Config, path string, useCoach bool) (detect.State, error) {
	w, err := audio.OpenWAV(path)
	if err != nil {
		return 0, err
	}
	defer w.Close()
	slog.Info("replay: opened", "file", path, "rate", w.SampleRate(), "channels", w.Channels(), "duration", w.Duration())

	settings := trainer.NewSettings(cfg.Sensitivity, cfg.ExtendedRange, cfg.DetectorMode)
	session := trainer.NewSession(settings)
	start := time.Unix(0, 0)

	var (
		pipe  trainer.Pipeline = session
		stats *trainer.Stats
	)
	if useCoach {
		c := trainer.NewCoach(session, nil, trainer.CoachConfig{
			MaxErrors: cfg.MaxErrors,
			Target:    cfg.TargetNote,
			Strings:   cfg.Strings,
		})
		pipe, stats = c, c.Stats()
	} else if !cfg.DetectorMode {
		target := cfg.TargetNote
		if !cfg.TargetValid() {
			return 0, fmt.Errorf("replay without -coach needs a valid -note, got %q", cfg.TargetNote)
		}
		session.Start(target, cfg.MaxErrors, start)
	} else {
		session.StartDetector()
	}

	printer := console.NewPrinter(nil)
	printer.ShowLive = cfg.DetectorMode
	logEvents := trainer.SinkFunc(func(r trainer.Result) {
		for _, e := range r.Events {
			if e.Kind() == detect.KindLiveClassification {
				continue
			}
			slog.Debug("replay: event", "at", r.Snapshot.At.Sub(start), "kind", e.Kind().String(), "event", fmt.Sprintf("%+v", e))
		}
	})

	analyzer := audio.NewAnalyzer(cfg.FrameSize, w.SampleRate())
	driver := trainer.NewDriver(analyzer, pipe, cfg.Tick, printer, logEvents)
	hop := max(1, int(w.SampleRate()*cfg.Tick.Seconds()))

	now := start
	for {
		samples, err := w.Read(hop)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, err
		}
		analyzer.Write(samples)
		now = now.Add(cfg.Tick)
		driver.TryTick(now)
	}

	slog.Info("replay: done", "ticks", driver.Ticks(), "audio", now.Sub(start), "state", session.State().String(), "errors", session.ErrorCount())
	if stats != nil {
		console.Summary(nil, stats)
	}
	return session.State(), nil
}
