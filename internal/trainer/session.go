package trainer

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/chase3718/lou-fretcoach/internal/detect"
	"github.com/chase3718/lou-fretcoach/internal/pitch"
)

// Settings are the knobs a UI may turn while the pipeline runs. Writes are
// plain atomic stores; the next tick picks them up.
type Settings struct {
	sensitivity atomic.Int32
	extended    atomic.Bool
	detector    atomic.Bool
}

func NewSettings(sensitivity int, extendedRange, detectorMode bool) *Settings {
	s := &Settings{}
	s.SetSensitivity(sensitivity)
	s.extended.Store(extendedRange)
	s.detector.Store(detectorMode)
	return s
}

// SetSensitivity stores s clamped to [0, 100].
func (s *Settings) SetSensitivity(v int) {
	s.sensitivity.Store(int32(detect.ClampSensitivity(v)))
}

func (s *Settings) Sensitivity() int         { return int(s.sensitivity.Load()) }
func (s *Settings) SetExtendedRange(on bool) { s.extended.Store(on) }
func (s *Settings) ExtendedRange() bool      { return s.extended.Load() }
func (s *Settings) SetDetectorMode(on bool)  { s.detector.Store(on) }
func (s *Settings) DetectorMode() bool       { return s.detector.Load() }

func (s *Settings) Thresholds() detect.Thresholds {
	return detect.ThresholdsFor(s.Sensitivity())
}

// Snapshot is the display state after one tick.
type Snapshot struct {
	At             time.Time
	Phase          Phase
	Level          pitch.Level
	Silent         bool
	Note           pitch.Note
	HasNote        bool
	SpectralPeakHz float64
	Verdict        detect.Verdict
	Streaks        detect.Streaks
	Thresholds     detect.Thresholds
	State          detect.State
	Target         string
	ErrorCount     int
}

// Result is everything one tick produced: what to show and what happened.
type Result struct {
	Snapshot Snapshot
	Events   []detect.Event
}

// Session owns all mutable detection state for one listener: the volume
// gate, the stabilizer history and streaks, and the challenge matcher. It is
// driven from a single goroutine and needs no locking.
type Session struct {
	settings *Settings
	gate     pitch.Gate
	stab     detect.Stabilizer
	matcher  *detect.Matcher
	log      *slog.Logger
}

func NewSession(settings *Settings) *Session {
	return &Session{
		settings: settings,
		matcher:  detect.NewMatcher(),
		log:      slog.Default().With("component", "session"),
	}
}

func (s *Session) Settings() *Settings { return s.settings }

// Start resets all detection state and begins a scored challenge.
func (s *Session) Start(target string, maxErrors int, now time.Time) {
	s.resetDetection()
	s.matcher.Start(target, maxErrors, now)
}

// StartDetector resets detection state and switches to display-only mode.
func (s *Session) StartDetector() {
	s.resetDetection()
	s.matcher.StartDetector()
}

// Reset clears the current challenge and all detection state, keeping the
// target.
func (s *Session) Reset() {
	s.resetDetection()
	s.matcher.Reset()
}

func (s *Session) resetDetection() {
	s.gate.Reset()
	s.stab.Reset()
}

func (s *Session) State() detect.State     { return s.matcher.State() }
func (s *Session) Streaks() detect.Streaks { return s.stab.Streaks() }
func (s *Session) HistoryLen() int         { return s.stab.HistoryLen() }
func (s *Session) ErrorCount() int         { return s.matcher.ErrorCount() }
func (s *Session) Target() string          { return s.matcher.Target() }

// Tick runs one frame through gate, estimator, classifier, stabilizer and
// matcher. A frame that is too quiet or has no usable pitch yields no events.
func (s *Session) Tick(frame []float64, sampleRate float64, now time.Time) Result {
	return s.tick(frame, sampleRate, now, PhaseListening, true)
}

// Preview classifies a frame for display only: the stabilizer and matcher
// are left alone, so nothing is scored. Used between challenges.
func (s *Session) Preview(frame []float64, sampleRate float64, now time.Time, phase Phase) Result {
	return s.tick(frame, sampleRate, now, phase, false)
}

func (s *Session) tick(frame []float64, sampleRate float64, now time.Time, phase Phase, score bool) Result {
	th := s.settings.Thresholds()
	snap := Snapshot{At: now, Phase: phase, Thresholds: th}
	if s.settings.DetectorMode() {
		snap.Phase = PhaseDetector
	}

	snap.Level = s.gate.Check(frame, th.VolumeThreshold, now)
	snap.Silent = s.gate.Silent()
	if !snap.Level.HasVolume {
		if snap.Silent && s.stab.Streaks().Incorrect > 0 {
			s.log.Debug("session: silence, forgiving incorrect streak", "streak", s.stab.Streaks().Incorrect)
			s.stab.ForgiveIncorrect()
		}
		return s.finish(&snap, nil)
	}

	snap.SpectralPeakHz = pitch.SpectralPeak(frame, sampleRate)

	hz, ok := pitch.Estimate(frame, sampleRate)
	if !ok || !pitch.InRange(hz, s.settings.ExtendedRange()) {
		return s.finish(&snap, nil)
	}
	note, ok := pitch.Classify(hz)
	if !ok {
		return s.finish(&snap, nil)
	}
	snap.Note, snap.HasNote = note, true

	events := []detect.Event{detect.LiveClassification{Note: note}}
	if !score {
		return s.finish(&snap, events)
	}
	snap.Verdict = s.stab.Observe(note.Name, s.matcher.Target(), snap.Level.Amplitude, note.Cents, th, now)
	if !s.settings.DetectorMode() {
		events = append(events, s.matcher.Step(note, snap.Verdict, th, now)...)
	}
	return s.finish(&snap, events)
}

// finish fills the counters after the pipeline has mutated them.
func (s *Session) finish(snap *Snapshot, events []detect.Event) Result {
	snap.Streaks = s.stab.Streaks()
	snap.State = s.matcher.State()
	snap.Target = s.matcher.Target()
	snap.ErrorCount = s.matcher.ErrorCount()
	return Result{Snapshot: *snap, Events: events}
}
