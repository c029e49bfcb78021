package trainer

import (
	"log/slog"
	"time"

	"github.com/chase3718/lou-fretcoach/internal/detect"
)

const (
	DefaultCountdown = 3 * time.Second
	DefaultCooldown  = 2 * time.Second
)

// Phase is where the coach is in the challenge cycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCountdown
	PhaseListening
	PhaseCooldown
	PhaseDetector
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "IDLE"
	case PhaseCountdown:
		return "COUNTDOWN"
	case PhaseListening:
		return "LISTENING"
	case PhaseCooldown:
		return "COOLDOWN"
	case PhaseDetector:
		return "DETECTOR"
	}
	return "UNKNOWN"
}

type CoachConfig struct {
	MaxErrors int
	Target    string // fixed pitch class; empty picks at random
	Strings   []int  // 1 = high E ... 6 = low E
	Countdown time.Duration
	Cooldown  time.Duration
}

func (c CoachConfig) withDefaults() CoachConfig {
	if c.MaxErrors < 1 {
		c.MaxErrors = detect.DefaultMaxErrors
	}
	if c.Countdown <= 0 {
		c.Countdown = DefaultCountdown
	}
	if c.Cooldown <= 0 {
		c.Cooldown = DefaultCooldown
	}
	return c
}

// Coach runs consecutive challenges on top of a Session:
//
//	Idle -> Countdown -> Listening -> Cooldown -> Countdown ...
//
// Phase changes happen on ticks, never on timers, so a stopped driver
// freezes the coach exactly where it is.
type Coach struct {
	cfg        CoachConfig
	session    *Session
	picker     *Picker
	stats      *Stats
	phase      Phase
	phaseStart time.Time
	current    detect.Challenge
	log        *slog.Logger
}

func NewCoach(session *Session, picker *Picker, cfg CoachConfig) *Coach {
	if picker == nil {
		picker = NewPicker(nil)
	}
	return &Coach{
		cfg:     cfg.withDefaults(),
		session: session,
		picker:  picker,
		stats:   NewStats(),
		log:     slog.Default().With("component", "coach"),
	}
}

func (c *Coach) Phase() Phase                { return c.phase }
func (c *Coach) Challenge() detect.Challenge { return c.current }
func (c *Coach) Stats() *Stats               { return c.stats }
func (c *Coach) Session() *Session           { return c.session }

// Remaining is the time left in the countdown or cooldown phase.
func (c *Coach) Remaining(now time.Time) time.Duration {
	var d time.Duration
	switch c.phase {
	case PhaseCountdown:
		d = c.cfg.Countdown
	case PhaseCooldown:
		d = c.cfg.Cooldown
	default:
		return 0
	}
	left := d - now.Sub(c.phaseStart)
	if left < 0 {
		return 0
	}
	return left
}

// Tick advances the phase clock and runs the frame through the session.
// In detector mode no challenge is ever picked or scored.
func (c *Coach) Tick(frame []float64, sampleRate float64, now time.Time) Result {
	if c.session.Settings().DetectorMode() {
		if c.phase != PhaseDetector {
			c.log.Info("coach: detector mode")
			c.session.StartDetector()
			c.phase = PhaseDetector
		}
		return c.session.Tick(frame, sampleRate, now)
	}

	var pending []detect.Event
	if c.phase == PhaseDetector || c.phase == PhaseIdle {
		pending = c.next(now)
	}

	switch c.phase {
	case PhaseCountdown:
		if now.Sub(c.phaseStart) < c.cfg.Countdown {
			return c.preview(frame, sampleRate, now, pending)
		}
		c.session.Start(c.current.NoteName, c.cfg.MaxErrors, now)
		c.phase = PhaseListening
		c.phaseStart = now
		c.log.Info("coach: challenge started", "challenge", c.current.String(), "max_errors", c.cfg.MaxErrors)
		pending = append(pending, detect.ChallengeStarted{Challenge: c.current, MaxErrors: c.cfg.MaxErrors})

	case PhaseCooldown:
		if now.Sub(c.phaseStart) < c.cfg.Cooldown {
			return c.preview(frame, sampleRate, now, pending)
		}
		pending = append(pending, c.next(now)...)
		return c.preview(frame, sampleRate, now, pending)
	}

	r := c.session.Tick(frame, sampleRate, now)
	for _, e := range r.Events {
		switch ev := e.(type) {
		case detect.ChallengeCompleted:
			c.stats.Record(c.current, true, ev.TimeTaken, c.session.ErrorCount())
			c.cooldown(now)
		case detect.ChallengeFailed:
			c.stats.Record(c.current, false, now.Sub(c.phaseStart), ev.ErrorCount)
			c.cooldown(now)
		}
	}
	r.Events = append(pending, r.Events...)
	return r
}

// next picks a fresh challenge and enters the countdown.
func (c *Coach) next(now time.Time) []detect.Event {
	ch, warnings := c.picker.Pick(c.cfg.Target, c.cfg.Strings)
	for _, w := range warnings {
		c.log.Warn("coach: target fallback", "reason", w.(detect.TargetFallback).Reason)
	}
	c.current = ch
	c.session.Reset()
	c.phase = PhaseCountdown
	c.phaseStart = now
	c.log.Debug("coach: countdown", "challenge", ch.String())
	return warnings
}

func (c *Coach) cooldown(now time.Time) {
	c.phase = PhaseCooldown
	c.phaseStart = now
}

func (c *Coach) preview(frame []float64, sampleRate float64, now time.Time, pending []detect.Event) Result {
	r := c.session.Preview(frame, sampleRate, now, c.phase)
	r.Events = append(pending, r.Events...)
	return r
}
