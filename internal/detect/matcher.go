package detect

import (
	"log/slog"
	"time"

	"github.com/chase3718/lou-fretcoach/internal/pitch"
)

// DefaultMaxErrors is the wrong-note budget of a challenge.
const DefaultMaxErrors = 3

type State int

const (
	AwaitingFirstOctave State = iota
	AwaitingNextOctave
	Completed
	Failed
	DetectorMode
)

func (s State) String() string {
	switch s {
	case AwaitingFirstOctave:
		return "AWAITING_FIRST_OCTAVE"
	case AwaitingNextOctave:
		return "AWAITING_NEXT_OCTAVE"
	case Completed:
		return "COMPLETED"
	case Failed:
		return "FAILED"
	case DetectorMode:
		return "DETECTOR"
	}
	return "UNKNOWN"
}

// Terminal reports whether the challenge is over.
func (s State) Terminal() bool { return s == Completed || s == Failed }

type octaveHit struct {
	noteName string
	octave   int
}

// Matcher is the per-challenge state machine. It owns the challenge state
// exclusively; a new challenge starts from Start or Reset.
type Matcher struct {
	state     State
	target    string
	startedAt time.Time
	maxErrors int
	errors    int
	first     *octaveHit
	lastWrong *time.Time
	log       *slog.Logger
}

func NewMatcher() *Matcher {
	return &Matcher{
		maxErrors: DefaultMaxErrors,
		log:       slog.Default().With("component", "matcher"),
	}
}

// Start begins a scored challenge for target. maxErrors < 1 uses the default.
func (m *Matcher) Start(target string, maxErrors int, now time.Time) {
	if maxErrors < 1 {
		maxErrors = DefaultMaxErrors
	}
	m.Reset()
	m.state = AwaitingFirstOctave
	m.target = target
	m.maxErrors = maxErrors
	m.startedAt = now
	m.log.Debug("matcher: challenge started", "target", target, "max_errors", maxErrors)
}

// StartDetector switches to display-only mode: Step never emits game events.
func (m *Matcher) StartDetector() {
	m.Reset()
	m.state = DetectorMode
}

// Reset clears the first-octave hit, error count, failure and wrong-note
// timestamp, keeping the target and budget.
func (m *Matcher) Reset() {
	m.first = nil
	m.errors = 0
	m.lastWrong = nil
	if m.state != DetectorMode {
		m.state = AwaitingFirstOctave
	}
}

func (m *Matcher) State() State         { return m.state }
func (m *Matcher) Target() string       { return m.target }
func (m *Matcher) ErrorCount() int      { return m.errors }
func (m *Matcher) MaxErrors() int       { return m.maxErrors }
func (m *Matcher) StartedAt() time.Time { return m.startedAt }

// Step applies one stabilizer verdict and returns the game events it
// produced, in order. Terminal states and detector mode are no-ops.
func (m *Matcher) Step(note pitch.Note, v Verdict, th Thresholds, now time.Time) []Event {
	if m.state.Terminal() || m.state == DetectorMode {
		return nil
	}

	absCents := note.Cents
	if absCents < 0 {
		absCents = -absCents
	}

	switch {
	case v.Correct && absCents < th.CentsToleranceCorrect:
		if m.first == nil {
			m.first = &octaveHit{noteName: note.Name, octave: note.Octave}
			m.state = AwaitingNextOctave
			m.log.Info("matcher: first octave", "note", note.String(), "cents", note.Cents)
			return []Event{FirstOctaveDetected{NoteName: note.Name, Octave: note.Octave}}
		}
		if note.Name == m.first.noteName && note.Octave == m.first.octave+1 {
			m.state = Completed
			taken := now.Sub(m.startedAt)
			m.log.Info("matcher: challenge completed", "note", note.String(), "time_taken_ms", taken.Milliseconds())
			return []Event{ChallengeCompleted{NoteName: note.Name, TimeTaken: taken}}
		}

	case v.Incorrect && absCents < th.CentsToleranceIncorrect:
		if m.lastWrong != nil && now.Sub(*m.lastWrong) <= th.IncorrectDelay {
			return nil
		}
		at := now
		m.lastWrong = &at
		m.errors++
		m.log.Info("matcher: wrong note", "note", note.String(), "target", m.target, "errors", m.errors, "max_errors", m.maxErrors)
		events := []Event{WrongNoteDetected{NoteName: note.Name, ErrorCount: m.errors}}
		if m.errors >= m.maxErrors {
			m.state = Failed
			m.log.Info("matcher: challenge failed", "errors", m.errors)
			events = append(events, ChallengeFailed{ErrorCount: m.errors})
		}
		return events
	}
	return nil
}
