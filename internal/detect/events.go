package detect

import (
	"fmt"
	"time"

	"github.com/chase3718/lou-fretcoach/internal/pitch"
)

type EventKind int

const (
	KindLiveClassification EventKind = iota
	KindFirstOctaveDetected
	KindChallengeCompleted
	KindWrongNoteDetected
	KindChallengeFailed
	KindChallengeStarted
	KindTargetFallback
)

func (k EventKind) String() string {
	switch k {
	case KindLiveClassification:
		return "LIVE"
	case KindFirstOctaveDetected:
		return "FIRST_OCTAVE"
	case KindChallengeCompleted:
		return "COMPLETED"
	case KindWrongNoteDetected:
		return "WRONG_NOTE"
	case KindChallengeFailed:
		return "FAILED"
	case KindChallengeStarted:
		return "STARTED"
	case KindTargetFallback:
		return "TARGET_FALLBACK"
	}
	return "UNKNOWN"
}

// Event is one output of a tick. Consumers switch on the concrete type.
type Event interface {
	Kind() EventKind
}

// LiveClassification is emitted for every classified frame, in every mode.
type LiveClassification struct {
	Note pitch.Note
}

type FirstOctaveDetected struct {
	NoteName string
	Octave   int
}

type ChallengeCompleted struct {
	NoteName  string
	TimeTaken time.Duration
}

type WrongNoteDetected struct {
	NoteName   string
	ErrorCount int
}

type ChallengeFailed struct {
	ErrorCount int
}

// Challenge is one target: play NoteName on String in two successive octaves.
type Challenge struct {
	GuitarString int // 1 = high E ... 6 = low E, 0 when not tied to a string
	NoteName     string
}

func (c Challenge) String() string {
	if c.GuitarString == 0 {
		return c.NoteName
	}
	return fmt.Sprintf("%s on string %d", c.NoteName, c.GuitarString)
}

// ChallengeStarted marks the end of the countdown; timing starts here.
type ChallengeStarted struct {
	Challenge Challenge
	MaxErrors int
}

// TargetFallback is a non-fatal warning: the requested target or string set
// was unusable and a default was substituted.
type TargetFallback struct {
	Reason string
}

func (LiveClassification) Kind() EventKind  { return KindLiveClassification }
func (FirstOctaveDetected) Kind() EventKind { return KindFirstOctaveDetected }
func (ChallengeCompleted) Kind() EventKind  { return KindChallengeCompleted }
func (WrongNoteDetected) Kind() EventKind   { return KindWrongNoteDetected }
func (ChallengeFailed) Kind() EventKind     { return KindChallengeFailed }
func (ChallengeStarted) Kind() EventKind    { return KindChallengeStarted }
func (TargetFallback) Kind() EventKind      { return KindTargetFallback }
