package console

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/chase3718/lou-fretcoach/internal/detect"
	"github.com/chase3718/lou-fretcoach/internal/pitch"
	"github.com/chase3718/lou-fretcoach/internal/trainer"
)

func init() {
	color.NoColor = true
}

func TestPrinterEvents(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.Handle(trainer.Result{Events: []detect.Event{
		detect.TargetFallback{Reason: "no strings selected, defaulting to all strings"},
		detect.ChallengeStarted{Challenge: detect.Challenge{GuitarString: 5, NoteName: "C"}, MaxErrors: 3},
		detect.WrongNoteDetected{NoteName: "D", ErrorCount: 1},
		detect.FirstOctaveDetected{NoteName: "C", Octave: 3},
		detect.ChallengeCompleted{NoteName: "C", TimeTaken: 2340 * time.Millisecond},
	}})

	want := "  warning: no strings selected, defaulting to all strings\n" +
		"> Play C on string 5 in two octaves (3 wrong notes allowed)\n" +
		"  Wrong note D (1)\n" +
		"  C3 heard, now one octave up\n" +
		"  Completed C in 2.3s\n"
	require.Equal(t, want, buf.String())
}

func TestPrinterLiveOnlyOnChange(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	n, _ := pitch.Classify(110)
	live := trainer.Result{Snapshot: trainer.Snapshot{Note: n, HasNote: true}, Events: []detect.Event{detect.LiveClassification{Note: n}}}

	p.Handle(live)
	require.Empty(t, buf.String(), "live notes are off by default")

	p.ShowLive = true
	p.Handle(live)
	p.Handle(live)
	require.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("A2")))
	require.Contains(t, buf.String(), "6/5 5/0")

	p.Handle(trainer.Result{Snapshot: trainer.Snapshot{Silent: true}})
	p.Handle(live)
	require.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("A2")))
}

func TestSummary(t *testing.T) {
	var buf bytes.Buffer
	Summary(&buf, trainer.NewStats())
	require.Equal(t, "No challenges finished.\n", buf.String())

	s := trainer.NewStats()
	s.Record(detect.Challenge{GuitarString: 6, NoteName: "G"}, true, 3*time.Second, 0)
	s.Record(detect.Challenge{GuitarString: 6, NoteName: "A"}, false, 9*time.Second, 3)
	buf.Reset()
	Summary(&buf, s)
	require.Contains(t, buf.String(), "Challenges: 2  completed 1  failed 1")
	require.Contains(t, buf.String(), "Average 3.0s, fastest 3.0s")
	require.Contains(t, buf.String(), "string 6 (E): 1/2")
}
