package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/chase3718/lou-fretcoach/internal/detect"
	"github.com/chase3718/lou-fretcoach/internal/trainer"
)

var (
	cyan   = color.New(color.FgCyan, color.Bold)
	green  = color.New(color.FgGreen)
	bold   = color.New(color.FgGreen, color.Bold)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	faint  = color.New(color.Faint)
)

// Printer writes game events to a terminal. Live notes are printed only when
// ShowLive is set, and only when the note changes.
type Printer struct {
	mu       sync.Mutex
	w        io.Writer
	ShowLive bool
	lastLive string
}

func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = color.Output
	}
	return &Printer{w: w}
}

// Handle implements trainer.Sink.
func (p *Printer) Handle(r trainer.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !r.Snapshot.HasNote && r.Snapshot.Silent {
		p.lastLive = ""
	}
	for _, e := range r.Events {
		switch ev := e.(type) {
		case detect.LiveClassification:
			name := ev.Note.String()
			if !p.ShowLive || name == p.lastLive {
				continue
			}
			p.lastLive = name
			faint.Fprintf(p.w, "  %-4s %+3d cents  %7.2f Hz  %s\n", name, ev.Note.Cents, ev.Note.Frequency, where(ev.Note.MIDI))
		case detect.ChallengeStarted:
			cyan.Fprintf(p.w, "> Play %s in two octaves (%d wrong notes allowed)\n", ev.Challenge, ev.MaxErrors)
		case detect.FirstOctaveDetected:
			green.Fprintf(p.w, "  %s%d heard, now one octave up\n", ev.NoteName, ev.Octave)
		case detect.ChallengeCompleted:
			bold.Fprintf(p.w, "  Completed %s in %.1fs\n", ev.NoteName, ev.TimeTaken.Seconds())
		case detect.WrongNoteDetected:
			yellow.Fprintf(p.w, "  Wrong note %s (%d)\n", ev.NoteName, ev.ErrorCount)
		case detect.ChallengeFailed:
			red.Fprintf(p.w, "  Failed after %d wrong notes\n", ev.ErrorCount)
		case detect.TargetFallback:
			yellow.Fprintf(p.w, "  warning: %s\n", ev.Reason)
		}
	}
}

// where renders the fretboard positions of a pitch as "6/5 5/0".
func where(midi int) string {
	var b strings.Builder
	for i, pos := range trainer.Positions(midi) {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%d/%d", pos.GuitarString, pos.Fret)
	}
	return b.String()
}

// Summary prints the end-of-run tally.
func Summary(w io.Writer, s *trainer.Stats) {
	if w == nil {
		w = color.Output
	}
	if s.Attempts == 0 {
		fmt.Fprintln(w, "No challenges finished.")
		return
	}
	fmt.Fprintf(w, "Challenges: %d  ", s.Attempts)
	green.Fprintf(w, "completed %d  ", s.Successes)
	red.Fprintf(w, "failed %d\n", s.Failures)
	if s.Successes > 0 {
		fmt.Fprintf(w, "Average %.1fs, fastest %.1fs\n", s.Average().Seconds(), s.Fastest.Seconds())
	}
	for n := 1; n <= trainer.NumStrings; n++ {
		ps, ok := s.String(n)
		if !ok {
			continue
		}
		fmt.Fprintf(w, "  string %s: %d/%d\n", trainer.StringLabel(n), ps.Successes, ps.Attempts)
	}
}
