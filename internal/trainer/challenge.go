package trainer

import (
	"fmt"
	"math/rand/v2"

	"github.com/chase3718/lou-fretcoach/internal/detect"
	"github.com/chase3718/lou-fretcoach/internal/pitch"
)

const (
	NumStrings = 6

	// ChallengeFrets is how far up the neck a target may sit: open string
	// plus this many frets.
	ChallengeFrets = 5
)

// openPitch is the MIDI pitch of each open string, low E first:
// E2(40)  A2(45)  D3(50)  G3(55)  B3(59)  E4(64)
var openPitch = [NumStrings]int{40, 45, 50, 55, 59, 64}

// AllStrings is the default selection, numbered the guitarist's way:
// 1 is the high E, 6 the low E.
var AllStrings = []int{1, 2, 3, 4, 5, 6}

// OpenPitch returns the MIDI pitch of string n (1 = high E).
func OpenPitch(n int) (int, bool) {
	if n < 1 || n > NumStrings {
		return 0, false
	}
	return openPitch[NumStrings-n], true
}

// StringLabel renders a string as "1 (E)".
func StringLabel(n int) string {
	p, ok := OpenPitch(n)
	if !ok {
		return fmt.Sprintf("%d (?)", n)
	}
	return fmt.Sprintf("%d (%s)", n, pitch.NoteNames[p%12])
}

// NotesOnString lists the pitch classes from the open string up to
// ChallengeFrets, in fret order.
func NotesOnString(n int) []string {
	p, ok := OpenPitch(n)
	if !ok {
		return nil
	}
	out := make([]string, 0, ChallengeFrets+1)
	for fret := 0; fret <= ChallengeFrets; fret++ {
		out = append(out, pitch.NoteNames[(p+fret)%12])
	}
	return out
}

// MaxFret is the highest fret Positions considers.
const MaxFret = 12

// Position is a place on the neck.
type Position struct {
	GuitarString int // 1 = high E
	Fret         int
}

// Positions lists every place a MIDI pitch can be fretted, low E first.
func Positions(midi int) []Position {
	var out []Position
	for i := 0; i < NumStrings; i++ {
		fret := midi - openPitch[i]
		if fret >= 0 && fret <= MaxFret {
			out = append(out, Position{GuitarString: NumStrings - i, Fret: fret})
		}
	}
	return out
}

// Picker chooses challenge targets.
type Picker struct {
	rng *rand.Rand
}

func NewPicker(rng *rand.Rand) *Picker {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Picker{rng: rng}
}

// Pick returns the next challenge. A valid fixed target note is used as is;
// otherwise a random string from selected and a note within its first frets
// is chosen. Unusable input falls back to defaults, reported as
// TargetFallback warnings rather than errors.
func (p *Picker) Pick(target string, selected []int) (detect.Challenge, []detect.Event) {
	var warnings []detect.Event

	if target != "" {
		if _, ok := pitch.NoteIndex(target); ok {
			return detect.Challenge{NoteName: target}, nil
		}
		warnings = append(warnings, detect.TargetFallback{
			Reason: fmt.Sprintf("unknown target note %q, choosing at random", target),
		})
	}

	valid := make([]int, 0, len(selected))
	for _, n := range selected {
		if _, ok := OpenPitch(n); ok {
			valid = append(valid, n)
		}
	}
	if len(valid) == 0 {
		warnings = append(warnings, detect.TargetFallback{
			Reason: "no strings selected, defaulting to all strings",
		})
		valid = AllStrings
	}

	str := valid[p.rng.IntN(len(valid))]
	notes := NotesOnString(str)
	return detect.Challenge{GuitarString: str, NoteName: notes[p.rng.IntN(len(notes))]}, warnings
}
