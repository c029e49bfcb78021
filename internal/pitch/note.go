package pitch

import (
	"fmt"
	"math"
)

// NoteNames is the chromatic pitch-class table indexed by midi%12.
var NoteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

const (
	// A4 reference.
	referenceHz   = 440.0
	referenceMIDI = 69

	// MaxCents bounds the reported deviation to half a semitone either side.
	MaxCents = 50
)

// Note is a classified frequency.
type Note struct {
	Name      string  // pitch class, e.g. "A#"
	Octave    int     // scientific octave, C4 = middle C
	MIDI      int     // 69 = A4
	Cents     int     // deviation from the equal-tempered pitch, clamped to [-50, 50]
	Frequency float64 // measured Hz
}

func (n Note) String() string {
	return fmt.Sprintf("%s%d", n.Name, n.Octave)
}

// Classify maps a frequency to its nearest equal-tempered note. It returns
// false for non-positive or non-finite input.
func Classify(hz float64) (Note, bool) {
	if !(hz > 0) || math.IsInf(hz, 0) {
		return Note{}, false
	}
	midi := int(math.Round(12*math.Log2(hz/referenceHz))) + referenceMIDI
	perfect := FrequencyOf(midi)
	cents := int(math.Floor(1200 * math.Log2(hz/perfect)))
	cents = max(-MaxCents, min(MaxCents, cents))

	return Note{
		Name:      NoteNames[mod12(midi)],
		Octave:    floorDiv(midi, 12) - 1,
		MIDI:      midi,
		Cents:     cents,
		Frequency: hz,
	}, true
}

// FrequencyOf returns the equal-tempered frequency of a MIDI note.
func FrequencyOf(midi int) float64 {
	return referenceHz * math.Pow(2, float64(midi-referenceMIDI)/12)
}

// NoteIndex returns the chromatic index of a pitch-class name.
func NoteIndex(name string) (int, bool) {
	for i, n := range NoteNames {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

// MIDIName renders a MIDI number the same way Note.String does.
func MIDIName(midi int) string {
	return fmt.Sprintf("%s%d", NoteNames[mod12(midi)], floorDiv(midi, 12)-1)
}

func mod12(n int) int {
	return ((n % 12) + 12) % 12
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
