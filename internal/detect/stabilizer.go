package detect

import (
	"math"
	"time"
)

// HistoryCapacity bounds the recent-detection ring.
const HistoryCapacity = 10

// RecentDetection is one classified frame kept for the stability tally.
type RecentDetection struct {
	NoteName   string
	At         time.Time
	Amplitude  float64
	Confidence float64 // 1 when perfectly in tune, 0 at ±50 cents
}

// History is a fixed-size ring of recent detections; the oldest entry is
// overwritten once it is full.
type History struct {
	buf  [HistoryCapacity]RecentDetection
	head int // index of the oldest entry
	n    int
}

func (h *History) Push(d RecentDetection) {
	if h.n < HistoryCapacity {
		h.buf[(h.head+h.n)%HistoryCapacity] = d
		h.n++
		return
	}
	h.buf[h.head] = d
	h.head = (h.head + 1) % HistoryCapacity
}

func (h *History) Len() int { return h.n }

// Entries returns the detections oldest first.
func (h *History) Entries() []RecentDetection {
	out := make([]RecentDetection, h.n)
	for i := range out {
		out[i] = h.buf[(h.head+i)%HistoryCapacity]
	}
	return out
}

func (h *History) Reset() {
	*h = History{}
}

// mostFrequent returns the note seen most often, ties going to the note that
// reached the count first in insertion order.
func (h *History) mostFrequent() (string, int) {
	counts := make(map[string]int, h.n)
	best, bestCount := "", 0
	for i := 0; i < h.n; i++ {
		name := h.buf[(h.head+i)%HistoryCapacity].NoteName
		counts[name]++
		if counts[name] > bestCount {
			best, bestCount = name, counts[name]
		}
	}
	return best, bestCount
}

// Streaks counts consecutive matching and non-matching frames. Bumping one
// always zeroes the other.
type Streaks struct {
	Correct   int
	Incorrect int
}

// Verdict is the stabilizer output for one classified frame.
type Verdict struct {
	// Stable is informational: the most frequent note in the history has
	// appeared at least MinCorrectStreak times. It gates nothing.
	Stable       bool
	MostFrequent string
	Correct      bool
	Incorrect    bool
}

// Stabilizer turns per-frame classifications into streak-filtered verdicts.
type Stabilizer struct {
	history History
	streaks Streaks
}

// Observe records a classified note and compares it against target.
func (s *Stabilizer) Observe(noteName, target string, amplitude float64, cents int, th Thresholds, now time.Time) Verdict {
	s.history.Push(RecentDetection{
		NoteName:   noteName,
		At:         now,
		Amplitude:  amplitude,
		Confidence: math.Max(0, 1-math.Abs(float64(cents))/50),
	})

	match := noteName == target
	if match {
		s.streaks.Correct++
		s.streaks.Incorrect = 0
	} else {
		s.streaks.Incorrect++
		s.streaks.Correct = 0
	}

	most, count := s.history.mostFrequent()
	return Verdict{
		Stable:       count >= th.MinCorrectStreak,
		MostFrequent: most,
		Correct:      match && s.streaks.Correct >= th.MinCorrectStreak,
		Incorrect:    !match && s.streaks.Incorrect >= th.MinIncorrectStreak,
	}
}

// ForgiveIncorrect drops a dangling wrong-note streak. Called after
// sustained silence.
func (s *Stabilizer) ForgiveIncorrect() {
	s.streaks.Incorrect = 0
}

func (s *Stabilizer) Streaks() Streaks { return s.streaks }

func (s *Stabilizer) History() []RecentDetection { return s.history.Entries() }

func (s *Stabilizer) HistoryLen() int { return s.history.Len() }

func (s *Stabilizer) Reset() {
	s.history.Reset()
	s.streaks = Streaks{}
}
