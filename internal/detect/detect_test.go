package detect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chase3718/lou-fretcoach/internal/pitch"
)

func TestThresholdsMonotonic(t *testing.T) {
	t.Parallel()

	prev := ThresholdsFor(0)
	for s := 1; s <= 100; s++ {
		cur := ThresholdsFor(s)
		require.LessOrEqual(t, cur.VolumeThreshold, prev.VolumeThreshold, "volume at %d", s)
		require.LessOrEqual(t, cur.IncorrectDelay, prev.IncorrectDelay, "delay at %d", s)
		require.LessOrEqual(t, cur.MinCorrectStreak, prev.MinCorrectStreak, "correct streak at %d", s)
		require.LessOrEqual(t, cur.MinIncorrectStreak, prev.MinIncorrectStreak, "incorrect streak at %d", s)
		require.GreaterOrEqual(t, cur.CentsToleranceCorrect, prev.CentsToleranceCorrect, "correct cents at %d", s)
		require.GreaterOrEqual(t, cur.CentsToleranceIncorrect, prev.CentsToleranceIncorrect, "incorrect cents at %d", s)
		prev = cur
	}
}

func TestThresholdsEndpoints(t *testing.T) {
	t.Parallel()

	lo := ThresholdsFor(0)
	require.InDelta(t, 0.05, lo.VolumeThreshold, 1e-12)
	require.Equal(t, 4*time.Second, lo.IncorrectDelay)
	require.Equal(t, 7, lo.MinIncorrectStreak)
	require.Equal(t, 5, lo.MinCorrectStreak)
	require.Equal(t, 30, lo.CentsToleranceCorrect)
	require.Equal(t, 20, lo.CentsToleranceIncorrect)

	hi := ThresholdsFor(100)
	require.InDelta(t, 0.005, hi.VolumeThreshold, 1e-12)
	require.Equal(t, time.Second, hi.IncorrectDelay)
	require.Equal(t, 2, hi.MinIncorrectStreak)
	require.Equal(t, 2, hi.MinCorrectStreak)
	require.Equal(t, 50, hi.CentsToleranceCorrect)
	require.Equal(t, 50, hi.CentsToleranceIncorrect)

	mid := ThresholdsFor(50)
	require.Equal(t, 2500*time.Millisecond, mid.IncorrectDelay)
	require.Equal(t, 5, mid.MinIncorrectStreak)
	require.Equal(t, 4, mid.MinCorrectStreak)
}

func TestThresholdsClamp(t *testing.T) {
	t.Parallel()

	require.Equal(t, ThresholdsFor(0), ThresholdsFor(-40))
	require.Equal(t, ThresholdsFor(100), ThresholdsFor(250))
}

func TestSensitivityLabel(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Very Low (Less Sensitive)", SensitivityLabel(-5))
	require.Equal(t, "Low", SensitivityLabel(40))
	require.Equal(t, "Medium", SensitivityLabel(50))
	require.Equal(t, "High", SensitivityLabel(61))
	require.Equal(t, "Very High (More Sensitive)", SensitivityLabel(99))
}

func TestHistoryBounded(t *testing.T) {
	t.Parallel()

	var h History
	now := time.Unix(0, 0)
	for i := 0; i < 37; i++ {
		h.Push(RecentDetection{NoteName: pitch.NoteNames[i%12], At: now.Add(time.Duration(i) * time.Millisecond)})
		require.LessOrEqual(t, h.Len(), HistoryCapacity)
	}
	entries := h.Entries()
	require.Len(t, entries, HistoryCapacity)
	// Oldest first: entries 27..36.
	require.Equal(t, pitch.NoteNames[27%12], entries[0].NoteName)
	require.Equal(t, pitch.NoteNames[36%12], entries[9].NoteName)
}

func TestStabilizerStreaks(t *testing.T) {
	t.Parallel()

	th := ThresholdsFor(50) // correct 4, incorrect 5
	var s Stabilizer
	now := time.Unix(0, 0)

	for i := 1; i <= 3; i++ {
		v := s.Observe("A", "A", 0.2, 0, th, now)
		require.False(t, v.Correct)
		require.Equal(t, Streaks{Correct: i}, s.Streaks())
	}
	v := s.Observe("A", "A", 0.2, 0, th, now)
	require.True(t, v.Correct)
	require.True(t, v.Stable)
	require.Equal(t, "A", v.MostFrequent)

	v = s.Observe("B", "A", 0.2, 0, th, now)
	require.False(t, v.Incorrect)
	require.Equal(t, Streaks{Incorrect: 1}, s.Streaks())

	for i := 0; i < 4; i++ {
		v = s.Observe("B", "A", 0.2, 0, th, now)
	}
	require.True(t, v.Incorrect)
	require.Equal(t, 5, s.Streaks().Incorrect)

	s.ForgiveIncorrect()
	require.Zero(t, s.Streaks().Incorrect)

	s.Reset()
	require.Zero(t, s.HistoryLen())
	require.Equal(t, Streaks{}, s.Streaks())
}

func TestStabilizerConfidence(t *testing.T) {
	t.Parallel()

	var s Stabilizer
	th := ThresholdsFor(50)
	s.Observe("E", "E", 0.1, -25, th, time.Unix(0, 0))
	s.Observe("E", "E", 0.1, 50, th, time.Unix(0, 0))
	h := s.History()
	require.InDelta(t, 0.5, h[0].Confidence, 1e-9)
	require.Zero(t, h[1].Confidence)
}

type matcherHarness struct {
	t   *testing.T
	s   Stabilizer
	m   *Matcher
	th  Thresholds
	now time.Time
}

func newHarness(t *testing.T, target string, sensitivity int) *matcherHarness {
	h := &matcherHarness{t: t, m: NewMatcher(), th: ThresholdsFor(sensitivity), now: time.Unix(5000, 0)}
	h.m.Start(target, DefaultMaxErrors, h.now)
	return h
}

func (h *matcherHarness) feed(midi int, ticks int, step time.Duration) []Event {
	h.t.Helper()
	var out []Event
	for i := 0; i < ticks; i++ {
		h.now = h.now.Add(step)
		n, ok := pitch.Classify(pitch.FrequencyOf(midi))
		require.True(h.t, ok)
		v := h.s.Observe(n.Name, h.m.Target(), 0.2, n.Cents, h.th, h.now)
		out = append(out, h.m.Step(n, v, h.th, h.now)...)
	}
	return out
}

func kinds(events []Event) []EventKind {
	out := make([]EventKind, len(events))
	for i, e := range events {
		out[i] = e.Kind()
	}
	return out
}

func TestMatcherCompletesOnNextOctave(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "A", 50)
	n := h.th.MinCorrectStreak

	events := h.feed(45, n, 30*time.Millisecond) // A2
	require.Equal(t, []EventKind{KindFirstOctaveDetected}, kinds(events))
	require.Equal(t, FirstOctaveDetected{NoteName: "A", Octave: 2}, events[0])
	require.Equal(t, AwaitingNextOctave, h.m.State())

	events = h.feed(57, n, 30*time.Millisecond) // A3
	require.Equal(t, []EventKind{KindChallengeCompleted}, kinds(events))
	done := events[0].(ChallengeCompleted)
	// Completion lands on the first A3 frame: the correct streak carries over.
	require.Equal(t, time.Duration(n+1)*30*time.Millisecond, done.TimeTaken)
	require.Equal(t, Completed, h.m.State())

	require.Empty(t, h.feed(57, 20, 30*time.Millisecond))
	require.Empty(t, h.feed(45, 20, 30*time.Millisecond))
}

func TestMatcherIgnoresOctaveSkip(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "E", 50)
	h.feed(40, h.th.MinCorrectStreak, 30*time.Millisecond)
	// E2 then E4 skips an octave.
	require.Empty(t, h.feed(64, 10, 30*time.Millisecond))
	require.Equal(t, AwaitingNextOctave, h.m.State())
}

func TestMatcherFailsAfterErrorBudget(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "A", 50)
	gap := h.th.IncorrectDelay + 10*time.Millisecond

	// Build up the wrong-note streak on C3.
	events := h.feed(48, h.th.MinIncorrectStreak, 30*time.Millisecond)
	require.Equal(t, []EventKind{KindWrongNoteDetected}, kinds(events))

	// Within the delay: no further reports.
	require.Empty(t, h.feed(48, 5, 30*time.Millisecond))

	events = h.feed(48, 1, gap)
	require.Equal(t, []EventKind{KindWrongNoteDetected}, kinds(events))

	events = h.feed(48, 1, gap)
	require.Equal(t, []EventKind{KindWrongNoteDetected, KindChallengeFailed}, kinds(events))
	require.Equal(t, ChallengeFailed{ErrorCount: 3}, events[1])
	require.Equal(t, Failed, h.m.State())
	require.Equal(t, 3, h.m.ErrorCount())

	require.Empty(t, h.feed(48, 3, gap))
	require.Empty(t, h.feed(45, 10, 30*time.Millisecond))
	require.Equal(t, 3, h.m.ErrorCount())
}

func TestMatcherResetStartsFresh(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "A", 100)
	h.feed(48, h.th.MinIncorrectStreak, 30*time.Millisecond)
	require.Equal(t, 1, h.m.ErrorCount())

	h.m.Start("A", 2, h.now)
	h.s.Reset()
	require.Zero(t, h.m.ErrorCount())
	require.Equal(t, AwaitingFirstOctave, h.m.State())
	require.Equal(t, 2, h.m.MaxErrors())
}

func TestMatcherDetectorModeNeverTransitions(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "A", 100)
	h.m.StartDetector()
	require.Empty(t, h.feed(45, 10, 30*time.Millisecond))
	require.Empty(t, h.feed(57, 10, 30*time.Millisecond))
	require.Empty(t, h.feed(48, 10, 5*time.Second))
	require.Equal(t, DetectorMode, h.m.State())
}

func TestMatcherRespectsCentTolerance(t *testing.T) {
	t.Parallel()

	m := NewMatcher()
	now := time.Unix(0, 0)
	m.Start("A", 3, now)
	th := ThresholdsFor(0) // correct tolerance 30 cents

	sharp := pitch.Note{Name: "A", Octave: 2, MIDI: 45, Cents: 35}
	require.Empty(t, m.Step(sharp, Verdict{Correct: true}, th, now))

	sharp.Cents = 29
	require.Len(t, m.Step(sharp, Verdict{Correct: true}, th, now), 1)

	wrong := pitch.Note{Name: "C", Octave: 3, MIDI: 48, Cents: -20}
	require.Empty(t, m.Step(wrong, Verdict{Incorrect: true}, th, now), "20 cents is outside a 20 cent window")
}
