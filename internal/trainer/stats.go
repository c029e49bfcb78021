package trainer

import (
	"log/slog"
	"sort"
	"time"

	"github.com/chase3718/lou-fretcoach/internal/detect"
)

// StringStats is the per-string slice of a Stats tally.
type StringStats struct {
	Attempts  int
	Successes int
	Total     time.Duration
}

// Stats tallies finished challenges for the current run. Nothing is
// persisted.
type Stats struct {
	Attempts  int
	Successes int
	Failures  int
	Errors    int
	Fastest   time.Duration
	total     time.Duration
	perString map[int]*StringStats
}

func NewStats() *Stats {
	return &Stats{perString: make(map[int]*StringStats)}
}

// Record adds one finished challenge. Only successful attempts count towards
// the timing figures.
func (s *Stats) Record(c detect.Challenge, success bool, taken time.Duration, errors int) {
	s.Attempts++
	s.Errors += errors
	ps := s.perString[c.GuitarString]
	if ps == nil {
		ps = &StringStats{}
		s.perString[c.GuitarString] = ps
	}
	ps.Attempts++
	if !success {
		s.Failures++
		return
	}
	s.Successes++
	s.total += taken
	ps.Successes++
	ps.Total += taken
	if s.Fastest == 0 || taken < s.Fastest {
		s.Fastest = taken
	}
}

// Average is the mean completion time of successful attempts.
func (s *Stats) Average() time.Duration {
	if s.Successes == 0 {
		return 0
	}
	return s.total / time.Duration(s.Successes)
}

// String returns the per-string breakdown for string n, if any attempt used it.
func (s *Stats) String(n int) (StringStats, bool) {
	ps, ok := s.perString[n]
	if !ok {
		return StringStats{}, false
	}
	return *ps, true
}

func (s *Stats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("attempts", s.Attempts),
		slog.Int("successes", s.Successes),
		slog.Int("failures", s.Failures),
		slog.Int("errors", s.Errors),
		slog.Int64("average_ms", s.Average().Milliseconds()),
		slog.Int64("fastest_ms", s.Fastest.Milliseconds()),
	}
	keys := make([]int, 0, len(s.perString))
	for k := range s.perString {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		ps := s.perString[k]
		attrs = append(attrs, slog.Group(StringLabel(k),
			slog.Int("attempts", ps.Attempts),
			slog.Int("successes", ps.Successes),
		))
	}
	return slog.GroupValue(attrs...)
}
