package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mdobak/go-xerrors"

	"github.com/chase3718/lou-fretcoach/internal/detect"
	"github.com/chase3718/lou-fretcoach/internal/pitch"
)

// Config is the resolved runtime configuration. Precedence, lowest first:
// defaults, .env file, LOU_* environment, command-line flags.
type Config struct {
	Sensitivity   int
	ExtendedRange bool
	MaxErrors     int
	DetectorMode  bool
	TargetNote    string
	Strings       StringSet
	Tick          time.Duration
	FrameSize     int
	SampleRate    float64
	Device        string
	MIDIOut       string
	Serial        string
	Baud          int
	Debug         bool
}

func Default() Config {
	return Config{
		Sensitivity:   detect.DefaultSensitivity,
		ExtendedRange: true,
		MaxErrors:     detect.DefaultMaxErrors,
		Strings:       StringSet{1, 2, 3, 4, 5, 6},
		Tick:          30 * time.Millisecond,
		FrameSize:     2048,
		SampleRate:    44100,
		Baud:          500000,
	}
}

// Load reads envFiles (".env" when none are given; missing files are
// ignored), then the environment, then parses args into fset.
func Load(fset *flag.FlagSet, args []string, envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, xerrors.New("load "+f, err)
		}
	}

	cfg := Default()
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return Config{}, err
	}
	cfg.RegisterFlags(fset)
	if err := fset.Parse(args); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from LOU_* variables. Empty values are skipped.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	var errs []error
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v := getenv(key); v != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	boolean := func(key string, dst *bool) {
		if v := getenv(key); v != "" {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}

	num("LOU_SENSITIVITY", &c.Sensitivity)
	boolean("LOU_EXTENDED_RANGE", &c.ExtendedRange)
	num("LOU_MAX_ERRORS", &c.MaxErrors)
	boolean("LOU_DETECTOR_MODE", &c.DetectorMode)
	str("LOU_TARGET_NOTE", &c.TargetNote)
	if v := getenv("LOU_STRINGS"); v != "" {
		if err := c.Strings.Set(v); err != nil {
			errs = append(errs, fmt.Errorf("LOU_STRINGS: %w", err))
		}
	}
	tickMS := int(c.Tick / time.Millisecond)
	num("LOU_TICK_MS", &tickMS)
	c.Tick = time.Duration(tickMS) * time.Millisecond
	num("LOU_FRAME_SIZE", &c.FrameSize)
	rate := int(c.SampleRate)
	num("LOU_SAMPLE_RATE", &rate)
	c.SampleRate = float64(rate)
	str("LOU_DEVICE", &c.Device)
	str("LOU_MIDI_OUT", &c.MIDIOut)
	str("LOU_SERIAL", &c.Serial)
	num("LOU_BAUD", &c.Baud)
	boolean("LOU_DEBUG", &c.Debug)

	return errors.Join(errs...)
}

// RegisterFlags binds flags to c, with c's current values as defaults.
func (c *Config) RegisterFlags(fset *flag.FlagSet) {
	fset.IntVar(&c.Sensitivity, "sensitivity", c.Sensitivity, "detection sensitivity 0-100")
	fset.BoolVar(&c.ExtendedRange, "extended", c.ExtendedRange, "accept pitches up to 2000 Hz")
	fset.IntVar(&c.MaxErrors, "max-errors", c.MaxErrors, "wrong notes allowed per challenge")
	fset.BoolVar(&c.DetectorMode, "detector", c.DetectorMode, "detector mode: show notes, no challenges")
	fset.StringVar(&c.TargetNote, "note", c.TargetNote, "fixed target note (e.g. A, C#); empty picks at random")
	fset.Var(&c.Strings, "strings", "comma-separated strings to practise, 1 = high E")
	fset.DurationVar(&c.Tick, "tick", c.Tick, "analysis period")
	fset.IntVar(&c.FrameSize, "frame", c.FrameSize, "analysis window in samples")
	fset.Float64Var(&c.SampleRate, "rate", c.SampleRate, "capture sample rate")
	fset.StringVar(&c.Device, "device", c.Device, "input device: index or name prefix; empty for default")
	fset.StringVar(&c.MIDIOut, "midi-out", c.MIDIOut, "comma-separated MIDI output name patterns; empty disables MIDI")
	fset.StringVar(&c.Serial, "serial", c.Serial, "feedback board serial device; empty disables it")
	fset.IntVar(&c.Baud, "baud", c.Baud, "serial baud rate")
	fset.BoolVar(&c.Debug, "debug", c.Debug, "enable debug logging (adds source location)")
}

// Validate rejects values the pipeline cannot run with. Soft problems such
// as an unknown target note are left to the coach, which falls back.
func (c *Config) Validate() error {
	c.Sensitivity = detect.ClampSensitivity(c.Sensitivity)
	switch {
	case c.Tick <= 0:
		return fmt.Errorf("tick must be positive, got %s", c.Tick)
	case c.FrameSize < 256:
		return fmt.Errorf("frame size %d is too small", c.FrameSize)
	case c.SampleRate < 8000:
		return fmt.Errorf("sample rate %.0f is too low", c.SampleRate)
	case c.MaxErrors < 1:
		return fmt.Errorf("max errors must be at least 1, got %d", c.MaxErrors)
	}
	if c.TargetNote != "" {
		c.TargetNote = strings.ToUpper(c.TargetNote[:1]) + c.TargetNote[1:]
	}
	return nil
}

// TargetValid reports whether TargetNote names a pitch class.
func (c *Config) TargetValid() bool {
	_, ok := pitch.NoteIndex(c.TargetNote)
	return ok
}

// MIDIPatterns splits MIDIOut into name patterns.
func (c *Config) MIDIPatterns() []string {
	return splitList(c.MIDIOut)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// StringSet is a flag.Value holding guitar string numbers. Out-of-range
// numbers are kept so the coach can report the fallback.
type StringSet []int

func (s *StringSet) String() string {
	if s == nil {
		return ""
	}
	parts := make([]string, len(*s))
	for i, n := range *s {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

func (s *StringSet) Set(v string) error {
	var out StringSet
	for _, p := range splitList(v) {
		n, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("string %q: %w", p, err)
		}
		out = append(out, n)
	}
	*s = out
	return nil
}
