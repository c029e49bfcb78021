package config

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func mapEnv(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()

	cfg := Default()
	err := cfg.ApplyEnv(mapEnv(map[string]string{
		"LOU_SENSITIVITY":    "70",
		"LOU_EXTENDED_RANGE": "false",
		"LOU_STRINGS":        "6, 5,4",
		"LOU_TICK_MS":        "20",
		"LOU_SAMPLE_RATE":    "48000",
		"LOU_TARGET_NOTE":    "c#",
		"LOU_MIDI_OUT":       "UM-ONE, Scarlett",
	}))
	require.NoError(t, err)
	require.Equal(t, 70, cfg.Sensitivity)
	require.False(t, cfg.ExtendedRange)
	require.Equal(t, StringSet{6, 5, 4}, cfg.Strings)
	require.Equal(t, 20*time.Millisecond, cfg.Tick)
	require.Equal(t, 48000.0, cfg.SampleRate)
	require.Equal(t, []string{"UM-ONE", "Scarlett"}, cfg.MIDIPatterns())

	require.NoError(t, cfg.Validate())
	require.Equal(t, "C#", cfg.TargetNote)
	require.True(t, cfg.TargetValid())
}

func TestApplyEnvReportsEveryBadValue(t *testing.T) {
	t.Parallel()

	cfg := Default()
	err := cfg.ApplyEnv(mapEnv(map[string]string{
		"LOU_SENSITIVITY": "loud",
		"LOU_DEBUG":       "sometimes",
		"LOU_STRINGS":     "1,x",
	}))
	require.Error(t, err)
	require.ErrorContains(t, err, "LOU_SENSITIVITY")
	require.ErrorContains(t, err, "LOU_DEBUG")
	require.ErrorContains(t, err, "LOU_STRINGS")
	require.Equal(t, Default().Sensitivity, cfg.Sensitivity)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Sensitivity = 400
	require.NoError(t, cfg.Validate())
	require.Equal(t, 100, cfg.Sensitivity)

	cfg = Default()
	cfg.Tick = 0
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.MaxErrors = 0
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.TargetNote = "H"
	require.NoError(t, cfg.Validate(), "unknown notes fall back at runtime")
	require.False(t, cfg.TargetValid())
}

// Load touches the process environment, so this test is not parallel.
func TestLoadPrecedence(t *testing.T) {
	for _, k := range []string{"LOU_BAUD", "LOU_SENSITIVITY", "LOU_SERIAL"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("LOU_BAUD=115200\nLOU_SENSITIVITY=10\nLOU_SERIAL=/dev/ttyUSB0\n"), 0o644))
	t.Setenv("LOU_SENSITIVITY", "80")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cfg, err := Load(fs, []string{"-serial", "/dev/ttyACM1", "-strings", "1,2"}, envFile)
	require.NoError(t, err)

	require.Equal(t, 115200, cfg.Baud, ".env applies")
	require.Equal(t, 80, cfg.Sensitivity, "environment beats .env")
	require.Equal(t, "/dev/ttyACM1", cfg.Serial, "flags beat everything")
	require.Equal(t, StringSet{1, 2}, cfg.Strings)
}

func TestLoadIgnoresMissingEnvFile(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	_, err := Load(fs, nil, filepath.Join(t.TempDir(), "nope.env"))
	require.NoError(t, err)
}
