package audio

import (
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/require"

	"github.com/chase3718/lou-fretcoach/internal/pitch"
)

func TestAnalyzerNeedsFullWindow(t *testing.T) {
	t.Parallel()

	a := NewAnalyzer(8, 44100)
	require.Nil(t, a.Frame())

	a.Write([]float64{1, 2, 3, 4, 5})
	require.Nil(t, a.Frame())

	a.Write([]float64{6, 7, 8})
	require.Equal(t, []float64{1, 2, 3, 4, 5, 6, 7, 8}, a.Frame())

	a.Write([]float64{9, 10})
	require.Equal(t, []float64{3, 4, 5, 6, 7, 8, 9, 10}, a.Frame())

	a.Write([]float64{0, 0, 0, 0, 0, 0, 11, 12, 13, 14, 15, 16, 17, 18})
	require.Equal(t, []float64{11, 12, 13, 14, 15, 16, 17, 18}, a.Frame())

	a.Reset()
	require.Nil(t, a.Frame())
}

func TestAnalyzerFrameIsACopy(t *testing.T) {
	t.Parallel()

	a := NewAnalyzer(4, 8000)
	a.WriteFloat32([]float32{0.5, 0.25, -0.5, 1})
	f := a.Frame()
	f[0] = 99
	require.Equal(t, []float64{0.5, 0.25, -0.5, 1}, a.Frame())
	require.Equal(t, 8000.0, a.SampleRate())
	require.Equal(t, 4, a.FrameSize())
}

func writeStereoSine(t *testing.T, hz float64, frames int) string {
	t.Helper()

	const rate = 44100
	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	data := make([]int, 0, frames*2)
	for i := 0; i < frames; i++ {
		v := int(math.Round(0.5 * 32767 * math.Sin(2*math.Pi*hz*float64(i)/rate)))
		data = append(data, v, v)
	}
	enc := wav.NewEncoder(f, rate, 16, 2, 1)
	require.NoError(t, enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 2, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	return path
}

func TestWAVReadsMonoNormalised(t *testing.T) {
	t.Parallel()

	path := writeStereoSine(t, 220, 44100/2)
	w, err := OpenWAV(path)
	require.NoError(t, err)
	defer w.Close()

	require.Equal(t, 44100.0, w.SampleRate())
	require.Equal(t, 2, w.Channels())
	require.Equal(t, 500*time.Millisecond, w.Duration())

	var all []float64
	for {
		hop, err := w.Read(1323)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		require.LessOrEqual(t, len(hop), 1323)
		all = append(all, hop...)
	}
	require.Len(t, all, 44100/2)

	for _, v := range all {
		require.LessOrEqual(t, math.Abs(v), 0.51)
	}
	require.InDelta(t, 0.5*math.Sin(2*math.Pi*220*10/44100.0), all[10], 1e-3)

	hz, ok := pitch.Estimate(all[:4096], w.SampleRate())
	require.True(t, ok)
	require.InEpsilon(t, 220.0, hz, 0.01)
}

func TestOpenWAVRejectsGarbage(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "junk.wav")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a riff file"), 0o644))
	_, err := OpenWAV(path)
	require.ErrorIs(t, err, ErrInvalidWAV)

	_, err = OpenWAV(filepath.Join(t.TempDir(), "missing.wav"))
	require.Error(t, err)
}
