package audio

import (
	"errors"
	"io"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/transforms"
	"github.com/go-audio/wav"
	"github.com/mdobak/go-xerrors"
)

var ErrInvalidWAV = errors.New("audio: not a valid PCM WAV file")

// WAVFile reads a PCM WAV file as mono float samples in [-1, 1].
type WAVFile struct {
	f     *os.File
	dec   *wav.Decoder
	buf   goaudio.IntBuffer
	scale float64
}

func OpenWAV(path string) (*WAVFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.New("open wav", err)
	}
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		f.Close()
		return nil, xerrors.New(path, ErrInvalidWAV)
	}
	if err := dec.FwdToPCM(); err != nil {
		f.Close()
		return nil, xerrors.New("seek pcm "+path, err)
	}
	scale := goaudio.IntMaxSignedValue(int(dec.BitDepth))
	if scale == 0 {
		f.Close()
		return nil, xerrors.New(path, ErrInvalidWAV)
	}
	return &WAVFile{f: f, dec: dec, scale: float64(scale)}, nil
}

func (w *WAVFile) SampleRate() float64 { return float64(w.dec.SampleRate) }
func (w *WAVFile) Channels() int       { return int(w.dec.NumChans) }

// Duration is the length of the PCM data chunk.
func (w *WAVFile) Duration() time.Duration {
	frameBytes := int(w.dec.NumChans) * int(w.dec.BitDepth) / 8
	if frameBytes == 0 || w.dec.SampleRate == 0 {
		return 0
	}
	frames := w.dec.PCMSize / frameBytes
	return time.Duration(frames) * time.Second / time.Duration(w.dec.SampleRate)
}

// Read returns up to frames mono samples. It returns io.EOF once the data
// chunk is exhausted.
func (w *WAVFile) Read(frames int) ([]float64, error) {
	chans := max(1, w.Channels())
	if cap(w.buf.Data) < frames*chans {
		w.buf.Data = make([]int, frames*chans)
	}
	w.buf.Data = w.buf.Data[:frames*chans]
	w.buf.Format = w.dec.Format()

	n, err := w.dec.PCMBuffer(&w.buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, xerrors.New("read pcm", err)
	}
	if n == 0 {
		return nil, io.EOF
	}
	w.buf.Data = w.buf.Data[:n]

	fb := w.buf.AsFloatBuffer()
	if err := transforms.MonoDownmix(fb); err != nil {
		return nil, xerrors.New("downmix", err)
	}
	for i := range fb.Data {
		fb.Data[i] /= w.scale
	}
	return fb.Data, nil
}

func (w *WAVFile) Close() error {
	return w.f.Close()
}
