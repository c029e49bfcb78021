package audio

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gordonklaus/portaudio"
	"github.com/mdobak/go-xerrors"
)

var ErrNoDevice = errors.New("audio: input device not found")

// Context owns the PortAudio library lifetime. Open one per process and
// Close it after every Capture has been closed.
type Context struct {
	log *slog.Logger
}

func OpenContext() (*Context, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, xerrors.New("portaudio initialize", err)
	}
	return &Context{log: slog.Default().With("component", "audio")}, nil
}

func (c *Context) Close() error {
	if err := portaudio.Terminate(); err != nil {
		return xerrors.New("portaudio terminate", err)
	}
	return nil
}

// Capture reads a mono input stream into an Analyzer.
type Capture struct {
	stream *portaudio.Stream
	buf    []float32
	dst    *Analyzer
	name   string
	log    *slog.Logger
}

// OpenInput opens an input device. device may be empty (system default), a
// 1-based index, or a case-insensitive name prefix. The analyzer's sample
// rate is used for the stream.
func (c *Context) OpenInput(device string, framesPerBuffer int, dst *Analyzer) (*Capture, error) {
	info, err := findInput(device)
	if err != nil {
		return nil, err
	}

	p := portaudio.LowLatencyParameters(info, nil)
	p.Input.Channels = 1
	p.Output.Channels = 0
	p.SampleRate = dst.SampleRate()
	p.FramesPerBuffer = framesPerBuffer

	buf := make([]float32, framesPerBuffer)
	stream, err := portaudio.OpenStream(p, buf)
	if err != nil {
		return nil, xerrors.New("open input "+info.Name, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, xerrors.New("start input "+info.Name, err)
	}
	c.log.Info("audio: input opened", "device", info.Name, "sample_rate", p.SampleRate, "frames_per_buffer", framesPerBuffer)
	return &Capture{stream: stream, buf: buf, dst: dst, name: info.Name, log: c.log}, nil
}

func findInput(device string) (*portaudio.DeviceInfo, error) {
	if device == "" {
		info, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, xerrors.New("default input", err)
		}
		return info, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, xerrors.New("list devices", err)
	}
	if i, err := strconv.Atoi(device); err == nil && i > 0 && i <= len(devices) {
		if devices[i-1].MaxInputChannels > 0 {
			return devices[i-1], nil
		}
	}
	want := strings.ToLower(device)
	for _, d := range devices {
		if d.MaxInputChannels > 0 && strings.HasPrefix(strings.ToLower(d.Name), want) {
			return d, nil
		}
	}
	return nil, xerrors.New(device, ErrNoDevice)
}

func (c *Capture) Name() string { return c.name }

// Run blocks reading buffers until ctx is cancelled or the stream fails.
// Input overflows are logged and skipped.
func (c *Capture) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		if err := c.stream.Read(); err != nil {
			if errors.Is(err, portaudio.InputOverflowed) {
				c.log.Debug("audio: input overflowed")
				continue
			}
			return xerrors.New("read input "+c.name, err)
		}
		c.dst.WriteFloat32(c.buf)
	}
	return nil
}

func (c *Capture) Close() error {
	if err := c.stream.Stop(); err != nil {
		c.log.Warn("audio: stop stream", "error", err)
	}
	if err := c.stream.Close(); err != nil {
		return xerrors.New("close input "+c.name, err)
	}
	return nil
}
