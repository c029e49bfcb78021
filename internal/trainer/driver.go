package trainer

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const DefaultTickPeriod = 30 * time.Millisecond

// Source hands out the most recent analysis window. Frame returns nil until
// enough audio has arrived.
type Source interface {
	Frame() []float64
	SampleRate() float64
}

// Pipeline is satisfied by both Session and Coach.
type Pipeline interface {
	Tick(frame []float64, sampleRate float64, now time.Time) Result
}

type PipelineFunc func(frame []float64, sampleRate float64, now time.Time) Result

func (f PipelineFunc) Tick(frame []float64, sampleRate float64, now time.Time) Result {
	return f(frame, sampleRate, now)
}

// Sink receives every tick result, in order, on the tick goroutine.
type Sink interface {
	Handle(Result)
}

type SinkFunc func(Result)

func (f SinkFunc) Handle(r Result) { f(r) }

// Driver polls a Source at a fixed period and pushes frames through a
// Pipeline. If a tick fires while the previous one is still running, the
// new tick is dropped.
type Driver struct {
	src        Source
	pipe       Pipeline
	sinks      []Sink
	period     time.Duration
	inProgress atomic.Bool
	dropped    atomic.Int64
	ticks      atomic.Int64
	log        *slog.Logger
}

func NewDriver(src Source, pipe Pipeline, period time.Duration, sinks ...Sink) *Driver {
	if period <= 0 {
		period = DefaultTickPeriod
	}
	return &Driver{
		src:    src,
		pipe:   pipe,
		sinks:  sinks,
		period: period,
		log:    slog.Default().With("component", "driver"),
	}
}

func (d *Driver) Dropped() int64 { return d.dropped.Load() }
func (d *Driver) Ticks() int64   { return d.ticks.Load() }

// Run ticks until ctx is cancelled, then waits for an in-flight tick to
// finish. It returns ctx.Err().
func (d *Driver) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.period)
	defer ticker.Stop()

	d.log.Info("driver: running", "period", d.period)
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			d.log.Info("driver: stopped", "ticks", d.Ticks(), "dropped", d.Dropped())
			return ctx.Err()
		case now := <-ticker.C:
			wg.Add(1)
			go func() {
				defer wg.Done()
				d.TryTick(now)
			}()
		}
	}
}

// TryTick runs one tick unless another is in progress. It reports whether
// the tick ran.
func (d *Driver) TryTick(now time.Time) bool {
	if !d.inProgress.CompareAndSwap(false, true) {
		n := d.dropped.Add(1)
		d.log.Debug("driver: tick dropped, previous still running", "dropped", n)
		return false
	}
	defer d.inProgress.Store(false)

	d.ticks.Add(1)
	frame := d.src.Frame()
	if frame == nil {
		return true
	}
	r := d.pipe.Tick(frame, d.src.SampleRate(), now)
	for _, s := range d.sinks {
		s.Handle(r)
	}
	return true
}
