package feedback

import (
	"io"
	"log/slog"
	"sync"

	"github.com/chase3718/lou-fretcoach/internal/detect"
	"github.com/chase3718/lou-fretcoach/internal/trainer"
)

// Board sends game events to an indicator board over w. Live notes are sent
// only when the note changes, so an idle string does not flood the link.
type Board struct {
	mu        sync.Mutex
	w         io.Writer
	seq       byte
	maxErrors int
	lastLive  string
	log       *slog.Logger
}

func NewBoard(w io.Writer, maxErrors int) *Board {
	return &Board{w: w, maxErrors: maxErrors, log: slog.Default().With("component", "serial")}
}

// Handle implements trainer.Sink.
func (b *Board) Handle(r trainer.Result) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !r.Snapshot.HasNote && r.Snapshot.Silent {
		b.lastLive = ""
	}
	for _, e := range r.Events {
		switch ev := e.(type) {
		case detect.LiveClassification:
			if ev.Note.String() == b.lastLive {
				continue
			}
			b.lastLive = ev.Note.String()
		case detect.ChallengeStarted:
			b.maxErrors = ev.MaxErrors
		}
		f, ok := FrameFor(e, b.maxErrors)
		if !ok {
			continue
		}
		b.send(f)
	}
}

func (b *Board) send(f Frame) {
	f.Seq = b.seq
	b.seq++
	data := f.Encode()
	n, err := b.w.Write(data)
	if err != nil {
		b.log.Error("serial: write error", "error", err)
		return
	}
	b.log.Debug("serial: frame sent", "bytes", n, "seq", f.Seq, "cmd", f.Cmd)
}
