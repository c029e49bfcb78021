package midiout

import (
	"errors"
	"log/slog"
	"sync"

	"gitlab.com/gomidi/midi/v2"

	"github.com/chase3718/lou-fretcoach/internal/detect"
	"github.com/chase3718/lou-fretcoach/internal/trainer"
)

const (
	DefaultChannel  = 0
	DefaultVelocity = 100

	// cueKey is sounded once when a challenge is completed: C6.
	cueKey = 84
)

// Player echoes the live classification to MIDI: one sounding note at a
// time, following the player's pitch, released on silence.
type Player struct {
	mu       sync.Mutex
	send     func(midi.Message) error
	channel  uint8
	velocity uint8
	current  int // sounding key, -1 for none
	log      *slog.Logger
}

func NewPlayer(send func(midi.Message) error, channel uint8) *Player {
	return &Player{
		send:     send,
		channel:  channel & 0x0F,
		velocity: DefaultVelocity,
		current:  -1,
		log:      slog.Default().With("component", "midi"),
	}
}

// Handle implements trainer.Sink.
func (p *Player) Handle(r trainer.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := r.Snapshot
	switch {
	case snap.HasNote && snap.Note.MIDI != p.current:
		p.release()
		if snap.Note.MIDI >= 0 && snap.Note.MIDI <= 127 {
			key := uint8(snap.Note.MIDI)
			p.write(midi.NoteOn(p.channel, key, p.velocity))
			p.current = snap.Note.MIDI
		}
	case !snap.Level.HasVolume && snap.Silent:
		p.release()
	}

	for _, e := range r.Events {
		if _, ok := e.(detect.ChallengeCompleted); ok {
			p.write(midi.NoteOn(p.channel, cueKey, p.velocity))
			p.write(midi.NoteOff(p.channel, cueKey))
		}
	}
}

// Forget drops the sounding note without sending NoteOff, for when the
// output has gone away.
func (p *Player) Forget() {
	p.mu.Lock()
	p.current = -1
	p.mu.Unlock()
}

// Release silences the sounding note, if any.
func (p *Player) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.release()
}

func (p *Player) release() {
	if p.current < 0 {
		return
	}
	p.write(midi.NoteOff(p.channel, uint8(p.current)))
	p.current = -1
}

func (p *Player) write(msg midi.Message) {
	if err := p.send(msg); err != nil && !errors.Is(err, ErrNotConnected) {
		p.log.Debug("midi: send failed", "msg", msg.String(), "error", err)
	}
}
