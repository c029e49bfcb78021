package midiout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"

	"github.com/chase3718/lou-fretcoach/internal/detect"
	"github.com/chase3718/lou-fretcoach/internal/pitch"
	"github.com/chase3718/lou-fretcoach/internal/trainer"
)

func TestFilterAndPick(t *testing.T) {
	t.Parallel()

	names := filterExcluded([]string{"Midi Through Port-0", "Scarlett 2i4 MIDI", "Dummy Out", "UM-ONE"}, DefaultExcluded)
	require.Equal(t, []string{"Scarlett 2i4 MIDI", "UM-ONE"}, names)

	got, ok := pickPreferred(names, []string{"um-one"})
	require.True(t, ok)
	require.Equal(t, "UM-ONE", got)

	_, ok = pickPreferred(names, nil)
	require.False(t, ok, "two candidates and no preference")

	got, ok = pickPreferred(names[:1], nil)
	require.True(t, ok)
	require.Equal(t, "Scarlett 2i4 MIDI", got)
}

type recorder struct {
	msgs []midi.Message
	err  error
}

func (r *recorder) send(m midi.Message) error {
	r.msgs = append(r.msgs, m)
	return r.err
}

type noteMsg struct {
	on  bool
	key uint8
}

func (r *recorder) notes() []noteMsg {
	var out []noteMsg
	for _, m := range r.msgs {
		var ch, key, vel uint8
		switch {
		case m.GetNoteStart(&ch, &key, &vel):
			out = append(out, noteMsg{on: true, key: key})
		case m.GetNoteEnd(&ch, &key):
			out = append(out, noteMsg{on: false, key: key})
		}
	}
	return out
}

func live(midiKey int) trainer.Result {
	n, _ := pitch.Classify(pitch.FrequencyOf(midiKey))
	return trainer.Result{
		Snapshot: trainer.Snapshot{At: time.Unix(0, 0), Level: pitch.Level{HasVolume: true, Amplitude: 0.3}, Note: n, HasNote: true},
		Events:   []detect.Event{detect.LiveClassification{Note: n}},
	}
}

func TestPlayerFollowsPitch(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	p := NewPlayer(rec.send, DefaultChannel)

	p.Handle(live(45))
	p.Handle(live(45))
	p.Handle(live(57))
	require.Equal(t, []noteMsg{{true, 45}, {false, 45}, {true, 57}}, rec.notes())

	// Quiet but not yet silent: keep sounding.
	p.Handle(trainer.Result{Snapshot: trainer.Snapshot{Level: pitch.Level{Amplitude: 0.001}}})
	require.Len(t, rec.notes(), 3)

	p.Handle(trainer.Result{Snapshot: trainer.Snapshot{Silent: true}})
	require.Equal(t, noteMsg{false, 57}, rec.notes()[3])

	p.Release()
	require.Len(t, rec.notes(), 4)
}

func TestPlayerCueOnCompletion(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	p := NewPlayer(rec.send, 3)
	r := live(57)
	r.Events = append(r.Events, detect.ChallengeCompleted{NoteName: "A", TimeTaken: time.Second})
	p.Handle(r)
	require.Equal(t, []noteMsg{{true, 57}, {true, cueKey}, {false, cueKey}}, rec.notes())

	var ch, key, vel uint8
	require.True(t, rec.msgs[0].GetNoteStart(&ch, &key, &vel))
	require.EqualValues(t, 3, ch)
	require.EqualValues(t, DefaultVelocity, vel)
}

func TestPlayerForgetAfterDisconnect(t *testing.T) {
	t.Parallel()

	rec := &recorder{err: ErrNotConnected}
	p := NewPlayer(rec.send, 0)
	p.Handle(live(52))
	p.Forget()
	p.Release()
	require.Equal(t, []noteMsg{{true, 52}}, rec.notes())
}
