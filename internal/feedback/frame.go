package feedback

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/chase3718/lou-fretcoach/internal/detect"
	"github.com/chase3718/lou-fretcoach/internal/pitch"
)

const (
	SOF0 = 0xAA
	SOF1 = 0x55

	CmdFirstOctave      = 0x20
	CmdCompleted        = 0x21
	CmdWrongNote        = 0x22
	CmdFailed           = 0x23
	CmdLiveNote         = 0x24
	CmdChallengeStarted = 0x25

	NoNote      = 0xFF
	PayloadSize = 8
	FrameSize   = 4 + PayloadSize + 1
)

var (
	ErrShortFrame = errors.New("feedback: short frame")
	ErrBadFrame   = errors.New("feedback: bad frame")
)

// Frame is one event sent to the indicator board.
type Frame struct {
	Cmd       byte
	Note      byte // 0-11 index into pitch.NoteNames, NoNote = none
	Octave    int8
	Cents     int8
	Errors    byte
	MaxErrors byte
	TimeTaken uint16 // tenths of a second
	Seq       byte
}

// Encode builds the on-wire representation:
//
//	[SOF0][SOF1][LEN][CMD][note][octave][cents][errors][max][time_hi][time_lo][seq][CKS]
func (f *Frame) Encode() []byte {
	payload := make([]byte, PayloadSize)
	payload[0] = f.Note
	payload[1] = byte(f.Octave)
	payload[2] = byte(f.Cents)
	payload[3] = f.Errors
	payload[4] = f.MaxErrors
	binary.BigEndian.PutUint16(payload[5:7], f.TimeTaken)
	payload[7] = f.Seq

	length := byte(len(payload) + 1) // +1 for CMD byte
	cks := checksum(length, f.Cmd, payload)

	out := make([]byte, 0, FrameSize)
	out = append(out, SOF0, SOF1, length, f.Cmd)
	out = append(out, payload...)
	return append(out, cks)
}

// Decode parses one frame from the start of b.
func Decode(b []byte) (Frame, error) {
	if len(b) < FrameSize {
		return Frame{}, ErrShortFrame
	}
	if b[0] != SOF0 || b[1] != SOF1 {
		return Frame{}, fmt.Errorf("%w: missing start of frame", ErrBadFrame)
	}
	if b[2] != PayloadSize+1 {
		return Frame{}, fmt.Errorf("%w: length %d", ErrBadFrame, b[2])
	}
	payload := b[4 : 4+PayloadSize]
	if want := checksum(b[2], b[3], payload); b[4+PayloadSize] != want {
		return Frame{}, fmt.Errorf("%w: checksum %#x, want %#x", ErrBadFrame, b[4+PayloadSize], want)
	}
	return Frame{
		Cmd:       b[3],
		Note:      payload[0],
		Octave:    int8(payload[1]),
		Cents:     int8(payload[2]),
		Errors:    payload[3],
		MaxErrors: payload[4],
		TimeTaken: binary.BigEndian.Uint16(payload[5:7]),
		Seq:       payload[7],
	}, nil
}

func checksum(length, cmd byte, payload []byte) byte {
	cks := length ^ cmd
	for _, b := range payload {
		cks ^= b
	}
	return cks
}

func noteByte(name string) byte {
	if i, ok := pitch.NoteIndex(name); ok {
		return byte(i)
	}
	return NoNote
}

func tenths(d time.Duration) uint16 {
	t := d / (100 * time.Millisecond)
	if t < 0 {
		return 0
	}
	if t > 0xFFFF {
		return 0xFFFF
	}
	return uint16(t)
}

func clampByte(n int) byte {
	return byte(max(0, min(n, 0xFF)))
}

// FrameFor maps an event to a frame. TargetFallback has no frame.
func FrameFor(e detect.Event, maxErrors int) (Frame, bool) {
	f := Frame{Note: NoNote, MaxErrors: clampByte(maxErrors)}
	switch ev := e.(type) {
	case detect.LiveClassification:
		f.Cmd = CmdLiveNote
		f.Note = noteByte(ev.Note.Name)
		f.Octave = int8(max(-128, min(ev.Note.Octave, 127)))
		f.Cents = int8(ev.Note.Cents)
	case detect.FirstOctaveDetected:
		f.Cmd = CmdFirstOctave
		f.Note = noteByte(ev.NoteName)
		f.Octave = int8(max(-128, min(ev.Octave, 127)))
	case detect.ChallengeCompleted:
		f.Cmd = CmdCompleted
		f.Note = noteByte(ev.NoteName)
		f.TimeTaken = tenths(ev.TimeTaken)
	case detect.WrongNoteDetected:
		f.Cmd = CmdWrongNote
		f.Note = noteByte(ev.NoteName)
		f.Errors = clampByte(ev.ErrorCount)
	case detect.ChallengeFailed:
		f.Cmd = CmdFailed
		f.Errors = clampByte(ev.ErrorCount)
	case detect.ChallengeStarted:
		f.Cmd = CmdChallengeStarted
		f.Note = noteByte(ev.Challenge.NoteName)
		f.MaxErrors = clampByte(ev.MaxErrors)
	default:
		return Frame{}, false
	}
	return f, true
}
