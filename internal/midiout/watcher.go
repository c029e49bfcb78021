package midiout

import (
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mdobak/go-xerrors"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

var ErrNotConnected = errors.New("midi: no output connected")

// DefaultExcluded are virtual/system ports that are never auto-connected.
var DefaultExcluded = []string{"Midi Through", "Through Port", "Dummy"}

const RescanInterval = time.Second

// Watcher keeps a connection to the preferred MIDI output. It handles
// hot-plug (device appears) and hot-unplug (device disappears); messages
// sent while nothing is connected are dropped with ErrNotConnected.
type Watcher struct {
	mu           sync.Mutex
	drv          *rtmididrv.Driver
	out          drivers.Out
	send         func(midi.Message) error
	selectedName string
	lastRescanAt time.Time

	preferred    []string
	excluded     []string
	onDisconnect func()
	log          *slog.Logger
}

// NewWatcher opens the rtmidi driver. preferred holds case-insensitive name
// fragments tried in order; with none given, a lone output is picked.
func NewWatcher(preferred []string, onDisconnect func()) (*Watcher, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, xerrors.New("rtmididrv", err)
	}
	return &Watcher{
		drv:          drv,
		preferred:    preferred,
		excluded:     DefaultExcluded,
		onDisconnect: onDisconnect,
		log:          slog.Default().With("component", "midi"),
	}, nil
}

func (w *Watcher) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closeConn()
	w.drv.Close()
}

// Connected returns the name of the open output, if any.
func (w *Watcher) Connected() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.selectedName, w.send != nil
}

// Send writes msg to the current output. A failed write drops the
// connection; the next Tick rescans.
func (w *Watcher) Send(msg midi.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.send == nil {
		return ErrNotConnected
	}
	if err := w.send(msg); err != nil {
		w.log.Warn("midi: write failed, dropping output", "device", w.selectedName, "error", err)
		w.lost()
		return xerrors.New("midi send", err)
	}
	return nil
}

// Tick rescans at most once per RescanInterval: it connects to a preferred
// output when disconnected and notices when the open one disappears.
func (w *Watcher) Tick(now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.lastRescanAt.IsZero() && now.Sub(w.lastRescanAt) < RescanInterval {
		return
	}
	w.lastRescanAt = now

	outputs := w.listOutputs()

	if w.send != nil {
		for _, n := range outputs {
			if n == w.selectedName {
				return
			}
		}
		w.log.Warn("midi: device disappeared", "device", w.selectedName)
		w.lost()
		return
	}

	cand, ok := pickPreferred(outputs, w.preferred)
	if !ok {
		return
	}
	if err := w.openByName(cand); err != nil {
		w.log.Error("midi: connect failed", "device", cand, "error", err)
	}
}

// lost closes the connection and schedules an immediate rescan. Caller holds mu.
func (w *Watcher) lost() {
	w.closeConn()
	w.lastRescanAt = time.Time{}
	if w.onDisconnect != nil {
		go w.onDisconnect()
	}
}

func (w *Watcher) listOutputs() []string {
	outs, err := w.drv.Outs()
	if err != nil {
		w.log.Error("midi: list outputs failed", "error", err)
		return nil
	}
	names := filterExcluded(portNames(outs), w.excluded)
	w.log.Debug("midi: outputs found", "count", len(names), "devices", strings.Join(names, ", "))
	return names
}

func portNames(outs []drivers.Out) []string {
	names := make([]string, 0, len(outs))
	for _, o := range outs {
		names = append(names, o.String())
	}
	return names
}

func filterExcluded(names, excluded []string) []string {
	var out []string
	for _, name := range names {
		skip := false
		for _, pat := range excluded {
			if containsCI(name, pat) {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, name)
		}
	}
	return out
}

func pickPreferred(names, preferred []string) (string, bool) {
	for _, pat := range preferred {
		for _, name := range names {
			if containsCI(name, pat) {
				return name, true
			}
		}
	}
	if len(names) == 1 {
		return names[0], true
	}
	return "", false
}

func (w *Watcher) closeConn() {
	if w.out != nil {
		_ = w.out.Close()
		w.out = nil
	}
	w.send = nil
	w.selectedName = ""
}

func (w *Watcher) openByName(name string) error {
	outs, err := w.drv.Outs()
	if err != nil {
		return xerrors.New("list outputs", err)
	}
	var found drivers.Out
	for _, o := range outs {
		if o.String() == name {
			found = o
			break
		}
	}
	if found == nil {
		return xerrors.New("output " + name + " not found")
	}
	if err := found.Open(); err != nil {
		return xerrors.New("open "+name, err)
	}
	send, err := midi.SendTo(found)
	if err != nil {
		_ = found.Close()
		return xerrors.New("send to "+name, err)
	}

	w.out = found
	w.send = send
	w.selectedName = name
	w.log.Info("midi: connected", "device", name)
	return nil
}

func containsCI(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
