package rtl

import (
	"fmt"
	"sync"

	"github.com/rtl66go/midiengine/pkg/midi"
	gomidi "gitlab.com/gomidi/midi/v2"
	"golang.org/x/sync/errgroup"
)

// ClockMode selects how a given output port is informed of playback
// position, per spec.md §4.8's per-port clocking modes.
type ClockMode int

const (
	ClockOff ClockMode = iota // port gets no clock/position traffic
	ClockPos                  // port gets Song Position Pointer + Beat Clock
	ClockMod                  // port gets Beat Clock only, no repositioning
)

// busPort is one output or input port MasterBus owns.
type busPort struct {
	api     MidiApi
	name    string
	clock   ClockMode
	inputOn bool
}

// MasterBus fans events out to every enabled output port, per spec.md §4.8.
// Input ports are only registered with an enable flag (AddInput, SetInput,
// GetInput); MasterBus does not read from them. It is the single choke
// point between Track.Play/Player and the backend(s): nothing downstream of
// MasterBus ever holds a native handle, only the MidiApi contract.
type MasterBus struct {
	mu sync.RWMutex

	backend MidiApi
	outputs []*busPort
	inputs  []*busPort

	ppqn int
	bpm  float64

	errs *errorLog
}

// NewMasterBus returns a MasterBus driven by the given backend with no
// ports enabled yet.
func NewMasterBus(backend MidiApi) *MasterBus {
	return &MasterBus{backend: backend, ppqn: 192, bpm: 120, errs: newErrorLog()}
}

// AddOutput enables an output port under the given clocking mode.
func (m *MasterBus) AddOutput(api MidiApi, name string, mode ClockMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outputs = append(m.outputs, &busPort{api: api, name: name, clock: mode})
}

// AddInput enables an input port.
func (m *MasterBus) AddInput(api MidiApi, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs = append(m.inputs, &busPort{api: api, name: name, inputOn: true})
}

// SetClock changes an already-added output port's clocking mode.
func (m *MasterBus) SetClock(index int, mode ClockMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index >= len(m.outputs) {
		return fmt.Errorf("rtl: masterbus: %w: output index %d", ErrInvalidParameter, index)
	}
	m.outputs[index].clock = mode
	return nil
}

// GetClock reports an output port's clocking mode.
func (m *MasterBus) GetClock(index int) (ClockMode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if index < 0 || index >= len(m.outputs) {
		return ClockOff, fmt.Errorf("rtl: masterbus: %w: output index %d", ErrInvalidParameter, index)
	}
	return m.outputs[index].clock, nil
}

// SetInput enables/disables an already-added input port.
func (m *MasterBus) SetInput(index int, on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index >= len(m.inputs) {
		return fmt.Errorf("rtl: masterbus: %w: input index %d", ErrInvalidParameter, index)
	}
	m.inputs[index].inputOn = on
	return nil
}

// GetInput reports whether an input port is enabled.
func (m *MasterBus) GetInput(index int) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if index < 0 || index >= len(m.inputs) {
		return false, fmt.Errorf("rtl: masterbus: %w: input index %d", ErrInvalidParameter, index)
	}
	return m.inputs[index].inputOn, nil
}

// PPQN returns the PPQN MasterBus propagates to every output that cares
// about clocking.
func (m *MasterBus) PPQN() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ppqn
}

// SetPPQN updates the propagated PPQN.
func (m *MasterBus) SetPPQN(ppqn int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ppqn = ppqn
}

// BPM returns the propagated tempo.
func (m *MasterBus) BPM() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bpm
}

// SetBPM updates the propagated tempo.
func (m *MasterBus) SetBPM(bpm float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bpm = bpm
}

// channelWire renders a channel Event as a raw 2- or 3-byte MIDI message,
// the same byte-slice-backed construction the teacher converts from
// smf.Message via midi.Message(bytes) in pkg/engine/midi_player.go — this
// package never calls a gomidi constructor function, only its Message
// conversion and Bytes() accessor, matching exactly what the teacher
// exercises.
func channelWire(e *midi.Event) gomidi.Message {
	if e.NData >= 2 {
		return gomidi.Message([]byte{e.Status, e.Data[0], e.Data[1]})
	}
	return gomidi.Message([]byte{e.Status, e.Data[0]})
}

// Play sends a channel event to every enabled output port on the given
// bus index. bus selects a single output by index; a negative bus plays
// to every enabled output (the "all buses" fan-out spec.md §4.8
// describes for tracks with no nominal bus).
func (m *MasterBus) Play(bus int, e *midi.Event) {
	if e.Kind != midi.KindChannel {
		return
	}
	wire := channelWire(e)

	m.mu.RLock()
	defer m.mu.RUnlock()
	for i, p := range m.outputs {
		if bus >= 0 && i != bus {
			continue
		}
		if err := p.api.SendMessage(wire); err != nil {
			m.errs.record(fmt.Sprintf("masterbus: output %q: %v", p.name, err))
		}
	}
}

// Sysex forwards a raw SysEx payload (including its framing F0...F7 bytes)
// to every enabled output port on the given bus index, the same bus-index
// convention Play uses (a negative bus broadcasts to every output). This is
// the "sysex" MasterBus operation spec.md §5 lists alongside play/flush/
// panic as one of the recursive-mutex-guarded bus operations.
func (m *MasterBus) Sysex(bus int, payload []byte) {
	wire := gomidi.Message(payload)

	m.mu.RLock()
	defer m.mu.RUnlock()
	for i, p := range m.outputs {
		if bus >= 0 && i != bus {
			continue
		}
		if err := p.api.SendMessage(wire); err != nil {
			m.errs.record(fmt.Sprintf("masterbus: sysex on output %q: %v", p.name, err))
		}
	}
}

// Flush sends a sentinel MIDI Active Sensing byte to every output, giving
// hardware synths a chance to drain any queued buffer (spec.md §4.8). Each
// output is flushed on its own goroutine via errgroup, since a slow or
// blocked backend on one port must never delay the others.
func (m *MasterBus) Flush() {
	wire := gomidi.Message([]byte{midi.StatusActiveSensing})
	m.mu.RLock()
	outputs := make([]*busPort, len(m.outputs))
	copy(outputs, m.outputs)
	m.mu.RUnlock()

	var g errgroup.Group
	for _, p := range outputs {
		p := p
		g.Go(func() error {
			if err := p.api.SendMessage(wire); err != nil {
				m.errs.record(fmt.Sprintf("masterbus: flush on output %q: %v", p.name, err))
			}
			return nil
		})
	}
	_ = g.Wait()
}

// Panic sends All Notes Off (CC 123) on every channel to every output
// except exceptBus (a negative value panics every output), per spec.md
// §4.8's emergency-stop operation. Outputs are panicked concurrently so one
// unresponsive port cannot hold up silencing the rest.
func (m *MasterBus) Panic(exceptBus int) {
	m.mu.RLock()
	outputs := make([]*busPort, len(m.outputs))
	copy(outputs, m.outputs)
	m.mu.RUnlock()

	var g errgroup.Group
	for i, p := range outputs {
		if i == exceptBus {
			continue
		}
		p := p
		g.Go(func() error {
			for ch := byte(0); ch < 16; ch++ {
				status := midi.StatusControlChange | ch
				wire := gomidi.Message([]byte{status, 123, 0})
				if err := p.api.SendMessage(wire); err != nil {
					m.errs.record(fmt.Sprintf("masterbus: panic on output %q: %v", p.name, err))
				}
			}
			return nil
		})
	}
	_ = g.Wait()
}

// ClockAction selects one of the five verbs handle_clock dispatches to, per
// spec.md §4.9's MIDI Beat Clock handling.
type ClockAction int

const (
	ClockInit ClockAction = iota
	ClockStart
	ClockContinueFrom
	ClockStop
	ClockEmit
)

// HandleClock sends the MIDI Beat Clock traffic corresponding to action to
// every output port whose ClockMode is not ClockOff. tick is only
// meaningful for ClockContinueFrom, where it becomes a Song Position
// Pointer in 16th-note units (tick / (PPQN/4)).
func (m *MasterBus) HandleClock(action ClockAction, tick midi.Pulse) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.outputs {
		if p.clock == ClockOff {
			continue
		}
		var wire gomidi.Message
		switch action {
		case ClockInit:
			continue
		case ClockStart:
			wire = gomidi.Message([]byte{midi.StatusStart})
		case ClockContinueFrom:
			if p.clock != ClockPos {
				continue
			}
			sixteenths := uint32(tick) / uint32(m.ppqn/4)
			spp := gomidi.Message([]byte{midi.StatusSongPosition, byte(sixteenths & 0x7F), byte((sixteenths >> 7) & 0x7F)})
			if err := p.api.SendMessage(spp); err != nil {
				m.errs.record(fmt.Sprintf("masterbus: clock spp on %q: %v", p.name, err))
			}
			wire = gomidi.Message([]byte{midi.StatusContinue})
		case ClockStop:
			wire = gomidi.Message([]byte{midi.StatusStop})
		case ClockEmit:
			wire = gomidi.Message([]byte{midi.StatusTimingClock})
		default:
			continue
		}
		if err := p.api.SendMessage(wire); err != nil {
			m.errs.record(fmt.Sprintf("masterbus: clock on %q: %v", p.name, err))
		}
	}
}

// errorLog is a small de-duplicated, ordered list of backend error
// strings, matching spec.md §7's "error-message aggregation
// (de-duplicated)" requirement for Player/MasterBus.
type errorLog struct {
	mu   sync.Mutex
	seen map[string]bool
	list []string
}

func newErrorLog() *errorLog { return &errorLog{seen: make(map[string]bool)} }

func (e *errorLog) record(msg string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.seen[msg] {
		return
	}
	e.seen[msg] = true
	e.list = append(e.list, msg)
}

// Messages returns every distinct error recorded so far, in first-seen
// order.
func (e *errorLog) Messages() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.list))
	copy(out, e.list)
	return out
}

// Errors returns MasterBus's accumulated de-duplicated backend error log.
func (m *MasterBus) Errors() []string {
	return m.errs.Messages()
}
