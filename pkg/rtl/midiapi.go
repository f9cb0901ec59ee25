// Package rtl provides the realtime playback/record engine: a uniform
// MidiApi veneer over heterogeneous native backends, the MasterBus fan-out,
// transport reconciliation, and the Player conductor. See spec.md §4.7-4.9.
package rtl

import (
	"fmt"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// Message is the wire-level unit a MidiApi backend sends or receives: a
// complete MIDI message plus a timestamp in seconds since the previous
// message, per the backend's own convention (spec.md §3's MidiMessage).
//
// The byte payload is gitlab.com/gomidi/midi/v2's Message type, the same
// wire-message representation the teacher repo uses in
// pkg/engine/midi_player.go to bridge gomidi to go-meltysynth; this is the
// "live message" layer, distinct from the hand-written SMF file codec in
// package midi.
type Message struct {
	Data      gomidi.Message
	Timestamp float64
}

// PortInfo describes one enumerated port.
type PortInfo struct {
	Index int
	Name  string
}

// InputCallback receives one incoming Message. It is invoked from whatever
// goroutine/thread the backend uses to deliver input (its own dedicated
// goroutine for MidiApi implementations in this package); callbacks must
// not block.
type InputCallback func(Message)

// MidiApi is the backend contract every native implementation (ALSA, JACK,
// CoreMIDI, WinMM, WebMIDI, Dummy, Synth) satisfies. Per spec.md §4.7, this
// single interface is all the engine ever downcasts against; per-backend
// native handles (snd_seq_t, JACK client, CoreMIDI refs) never appear here.
type MidiApi interface {
	// Name identifies the backend for logging ("alsa", "jack", "dummy", ...).
	Name() string

	// OpenPort opens the n-th system port by this backend's enumeration
	// order.
	OpenPort(n int, clientName string) error
	// OpenVirtualPort creates a backend-visible endpoint. Backends
	// without virtual ports return ErrUnimplemented; callers should log
	// and continue, not fail.
	OpenVirtualPort(name string) error
	// ClosePort releases resources; idempotent.
	ClosePort() error

	SetClientName(name string) error
	SetPortName(name string) error

	GetPortCount() int
	GetPortName(n int) (string, error)

	// SendMessage blocks until msg has been handed to the backend (best
	// effort transmit of one complete message).
	SendMessage(msg gomidi.Message) error

	// PollForMidi returns the number of buffered input messages, which
	// may be 0.
	PollForMidi() int
	// GetMidiEvent pops one buffered input message. ok is false if none
	// were available.
	GetMidiEvent() (msg Message, ok bool)

	// SetInputCallback installs (or, with nil, removes) the callback
	// invoked on every arriving input message, in addition to it being
	// queued for GetMidiEvent/PollForMidi.
	SetInputCallback(cb InputCallback)

	// EngineInitialize/Activate/Deactivate/Disconnect are the four
	// lifecycle verbs Player.Launch/Finish drive (spec.md §4.9).
	EngineInitialize() error
	Activate() error
	Deactivate() error
	Disconnect() error
}

// backendError wraps a native failure with its backend name, matching
// spec.md §7's "captured as a string with backend context".
func backendError(backend, op string, err error) error {
	return fmt.Errorf("rtl: %s backend %s: %w: %w", backend, op, ErrBackend, err)
}

// inputQueue is a small bounded FIFO shared by every backend in this
// package, matching the "bounded SPSC/MPSC message queue" described in
// spec.md §5. It is safe for one writer (the backend's input goroutine)
// and one reader (Player's input thread or direct polling).
type inputQueue struct {
	ch chan Message
}

func newInputQueue(capacity int) *inputQueue {
	return &inputQueue{ch: make(chan Message, capacity)}
}

// push enqueues a message, dropping the oldest one if the queue is full
// rather than blocking the backend's delivery thread.
func (q *inputQueue) push(m Message) {
	select {
	case q.ch <- m:
	default:
		select {
		case <-q.ch:
		default:
		}
		select {
		case q.ch <- m:
		default:
		}
	}
}

func (q *inputQueue) pop() (Message, bool) {
	select {
	case m := <-q.ch:
		return m, true
	default:
		return Message{}, false
	}
}

func (q *inputQueue) len() int { return len(q.ch) }

// stamper timestamps a freshly-arrived raw message against the last
// one seen by this backend, producing the "seconds since last message"
// convention spec.md §3 describes.
type stamper struct {
	last time.Time
	have bool
}

func (s *stamper) stamp() float64 {
	now := time.Now()
	if !s.have {
		s.have = true
		s.last = now
		return 0
	}
	d := now.Sub(s.last).Seconds()
	s.last = now
	return d
}
