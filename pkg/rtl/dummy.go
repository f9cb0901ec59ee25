package rtl

import (
	gomidi "gitlab.com/gomidi/midi/v2"
)

// Dummy is the backend every unreachable platform backend is swapped in
// for at build time (spec.md §9's "conditional compilation of backends").
// There are never any ports to enumerate: GetPortCount is 0 and
// GetPortName always returns ErrInvalidParameter. OpenPort accepts only
// port 0 (any other index returns ErrInvalidParameter), OpenVirtualPort
// returns ErrUnimplemented, and SendMessage discards the message but
// returns ErrPortClosed while no port is open. The remaining calls
// succeed trivially.
type Dummy struct {
	open bool
	cb   InputCallback
	q    *inputQueue
}

// NewDummy returns a ready-to-use Dummy backend.
func NewDummy() *Dummy {
	return &Dummy{q: newInputQueue(64)}
}

func (d *Dummy) Name() string { return "dummy" }

func (d *Dummy) OpenPort(n int, clientName string) error {
	if n != 0 {
		return ErrInvalidParameter
	}
	d.open = true
	return nil
}

func (d *Dummy) OpenVirtualPort(name string) error { return ErrUnimplemented }

func (d *Dummy) ClosePort() error {
	d.open = false
	return nil
}

func (d *Dummy) SetClientName(name string) error { return nil }
func (d *Dummy) SetPortName(name string) error    { return nil }

func (d *Dummy) GetPortCount() int { return 0 }
func (d *Dummy) GetPortName(n int) (string, error) {
	return "", ErrInvalidParameter
}

func (d *Dummy) SendMessage(msg gomidi.Message) error {
	if !d.open {
		return ErrPortClosed
	}
	return nil
}

func (d *Dummy) PollForMidi() int { return d.q.len() }

func (d *Dummy) GetMidiEvent() (Message, bool) { return d.q.pop() }

func (d *Dummy) SetInputCallback(cb InputCallback) { d.cb = cb }

func (d *Dummy) EngineInitialize() error { return nil }
func (d *Dummy) Activate() error         { return nil }
func (d *Dummy) Deactivate() error       { return nil }
func (d *Dummy) Disconnect() error       { return nil }
